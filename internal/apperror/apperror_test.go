package apperror

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindStatusCode(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected int
	}{
		{KindNotFound, http.StatusNotFound},
		{KindUnauthenticated, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindValidation, http.StatusBadRequest},
		{KindUploadFailure, http.StatusBadGateway},
		{KindStoreFailure, http.StatusServiceUnavailable},
		{Kind("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.kind.StatusCode())
		})
	}
}

func TestErrorsIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("toggle like: %w", NotFound("post"))

	assert.True(t, stderrors.Is(err, ErrNotFound))
	assert.False(t, stderrors.Is(err, ErrStoreFailure))
	assert.Equal(t, http.StatusNotFound, StatusOf(err))
	assert.Equal(t, "post not found", MessageOf(err))
}

func TestStoreWrapsOnlyForeignErrors(t *testing.T) {
	assert.Nil(t, Store(nil, "get post"))

	wrapped := Store(stderrors.New("connection reset"), "get post")
	assert.True(t, stderrors.Is(wrapped, ErrStoreFailure))
	assert.Equal(t, "storage is temporarily unavailable", MessageOf(wrapped))

	notFound := NotFound("post")
	assert.Same(t, notFound, Store(notFound, "get post"))
}

func TestUnknownErrorIsInternal(t *testing.T) {
	err := stderrors.New("boom")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
	assert.Equal(t, "internal error", MessageOf(err))
}
