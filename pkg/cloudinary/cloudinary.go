package cloudinary

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// MaxImageSize is the largest accepted upload, the limit of the free Cloudinary plan
const MaxImageSize = 10 << 20

// AllowedImageTypes are the accepted image MIME types
var AllowedImageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

const defaultEndpoint = "https://api.cloudinary.com/v1_1"

// Config selects the Cloudinary account and unsigned upload preset
type Config struct {
	CloudName    string
	UploadPreset string
	// Endpoint overrides the API root, e.g. for tests
	Endpoint string
	Timeout  time.Duration
}

// Client uploads images with an unsigned preset
type Client struct {
	httpClient *resty.Client
	uploadURL  string
	preset     string
	log        *zap.Logger
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient creates a Cloudinary upload client
func NewClient(cfg Config, log *zap.Logger) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	httpClient := resty.New().SetTimeout(timeout)
	httpClient.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		log.Debug("Cloudinary response", zap.Int("status", resp.StatusCode()), zap.Duration("took", resp.Time()))
		return nil
	})

	return &Client{
		httpClient: httpClient,
		uploadURL:  fmt.Sprintf("%s/%s/image/upload", strings.TrimRight(endpoint, "/"), cfg.CloudName),
		preset:     cfg.UploadPreset,
		log:        log,
	}
}

// Upload validates data as an image and uploads it into folder. It returns the secure URL.
func (c *Client) Upload(ctx context.Context, data []byte, filename, folder string) (string, error) {
	if err := ValidateImage(data); err != nil {
		return "", err
	}
	if filename == "" {
		filename = "image" + mimetype.Detect(data).Extension()
	}

	var result uploadResponse
	var failure errorResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFileReader("file", path.Base(filename), bytes.NewReader(data)).
		SetFormData(map[string]string{
			"upload_preset": c.preset,
			"folder":        folder,
		}).
		SetResult(&result).
		SetError(&failure).
		Post(c.uploadURL)
	if err != nil {
		return "", apperror.Upload(err, "image upload failed")
	}
	if resp.IsError() {
		return "", apperror.Upload(fmt.Errorf("cloudinary %s: %s", resp.Status(), failure.Error.Message), "image upload failed")
	}
	if result.SecureURL == "" {
		return "", apperror.Upload(fmt.Errorf("cloudinary returned no secure_url"), "image upload failed")
	}

	c.log.Info("Image uploaded", zap.String("folder", folder), zap.String("publicId", result.PublicID))
	return result.SecureURL, nil
}

// DeleteByURL only logs the public id. Deleting needs a signed API call and the client holds
// nothing but an unsigned preset.
func (c *Client) DeleteByURL(_ context.Context, url string) error {
	c.log.Warn("Image deletion requires signed credentials, skipping",
		zap.String("publicId", PublicIDFromURL(url)),
	)
	return nil
}

// ValidateImage checks size and sniffed content type
func ValidateImage(data []byte) error {
	if len(data) == 0 {
		return apperror.Validation("image is empty")
	}
	if len(data) > MaxImageSize {
		return apperror.Validation("image must be smaller than 10MB")
	}
	mtype := mimetype.Detect(data)
	for _, allowed := range AllowedImageTypes {
		if mtype.Is(allowed) {
			return nil
		}
	}
	return apperror.Validation("unsupported image format, use JPG, PNG, WebP or GIF")
}

// PublicIDFromURL extracts the public id from a delivery URL: everything after the version
// segment that follows "upload", without the extension.
func PublicIDFromURL(url string) string {
	parts := strings.Split(url, "/")
	for i, part := range parts {
		if part != "upload" {
			continue
		}
		if i+2 > len(parts) {
			return ""
		}
		id := strings.Join(parts[i+2:], "/")
		return strings.TrimSuffix(id, path.Ext(id))
	}
	return ""
}
