package repositories

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/google/uuid"
)

// MemoryPostRepository keeps posts in process memory. A single mutex makes every toggle a
// serialized read-modify-write.
type MemoryPostRepository struct {
	mu    sync.Mutex
	posts map[string]*models.Post
}

func NewMemoryPostRepository() *MemoryPostRepository {
	return &MemoryPostRepository{posts: map[string]*models.Post{}}
}

func (r *MemoryPostRepository) CreatePost(_ context.Context, post *models.Post) error {
	prepareNewPost(post)
	post.ID = uuid.NewString()
	post.CreatedAt = time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[post.ID] = post.Clone()
	return nil
}

func (r *MemoryPostRepository) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, apperror.NotFound("post")
	}
	return post.Clone(), nil
}

func (r *MemoryPostRepository) GetPostsByAuthor(_ context.Context, authorUID string, limit int) ([]models.Post, error) {
	return r.filter(limit, func(p *models.Post) bool { return p.AuthorUID == authorUID }), nil
}

func (r *MemoryPostRepository) GetPostsByAuthors(_ context.Context, authorUIDs []string, limit int) ([]models.Post, error) {
	return r.filter(limit, func(p *models.Post) bool { return slices.Contains(authorUIDs, p.AuthorUID) }), nil
}

func (r *MemoryPostRepository) GetAllPosts(_ context.Context, limit int) ([]models.Post, error) {
	return r.filter(limit, func(*models.Post) bool { return true }), nil
}

func (r *MemoryPostRepository) filter(limit int, keep func(*models.Post) bool) []models.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	posts := []models.Post{}
	for _, p := range r.posts {
		if keep(p) {
			posts = append(posts, *p.Clone())
		}
	}
	return newestFirst(posts, limit)
}

func (r *MemoryPostRepository) ApplyModeration(_ context.Context, id, title, content string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return apperror.NotFound("post")
	}
	post.Title = title
	post.Content = content
	post.ModeratedAt = &at
	return nil
}

func (r *MemoryPostRepository) DeletePost(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return apperror.NotFound("post")
	}
	delete(r.posts, id)
	return nil
}

func (r *MemoryPostRepository) ToggleReaction(_ context.Context, id, userID string, kind models.ReactionKind) (*models.Post, *models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, nil, apperror.NotFound("post")
	}
	before := post.Clone()
	post.Apply(userID, post.PlanToggle(userID, kind))
	return before, post.Clone(), nil
}
