package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"blog-api/internal/errs"
	"blog-api/internal/model"
	"blog-api/internal/repository"
	"blog-api/pkg/logger"

	"go.uber.org/zap"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// sortColumns maps the public sort keys onto blog_posts columns.
var sortColumns = map[string]string{
	"id":        "id",
	"title":     "title",
	"author":    "author",
	"age":       "age",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

func IsSortField(name string) bool {
	_, ok := sortColumns[name]
	return ok
}

// ListQuery is a listing request as received. Zero Page, Limit, SortBy and
// SortOrder take their defaults.
type ListQuery struct {
	Page      int
	Limit     int
	Author    string
	Title     string
	Search    string
	MinAge    *int
	MaxAge    *int
	SortBy    string
	SortOrder string
}

type CreatePostInput struct {
	Title       string
	Author      string
	Description string
	Age         *int
}

// UpdatePostInput changes only the non-nil fields.
type UpdatePostInput struct {
	Title       *string
	Author      *string
	Description *string
	Age         *int
}

func (in UpdatePostInput) fields() map[string]interface{} {
	f := make(map[string]interface{}, 4)
	if in.Title != nil {
		f["title"] = *in.Title
	}
	if in.Author != nil {
		f["author"] = *in.Author
	}
	if in.Description != nil {
		f["description"] = *in.Description
	}
	if in.Age != nil {
		f["age"] = *in.Age
	}
	return f
}

type BlogService interface {
	Get(ctx context.Context, id uint) (*model.BlogPost, error)
	List(ctx context.Context, q ListQuery) (*model.Page[model.BlogPost], error)
	ListAll(ctx context.Context) ([]model.BlogPost, error)
	Create(ctx context.Context, in CreatePostInput) (*model.BlogPost, error)
	Update(ctx context.Context, id uint, in UpdatePostInput) (*model.BlogPost, error)
	SoftDelete(ctx context.Context, id uint) (bool, error)
	Restore(ctx context.Context, id uint) (bool, error)
	Reorganize(ctx context.Context) (int, error)
	SyncSequence(ctx context.Context) error
}

type BlogServiceImpl struct {
	blogRepo repository.BlogRepository
	logger   logger.Logger

	// serializes reorganizations within this process
	reorgMu sync.Mutex
}

func NewBlogService(blogRepo repository.BlogRepository, log logger.Logger) *BlogServiceImpl {
	return &BlogServiceImpl{
		blogRepo: blogRepo,
		logger:   log.With(zap.String("module", "blog_service")),
	}
}

func (s *BlogServiceImpl) Get(ctx context.Context, id uint) (*model.BlogPost, error) {
	return s.blogRepo.FindActiveByID(ctx, id)
}

func normalize(q ListQuery) (repository.BlogFilter, error) {
	f := repository.BlogFilter{
		Page:   q.Page,
		Limit:  q.Limit,
		Author: strings.TrimSpace(q.Author),
		Title:  strings.TrimSpace(q.Title),
		Search: strings.TrimSpace(q.Search),
		MinAge: q.MinAge,
		MaxAge: q.MaxAge,
	}
	if f.Page == 0 {
		f.Page = DefaultPage
	}
	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
	if f.Page < 1 {
		return f, fmt.Errorf("%w: page must be at least 1", errs.ErrValidation)
	}
	if f.Limit < 1 || f.Limit > MaxLimit {
		return f, fmt.Errorf("%w: limit must be between 1 and %d", errs.ErrValidation, MaxLimit)
	}
	if f.MinAge != nil && f.MaxAge != nil && *f.MinAge > *f.MaxAge {
		return f, fmt.Errorf("%w: minAge cannot exceed maxAge", errs.ErrValidation)
	}

	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = "id"
	}
	col, ok := sortColumns[sortBy]
	if !ok {
		return f, fmt.Errorf("%w: cannot sort by %q", errs.ErrValidation, sortBy)
	}
	f.SortColumn = col

	switch strings.ToUpper(q.SortOrder) {
	case "", "ASC":
	case "DESC":
		f.SortDesc = true
	default:
		return f, fmt.Errorf("%w: sortOrder must be ASC or DESC", errs.ErrValidation)
	}
	return f, nil
}

func (s *BlogServiceImpl) List(ctx context.Context, q ListQuery) (*model.Page[model.BlogPost], error) {
	f, err := normalize(q)
	if err != nil {
		return nil, err
	}

	posts, total, err := s.blogRepo.List(ctx, f)
	if err != nil {
		s.logger.Error("list posts failed", zap.Error(err))
		return nil, err
	}

	return &model.Page[model.BlogPost]{
		TotalItems:  total,
		TotalPages:  int((total + int64(f.Limit) - 1) / int64(f.Limit)),
		CurrentPage: f.Page,
		Items:       posts,
	}, nil
}

func (s *BlogServiceImpl) ListAll(ctx context.Context) ([]model.BlogPost, error) {
	posts, err := s.blogRepo.ListAll(ctx)
	if err != nil {
		s.logger.Error("list all posts failed", zap.Error(err))
		return nil, err
	}
	return posts, nil
}

func (s *BlogServiceImpl) Create(ctx context.Context, in CreatePostInput) (*model.BlogPost, error) {
	post := &model.BlogPost{
		Title:       in.Title,
		Author:      in.Author,
		Description: in.Description,
		Age:         in.Age,
	}
	if err := s.blogRepo.Create(ctx, post); err != nil {
		s.logger.Error("create post failed", zap.String("title", in.Title), zap.Error(err))
		return nil, err
	}
	s.logger.Info("post created", zap.Uint("post_id", post.ID))
	return post, nil
}

func (s *BlogServiceImpl) Update(ctx context.Context, id uint, in UpdatePostInput) (*model.BlogPost, error) {
	post, err := s.blogRepo.Update(ctx, id, in.fields())
	if err != nil {
		s.logger.Warn("update post failed", zap.Uint("post_id", id), zap.Error(err))
		return nil, err
	}
	return post, nil
}

func (s *BlogServiceImpl) SoftDelete(ctx context.Context, id uint) (bool, error) {
	ok, err := s.blogRepo.SetDeleted(ctx, id, true)
	if err != nil {
		s.logger.Error("soft delete post failed", zap.Uint("post_id", id), zap.Error(err))
		return false, err
	}
	return ok, nil
}

func (s *BlogServiceImpl) Restore(ctx context.Context, id uint) (bool, error) {
	ok, err := s.blogRepo.SetDeleted(ctx, id, false)
	if err != nil {
		s.logger.Error("restore post failed", zap.Uint("post_id", id), zap.Error(err))
		return false, err
	}
	return ok, nil
}

// Reorganize renumbers active posts 1..N by creation time and purges
// soft-deleted ones. A failure leaves the table untouched and is reported as
// ErrTransaction. Once the rewrite has committed the call succeeds; a counter
// left behind is only logged.
func (s *BlogServiceImpl) Reorganize(ctx context.Context) (int, error) {
	s.reorgMu.Lock()
	defer s.reorgMu.Unlock()

	n, err := s.blogRepo.Reorganize(ctx)
	if errors.Is(err, repository.ErrSequenceNotReset) {
		s.logger.Warn("post ids reorganized but id sequence not reset",
			zap.Int("count", n), zap.Error(err))
		return n, nil
	}
	if err != nil {
		s.logger.Error("reorganize ids failed", zap.Error(err))
		return 0, fmt.Errorf("%w: %w", errs.ErrTransaction, err)
	}
	s.logger.Info("post ids reorganized", zap.Int("count", n))
	return n, nil
}

func (s *BlogServiceImpl) SyncSequence(ctx context.Context) error {
	if err := s.blogRepo.SyncSequence(ctx); err != nil {
		s.logger.Error("sync post id sequence failed", zap.Error(err))
		return err
	}
	return nil
}
