// internal/services/post_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/artmarket-backend/internal/models"
	"github.com/javajoker/artmarket-backend/internal/storage"
	"github.com/javajoker/artmarket-backend/internal/utils"
)

type PostService struct {
	db      *gorm.DB
	storage *storage.Storage
}

type CreatePostRequest struct {
	Title   string `form:"title" json:"title" validate:"required,max=255"`
	Content string `form:"content" json:"content" validate:"required,max=10000"`
}

var postSortFields = map[string]string{
	"created_at": "created_at",
	"title":      "title",
}

func NewPostService(db *gorm.DB, store *storage.Storage) *PostService {
	return &PostService{
		db:      db,
		storage: store,
	}
}

// CreatePost stores a forum post. The image is optional.
func (s *PostService) CreatePost(ctx context.Context, authorID uuid.UUID, req *CreatePostRequest, image *ImageUpload) (*models.Post, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var author models.User
	if err := s.db.WithContext(ctx).Select("id", "username", "created_at").
		First(&author, "id = ?", authorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("user")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	post := &models.Post{
		AuthorID: authorID,
		Title:    req.Title,
		Content:  req.Content,
	}

	if image != nil {
		upload, err := s.storage.UploadImage(ctx, image.Reader, image.Size, image.Filename)
		if err != nil {
			return nil, imageError(err, s.storage.MaxImageSize())
		}
		post.ImagePath = upload.Key
	}

	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		if post.ImagePath != "" {
			if delErr := s.storage.Delete(ctx, post.ImagePath); delErr != nil {
				logrus.WithError(delErr).Warn("Failed to delete orphaned post image")
			}
		}
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"post_id":   post.ID,
		"author_id": authorID,
	}).Info("Post created")

	post.Author = &author
	post.ImageURL = s.storage.URL(post.ImagePath)
	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Preload("Author", selectPublicUser).
		First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("post")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	post.ImageURL = s.storage.URL(post.ImagePath)
	return &post, nil
}

func (s *PostService) ListPosts(ctx context.Context, params utils.PaginationParams) (*utils.PaginationResult, error) {
	params = utils.NormalizePagination(params)
	query := s.db.WithContext(ctx).Model(&models.Post{})

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	query = utils.ApplySort(query, params, postSortFields)
	query = utils.ApplyPagination(query, params)

	var posts []models.Post
	if err := query.Preload("Author", selectPublicUser).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	for i := range posts {
		posts[i].ImageURL = s.storage.URL(posts[i].ImagePath)
	}

	result := utils.CreatePaginationResult(posts, total, params)
	return &result, nil
}

// DeletePost is allowed for the author only.
func (s *PostService) DeletePost(ctx context.Context, id uuid.UUID, callerID uuid.UUID) error {
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError("post")
		}
		return fmt.Errorf("database error: %w", err)
	}

	if post.AuthorID != callerID {
		return forbiddenError("only the author can delete this post")
	}

	if err := s.db.WithContext(ctx).Delete(&post).Error; err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	if err := s.storage.Delete(ctx, post.ImagePath); err != nil {
		logrus.WithError(err).WithField("key", post.ImagePath).Warn("Failed to delete post image")
	}

	return nil
}
