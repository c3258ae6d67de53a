// internal/services/audit_service.go
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/artmarket-backend/internal/models"
	"github.com/javajoker/artmarket-backend/internal/utils"
)

type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

func (s *AuditService) Record(ctx context.Context, entry *models.AuditLog) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// ListForUser pages through the mutating requests a user has made, newest
// first.
func (s *AuditService) ListForUser(ctx context.Context, userID uuid.UUID, params utils.PaginationParams) (*utils.PaginationResult, error) {
	params = utils.NormalizePagination(params)
	query := s.db.WithContext(ctx).Model(&models.AuditLog{}).Where("user_id = ?", userID)

	if params.Search != "" {
		query = query.Where("resource_type = ?", params.Search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count audit logs: %w", err)
	}

	var logs []models.AuditLog
	if err := utils.ApplyPagination(query.Order("created_at DESC"), params).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}

	result := utils.CreatePaginationResult(logs, total, params)
	return &result, nil
}
