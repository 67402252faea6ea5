package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ignis-runtime/ignis-bootstrap/internal/models"
)

type postgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository connects to postgres and migrates the
// invocation table.
func NewPostgresRepository(dsn string) (InvocationRepository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&models.Invocation{}); err != nil {
		return nil, err
	}
	return &postgresRepository{db: db}, nil
}

func (r *postgresRepository) Create(ctx context.Context, inv *models.Invocation) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Invocation, error) {
	var inv models.Invocation
	err := r.db.WithContext(ctx).First(&inv, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *postgresRepository) List(ctx context.Context, limit int) ([]*models.Invocation, error) {
	var invs []*models.Invocation
	err := r.db.WithContext(ctx).Order("received_at desc").Limit(limit).Find(&invs).Error
	if err != nil {
		return nil, err
	}
	return invs, nil
}

func (r *postgresRepository) MarkSucceeded(ctx context.Context, id uuid.UUID, resultSize int, durationMs int64) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&models.Invocation{}).Where("id = ?", id).Updates(map[string]any{
		"status":       models.StatusSucceeded,
		"result_size":  resultSize,
		"completed_at": &now,
		"duration_ms":  durationMs,
	}).Error
}

func (r *postgresRepository) MarkFailed(ctx context.Context, id uuid.UUID, errorType, errorMessage string, durationMs int64) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&models.Invocation{}).Where("id = ?", id).Updates(map[string]any{
		"status":        models.StatusFailed,
		"error_type":    errorType,
		"error_message": errorMessage,
		"completed_at":  &now,
		"duration_ms":   durationMs,
	}).Error
}
