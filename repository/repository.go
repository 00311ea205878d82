package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"climatefarm/models"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Repository is the persistence used by the HTTP and MQTT layers.
type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)

	SaveReading(ctx context.Context, reading *models.SensorReading) error
	ListReadings(ctx context.Context, filter ReadingFilter) ([]models.SensorReading, error)

	SaveTrainingRun(ctx context.Context, run *models.TrainingRun) error
	ListTrainingRuns(ctx context.Context, limit int) ([]models.TrainingRun, error)
}

// ReadingFilter narrows ListReadings. Zero values mean no restriction.
type ReadingFilter struct {
	DeviceID     string
	AbnormalOnly bool
	Limit        int
}

// GormRepository implements Repository on postgres through gorm.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user %s", ErrDuplicate, user.Username)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *GormRepository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (r *GormRepository) SaveReading(ctx context.Context, reading *models.SensorReading) error {
	if err := r.db.WithContext(ctx).Create(reading).Error; err != nil {
		return fmt.Errorf("failed to save reading: %w", err)
	}
	return nil
}

// ListReadings returns readings newest first.
func (r *GormRepository) ListReadings(ctx context.Context, filter ReadingFilter) ([]models.SensorReading, error) {
	query := r.db.WithContext(ctx).Order("timestamp desc")
	if filter.DeviceID != "" {
		query = query.Where("device_id = ?", filter.DeviceID)
	}
	if filter.AbnormalOnly {
		query = query.Where("is_abnormal = ?", true)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var records []models.SensorReading
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}
	return records, nil
}

func (r *GormRepository) SaveTrainingRun(ctx context.Context, run *models.TrainingRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to save training run: %w", err)
	}
	return nil
}

// ListTrainingRuns returns runs newest first.
func (r *GormRepository) ListTrainingRuns(ctx context.Context, limit int) ([]models.TrainingRun, error) {
	query := r.db.WithContext(ctx).Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var runs []models.TrainingRun
	if err := query.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list training runs: %w", err)
	}
	return runs, nil
}

// isUniqueViolation matches postgres error 23505 without importing pgconn.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") || strings.Contains(msg, "duplicate key")
}
