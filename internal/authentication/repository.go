package authentication

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrRecordNotFound       = errors.New("refresh token record not found")
	ErrUnresponsiveDatabase = errors.New("error occurred during access to refresh token store")
)

// RecordRepository stores refresh-token records. Every delete reports
// ErrRecordNotFound when nothing was removed: of two callers racing to delete
// the same id, exactly one observes success.
type RecordRepository interface {
	Create(ctx context.Context, record *RefreshToken) error
	ReadByID(ctx context.Context, id string) (*RefreshToken, error)
	UpdateToken(ctx context.Context, id, token string) error
	Delete(ctx context.Context, id string) error
	DeleteOwned(ctx context.Context, id, userID string) error
}

type recordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) RecordRepository {
	return &recordRepository{db: db}
}

func (r *recordRepository) Create(ctx context.Context, record *RefreshToken) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(record).Error; err != nil {
		return fmt.Errorf("failed to create refresh token record: %w", err)
	}
	return nil
}

func (r *recordRepository) ReadByID(ctx context.Context, id string) (*RefreshToken, error) {
	var record RefreshToken
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&record).
		Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnresponsiveDatabase, err)
	}
	return &record, nil
}

func (r *recordRepository) UpdateToken(ctx context.Context, id, token string) error {
	res := r.db.WithContext(ctx).
		Model(&RefreshToken{}).
		Where("id = ?", id).
		Update("token", token)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrUnresponsiveDatabase, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *recordRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&RefreshToken{})
	return deleteResult(res)
}

func (r *recordRepository) DeleteOwned(ctx context.Context, id, userID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&RefreshToken{})
	return deleteResult(res)
}

func deleteResult(res *gorm.DB) error {
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrUnresponsiveDatabase, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
