package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists   = errors.New("email already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrUnresponsiveDatabase = errors.New("error occurred during access to users table")
)

const uniqueViolation = "23505"

type UserRepository interface {
	Create(ctx context.Context, account *Account) error
	ReadByEmail(ctx context.Context, email string) (*Account, error)
	ReadByID(ctx context.Context, id string) (*Account, error)
	Delete(ctx context.Context, id string) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, account *Account) error {
	err := r.db.WithContext(ctx).Create(account).Error
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailAlreadyExists
		}
		return fmt.Errorf("%w: %v", ErrUnresponsiveDatabase, err)
	}
	return nil
}

func (r *userRepository) ReadByEmail(ctx context.Context, email string) (*Account, error) {
	var account Account
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&account).
		Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnresponsiveDatabase, err)
	}
	return &account, nil
}

func (r *userRepository) ReadByID(ctx context.Context, id string) (*Account, error) {
	var account Account
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&account).
		Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnresponsiveDatabase, err)
	}
	return &account, nil
}

// Delete removes the account. Refresh records referencing it go with it
// through the foreign key cascade.
func (r *userRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&Account{})

	if result.Error != nil {
		return fmt.Errorf("%w: %v", ErrUnresponsiveDatabase, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// email is the only unique column besides the primary key
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
