package user

import (
	"context"

	"go.uber.org/zap"
)

// UserService is the user store surface used by the authentication flows and
// the admin endpoints. Password digests arrive already computed.
type UserService interface {
	CreateUser(ctx context.Context, email, passwordHash, name string) (*Account, error)
	ReadUserByEmail(ctx context.Context, email string) (*Account, error)
	ReadUserByID(ctx context.Context, id string) (*Account, error)
	DeleteUser(ctx context.Context, id string) error
}

type userService struct {
	repo   UserRepository
	logger *zap.Logger
}

func NewUserService(repo UserRepository, logger *zap.Logger) UserService {
	return &userService{
		repo:   repo,
		logger: logger,
	}
}

func (s *userService) CreateUser(ctx context.Context, email, passwordHash, name string) (*Account, error) {
	account := NewAccount(email, passwordHash, name)
	if err := s.repo.Create(ctx, account); err != nil {
		s.logger.Warn("failed to create user", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	s.logger.Info("user created", zap.String("id", account.ID))
	return account, nil
}

func (s *userService) ReadUserByEmail(ctx context.Context, email string) (*Account, error) {
	account, err := s.repo.ReadByEmail(ctx, email)
	if err != nil {
		s.logger.Debug("failed to get user by email", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	return account, nil
}

func (s *userService) ReadUserByID(ctx context.Context, id string) (*Account, error) {
	account, err := s.repo.ReadByID(ctx, id)
	if err != nil {
		s.logger.Debug("failed to get user by ID", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return account, nil
}

func (s *userService) DeleteUser(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Warn("failed to delete user", zap.String("id", id), zap.Error(err))
		return err
	}
	s.logger.Info("user deleted", zap.String("id", id))
	return nil
}
