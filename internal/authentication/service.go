package authentication

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mehmetcc/session-rotation-service/internal/apperror"
	"github.com/mehmetcc/session-rotation-service/internal/password"
	"github.com/mehmetcc/session-rotation-service/internal/user"
	"github.com/mehmetcc/session-rotation-service/internal/utils"
)

var (
	ErrEmailTaken           = apperror.New(apperror.Conflict, "user with this email already exists")
	ErrInvalidCredentials   = apperror.New(apperror.Unauthorized, "invalid credentials")
	ErrRefreshTokenNotFound = apperror.New(apperror.Unauthorized, "refresh token not found")
	ErrInvalidRefreshToken  = apperror.New(apperror.Unauthorized, "invalid refresh token")
	ErrRefreshTokenExpired  = apperror.New(apperror.Unauthorized, "refresh token expired")
	ErrUnknownUser          = apperror.New(apperror.Unauthorized, "user not found")
	ErrSessionNotFound      = apperror.New(apperror.NotFound, "session not found")
)

// verified against when the email is unknown, so both login failures cost one hash check
const timingDummyPassword = "timing-equalisation-dummy-password-0"

// TokenSettings is the immutable signing policy for both token classes.
type TokenSettings struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
}

type AuthenticationService interface {
	Register(ctx context.Context, email, password, name string) (*Tokens, error)
	Login(ctx context.Context, email, password string) (*Tokens, error)
	Logout(ctx context.Context, userID, tokenID string) error
	// RefreshTokens trusts that oldTokenID already passed ValidateRefreshToken.
	RefreshTokens(ctx context.Context, userID, oldTokenID string) (*Tokens, error)
	ValidateRefreshToken(ctx context.Context, rawToken string) (*Identity, error)
}

type authenticationService struct {
	userService user.UserService
	recordRepo  RecordRepository
	hasher      password.Hasher
	settings    TokenSettings
	logger      *zap.Logger
	now         func() time.Time

	// verified against when the email is unknown
	dummyDigest string
}

func NewAuthenticationService(
	userService user.UserService,
	recordRepo RecordRepository,
	hasher password.Hasher,
	settings TokenSettings,
	logger *zap.Logger,
) (AuthenticationService, error) {
	dummyDigest, err := hasher.Hash(timingDummyPassword)
	if err != nil {
		return nil, fmt.Errorf("prepare timing digest: %w", err)
	}
	return &authenticationService{
		userService: userService,
		recordRepo:  recordRepo,
		hasher:      hasher,
		settings:    settings,
		logger:      logger,
		now:         time.Now,
		dummyDigest: dummyDigest,
	}, nil
}

func (a *authenticationService) Register(ctx context.Context, email, pw, name string) (*Tokens, error) {
	if err := user.CheckPassword(pw); err != nil {
		return nil, err
	}

	_, err := a.userService.ReadUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrEmailTaken
	case !errors.Is(err, user.ErrUserNotFound):
		return nil, err
	}

	digest, err := a.hasher.Hash(pw)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account, err := a.userService.CreateUser(ctx, email, digest, name)
	if err != nil {
		// lost a race against a concurrent registration of the same email
		if errors.Is(err, user.ErrEmailAlreadyExists) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return a.issueTokens(ctx, account)
}

func (a *authenticationService) Login(ctx context.Context, email, pw string) (*Tokens, error) {
	account, err := a.userService.ReadUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			_, _ = a.hasher.Verify(a.dummyDigest, pw)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := a.hasher.Verify(account.PasswordHash, pw)
	if err != nil {
		a.logger.Error("stored password digest unreadable", zap.String("userID", account.ID), zap.Error(err))
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return a.issueTokens(ctx, account)
}

// Logout revokes the refresh record only when it belongs to userID.
func (a *authenticationService) Logout(ctx context.Context, userID, tokenID string) error {
	if tokenID == "" {
		return ErrSessionNotFound
	}
	err := a.recordRepo.DeleteOwned(ctx, tokenID, userID)
	if errors.Is(err, ErrRecordNotFound) {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}
	a.logger.Info("refresh token revoked", zap.String("userID", userID), zap.String("tokenID", tokenID))
	return nil
}

func (a *authenticationService) RefreshTokens(ctx context.Context, userID, oldTokenID string) (*Tokens, error) {
	account, err := a.userService.ReadUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, err
	}

	// consuming the old record is what makes the token single-use; a concurrent
	// refresh that already deleted it leaves nothing for us to delete
	if err := a.recordRepo.Delete(ctx, oldTokenID); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			a.logger.Warn("refresh token already consumed", zap.String("userID", userID), zap.String("tokenID", oldTokenID))
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	return a.issueTokens(ctx, account)
}

// ValidateRefreshToken runs the gates a presented refresh token must pass, in order.
func (a *authenticationService) ValidateRefreshToken(ctx context.Context, rawToken string) (*Identity, error) {
	if rawToken == "" {
		return nil, ErrRefreshTokenNotFound
	}

	claims, err := utils.ParseRefreshToken(rawToken, a.settings.RefreshSecret)
	if err != nil {
		return nil, apperror.Wrap(apperror.Unauthorized, ErrInvalidRefreshToken.Message, err)
	}

	record, err := a.recordRepo.ReadByID(ctx, claims.TokenID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	if subtle.ConstantTimeCompare([]byte(record.Token), []byte(rawToken)) != 1 || record.UserID != claims.Subject {
		return nil, ErrInvalidRefreshToken
	}

	if record.Expired(a.now()) {
		if err := a.recordRepo.Delete(ctx, record.ID); err != nil && !errors.Is(err, ErrRecordNotFound) {
			a.logger.Error("failed to clean up expired refresh token", zap.String("tokenID", record.ID), zap.Error(err))
		}
		return nil, ErrRefreshTokenExpired
	}

	account, err := a.userService.ReadUserByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, err
	}

	return &Identity{
		ID:      account.ID,
		Email:   account.Email,
		Role:    string(account.Role),
		TokenID: record.ID,
	}, nil
}

// issueTokens creates the refresh record first so its id can be embedded in
// both tokens, then signs the pair concurrently. The refresh token is only
// returned after the record holds it.
func (a *authenticationService) issueTokens(ctx context.Context, account *user.Account) (*Tokens, error) {
	record := &RefreshToken{
		UserID:    account.ID,
		Token:     placeholderToken,
		ExpiresAt: a.now().Add(a.settings.RefreshTTL),
	}
	if err := a.recordRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	var tokens Tokens
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		access, err := utils.IssueAccessToken(
			account.ID,
			account.Email,
			string(account.Role),
			record.ID,
			a.settings.AccessSecret,
			a.settings.AccessTTL,
		)
		if err != nil {
			return fmt.Errorf("sign access token: %w", err)
		}
		tokens.AccessToken = access
		return nil
	})
	g.Go(func() error {
		refresh, err := utils.IssueRefreshToken(
			account.ID,
			account.Email,
			record.ID,
			a.settings.RefreshSecret,
			a.settings.RefreshTTL,
		)
		if err != nil {
			return fmt.Errorf("sign refresh token: %w", err)
		}
		if err := a.recordRepo.UpdateToken(gctx, record.ID, refresh); err != nil {
			return err
		}
		tokens.RefreshToken = refresh
		return nil
	})

	if err := g.Wait(); err != nil {
		if delErr := a.recordRepo.Delete(context.WithoutCancel(ctx), record.ID); delErr != nil {
			a.logger.Warn("failed to drop placeholder refresh record", zap.String("tokenID", record.ID), zap.Error(delErr))
		}
		return nil, err
	}
	return &tokens, nil
}
