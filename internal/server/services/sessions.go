package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/safecircle/internal/common"
	"github.com/dmitrijs2005/safecircle/internal/server/auth"
	"github.com/dmitrijs2005/safecircle/internal/server/config"
	"github.com/dmitrijs2005/safecircle/internal/server/models"
	"github.com/dmitrijs2005/safecircle/internal/server/repositories/repomanager"
	"github.com/segmentio/ksuid"
	"golang.org/x/crypto/bcrypt"
)

// SessionService handles registration and the single active session of an
// account:
//   - Register: create accounts
//   - Login: verify credentials and open a session, refusing to replace a
//     session held by another device
//   - Logout: close the session a token belongs to
//   - Authenticate: resolve a token into the caller's identity
type SessionService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	deviceBinding               bool
	hashCost                    int
	now                         func() time.Time
}

// NewSessionService constructs a SessionService using repositories and server config.
func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *SessionService {
	return &SessionService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		deviceBinding:               cfg.DeviceBinding,
		hashCost:                    bcrypt.DefaultCost,
		now:                         utcNow,
	}
}

// Register creates an account. Duplicate names yield common.ErrAlreadyExists.
func (s *SessionService) Register(ctx context.Context, userName, password string) (*models.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: password too long", common.ErrInvalidArgument)
		}
		return nil, err
	}

	account := &models.Account{UserName: userName, PasswordHash: hash, CreatedAt: s.now()}
	a, err := s.repomanager.Accounts(s.db).Create(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("error creating account: %w", err)
	}
	return a, nil
}

// Login verifies credentials and opens a new session on deviceID.
// Unknown accounts and wrong passwords are indistinguishable
// (common.ErrInvalidCredentials). When another device holds the session,
// common.ErrSessionConflict is returned and that session stays intact.
func (s *SessionService) Login(ctx context.Context, userName, password, deviceID string) (string, error) {
	repo := s.repomanager.Accounts(s.db)

	account, err := repo.GetByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrInvalidCredentials
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(password)); err != nil {
		return "", common.ErrInvalidCredentials
	}

	sessionID := ksuid.New().String()
	ok, err := repo.OpenSession(ctx, account.ID, sessionID, deviceID, s.deviceBinding, s.now())
	if err != nil {
		return "", err
	}
	if !ok {
		return "", common.ErrSessionConflict
	}

	token, err := auth.GenerateToken(account.ID, sessionID, deviceID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// Logout closes the session of token if it is still the active one.
// An expired token still closes its session; malformed or replaced tokens
// are ignored.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	claims, err := auth.ParseTokenIgnoringExpiry(token, s.jwtSecret)
	if err != nil {
		return nil
	}
	if _, err := s.repomanager.Accounts(s.db).CloseSession(ctx, claims.UserID, claims.SessionID()); err != nil {
		return err
	}
	return nil
}

// Authenticate resolves token presented from deviceID into an identity and
// marks the account as seen. It fails with common.ErrorUnauthorized when
// the token's session is no longer the account's active session.
func (s *SessionService) Authenticate(ctx context.Context, token, deviceID string) (*models.Identity, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	if s.deviceBinding && deviceID == "" {
		return nil, common.ErrorUnauthorized
	}

	account, err := s.repomanager.Accounts(s.db).Touch(ctx, claims.UserID, claims.SessionID(), deviceID, s.deviceBinding, s.now())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}

	return &models.Identity{
		AccountID: account.ID,
		UserName:  account.UserName,
		SessionID: account.SessionID,
		DeviceID:  account.DeviceID,
	}, nil
}
