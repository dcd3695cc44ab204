package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/credauth/internal/common"
	"github.com/dmitrijs2005/credauth/internal/dbx"
	"github.com/dmitrijs2005/credauth/internal/logging"
	"github.com/dmitrijs2005/credauth/internal/server/models"
	"github.com/dmitrijs2005/credauth/internal/server/password"
	"github.com/dmitrijs2005/credauth/internal/server/repositories/repomanager"
)

// TokenIssuer mints a bearer token for an authenticated credential.
type TokenIssuer interface {
	Issue(role models.Role, username string) (string, error)
}

// LoginResult is what a successful login hands back to the caller.
type LoginResult struct {
	Role      models.Role
	Token     string
	FirstName string
	LastName  string
}

// IncorrectPasswordError reports a failed password check together with the
// updated counter. It matches common.ErrIncorrectPassword via errors.Is.
type IncorrectPasswordError struct {
	Attempts int
	Locked   bool
}

func (e *IncorrectPasswordError) Error() string {
	return fmt.Sprintf("%d times entering an incorrect password", e.Attempts)
}

func (e *IncorrectPasswordError) Unwrap() error { return common.ErrIncorrectPassword }

// RegisterRequest carries the fields of a new credential.
type RegisterRequest struct {
	Role      string
	Username  string
	Password  string
	Contact   string
	FirstName string
	LastName  string
}

// AuthService implements login and registration on top of the resolver,
// the hasher and the lockout policy.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	resolver    *IdentityResolver
	lockout     *LockoutPolicy
	issuer      TokenIssuer
	recorder    Recorder
	logger      logging.Logger
}

// NewAuthService wires an AuthService. A nil recorder discards outcomes.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, issuer TokenIssuer, rec Recorder, l logging.Logger) *AuthService {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &AuthService{
		db:          db,
		repomanager: m,
		resolver:    NewIdentityResolver(db, m, l),
		lockout:     NewLockoutPolicy(db, m),
		issuer:      issuer,
		recorder:    rec,
		logger:      l.With("module", "auth"),
	}
}

// Login authenticates username/password. Errors, in priority order:
// ErrUsernameMissing, ErrPasswordMissing, ErrUsernameNotFound,
// ErrAccountLocked, *IncorrectPasswordError, ErrorInternal.
func (s *AuthService) Login(ctx context.Context, username, pass string) (res *LoginResult, err error) {
	defer func() { s.recorder.Login(OutcomeOf(err)) }()

	if username == "" {
		return nil, common.ErrUsernameMissing
	}
	if pass == "" {
		return nil, common.ErrPasswordMissing
	}

	cred, err := s.resolver.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUsernameNotFound
		}
		s.logger.Error(ctx, "identity lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	if cred.Locked {
		return nil, common.ErrAccountLocked
	}

	if !password.Verify(pass, cred.Salt, cred.PasswordHash) {
		return nil, s.failedAttempt(ctx, cred)
	}

	if err := s.lockout.RecordSuccess(ctx, cred); err != nil {
		if errors.Is(err, common.ErrAccountLocked) {
			return nil, common.ErrAccountLocked
		}
		s.logger.Error(ctx, "resetting login attempts failed", "role", cred.Role.String(), "error", err)
		return nil, common.ErrorInternal
	}

	token, err := s.issuer.Issue(cred.Role, cred.Username)
	if err != nil {
		s.logger.Error(ctx, "token issue failed", "role", cred.Role.String(), "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "login succeeded", "role", cred.Role.String(), "username", cred.Username)

	return &LoginResult{
		Role:      cred.Role,
		Token:     token,
		FirstName: cred.FirstName,
		LastName:  cred.LastName,
	}, nil
}

func (s *AuthService) failedAttempt(ctx context.Context, cred *models.Credential) error {
	attempts, locked, err := s.lockout.RecordFailure(ctx, cred)
	if err != nil {
		if errors.Is(err, common.ErrAccountLocked) {
			return common.ErrAccountLocked
		}
		s.logger.Error(ctx, "recording failed attempt failed", "role", cred.Role.String(), "error", err)
		return common.ErrorInternal
	}

	if locked {
		s.recorder.Lockout(cred.Role)
		s.logger.Warn(ctx, "account locked", "role", cred.Role.String(), "username", cred.Username, "attempts", attempts)
	}

	return &IncorrectPasswordError{Attempts: attempts, Locked: locked}
}

// Register validates req and stores a new credential. Checks run in order:
// role, username, password, uniqueness across all partitions.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (err error) {
	defer func() { s.recorder.Registration(OutcomeOf(err)) }()

	role, ok := models.ParseRole(req.Role)
	if !ok {
		return common.ErrInvalidRole
	}
	if req.Username == "" {
		return common.ErrUsernameMissing
	}
	if req.Password == "" {
		return common.ErrPasswordMissing
	}

	taken, err := s.resolver.exists(ctx, req.Username)
	if err != nil {
		s.logger.Error(ctx, "identity lookup failed", "error", err)
		return common.ErrorInternal
	}
	if taken {
		return common.ErrUsernameTaken
	}

	salt, hash, err := password.Derive(req.Password)
	if err != nil {
		s.logger.Error(ctx, "deriving password hash failed", "error", err)
		return common.ErrorInternal
	}

	cred := &models.Credential{
		Role:         role,
		Username:     req.Username,
		PasswordHash: hash,
		Salt:         salt,
		Contact:      req.Contact,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Credentials(tx).Create(ctx, cred)
	})
	if err != nil {
		if errors.Is(err, common.ErrUsernameTaken) {
			return common.ErrUsernameTaken
		}
		s.logger.Error(ctx, "creating credential failed", "role", role.String(), "error", err)
		return common.ErrorInternal
	}

	s.logger.Info(ctx, "registered", "role", role.String(), "username", req.Username)

	return nil
}
