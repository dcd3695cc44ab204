package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/credauth/internal/common"
	"github.com/dmitrijs2005/credauth/internal/dbx"
	"github.com/dmitrijs2005/credauth/internal/logging"
	"github.com/dmitrijs2005/credauth/internal/server/models"
	"github.com/dmitrijs2005/credauth/internal/server/password"
	"github.com/dmitrijs2005/credauth/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/credauth/internal/server/repositories/locations"
)

var errBoom = errors.New("boom")

// memRepo is an in-memory credentials.Repository with the same atomic
// lockout semantics as the SQL implementation.
type memRepo struct {
	mu      sync.Mutex
	records map[models.Role]map[string]*models.Credential

	findErr    error
	createErr  error
	failErr    error
	successErr error

	// afterFind runs once a lookup has returned its copies
	afterFind func()
}

func newMemRepo() *memRepo {
	r := &memRepo{records: map[models.Role]map[string]*models.Credential{}}
	for _, role := range models.Roles() {
		r.records[role] = map[string]*models.Credential{}
	}
	return r
}

// seed stores a record directly, bypassing the registry check.
func (r *memRepo) seed(t *testing.T, role models.Role, username, pass string) *models.Credential {
	t.Helper()
	salt, hash, err := password.Derive(pass)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	c := &models.Credential{Role: role, Username: username, Salt: salt, PasswordHash: hash, FirstName: "F" + username, LastName: "L" + username}
	r.mu.Lock()
	r.records[role][username] = c
	r.mu.Unlock()
	return c
}

func (r *memRepo) get(role models.Role, username string) *models.Credential {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.records[role][username]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

func (r *memRepo) FindByUsername(ctx context.Context, username string) ([]*models.Credential, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	var out []*models.Credential
	for _, role := range models.Roles() {
		if c, ok := r.records[role][username]; ok {
			cp := *c
			out = append(out, &cp)
		}
	}
	r.mu.Unlock()
	if r.afterFind != nil {
		r.afterFind()
	}
	return out, nil
}

func (r *memRepo) Create(ctx context.Context, c *models.Credential) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, role := range models.Roles() {
		if _, ok := r.records[role][c.Username]; ok {
			return common.ErrUsernameTaken
		}
	}
	cp := *c
	r.records[c.Role][c.Username] = &cp
	return nil
}

func (r *memRepo) RecordFailure(ctx context.Context, role models.Role, username string, threshold int) (int, bool, error) {
	if r.failErr != nil {
		return 0, false, r.failErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.records[role][username]
	if !ok || c.Locked {
		return 0, false, common.ErrorNotFound
	}
	if threshold != models.LockoutThreshold {
		return 0, false, fmt.Errorf("unexpected threshold %d", threshold)
	}
	c.LoginAttempts, c.Locked = models.NextLockoutState(c.LoginAttempts)
	return c.LoginAttempts, c.Locked, nil
}

func (r *memRepo) RecordSuccess(ctx context.Context, role models.Role, username string) error {
	if r.successErr != nil {
		return r.successErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.records[role][username]
	if !ok || c.Locked {
		return common.ErrorNotFound
	}
	c.LoginAttempts = 0
	return nil
}

type fakeLocationsRepo struct {
	out   []models.Location
	err   error
	calls int
}

func (f *fakeLocationsRepo) List(context.Context) ([]models.Location, error) {
	f.calls++
	return f.out, f.err
}

type fakeRepoManager struct {
	creds *memRepo
	locs  *fakeLocationsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error  { return nil }
func (m *fakeRepoManager) Credentials(dbx.DBTX) credentials.Repository { return m.creds }
func (m *fakeRepoManager) Locations(dbx.DBTX) locations.Repository     { return m.locs }

type fakeIssuer struct{ err error }

func (f fakeIssuer) Issue(role models.Role, username string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("token:%s:%s", role, username), nil
}

type countingRecorder struct {
	mu           sync.Mutex
	logins       map[string]int
	registration map[string]int
	lockouts     map[models.Role]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{logins: map[string]int{}, registration: map[string]int{}, lockouts: map[models.Role]int{}}
}

func (c *countingRecorder) Login(o string) {
	c.mu.Lock()
	c.logins[o]++
	c.mu.Unlock()
}

func (c *countingRecorder) Registration(o string) {
	c.mu.Lock()
	c.registration[o]++
	c.mu.Unlock()
}

func (c *countingRecorder) Lockout(r models.Role) {
	c.mu.Lock()
	c.lockouts[r]++
	c.mu.Unlock()
}

// warnLogger records Warn messages.
type warnLogger struct {
	logging.Nop
	mu    sync.Mutex
	warns []string
}

func (w *warnLogger) Warn(_ context.Context, msg string, _ ...any) {
	w.mu.Lock()
	w.warns = append(w.warns, msg)
	w.mu.Unlock()
}

func (w *warnLogger) With(...any) logging.Logger { return w }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

type fixture struct {
	svc  *AuthService
	repo *memRepo
	mock sqlmock.Sqlmock
	rec  *countingRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock := newSQLMockDB(t)
	repo := newMemRepo()
	rec := newCountingRecorder()
	svc := NewAuthService(db, &fakeRepoManager{creds: repo}, fakeIssuer{}, rec, logging.Nop{})
	return &fixture{svc: svc, repo: repo, mock: mock, rec: rec}
}

// register runs Register expecting a committed transaction.
func (f *fixture) register(t *testing.T, req RegisterRequest) error {
	t.Helper()
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	return f.svc.Register(context.Background(), req)
}
