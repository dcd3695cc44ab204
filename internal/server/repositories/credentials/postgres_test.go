package credentials

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/credauth/internal/common"
	"github.com/dmitrijs2005/credauth/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var resultColumns = []string{"role", "ordinal", "username", "password_hash", "salt", "locked",
	"login_attempts", "contact", "firstname", "lastname"}

const findPattern = `(?s)^SELECT 'admins' AS role, 0 AS ordinal, .* FROM "admins" WHERE username = \$1` +
	`\s+UNION ALL\s+SELECT 'users' AS role, 1 .* FROM "users" WHERE username = \$1` +
	`\s+UNION ALL\s+SELECT 'employees' AS role, 2 .* FROM "employees" WHERE username = \$1` +
	`\s+UNION ALL\s+SELECT 'managers' AS role, 3 .* FROM "managers" WHERE username = \$1` +
	`\s+ORDER BY ordinal$`

func TestFindQuery_CoversEveryPartition(t *testing.T) {
	assert.Regexp(t, findPattern, findQuery)
}

func TestFindByUsername_Single(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(resultColumns).
		AddRow("employees", 2, "alice", "hash", "salt", false, 1, "a@x", "Alice", "A")
	mock.ExpectQuery(findPattern).WithArgs("alice").WillReturnRows(rows)

	got, err := repo.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, &models.Credential{
		Role: models.RoleEmployees, Username: "alice", PasswordHash: "hash", Salt: "salt",
		LoginAttempts: 1, Contact: "a@x", FirstName: "Alice", LastName: "A",
	}, got[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByUsername_None(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(findPattern).WithArgs("ghost").WillReturnRows(sqlmock.NewRows(resultColumns))

	got, err := repo.FindByUsername(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindByUsername_Multiple(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(resultColumns).
		AddRow("users", 1, "dup", "h1", "s1", false, 0, "", "", "").
		AddRow("managers", 3, "dup", "h2", "s2", true, 3, "", "", "")
	mock.ExpectQuery(findPattern).WithArgs("dup").WillReturnRows(rows)

	got, err := repo.FindByUsername(context.Background(), "dup")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.RoleUsers, got[0].Role)
	assert.Equal(t, models.RoleManagers, got[1].Role)
	assert.True(t, got[1].Locked)
}

func TestFindByUsername_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(findPattern).WithArgs("alice").WillReturnError(errors.New("db down"))

	_, err := repo.FindByUsername(context.Background(), "alice")
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFindByUsername_ScanError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(resultColumns).
		AddRow("users", "not-an-int", "alice", "h", "s", false, 0, "", "", "")
	mock.ExpectQuery(findPattern).WithArgs("alice").WillReturnRows(rows)

	_, err := repo.FindByUsername(context.Background(), "alice")
	assert.ErrorContains(t, err, "db error")
}

const (
	insertRegistry = `^INSERT INTO usernames \(username, role\) VALUES \(\$1, \$2\)$`
	insertManagers = `(?s)^INSERT INTO "managers" \(username, password_hash, salt, locked, login_attempts, contact, firstname, lastname\)\s+VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8\)$`
)

func newManager() *models.Credential {
	return &models.Credential{
		Role: models.RoleManagers, Username: "mgr", PasswordHash: "h", Salt: "s",
		Contact: "c", FirstName: "F", LastName: "L",
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertRegistry).WithArgs("mgr", "managers").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertManagers).
		WithArgs("mgr", "h", "s", false, 0, "c", "F", "L").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), newManager()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_RegistryConflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertRegistry).WithArgs("mgr", "managers").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), newManager())
	assert.ErrorIs(t, err, common.ErrUsernameTaken)
}

func TestCreate_PartitionError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertRegistry).WithArgs("mgr", "managers").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertManagers).WillReturnError(errors.New("disk full"))

	err := repo.Create(context.Background(), newManager())
	assert.ErrorContains(t, err, "db error: disk full")
}

func TestCreate_InvalidRole(t *testing.T) {
	repo, _, db := newRepoWithMock(t)
	defer db.Close()

	c := newManager()
	c.Role = "guests"
	assert.ErrorIs(t, repo.Create(context.Background(), c), common.ErrInvalidRole)
}

const failurePattern = `(?s)^UPDATE "users"\s+SET login_attempts = login_attempts \+ 1,\s+locked = \(login_attempts \+ 1 >= \$2\)\s+WHERE username = \$1 AND NOT locked\s+RETURNING login_attempts, locked$`

func TestRecordFailure(t *testing.T) {
	tests := []struct {
		name         string
		rows         *sqlmock.Rows
		err          error
		wantAttempts int
		wantLocked   bool
		wantErr      error
	}{
		{"increment", sqlmock.NewRows([]string{"login_attempts", "locked"}).AddRow(2, false), nil, 2, false, nil},
		{"locks", sqlmock.NewRows([]string{"login_attempts", "locked"}).AddRow(3, true), nil, 3, true, nil},
		{"already locked", sqlmock.NewRows([]string{"login_attempts", "locked"}), nil, 0, false, common.ErrorNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			mock.ExpectQuery(failurePattern).WithArgs("bob", models.LockoutThreshold).WillReturnRows(tt.rows)

			attempts, locked, err := repo.RecordFailure(context.Background(), models.RoleUsers, "bob", models.LockoutThreshold)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAttempts, attempts)
			assert.Equal(t, tt.wantLocked, locked)
		})
	}
}

func TestRecordFailure_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(failurePattern).WillReturnError(errors.New("conn reset"))

	_, _, err := repo.RecordFailure(context.Background(), models.RoleUsers, "bob", 3)
	assert.ErrorContains(t, err, "db error: conn reset")
}

func TestRecordFailure_InvalidRole(t *testing.T) {
	repo, _, db := newRepoWithMock(t)
	defer db.Close()

	_, _, err := repo.RecordFailure(context.Background(), `users"; DROP TABLE admins; --`, "bob", 3)
	assert.ErrorIs(t, err, common.ErrInvalidRole)
}

const successPattern = `^UPDATE "admins" SET login_attempts = 0 WHERE username = \$1 AND NOT locked$`

func TestRecordSuccess(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(successPattern).WithArgs("root").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.RecordSuccess(context.Background(), models.RoleAdmins, "root"))

	// missing or locked since the lookup
	mock.ExpectExec(successPattern).WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.RecordSuccess(context.Background(), models.RoleAdmins, "ghost"), common.ErrorNotFound)

	mock.ExpectExec(successPattern).WithArgs("root").WillReturnError(errors.New("timeout"))
	assert.ErrorContains(t, repo.RecordSuccess(context.Background(), models.RoleAdmins, "root"), "db error")

	assert.NoError(t, mock.ExpectationsWereMet())
}
