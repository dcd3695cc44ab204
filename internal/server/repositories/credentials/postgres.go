package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/credauth/internal/common"
	"github.com/dmitrijs2005/credauth/internal/dbx"
	"github.com/dmitrijs2005/credauth/internal/server/models"
	"github.com/jackc/pgx/v5"
)

const columns = `username, password_hash, salt, locked, login_attempts, contact, firstname, lastname`

// findQuery is the union over all partitions in enumeration order.
var findQuery = buildFindQuery()

func buildFindQuery() string {
	var branches []string
	for _, r := range models.Roles() {
		branches = append(branches, fmt.Sprintf(
			`SELECT '%s' AS role, %d AS ordinal, %s FROM %s WHERE username = $1`,
			r, r.Ordinal(), columns, table(r)))
	}
	return strings.Join(branches, "\nUNION ALL\n") + "\nORDER BY ordinal"
}

// table quotes the partition name. Only enumerated roles reach it.
func table(r models.Role) string {
	return pgx.Identifier{string(r)}.Sanitize()
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) ([]*models.Credential, error) {
	rows, err := r.db.QueryContext(ctx, findQuery, username)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Credential
	for rows.Next() {
		var (
			role    string
			ordinal int
			c       models.Credential
		)
		if err := rows.Scan(&role, &ordinal, &c.Username, &c.PasswordHash, &c.Salt, &c.Locked,
			&c.LoginAttempts, &c.Contact, &c.FirstName, &c.LastName); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		c.Role = models.Role(role)
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Credential) error {
	if !c.Role.Valid() {
		return common.ErrInvalidRole
	}

	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO usernames (username, role) VALUES ($1, $2)`,
		c.Username, c.Role.String()); err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrUsernameTaken
		}
		return fmt.Errorf("db error: %w", err)
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (%s)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, table(c.Role), columns)

	if _, err := r.db.ExecContext(ctx, query,
		c.Username, c.PasswordHash, c.Salt, c.Locked, c.LoginAttempts,
		c.Contact, c.FirstName, c.LastName); err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrUsernameTaken
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) RecordFailure(ctx context.Context, role models.Role, username string, threshold int) (int, bool, error) {
	if !role.Valid() {
		return 0, false, common.ErrInvalidRole
	}

	query := fmt.Sprintf(
		`UPDATE %s
		 SET login_attempts = login_attempts + 1,
		     locked = (login_attempts + 1 >= $2)
		 WHERE username = $1 AND NOT locked
		 RETURNING login_attempts, locked`, table(role))

	var (
		attempts int
		locked   bool
	)
	err := r.db.QueryRowContext(ctx, query, username, threshold).Scan(&attempts, &locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, common.ErrorNotFound
		}
		return 0, false, fmt.Errorf("db error: %w", err)
	}

	return attempts, locked, nil
}

func (r *PostgresRepository) RecordSuccess(ctx context.Context, role models.Role, username string) error {
	if !role.Valid() {
		return common.ErrInvalidRole
	}

	query := fmt.Sprintf(`UPDATE %s SET login_attempts = 0 WHERE username = $1 AND NOT locked`, table(role))

	res, err := r.db.ExecContext(ctx, query, username)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}
