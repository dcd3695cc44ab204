// Package services contains server-side business logic: identity
// resolution across role partitions, the lockout policy, login and
// registration, and the locations passthrough.
package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/credauth/internal/common"
	"github.com/dmitrijs2005/credauth/internal/logging"
	"github.com/dmitrijs2005/credauth/internal/server/models"
	"github.com/dmitrijs2005/credauth/internal/server/repositories/repomanager"
)

// IdentityResolver finds which partition, if any, holds a username.
type IdentityResolver struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewIdentityResolver(db *sql.DB, m repomanager.RepositoryManager, l logging.Logger) *IdentityResolver {
	return &IdentityResolver{db: db, repomanager: m, logger: l.With("module", "identity")}
}

// FindByUsername returns the record for username or common.ErrorNotFound.
// If several partitions hold the name, the earliest in role enumeration
// order wins and a warning is logged.
func (r *IdentityResolver) FindByUsername(ctx context.Context, username string) (*models.Credential, error) {
	found, err := r.repomanager.Credentials(r.db).FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, common.ErrorNotFound
	}

	best := found[0]
	for _, c := range found[1:] {
		if c.Role.Ordinal() < best.Role.Ordinal() {
			best = c
		}
	}

	if len(found) > 1 {
		roles := make([]string, 0, len(found))
		for _, c := range found {
			roles = append(roles, c.Role.String())
		}
		r.logger.Warn(ctx, "username present in several partitions", "username", username, "roles", roles, "chosen", best.Role.String())
	}

	return best, nil
}

// exists reports whether any partition holds username.
func (r *IdentityResolver) exists(ctx context.Context, username string) (bool, error) {
	_, err := r.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, common.ErrorNotFound):
		return false, nil
	default:
		return false, err
	}
}
