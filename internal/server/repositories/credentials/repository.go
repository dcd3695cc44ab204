// Package credentials stores credential records across the four role
// partitions.
package credentials

import (
	"context"

	"github.com/dmitrijs2005/credauth/internal/server/models"
)

type Repository interface {
	// FindByUsername returns every record named username, ordered by the
	// role enumeration. An empty slice means no partition holds it.
	FindByUsername(ctx context.Context, username string) ([]*models.Credential, error)
	// Create claims username in the registry and inserts the record into
	// its role's partition. Run it inside a transaction.
	Create(ctx context.Context, c *models.Credential) error
	// RecordFailure atomically bumps the attempt counter of an unlocked
	// record and locks it once the counter reaches threshold. It returns
	// common.ErrorNotFound when no unlocked record matched.
	RecordFailure(ctx context.Context, role models.Role, username string, threshold int) (attempts int, locked bool, err error)
	// RecordSuccess resets the attempt counter.
	RecordSuccess(ctx context.Context, role models.Role, username string) error
}
