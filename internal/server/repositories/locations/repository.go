// Package locations reads the locations reference table.
package locations

import (
	"context"

	"github.com/dmitrijs2005/credauth/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]models.Location, error)
}
