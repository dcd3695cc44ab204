package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/credauth/internal/dbx"
	"github.com/dmitrijs2005/credauth/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/credauth/internal/server/repositories/locations"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Credentials(db dbx.DBTX) credentials.Repository
	Locations(db dbx.DBTX) locations.Repository
}
