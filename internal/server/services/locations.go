package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/credauth/internal/common"
	"github.com/dmitrijs2005/credauth/internal/logging"
	"github.com/dmitrijs2005/credauth/internal/server/models"
	"github.com/dmitrijs2005/credauth/internal/server/repositories/repomanager"
)

// LocationsCache stores the locations list between requests.
type LocationsCache interface {
	Get(ctx context.Context) ([]models.Location, bool, error)
	Set(ctx context.Context, locs []models.Location) error
}

// LocationService is a read-only passthrough to the locations table.
type LocationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cache       LocationsCache
	logger      logging.Logger
}

// NewLocationService builds the service. cache may be nil.
func NewLocationService(db *sql.DB, m repomanager.RepositoryManager, cache LocationsCache, l logging.Logger) *LocationService {
	return &LocationService{db: db, repomanager: m, cache: cache, logger: l.With("module", "locations")}
}

func (s *LocationService) List(ctx context.Context) ([]models.Location, error) {
	if s.cache != nil {
		locs, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn(ctx, "locations cache read failed", "error", err)
		} else if ok {
			return locs, nil
		}
	}

	locs, err := s.repomanager.Locations(s.db).List(ctx)
	if err != nil {
		s.logger.Error(ctx, "listing locations failed", "error", err)
		return nil, common.ErrorInternal
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, locs); err != nil {
			s.logger.Warn(ctx, "locations cache write failed", "error", err)
		}
	}

	return locs, nil
}
