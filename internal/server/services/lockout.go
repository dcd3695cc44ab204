package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/credauth/internal/common"
	"github.com/dmitrijs2005/credauth/internal/server/models"
	"github.com/dmitrijs2005/credauth/internal/server/repositories/repomanager"
)

// LockoutPolicy counts failed logins and locks a record at the threshold.
// A locked record stays locked; only an operator can clear it.
type LockoutPolicy struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	threshold   int
}

func NewLockoutPolicy(db *sql.DB, m repomanager.RepositoryManager) *LockoutPolicy {
	return &LockoutPolicy{db: db, repomanager: m, threshold: models.LockoutThreshold}
}

// RecordFailure bumps the counter of cred and reports whether this failure
// locked it. cred is updated in place. If another request locked the
// record first, common.ErrAccountLocked is returned.
func (p *LockoutPolicy) RecordFailure(ctx context.Context, cred *models.Credential) (int, bool, error) {
	attempts, locked, err := p.repomanager.Credentials(p.db).RecordFailure(ctx, cred.Role, cred.Username, p.threshold)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			cred.Locked = true
			return cred.LoginAttempts, false, common.ErrAccountLocked
		}
		return 0, false, err
	}

	cred.LoginAttempts = attempts
	cred.Locked = locked

	return attempts, locked, nil
}

// RecordSuccess resets the counter of cred. If the record was locked after
// it was read, common.ErrAccountLocked is returned.
func (p *LockoutPolicy) RecordSuccess(ctx context.Context, cred *models.Credential) error {
	if err := p.repomanager.Credentials(p.db).RecordSuccess(ctx, cred.Role, cred.Username); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			cred.Locked = true
			return common.ErrAccountLocked
		}
		return err
	}
	cred.LoginAttempts = 0
	return nil
}
