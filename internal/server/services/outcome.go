package services

import (
	"errors"

	"github.com/dmitrijs2005/credauth/internal/common"
	"github.com/dmitrijs2005/credauth/internal/server/models"
)

// Outcome labels reported to the Recorder.
const (
	OutcomeSuccess       = "success"
	OutcomeInvalidInput  = "invalid_input"
	OutcomeNotFound      = "not_found"
	OutcomeLocked        = "locked"
	OutcomeWrongPassword = "wrong_password"
	OutcomeTaken         = "taken"
	OutcomeError         = "error"
)

// Recorder receives authentication outcomes, e.g. for metrics.
type Recorder interface {
	Login(outcome string)
	Registration(outcome string)
	Lockout(role models.Role)
}

type nopRecorder struct{}

func (nopRecorder) Login(string)        {}
func (nopRecorder) Registration(string) {}
func (nopRecorder) Lockout(models.Role) {}

// OutcomeOf classifies an error returned by AuthService.
func OutcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, common.ErrUsernameMissing),
		errors.Is(err, common.ErrPasswordMissing),
		errors.Is(err, common.ErrInvalidRole):
		return OutcomeInvalidInput
	case errors.Is(err, common.ErrUsernameNotFound):
		return OutcomeNotFound
	case errors.Is(err, common.ErrAccountLocked):
		return OutcomeLocked
	case errors.Is(err, common.ErrIncorrectPassword):
		return OutcomeWrongPassword
	case errors.Is(err, common.ErrUsernameTaken):
		return OutcomeTaken
	default:
		return OutcomeError
	}
}
