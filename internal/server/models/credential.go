package models

// LockoutThreshold is the number of consecutive failed logins that locks
// a credential for good.
const LockoutThreshold = 3

// Credential is one identity record, stored in the partition named by Role.
type Credential struct {
	Role          Role
	Username      string
	PasswordHash  string
	Salt          string
	Locked        bool
	LoginAttempts int
	Contact       string
	FirstName     string
	LastName      string
}

// NextLockoutState returns the attempt count and lock flag that follow one
// more failed login on a record that currently has attempts failures.
func NextLockoutState(attempts int) (next int, locked bool) {
	next = attempts + 1
	return next, next >= LockoutThreshold
}
