package access

import "errors"

var (
	// ErrNotFound is returned when the named patient or doctor does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrRoleMismatch is returned when a request names a patient id that is
	// not a patient, or a doctor id that is not a doctor.
	ErrRoleMismatch = errors.New("role mismatch")
	// ErrNotPending is returned by approve and deny when the pair has no
	// pending request to act on.
	ErrNotPending = errors.New("no pending request for pair")
	// ErrNotAuthorized is returned when a doctor acts on a patient's records
	// without an active grant. Distinct from ErrNotFound so callers can tell
	// "no such patient" from "no access".
	ErrNotAuthorized = errors.New("doctor not authorized for patient")
)
