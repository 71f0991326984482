// Package common defines sentinel errors shared by every stage of the
// deployment run. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Configuration errors.
	ErrConfig = errors.New("invalid configuration")

	// Token URI pipeline errors.
	ErrSourceRead        = errors.New("image source read failed")
	ErrUpload            = errors.New("upload failed")
	ErrLengthMismatch    = errors.New("upload result does not match input")
	ErrMissingContentID  = errors.New("content id missing from upload response")
	ErrCredentialExpired = errors.New("upload credential expired")

	// Deployment errors.
	ErrDeployment       = errors.New("deployment failed")
	ErrArtifactNotFound = errors.New("contract artifact not found")

	// Verification errors (never fatal).
	ErrVerification = errors.New("verification failed")

	// Ledger errors.
	ErrorNotFound = errors.New("not found")
)
