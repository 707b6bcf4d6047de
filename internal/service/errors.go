package service

import "errors"

// Sentinel errors returned by the issuance pipeline. Handlers map them to
// HTTP statuses; callers branch with errors.Is.
var (
	ErrInvalidCertificate     = errors.New("invalid certificate")
	ErrCertificateExpired     = errors.New("certificate expired")
	ErrCertificateNotYetValid = errors.New("certificate not yet valid")
	ErrInvalidPrivateKey      = errors.New("invalid private key")
	ErrNoCertificate          = errors.New("no active certificate for this CUIT and environment")

	ErrAuthenticationFailed = errors.New("authentication with the tax authority failed")
	ErrGatewayUnavailable   = errors.New("tax authority gateway unavailable")
	ErrInvalidSubmission    = errors.New("invalid submission")

	ErrNotFound     = errors.New("resource not found")
	ErrForbidden    = errors.New("resource does not belong to the user")
	ErrDuplicate    = errors.New("resource already exists")
	ErrInvalidInput = errors.New("invalid input")
)
