package usecase

import "errors"

const (
	CodeValidation           = "VALIDATION_ERROR"
	CodeLeadNotFound         = "LEAD_NOT_FOUND"
	CodeUploadDecodeFailed   = "UPLOAD_DECODE_FAILED"
	CodeSourceUnauthorized   = "SOURCE_UNAUTHORIZED"
	CodeSourceFailed         = "SOURCE_FAILED"
	CodeStoreUnavailable     = "STORE_UNAVAILABLE"
	CodeDirectoryUnavailable = "AGENT_DIRECTORY_UNAVAILABLE"
)

// DomainError is a failure caused by the caller's input.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Err }

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError is a failure of a collaborator (store, network, broker).
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func (e *TechnicalError) Unwrap() error { return e.Err }

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

// ErrorCode returns the code carried by a DomainError or TechnicalError,
// or "" for anything else.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	var te *TechnicalError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

// RecordError is a skippable failure of one unit of work inside a run.
type RecordError struct {
	Context string `json:"context"`
	Message string `json:"message"`
}

func (e RecordError) Error() string {
	return e.Context + ": " + e.Message
}
