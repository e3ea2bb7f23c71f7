package worker

import (
	"fmt"
	"strings"
)

// Kind classifies a pipeline failure. Caller faults (KindValidation,
// KindEmptyDocument) map to a 400-shaped response; everything else is fatal
// for the invocation and maps to a 500-shaped response.
type Kind int

const (
	KindValidation Kind = iota
	KindAuth
	KindUpstream
	KindEmptyDocument
	KindMalformedEvaluation
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindUpstream:
		return "upstream"
	case KindEmptyDocument:
		return "empty_document"
	case KindMalformedEvaluation:
		return "malformed_evaluation"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Error is a pipeline failure tagged with its kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func validationError(missing []string) *Error {
	return newError(KindValidation, fmt.Sprintf("Missing required fields: %s", strings.Join(missing, ", ")), nil)
}

func emptyDocumentError() *Error {
	return newError(KindEmptyDocument, "Missing required fields", nil)
}
