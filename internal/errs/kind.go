package errs

import "errors"

// Kind classifies an error for callers that need to choose a response
// (HTTP status, CLI exit message) without matching individual sentinels.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindPermission
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindPermission:
		return "permission"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// KindError attaches a Kind to an error chain.
type KindError struct {
	kind Kind
	err  error
}

func (e *KindError) Error() string { return e.err.Error() }
func (e *KindError) Unwrap() error { return e.err }
func (e *KindError) Kind() Kind    { return e.kind }

// WithKind classifies err. The outermost classification wins when KindOf walks the chain,
// so re-classifying an already classified error is a no-op.
func WithKind(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindUnknown {
		return err
	}
	return &KindError{kind: kind, err: err}
}

func Validation(err error) error  { return WithKind(KindValidation, err) }
func NotFound(err error) error    { return WithKind(KindNotFound, err) }
func Permission(err error) error  { return WithKind(KindPermission, err) }
func Persistence(err error) error { return WithKind(KindPersistence, err) }

// KindOf returns the first Kind found in the chain.
func KindOf(err error) Kind {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return KindUnknown
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsPermission(err error) bool { return KindOf(err) == KindPermission }
