package types

import "errors"

// Backend lifecycle errors.
var (
	ErrDetached        = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// Operation errors. Backends wrap these with fmt.Errorf("%w: ...") so
// callers match with errors.Is and still get a message naming the value.
var (
	// ErrValidation means caller input failed a precondition; nothing was
	// written.
	ErrValidation = errors.New("validation error")

	// ErrNotFound means the referenced recipe or snippet does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict means a uniqueness rule would be violated; nothing was
	// written.
	ErrConflict = errors.New("conflict")

	// ErrStorage means the storage engine failed. Any multi-step mutation in
	// flight was rolled back.
	ErrStorage = errors.New("storage error")
)

// Error kinds reported at the tool boundary.
const (
	KindValidation = "validation"
	KindNotFound   = "not_found"
	KindConflict   = "conflict"
	KindStorage    = "storage"
)

// ErrorKind maps err to its kind label. Errors outside the taxonomy are
// reported as storage failures.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	default:
		return KindStorage
	}
}

// IsUserError reports whether err was caused by the caller's input rather
// than by the storage engine.
func IsUserError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict)
}
