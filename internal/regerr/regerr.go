// Package regerr defines the error taxonomy surfaced by the node registry.
//
// Every failure leaving the registry is a *Error carrying a Kind (what went
// wrong, used with errors.Is) and a Code (the machine-readable string handed
// to API callers as {"error": code, "message": ...}).
package regerr

import (
	"errors"
	"fmt"
)

// Kind classifies a registry failure.
type Kind int

const (
	KindUnexpected Kind = iota
	KindModuleAlreadyLoaded
	KindModuleNotFound
	KindNodeTypeNotFound
	KindOperationInProgress
	KindInstallFailure
	KindUninstallFailure
	KindHandlerInitFailure
	KindPreconditionUnavailable
	KindInvalidRequest
)

var kindNames = map[Kind]string{
	KindUnexpected:              "unexpected",
	KindModuleAlreadyLoaded:     "module already loaded",
	KindModuleNotFound:          "module not found",
	KindNodeTypeNotFound:        "node type not found",
	KindOperationInProgress:     "operation in progress",
	KindInstallFailure:          "install failure",
	KindUninstallFailure:        "uninstall failure",
	KindHandlerInitFailure:      "handler init failure",
	KindPreconditionUnavailable: "precondition unavailable",
	KindInvalidRequest:          "invalid request",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Code is a machine-readable error code.
type Code string

const (
	CodeSettingsUnavailable   Code = "settings_unavailable"
	CodeModuleAlreadyLoaded   Code = "module_already_loaded"
	CodeInvalidRequest        Code = "invalid_request"
	CodeNotFound              Code = "not_found"
	CodeOperationInProgress   Code = "operation_in_progress"
	CodeUnexpected            Code = "unexpected_error"
	CodeTypeAlreadyRegistered Code = "type_already_registered"
	CodeNoUsableTypes         Code = "no_usable_types"
	CodeHandlerInitFailed     Code = "handler_init_failed"
)

// defaultCodes maps each kind to the code used when no more specific code
// (such as the installer's own) is known.
var defaultCodes = map[Kind]Code{
	KindUnexpected:              CodeUnexpected,
	KindModuleAlreadyLoaded:     CodeModuleAlreadyLoaded,
	KindModuleNotFound:          CodeNotFound,
	KindNodeTypeNotFound:        CodeNotFound,
	KindOperationInProgress:     CodeOperationInProgress,
	KindInstallFailure:          CodeUnexpected,
	KindUninstallFailure:        CodeUnexpected,
	KindHandlerInitFailure:      CodeHandlerInitFailed,
	KindPreconditionUnavailable: CodeSettingsUnavailable,
	KindInvalidRequest:          CodeInvalidRequest,
}

// Error is a structured registry failure.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a *Error of the same kind. This lets callers
// compare against the sentinel values below with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrModuleAlreadyLoaded     = &Error{Kind: KindModuleAlreadyLoaded}
	ErrModuleNotFound          = &Error{Kind: KindModuleNotFound}
	ErrNodeTypeNotFound        = &Error{Kind: KindNodeTypeNotFound}
	ErrOperationInProgress     = &Error{Kind: KindOperationInProgress}
	ErrInstallFailure          = &Error{Kind: KindInstallFailure}
	ErrUninstallFailure        = &Error{Kind: KindUninstallFailure}
	ErrHandlerInitFailure      = &Error{Kind: KindHandlerInitFailure}
	ErrPreconditionUnavailable = &Error{Kind: KindPreconditionUnavailable}
	ErrInvalidRequest          = &Error{Kind: KindInvalidRequest}
)

// New creates an error of the given kind with its default code.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: defaultCodes[kind], Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind around cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	e := New(kind, format, args...)
	e.Err = cause
	return e
}

// WithCode returns a copy of e using code instead of the kind's default.
// An empty code leaves e unchanged.
func (e *Error) WithCode(code Code) *Error {
	if code == "" {
		return e
	}
	cp := *e
	cp.Code = code
	return &cp
}

// From converts any error into a *Error. Errors that already carry a
// registry kind are returned as-is; anything else becomes KindUnexpected.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var re *Error
	if errors.As(err, &re) {
		return re
	}
	return Wrap(KindUnexpected, err, "")
}

// KindOf returns the kind of err, or KindUnexpected.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindUnexpected
}

// Payload is the structured error body returned to API callers.
type Payload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ToPayload renders err for an API response.
func ToPayload(err error) Payload {
	re := From(err)
	code := re.Code
	if code == "" {
		code = defaultCodes[re.Kind]
	}
	return Payload{Error: string(code), Message: re.Error()}
}
