package service

import (
	"errors"
	"fmt"

	"visionallende/internal/repository"
)

// ErrorKind classifies a service failure so the HTTP layer can pick a status.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindConflict
	KindUnauthorized
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	}
	return "unknown"
}

// Error is the only error type services return on purpose. Anything else
// reaching a handler is treated as an internal failure.
type Error struct {
	Kind   ErrorKind
	Msg    string
	Fields map[string]string
	// ExistingID is set on conflicts caused by a duplicate record.
	ExistingID string
}

func (e *Error) Error() string { return e.Msg }

func ErrValidacion(msg string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Msg: msg, Fields: fields}
}

// ErrCampo is a validation error on a single field.
func ErrCampo(campo, msg string) *Error {
	return ErrValidacion(msg, map[string]string{campo: msg})
}

func ErrNoEncontrado(msg string) *Error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

func ErrConflicto(msg string) *Error {
	return &Error{Kind: KindConflict, Msg: msg}
}

// ErrDuplicado is a conflict that reports the id of the record already present.
func ErrDuplicado(msg, existingID string) *Error {
	return &Error{Kind: KindConflict, Msg: msg, ExistingID: existingID}
}

func ErrNoAutorizado(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Msg: msg}
}

// AsError unwraps err into a service *Error.
func AsError(err error) (*Error, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsKind reports whether err is a service error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	se, ok := AsError(err)
	return ok && se.Kind == kind
}

// traducirRepoErr maps storage failures to service errors. noEncontrado is
// the message used for a missing row. Errors it does not recognise are wrapped
// with op and left for the 500 path.
func traducirRepoErr(err error, op, noEncontrado string) error {
	if err == nil {
		return nil
	}
	if _, ok := AsError(err); ok {
		return err
	}
	switch {
	case repository.IsNotFound(err):
		return ErrNoEncontrado(noEncontrado)
	case repository.IsUniqueViolation(err):
		return ErrConflicto("El registro ya existe")
	case repository.IsForeignKeyViolation(err):
		return ErrConflicto("El registro tiene datos relacionados")
	}
	return fmt.Errorf("%s: %w", op, err)
}
