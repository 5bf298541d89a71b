package services

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to every error returned by this package.
const (
	CodeValidation   = "CHECK_VALIDATION_FAILED"
	CodeIO           = "CHECK_IO_FAILED"
	CodeAccessDenied = "CHECK_ACCESS_DENIED"
	CodeNotFound     = "CHECK_NOT_FOUND"
)

var (
	ErrFileNameRequired = errors.New("le nom du fichier est obligatoire et doit contenir des caractères valides")
	ErrFileNameInvalid  = errors.New("le nom du fichier doit uniquement contenir des lettres, chiffres, points, tirets ou underscores")
	ErrContentEmpty     = errors.New("le contenu HTML ne peut pas être vide")
	ErrNotConfirmed     = errors.New("la suppression doit être confirmée")
)

func validationError(err error, message string) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, message).
		WithTextCode(CodeValidation)
}

func ioError(err error, message string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, message).
		WithTextCode(CodeIO)
}

func accessError(err error, message string) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, goerrors.CategoryAuthz, message).
		WithTextCode(CodeAccessDenied)
}

func notFoundError(err error, message string) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, goerrors.CategoryNotFound, message).
		WithTextCode(CodeNotFound)
}

// IsValidation reports a request rejected before any I/O happened.
func IsValidation(err error) bool {
	return goerrors.IsCategory(err, goerrors.CategoryValidation)
}

// IsIO reports a failed read, write or delete.
func IsIO(err error) bool {
	return goerrors.IsCategory(err, goerrors.CategoryInternal)
}

// IsAccessDenied reports a missing or revoked workspace grant.
func IsAccessDenied(err error) bool {
	return goerrors.IsCategory(err, goerrors.CategoryAuthz)
}

func IsNotFound(err error) bool {
	return goerrors.IsCategory(err, goerrors.CategoryNotFound)
}

// ErrorCode returns the text code reported to API and CLI callers.
func ErrorCode(err error) string {
	switch {
	case IsValidation(err):
		return CodeValidation
	case IsAccessDenied(err):
		return CodeAccessDenied
	case IsNotFound(err):
		return CodeNotFound
	}
	return CodeIO
}

var operatorErrors = []error{
	ErrFileNameRequired, ErrFileNameInvalid, ErrContentEmpty, ErrNotConfirmed,
	ErrChecksDirMissing, ErrNotGranted,
}

// Message returns the text shown to the operator for err.
func Message(err error) string {
	for _, known := range operatorErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	var fields validation.Errors
	if errors.As(err, &fields) {
		return fields.Error()
	}
	return err.Error()
}
