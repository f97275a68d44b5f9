package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	GnapErrorBadData         = "GNAP_BAD_DATA"
	GnapErrorNotFound        = "GNAP_NOT_FOUND"
	GnapErrorInvalidState    = "GNAP_INVALID_STATE"
	GnapErrorStoreError      = "GNAP_STORE_ERROR"
	GnapErrorCacheError      = "GNAP_CACHE_ERROR"
	GnapErrorCacheCorruption = "GNAP_CACHE_CORRUPTION"
	GnapErrorInternal        = "GNAP_INTERNAL_ERROR"
)

// NewBadDataError flags caller supplied input that does not parse or
// validate.
func NewBadDataError(message string) *goerrors.Error {
	return newGnapError(message, goerrors.CategoryBadInput, GnapErrorBadData)
}

// NewNotFoundError flags a well formed reference that resolves to nothing.
func NewNotFoundError(message string) *goerrors.Error {
	return newGnapError(message, goerrors.CategoryNotFound, GnapErrorNotFound)
}

// NewInvalidStateError flags a transaction operation attempted outside the
// allowed transition table.
func NewInvalidStateError(message string) *goerrors.Error {
	return newGnapError(message, goerrors.CategoryConflict, GnapErrorInvalidState)
}

// NewStoreError wraps an authoritative store failure.
func NewStoreError(message string, cause error) *goerrors.Error {
	return ensureGnapErrorEnvelope(
		goerrors.Wrap(cause, goerrors.CategoryInternal, message).
			WithTextCode(GnapErrorStoreError),
	)
}

// NewCacheError wraps a cache transport failure on the read or write path.
func NewCacheError(message string, cause error) *goerrors.Error {
	return ensureGnapErrorEnvelope(
		goerrors.Wrap(cause, goerrors.CategoryInternal, message).
			WithTextCode(GnapErrorCacheError),
	)
}

// NewCacheCorruptionError flags a cache hit whose payload no longer
// decodes. Corruption is never downgraded to a miss.
func NewCacheCorruptionError(message string, cause error) *goerrors.Error {
	return ensureGnapErrorEnvelope(
		goerrors.Wrap(cause, goerrors.CategoryInternal, message).
			WithTextCode(GnapErrorCacheCorruption),
	)
}

func IsNotFound(err error) bool {
	return hasTextCode(err, GnapErrorNotFound)
}

func IsBadData(err error) bool {
	return hasTextCode(err, GnapErrorBadData)
}

func IsInvalidState(err error) bool {
	return hasTextCode(err, GnapErrorInvalidState)
}

func IsCacheCorruption(err error) bool {
	return hasTextCode(err, GnapErrorCacheCorruption)
}

func hasTextCode(err error, textCode string) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == textCode
}

func gnapErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureGnapErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "transition"), strings.Contains(msg, "state"):
		return newGnapError(err.Error(), goerrors.CategoryConflict, GnapErrorInvalidState)
	case strings.Contains(msg, "not found"), strings.Contains(msg, "no rows"):
		return newGnapError(err.Error(), goerrors.CategoryNotFound, GnapErrorNotFound)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "unknown"):
		return newGnapError(err.Error(), goerrors.CategoryBadInput, GnapErrorBadData)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureGnapErrorEnvelope(mapped)
}

func newGnapError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureGnapErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureGnapErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = gnapHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultGnapTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultGnapTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return GnapErrorBadData
	case goerrors.CategoryNotFound:
		return GnapErrorNotFound
	case goerrors.CategoryConflict:
		return GnapErrorInvalidState
	default:
		return GnapErrorInternal
	}
}

func gnapHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
