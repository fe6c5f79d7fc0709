package server

import (
	"fmt"
	"io/fs"
	"net/http"

	"github.com/pkg/errors"

	"lanbrowse/internal/browse"
	"lanbrowse/internal/upload"
)

type httpError struct {
	Status  int
	Title   string
	Message string
	cause   error
}

func (e *httpError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Title, e.cause)
	}
	return e.Title
}

func (e *httpError) Unwrap() error {
	return e.cause
}

func newHTTPError(status int, message string) *httpError {
	return &httpError{
		Status:  status,
		Title:   fmt.Sprintf("%d: %s", status, http.StatusText(status)),
		Message: message,
	}
}

func (e *httpError) withCause(err error) *httpError {
	cp := *e
	cp.cause = err
	return &cp
}

var (
	errNotFound         = newHTTPError(http.StatusNotFound, "The requested resource could not be found.")
	errInternal         = newHTTPError(http.StatusInternalServerError, "An internal server error occured.")
	errMethodNotAllowed = newHTTPError(http.StatusMethodNotAllowed, "Only GET, HEAD and POST are supported.")
	errUploadTarget     = newHTTPError(http.StatusForbidden, "Uploads must target a directory.")
)

// classify maps any handler error onto the page the client sees.
func classify(err error) *httpError {
	var httpErr *httpError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var rejected *upload.RejectedError
	if errors.As(err, &rejected) {
		switch rejected.Reason {
		case upload.Forbidden:
			return newHTTPError(http.StatusForbidden, rejected.Msg).withCause(err)
		case upload.TooLarge:
			return newHTTPError(http.StatusRequestEntityTooLarge, rejected.Msg).withCause(err)
		default:
			return newHTTPError(http.StatusBadRequest, rejected.Msg).withCause(err)
		}
	}

	if errors.Is(err, browse.ErrTraversal) || errors.Is(err, fs.ErrNotExist) {
		return errNotFound.withCause(err)
	}

	return errInternal.withCause(err)
}
