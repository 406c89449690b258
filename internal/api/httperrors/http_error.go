package httperrors

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github/chapool/go-remote-wallet/internal/util"
	"github/chapool/go-remote-wallet/internal/wallet/walleterr"
)

const (
	TypeGeneric    = "generic"
	TypeBadRequest = "badRequest"
)

// HTTPError is the JSON body of every failed API request.
type HTTPError struct {
	Code     int    `json:"status"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Detail   string `json:"detail,omitempty"`
	Internal error  `json:"-"`
}

func NewHTTPError(code int, errorType string, title string) *HTTPError {
	return &HTTPError{
		Code:  code,
		Type:  errorType,
		Title: title,
	}
}

func NewHTTPErrorWithDetail(code int, errorType string, title string, detail string) *HTTPError {
	return &HTTPError{
		Code:   code,
		Type:   errorType,
		Title:  title,
		Detail: detail,
	}
}

func (e *HTTPError) Error() string {
	var b string
	if len(e.Type) > 0 {
		b = fmt.Sprintf("HTTPError %d (%s): %s", e.Code, e.Type, e.Title)
	} else {
		b = fmt.Sprintf("HTTPError %d: %s", e.Code, e.Title)
	}

	if len(e.Detail) > 0 {
		b = fmt.Sprintf("%s - %s", b, e.Detail)
	}
	if e.Internal != nil {
		b = fmt.Sprintf("%s, %v", b, e.Internal)
	}

	return b
}

func (e *HTTPError) Unwrap() error {
	return e.Internal
}

// FromWalletError maps a classified wallet failure to its HTTP representation. Failures of the
// signer or the relay surface as 502.
func FromWalletError(err error) *HTTPError {
	kind := walleterr.KindOf(err)

	code := http.StatusInternalServerError
	switch kind {
	case walleterr.KindUninitialized:
		code = http.StatusServiceUnavailable
	case walleterr.KindRemoteUnavailable,
		walleterr.KindRemoteRejected,
		walleterr.KindMalformedKey,
		walleterr.KindFeeQuoteUnavailable,
		walleterr.KindSubmissionRejected:
		code = http.StatusBadGateway
	case walleterr.KindUnconfirmed:
		code = http.StatusConflict
	}

	return &HTTPError{
		Code:     code,
		Type:     kind.String(),
		Title:    http.StatusText(code),
		Detail:   err.Error(),
		Internal: err,
	}
}

// HTTPErrorHandler renders every error returned by a handler as HTTPError JSON.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	log := util.LogFromEchoContext(c)

	var httpErr *HTTPError
	var echoErr *echo.HTTPError
	var walletErr *walleterr.Error

	switch {
	case errors.As(err, &httpErr):
	case errors.As(err, &echoErr):
		httpErr = NewHTTPError(echoErr.Code, TypeGeneric, fmt.Sprint(echoErr.Message))
		httpErr.Internal = echoErr.Internal
	case errors.As(err, &walletErr):
		httpErr = FromWalletError(err)
	default:
		httpErr = NewHTTPError(http.StatusInternalServerError, TypeGeneric, http.StatusText(http.StatusInternalServerError))
		httpErr.Internal = err
	}

	if httpErr.Code >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", httpErr.Code).Msg("Request failed")
	} else {
		log.Debug().Err(err).Int("status", httpErr.Code).Msg("Request failed")
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(httpErr.Code)
	} else {
		writeErr = c.JSON(httpErr.Code, httpErr)
	}
	if writeErr != nil {
		log.Error().Err(writeErr).Msg("Failed to write error response")
	}
}
