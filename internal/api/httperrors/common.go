package httperrors

import (
	"net/http"
)

var (
	ErrBadRequestInvalidBody  = NewHTTPError(http.StatusBadRequest, TypeBadRequest, "The request body is not valid JSON.")
	ErrBadRequestInvalidValue = NewHTTPError(http.StatusBadRequest, TypeBadRequest, "Value must be a non-negative decimal wei amount.")
)
