package utils

import (
	"github.com/labstack/echo/v4"

	clovererrors "github.com/Ramsey-B/clover/pkg/errors"
)

// BindRequest binds the body and query of c into T and validates it.
// Both failures surface as a ValidationError (400).
func BindRequest[T any](c echo.Context) (T, error) {
	var v T

	if err := c.Bind(&v); err != nil {
		return v, clovererrors.NewValidationErrorf("body", "invalid request: %v", err)
	}

	return Validate(v)
}
