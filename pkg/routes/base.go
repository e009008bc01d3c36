// Package routes holds helpers shared by the route packages.
package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/config"
	appctx "github.com/Ramsey-B/clover/pkg/context"
)

// FormID resolves the form_id query parameter (falling back to the configured default)
// and records it on the request context for the request log.
func FormID(c echo.Context, cfg *config.Config) string {
	formID := cfg.ResolveFormID(c.QueryParam("form_id"))
	if formID != "" {
		req := c.Request()
		c.SetRequest(req.WithContext(appctx.SetFormID(req.Context(), formID)))
	}
	return formID
}
