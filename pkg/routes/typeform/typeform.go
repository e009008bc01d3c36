package typeform

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/internal/services/reconciliation"
	"github.com/Ramsey-B/clover/pkg/routes"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/typeform"
)

type FormReader interface {
	FormFields(ctx context.Context, formID string) (reconciliation.FormFieldsResult, error)
	FormSchema(ctx context.Context, formID string) (typeform.Schema, error)
}

// Handler serves the form definition routes.
type Handler struct {
	cfg *config.Config
}

func NewHandler(cfg *config.Config) *Handler {
	return &Handler{cfg: cfg}
}

// Register registers the form routes
func (h *Handler) Register(g *echo.Group) {
	forms := g.Group("/typeform")
	forms.GET("/form-fields", h.FormFields)
	forms.GET("/form-schema", h.FormSchema)
}

// FormFields handles GET /typeform/form-fields?form_id
func (h *Handler) FormFields(c echo.Context) error {
	formID := routes.FormID(c, h.cfg)
	ctx, span := tracing.StartSpan(c.Request().Context(), "routes.typeform.FormFields")
	defer span.End()

	ctx, forms, err := ectoinject.GetContext[FormReader](ctx)
	if err != nil {
		return err
	}

	result, err := forms.FormFields(ctx, formID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// FormSchema handles GET /typeform/form-schema?form_id
func (h *Handler) FormSchema(c echo.Context) error {
	formID := routes.FormID(c, h.cfg)
	ctx, span := tracing.StartSpan(c.Request().Context(), "routes.typeform.FormSchema")
	defer span.End()

	ctx, forms, err := ectoinject.GetContext[FormReader](ctx)
	if err != nil {
		return err
	}

	schema, err := forms.FormSchema(ctx, formID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, schema)
}
