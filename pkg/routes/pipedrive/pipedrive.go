package pipedrive

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/internal/services/reconciliation"
	clovererrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/provision"
	"github.com/Ramsey-B/clover/pkg/routes"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/utils"
)

type Comparer interface {
	Compare(ctx context.Context, formID, entity string) (reconciliation.CompareResult, error)
}

type FieldProvisioner interface {
	EnsureField(ctx context.Context, req provision.Request) (provision.Result, error)
}

// CrmReader is the read side of the CRM client used by the dashboard proxies.
type CrmReader interface {
	ListFields(ctx context.Context, entity models.Entity) ([]models.CrmField, error)
	ListPipelines(ctx context.Context) (json.RawMessage, error)
	ListStages(ctx context.Context, pipelineID string) (json.RawMessage, error)
}

// Handler serves the comparison, provisioning and CRM lookup routes. Services
// are resolved from the request's dependency container.
type Handler struct {
	cfg *config.Config
}

func NewHandler(cfg *config.Config) *Handler {
	return &Handler{cfg: cfg}
}

// Register registers the CRM routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("/compare", h.Compare)
	g.POST("/create-field", h.CreateField)

	crm := g.Group("/pipedrive")
	crm.GET("/deal-fields", h.DealFields)
	crm.GET("/pipelines", h.Pipelines)
	crm.GET("/stages", h.Stages)
}

// Compare handles GET /compare?form_id&entity
func (h *Handler) Compare(c echo.Context) error {
	formID := routes.FormID(c, h.cfg)
	ctx, span := tracing.StartSpan(c.Request().Context(), "routes.pipedrive.Compare")
	defer span.End()

	ctx, comparer, err := ectoinject.GetContext[Comparer](ctx)
	if err != nil {
		return err
	}

	result, err := comparer.Compare(ctx, formID, c.QueryParam("entity"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

type CreateFieldRequest struct {
	Entity    string   `json:"entity" validate:"omitempty,oneof=deal person"`
	Name      string   `json:"name" validate:"required"`
	FieldType string   `json:"field_type" validate:"required"`
	Options   []string `json:"options,omitempty"`
}

// CreateField handles POST /create-field
func (h *Handler) CreateField(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "routes.pipedrive.CreateField")
	defer span.End()

	if err := h.cfg.RequirePipedrive(); err != nil {
		return err
	}

	req, err := utils.BindRequest[CreateFieldRequest](c)
	if err != nil {
		return err
	}

	entity, err := models.ParseEntity(req.Entity)
	if err != nil {
		return clovererrors.NewValidationError("entity", err.Error())
	}
	fieldType, err := models.ParseTargetType(req.FieldType)
	if err != nil {
		return clovererrors.NewValidationError("field_type", err.Error())
	}

	ctx, provisioner, err := ectoinject.GetContext[FieldProvisioner](ctx)
	if err != nil {
		return err
	}

	result, err := provisioner.EnsureField(ctx, provision.Request{
		Entity:    entity,
		Name:      req.Name,
		FieldType: fieldType,
		Options:   req.Options,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

type DealFieldsResponse struct {
	Count  int               `json:"count"`
	Fields []models.CrmField `json:"fields"`
}

// DealFields handles GET /pipedrive/deal-fields
func (h *Handler) DealFields(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "routes.pipedrive.DealFields")
	defer span.End()

	ctx, crm, err := ectoinject.GetContext[CrmReader](ctx)
	if err != nil {
		return err
	}

	fields, err := crm.ListFields(ctx, models.EntityDeal)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, DealFieldsResponse{Count: len(fields), Fields: fields})
}

// Pipelines handles GET /pipedrive/pipelines
func (h *Handler) Pipelines(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "routes.pipedrive.Pipelines")
	defer span.End()

	ctx, crm, err := ectoinject.GetContext[CrmReader](ctx)
	if err != nil {
		return err
	}

	data, err := crm.ListPipelines(ctx)
	if err != nil {
		return err
	}

	return c.JSONBlob(http.StatusOK, data)
}

// Stages handles GET /pipedrive/stages?pipeline_id
func (h *Handler) Stages(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "routes.pipedrive.Stages")
	defer span.End()

	ctx, crm, err := ectoinject.GetContext[CrmReader](ctx)
	if err != nil {
		return err
	}

	data, err := crm.ListStages(ctx, c.QueryParam("pipeline_id"))
	if err != nil {
		return err
	}

	return c.JSONBlob(http.StatusOK, data)
}
