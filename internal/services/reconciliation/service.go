// Package reconciliation compares a form against the CRM's live field schema.
package reconciliation

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/config"
	clovererrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/mapping"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/naming"
	"github.com/Ramsey-B/clover/pkg/reconcile"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/typeform"
)

type FormSource interface {
	GetForm(ctx context.Context, formID string) (*typeform.Form, error)
}

type FieldSource interface {
	ListFields(ctx context.Context, entity models.Entity) ([]models.CrmField, error)
}

// CompareResult is the body of GET /compare.
type CompareResult struct {
	Form               models.FormSummary       `json:"form"`
	Entity             models.Entity            `json:"entity"`
	TypeformFields     []models.MappedField     `json:"typeform_fields"`
	PipedriveFields    []models.CrmField        `json:"pipedrive_fields"`
	MissingOnPipedrive []models.MissingFieldRow `json:"missing_on_pipedrive"`
	NamingConvention   string                   `json:"naming_convention"`
}

// FormFieldsResult is the body of GET /typeform/form-fields.
type FormFieldsResult struct {
	Form   models.FormSummary       `json:"form"`
	Hidden []string                 `json:"hidden"`
	Count  int                      `json:"count"`
	Fields []models.AtomicFormField `json:"fields"`
}

type Service struct {
	cfg    *config.Config
	forms  FormSource
	fields FieldSource
	logger ectologger.Logger
}

func NewService(cfg *config.Config, forms FormSource, fields FieldSource, logger ectologger.Logger) *Service {
	return &Service{
		cfg:    cfg,
		forms:  forms,
		fields: fields,
		logger: logger,
	}
}

// Compare lists the form fields of one entity that have no same-named CRM field.
// The CRM field list is read in full before diffing.
func (s *Service) Compare(ctx context.Context, formID, entityName string) (CompareResult, error) {
	ctx, span := tracing.StartSpan(ctx, "reconciliation.Compare")
	defer span.End()

	if err := s.cfg.RequirePipedrive(); err != nil {
		return CompareResult{}, err
	}

	entity, err := models.ParseEntity(entityName)
	if err != nil {
		return CompareResult{}, clovererrors.NewValidationError("entity", err.Error())
	}

	form, err := s.loadForm(ctx, formID)
	if err != nil {
		return CompareResult{}, err
	}

	atomic := typeform.ExtractAtomicFields(form)
	mapped := mapping.BuildMappedFields(mapping.FilterByEntity(atomic, entity))

	crmFields, err := s.fields.ListFields(ctx, entity)
	if err != nil {
		return CompareResult{}, err
	}
	if crmFields == nil {
		crmFields = []models.CrmField{}
	}

	missing := reconcile.Diff(mapped, crmFields)
	metrics.MissingFields.WithLabelValues(string(entity)).Set(float64(len(missing)))

	s.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"form_id":    form.ID,
		"entity":     entity,
		"atomic":     len(atomic),
		"mapped":     len(mapped),
		"crm_fields": len(crmFields),
		"missing":    len(missing),
	}).Info("compared form with crm fields")

	return CompareResult{
		Form:               form.Summary(),
		Entity:             entity,
		TypeformFields:     mapped,
		PipedriveFields:    crmFields,
		MissingOnPipedrive: missing,
		NamingConvention:   naming.Convention,
	}, nil
}

// FormFields returns the flattened atomic fields of a form.
func (s *Service) FormFields(ctx context.Context, formID string) (FormFieldsResult, error) {
	ctx, span := tracing.StartSpan(ctx, "reconciliation.FormFields")
	defer span.End()

	form, err := s.loadForm(ctx, formID)
	if err != nil {
		return FormFieldsResult{}, err
	}

	fields := typeform.ExtractAtomicFields(form)
	hidden := form.Hidden
	if hidden == nil {
		hidden = []string{}
	}

	return FormFieldsResult{
		Form:   form.Summary(),
		Hidden: hidden,
		Count:  len(fields),
		Fields: fields,
	}, nil
}

// FormSchema lays a form out as renderable pages.
func (s *Service) FormSchema(ctx context.Context, formID string) (typeform.Schema, error) {
	ctx, span := tracing.StartSpan(ctx, "reconciliation.FormSchema")
	defer span.End()

	form, err := s.loadForm(ctx, formID)
	if err != nil {
		return typeform.Schema{}, err
	}

	return typeform.BuildSchema(form), nil
}

func (s *Service) loadForm(ctx context.Context, formID string) (*typeform.Form, error) {
	formID = s.cfg.ResolveFormID(formID)
	if formID == "" {
		return nil, clovererrors.NewValidationError("form_id", "form_id is required (query) or TYPEFORM_DEFAULT_FORM_ID must be set")
	}
	return s.forms.GetForm(ctx, formID)
}
