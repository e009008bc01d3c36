// Package provision creates CRM fields on demand without duplicating existing ones.
package provision

import (
	"context"
	"fmt"
	"strings"

	"github.com/Gobusters/ectologger"

	clovererrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/naming"
	"github.com/Ramsey-B/clover/pkg/pipedrive"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// FieldStore is the part of the CRM client the provisioner needs.
type FieldStore interface {
	ListFields(ctx context.Context, entity models.Entity) ([]models.CrmField, error)
	CreateField(ctx context.Context, entity models.Entity, req pipedrive.CreateFieldRequest) (models.CrmField, map[string]any, error)
}

// Locker serialises provisioning of one (entity, name) pair.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func() error) error
}

// Request describes the field to ensure.
type Request struct {
	Entity    models.Entity
	Name      string
	FieldType models.TargetType
	Options   []string
}

// Result is the outcome of EnsureField. Field is the raw CRM object when created, or
// the existing field otherwise.
type Result struct {
	Created bool          `json:"created"`
	Entity  models.Entity `json:"entity"`
	ID      int           `json:"id"`
	Key     string        `json:"key"`
	Field   any           `json:"field"`
}

type Provisioner struct {
	store  FieldStore
	locker Locker
	logger ectologger.Logger
}

// NewProvisioner builds a provisioner. locker may be nil.
//
// Without a locker the existence check and the create are not atomic: two concurrent
// requests for the same name can both miss the field and both create it.
func NewProvisioner(store FieldStore, locker Locker, logger ectologger.Logger) *Provisioner {
	return &Provisioner{
		store:  store,
		locker: locker,
		logger: logger,
	}
}

// EnsureField returns the live field with the same name and type when there is one
// (no write is issued), and creates it otherwise.
func (p *Provisioner) EnsureField(ctx context.Context, req Request) (Result, error) {
	ctx, span := tracing.StartSpan(ctx, "provision.EnsureField")
	defer span.End()

	if err := validate(&req); err != nil {
		return Result{}, err
	}

	if p.locker == nil {
		return p.ensure(ctx, req)
	}

	var result Result
	key := fmt.Sprintf("field:%s:%s", req.Entity, naming.NormalizeForCompare(req.Name))
	err := p.locker.WithLock(ctx, key, func() error {
		var err error
		result, err = p.ensure(ctx, req)
		return err
	})
	return result, err
}

func (p *Provisioner) ensure(ctx context.Context, req Request) (Result, error) {
	log := p.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"entity":     req.Entity,
		"name":       req.Name,
		"field_type": req.FieldType,
	})

	fields, err := p.store.ListFields(ctx, req.Entity)
	if err != nil {
		return Result{}, err
	}

	if existing, ok := findExisting(fields, req); ok {
		metrics.FieldsProvisioned.WithLabelValues(string(req.Entity), "existing").Inc()
		log.WithField("key", existing.Key).Info("field already exists, skipping create")
		return Result{
			Created: false,
			Entity:  req.Entity,
			ID:      existing.ID,
			Key:     existing.Key,
			Field:   existing,
		}, nil
	}

	created, raw, err := p.store.CreateField(ctx, req.Entity, pipedrive.CreateFieldRequest{
		Name:      req.Name,
		FieldType: req.FieldType,
		Options:   req.Options,
	})
	if err != nil {
		metrics.FieldsProvisioned.WithLabelValues(string(req.Entity), "failed").Inc()
		return Result{}, err
	}
	metrics.FieldsProvisioned.WithLabelValues(string(req.Entity), "created").Inc()

	var field any = created
	if raw != nil {
		field = raw
	}
	return Result{
		Created: true,
		Entity:  req.Entity,
		ID:      created.ID,
		Key:     created.Key,
		Field:   field,
	}, nil
}

// findExisting matches by normalized name and, when given, by type.
func findExisting(fields []models.CrmField, req Request) (models.CrmField, bool) {
	for _, field := range fields {
		if !naming.Equal(field.Name, req.Name) {
			continue
		}
		if req.FieldType != "" && field.FieldType != string(req.FieldType) {
			continue
		}
		return field, true
	}
	return models.CrmField{}, false
}

func validate(req *Request) error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Entity == "" {
		req.Entity = models.EntityDeal
	}

	if req.Name == "" {
		return clovererrors.NewValidationError("name", "name is required")
	}
	if req.FieldType == "" {
		return clovererrors.NewValidationError("field_type", "field_type is required")
	}
	if !req.FieldType.IsValid() {
		return clovererrors.NewValidationErrorf("field_type", "unsupported field_type '%s'", req.FieldType)
	}
	if req.FieldType.IsChoice() && len(req.Options) == 0 {
		return clovererrors.NewValidationErrorf("options", "options are required for field_type '%s'", req.FieldType)
	}
	return nil
}
