// Package submission routes native form submissions to CRM person and deal updates.
package submission

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/reconcile"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const (
	KeyFirstName   = "first_name"
	KeyLastName    = "last_name"
	KeyEmail       = "email"
	KeyPhone       = "phone"
	KeyPhoneNumber = "phone_number"
	KeyPersonID    = "person_id"
	KeyUserID      = "user_id"
	KeyDealID      = "deal_id"
)

// excludedDealKeys never reach the deal payload.
var excludedDealKeys = []string{
	KeyFirstName, KeyLastName, KeyEmail, KeyPhone, KeyPhoneNumber,
	KeyPersonID, KeyUserID, KeyDealID,
}

// RecordStore is the part of the CRM client the router needs.
type RecordStore interface {
	ListFields(ctx context.Context, entity models.Entity) ([]models.CrmField, error)
	UpdatePerson(ctx context.Context, id string, payload map[string]any) (map[string]any, error)
	UpdateDeal(ctx context.Context, id string, payload map[string]any) (map[string]any, error)
}

// Plan is the routed submission before any update is issued.
type Plan struct {
	PersonID string
	DealID   string
	Person   map[string]any
	Deal     map[string]any
	// Dropped lists keys that matched no deal field.
	Dropped []string
}

// Updated holds the CRM responses of the updates that succeeded.
type Updated struct {
	Person map[string]any `json:"person,omitempty"`
	Deal   map[string]any `json:"deal,omitempty"`
}

// Outcome is the result of routing one submission.
type Outcome struct {
	OK      bool              `json:"ok"`
	Updated Updated           `json:"updated"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// AllFailed reports whether something failed and nothing was updated.
func (o Outcome) AllFailed() bool {
	return len(o.Errors) > 0 && o.Updated.Person == nil && o.Updated.Deal == nil
}

type Router struct {
	cfg    *config.Config
	store  RecordStore
	logger ectologger.Logger
}

func NewRouter(cfg *config.Config, store RecordStore, logger ectologger.Logger) *Router {
	return &Router{
		cfg:    cfg,
		store:  store,
		logger: logger,
	}
}

// Merge combines hidden and values. Values are stringified and trimmed; non-empty
// values override hidden entries with the same key, empty ones are discarded.
func Merge(values, hidden map[string]any) map[string]any {
	merged := make(map[string]any, len(values)+len(hidden))
	for key, value := range hidden {
		merged[key] = value
	}
	for key, value := range values {
		if value == nil {
			continue
		}
		s := strings.TrimSpace(Stringify(value))
		if s == "" {
			continue
		}
		merged[key] = s
	}
	return merged
}

// Stringify renders an answer value as text; lists are joined with ",".
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case []any:
		parts := ectolinq.Map(v, func(item any) string { return Stringify(item) })
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(v, ",")
	case map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	default:
		return fmt.Sprint(v)
	}
}

// BuildPlan splits a merged submission into person and deal payloads. dealFields is the
// live deal field list; keys that normalize to no deal field name are dropped. Blank
// values are skipped on both payloads.
func BuildPlan(merged map[string]any, dealFields []models.CrmField) Plan {
	plan := Plan{
		PersonID: firstID(merged, KeyPersonID, KeyUserID),
		DealID:   firstID(merged, KeyDealID),
		Person:   map[string]any{},
		Deal:     map[string]any{},
	}

	if plan.PersonID != "" {
		for _, key := range []string{KeyFirstName, KeyLastName, KeyEmail} {
			if value, ok := present(merged, key); ok {
				plan.Person[key] = value
			}
		}
		if value, ok := present(merged, KeyPhone); ok {
			plan.Person[KeyPhone] = value
		} else if value, ok := present(merged, KeyPhoneNumber); ok {
			plan.Person[KeyPhone] = value
		}
	}

	index := reconcile.NewIndex(dealFields)
	for _, key := range sortedKeys(merged) {
		if ectolinq.Contains(excludedDealKeys, key) {
			continue
		}
		value, ok := present(merged, key)
		if !ok {
			continue
		}
		field, ok := index.Lookup(key)
		if !ok {
			plan.Dropped = append(plan.Dropped, key)
			continue
		}
		plan.Deal[field.Key] = value
	}

	return plan
}

// Route merges the submission, plans the updates and issues them. The person and deal
// updates are attempted independently: a failure on one side is reported in
// Outcome.Errors and does not stop the other.
func (r *Router) Route(ctx context.Context, values, hidden map[string]any) (Outcome, error) {
	ctx, span := tracing.StartSpan(ctx, "submission.Route")
	defer span.End()

	if err := r.cfg.RequirePipedrive(); err != nil {
		return Outcome{}, err
	}

	merged := Merge(values, hidden)
	outcome := Outcome{Errors: map[string]string{}}

	var dealFields []models.CrmField
	var dealFieldsErr error
	if firstID(merged, KeyDealID) != "" {
		dealFields, dealFieldsErr = r.store.ListFields(ctx, models.EntityDeal)
	}

	plan := BuildPlan(merged, dealFields)
	log := r.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"person_id":    plan.PersonID,
		"deal_id":      plan.DealID,
		"person_keys":  len(plan.Person),
		"deal_keys":    len(plan.Deal),
		"dropped_keys": len(plan.Dropped),
	})
	log.Debug("routing submission")

	switch {
	case plan.PersonID == "" || len(plan.Person) == 0:
		metrics.SubmissionUpdates.WithLabelValues(string(models.EntityPerson), "skipped").Inc()
	default:
		result, err := r.store.UpdatePerson(ctx, plan.PersonID, plan.Person)
		if err != nil {
			log.WithError(err).Warn("person update failed")
			outcome.Errors[string(models.EntityPerson)] = err.Error()
			metrics.SubmissionUpdates.WithLabelValues(string(models.EntityPerson), "failed").Inc()
		} else {
			outcome.Updated.Person = result
			metrics.SubmissionUpdates.WithLabelValues(string(models.EntityPerson), "updated").Inc()
		}
	}

	switch {
	case dealFieldsErr != nil:
		log.WithError(dealFieldsErr).Warn("deal field lookup failed")
		outcome.Errors[string(models.EntityDeal)] = dealFieldsErr.Error()
		metrics.SubmissionUpdates.WithLabelValues(string(models.EntityDeal), "failed").Inc()
	case plan.DealID == "" || len(plan.Deal) == 0:
		metrics.SubmissionUpdates.WithLabelValues(string(models.EntityDeal), "skipped").Inc()
	default:
		result, err := r.store.UpdateDeal(ctx, plan.DealID, plan.Deal)
		if err != nil {
			log.WithError(err).Warn("deal update failed")
			outcome.Errors[string(models.EntityDeal)] = err.Error()
			metrics.SubmissionUpdates.WithLabelValues(string(models.EntityDeal), "failed").Inc()
		} else {
			outcome.Updated.Deal = result
			metrics.SubmissionUpdates.WithLabelValues(string(models.EntityDeal), "updated").Inc()
		}
	}

	outcome.OK = len(outcome.Errors) == 0
	if outcome.OK {
		outcome.Errors = nil
	}
	return outcome, nil
}

// firstID returns the first identifier key with a non-empty value.
func firstID(merged map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := present(merged, key); ok {
			return strings.TrimSpace(Stringify(value))
		}
	}
	return ""
}

func present(merged map[string]any, key string) (any, bool) {
	value, ok := merged[key]
	if !ok || value == nil {
		return nil, false
	}
	if strings.TrimSpace(Stringify(value)) == "" {
		return nil, false
	}
	return value, true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
