// Package pipedrive talks to the CRM API: field schemas, field creation, record updates
// and the pipeline/stage lookups used by the dashboard.
package pipedrive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/config"
	clovererrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/httpclient"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const (
	serviceName      = "pipedrive"
	apiTokenHeader   = "x-api-token"
	defaultPageLimit = 500
)

// Client reads and writes the CRM through its REST API.
type Client struct {
	cfg    *config.Config
	http   httpclient.Doer
	logger ectologger.Logger
}

func NewClient(cfg *config.Config, doer httpclient.Doer, logger ectologger.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   doer,
		logger: logger,
	}
}

// CreateFieldRequest is the body of POST /{entity}Fields.
type CreateFieldRequest struct {
	Name      string
	FieldType models.TargetType
	// Options are labels; only sent for enum and set fields.
	Options []string
}

type rawOption struct {
	Label string `json:"label"`
}

type rawField struct {
	ID             int         `json:"id"`
	Key            string      `json:"key"`
	Name           string      `json:"name"`
	FieldType      string      `json:"field_type"`
	Options        []rawOption `json:"options"`
	AddVisibleFlag *bool       `json:"add_visible_flag"`
	EditFlag       *bool       `json:"edit_flag"`
}

func (f rawField) toModel() models.CrmField {
	options := ectolinq.Map(f.Options, func(option rawOption) string { return option.Label })
	if options == nil {
		options = []string{}
	}
	return models.CrmField{
		ID:             f.ID,
		Key:            f.Key,
		Name:           f.Name,
		FieldType:      f.FieldType,
		Options:        options,
		AddVisibleFlag: f.AddVisibleFlag,
		EditFlag:       f.EditFlag,
	}
}

type pagination struct {
	MoreItemsInCollection bool `json:"more_items_in_collection"`
	NextStart             *int `json:"next_start"`
}

type fieldPage struct {
	Data           []rawField `json:"data"`
	AdditionalData struct {
		Pagination pagination `json:"pagination"`
	} `json:"additional_data"`
}

// ListFields returns every field of the entity, following pagination until the CRM
// reports no more items.
func (c *Client) ListFields(ctx context.Context, entity models.Entity) ([]models.CrmField, error) {
	ctx, span := tracing.StartSpan(ctx, "pipedrive.ListFields")
	defer span.End()

	if err := c.cfg.RequirePipedrive(); err != nil {
		return nil, err
	}

	limit := c.pageLimit()
	start := 0
	pages := 0
	fields := make([]models.CrmField, 0)

	for {
		endpoint := fmt.Sprintf("%s/%s?start=%d&limit=%d", c.cfg.PipedriveBaseURL(), entity.FieldsPath(), start, limit)

		var page fieldPage
		if err := c.get(ctx, endpoint, &page); err != nil {
			return nil, err
		}
		pages++
		metrics.CrmFieldPagesFetched.WithLabelValues(string(entity)).Inc()

		for _, field := range page.Data {
			fields = append(fields, field.toModel())
		}

		p := page.AdditionalData.Pagination
		if !p.MoreItemsInCollection {
			break
		}
		next := start + limit
		if p.NextStart != nil && *p.NextStart > start {
			next = *p.NextStart
		}
		start = next
	}

	c.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"entity": entity,
		"pages":  pages,
		"fields": len(fields),
	}).Debug("listed pipedrive fields")

	return fields, nil
}

// CreateField issues POST /{entity}Fields and returns the created field and the raw data object.
func (c *Client) CreateField(ctx context.Context, entity models.Entity, req CreateFieldRequest) (models.CrmField, map[string]any, error) {
	ctx, span := tracing.StartSpan(ctx, "pipedrive.CreateField")
	defer span.End()

	if err := c.cfg.RequirePipedrive(); err != nil {
		return models.CrmField{}, nil, err
	}

	body := map[string]any{
		"name":       req.Name,
		"field_type": req.FieldType,
	}
	if req.FieldType.IsChoice() {
		body["options"] = ectolinq.Map(req.Options, func(label string) rawOption { return rawOption{Label: label} })
	}

	operation := http.MethodPost + " " + entity.FieldsPath()
	endpoint := fmt.Sprintf("%s/%s", c.cfg.PipedriveBaseURL(), entity.FieldsPath())
	resp, err := c.http.Post(ctx, endpoint, body, c.headers())
	if err != nil {
		return models.CrmField{}, nil, clovererrors.WrapCrmWriteError(operation, err)
	}
	if !resp.IsSuccess() {
		return models.CrmField{}, nil, clovererrors.NewCrmWriteError(operation, resp.StatusCode, string(resp.Body))
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := resp.DecodeJSON(&envelope); err != nil {
		return models.CrmField{}, nil, clovererrors.WrapCrmWriteError(operation, err)
	}

	var field rawField
	var data map[string]any
	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, &field); err != nil {
			return models.CrmField{}, nil, clovererrors.WrapCrmWriteError(operation, err)
		}
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return models.CrmField{}, nil, clovererrors.WrapCrmWriteError(operation, err)
		}
	}

	c.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"entity":     entity,
		"name":       req.Name,
		"field_type": req.FieldType,
		"key":        field.Key,
	}).Info("created pipedrive field")

	return field.toModel(), data, nil
}

// UpdatePerson issues PATCH /persons/{id}.
func (c *Client) UpdatePerson(ctx context.Context, id string, payload map[string]any) (map[string]any, error) {
	return c.updateRecord(ctx, models.EntityPerson, id, payload)
}

// UpdateDeal issues PATCH /deals/{id}.
func (c *Client) UpdateDeal(ctx context.Context, id string, payload map[string]any) (map[string]any, error) {
	return c.updateRecord(ctx, models.EntityDeal, id, payload)
}

func (c *Client) updateRecord(ctx context.Context, entity models.Entity, id string, payload map[string]any) (map[string]any, error) {
	ctx, span := tracing.StartSpan(ctx, "pipedrive.UpdateRecord")
	defer span.End()

	if err := c.cfg.RequirePipedrive(); err != nil {
		return nil, err
	}

	operation := fmt.Sprintf("%s %s/%s", http.MethodPatch, entity.RecordsPath(), id)
	endpoint := fmt.Sprintf("%s/%s/%s", c.cfg.PipedriveBaseURL(), entity.RecordsPath(), url.PathEscape(id))
	resp, err := c.http.Patch(ctx, endpoint, payload, c.headers())
	if err != nil {
		return nil, clovererrors.WrapCrmWriteError(operation, err)
	}
	if !resp.IsSuccess() {
		return nil, clovererrors.NewCrmWriteError(operation, resp.StatusCode, string(resp.Body))
	}

	result := map[string]any{}
	if len(resp.Body) > 0 {
		if err := resp.DecodeJSON(&result); err != nil {
			return nil, clovererrors.WrapCrmWriteError(operation, err)
		}
	}
	return result, nil
}

// ListPipelines returns the data array of GET /pipelines.
func (c *Client) ListPipelines(ctx context.Context) (json.RawMessage, error) {
	ctx, span := tracing.StartSpan(ctx, "pipedrive.ListPipelines")
	defer span.End()

	if err := c.cfg.RequirePipedrive(); err != nil {
		return nil, err
	}
	return c.getData(ctx, fmt.Sprintf("%s/pipelines", c.cfg.PipedriveBaseURL()))
}

// ListStages returns the data array of GET /stages, optionally for one pipeline.
func (c *Client) ListStages(ctx context.Context, pipelineID string) (json.RawMessage, error) {
	ctx, span := tracing.StartSpan(ctx, "pipedrive.ListStages")
	defer span.End()

	if err := c.cfg.RequirePipedrive(); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/stages", c.cfg.PipedriveBaseURL())
	if pipelineID != "" {
		endpoint += "?pipeline_id=" + url.QueryEscape(pipelineID)
	}
	return c.getData(ctx, endpoint)
}

func (c *Client) getData(ctx context.Context, endpoint string) (json.RawMessage, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.get(ctx, endpoint, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return json.RawMessage("[]"), nil
	}
	return envelope.Data, nil
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	resp, err := c.http.Get(ctx, endpoint, c.headers())
	if err != nil {
		return clovererrors.WrapFetchError(serviceName, http.MethodGet, endpoint, err)
	}
	if !resp.IsSuccess() {
		return clovererrors.NewFetchError(serviceName, http.MethodGet, endpoint, resp.StatusCode, string(resp.Body))
	}
	if err := resp.DecodeJSON(out); err != nil {
		return clovererrors.WrapFetchError(serviceName, http.MethodGet, endpoint, err)
	}
	return nil
}

func (c *Client) headers() map[string]string {
	return map[string]string{apiTokenHeader: c.cfg.PipedriveAPIToken}
}

func (c *Client) pageLimit() int {
	if c.cfg.PipedrivePageLimit > 0 {
		return c.cfg.PipedrivePageLimit
	}
	return defaultPageLimit
}
