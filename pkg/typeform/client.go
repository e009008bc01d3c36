// Package typeform reads form definitions from the form service and turns them into
// atomic fields (for reconciliation) or UI pages (for the native renderer).
package typeform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/config"
	clovererrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/httpclient"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const serviceName = "typeform"

// Client reads forms from the form service API.
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

// GetForm fetches and parses GET /forms/{formID}.
func (c *Client) GetForm(ctx context.Context, formID string) (*Form, error) {
	ctx, span := tracing.StartSpan(ctx, "typeform.GetForm")
	defer span.End()

	if err := c.cfg.RequireTypeform(); err != nil {
		return nil, err
	}
	if formID == "" {
		return nil, clovererrors.NewValidationError("form_id", "form_id is required (query) or TYPEFORM_DEFAULT_FORM_ID must be set")
	}

	endpoint := fmt.Sprintf("%s/forms/%s", strings.TrimRight(c.cfg.TypeformBaseURL, "/"), url.PathEscape(formID))
	resp, err := c.http.Get(ctx, endpoint, map[string]string{
		"Authorization": "Bearer " + c.cfg.TypeformToken,
	})
	if err != nil {
		return nil, clovererrors.WrapFetchError(serviceName, http.MethodGet, endpoint, err)
	}
	if !resp.IsSuccess() {
		return nil, clovererrors.NewFetchError(serviceName, http.MethodGet, endpoint, resp.StatusCode, string(resp.Body))
	}

	form, err := ParseForm(resp.Body)
	if err != nil {
		return nil, clovererrors.WrapFetchError(serviceName, http.MethodGet, endpoint, err)
	}

	c.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"form_id":       formID,
		"has_fields":    form.HasFields,
		"top_level":     len(form.Fields),
		"skipped_nodes": form.Skipped,
	}).Debug("fetched form definition")

	return form, nil
}
