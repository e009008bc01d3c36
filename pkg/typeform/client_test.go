package typeform

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/config"
	clovererrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/httpclient"
	"github.com/Ramsey-B/clover/pkg/httpclient/fakeclient"
)

func newTestClient(cfg *config.Config, doer httpclient.Doer) *Client {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewClient(cfg, doer, logger)
}

func testConfig() *config.Config {
	return &config.Config{
		TypeformBaseURL: "https://api.typeform.test/",
		TypeformToken:   "tf-token",
	}
}

func TestClient_GetForm(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		fake := fakeclient.New().Handle(http.MethodGet, "/forms/abc123", func(_ fakeclient.Call) (*httpclient.Response, error) {
			return &httpclient.Response{StatusCode: http.StatusOK, Body: []byte(nestedForm)}, nil
		})

		form, err := newTestClient(testConfig(), fake).GetForm(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, "Lead form", form.Title)

		calls := fake.CallsTo(http.MethodGet, "/forms/abc123")
		require.Len(t, calls, 1)
		assert.Equal(t, "Bearer tf-token", calls[0].Headers["Authorization"])
		assert.Equal(t, "https://api.typeform.test/forms/abc123", calls[0].URL)
	})

	t.Run("upstream error is echoed", func(t *testing.T) {
		fake := fakeclient.New().Handle(http.MethodGet, "/forms/missing", func(_ fakeclient.Call) (*httpclient.Response, error) {
			return fakeclient.Text(http.StatusNotFound, "form not found")
		})

		_, err := newTestClient(testConfig(), fake).GetForm(ctx, "missing")
		require.Error(t, err)

		var fetchErr *clovererrors.FetchError
		require.True(t, errors.As(err, &fetchErr))
		assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
		assert.Equal(t, "form not found", fetchErr.Body)
		assert.Equal(t, "typeform", fetchErr.Service)
	})

	t.Run("malformed body", func(t *testing.T) {
		fake := fakeclient.New().Handle(http.MethodGet, "/forms/bad", func(_ fakeclient.Call) (*httpclient.Response, error) {
			return fakeclient.Text(http.StatusOK, "<html>")
		})

		_, err := newTestClient(testConfig(), fake).GetForm(ctx, "bad")
		assert.True(t, clovererrors.IsFetchError(err))
	})

	t.Run("transport failure", func(t *testing.T) {
		_, err := newTestClient(testConfig(), fakeclient.New()).GetForm(ctx, "nowhere")
		assert.True(t, clovererrors.IsFetchError(err))
	})

	t.Run("missing token", func(t *testing.T) {
		cfg := testConfig()
		cfg.TypeformToken = ""
		fake := fakeclient.New()

		_, err := newTestClient(cfg, fake).GetForm(ctx, "abc123")
		assert.True(t, clovererrors.IsConfigError(err))
		assert.Empty(t, fake.Calls())
	})

	t.Run("missing form id", func(t *testing.T) {
		_, err := newTestClient(testConfig(), fakeclient.New()).GetForm(ctx, "")
		assert.True(t, clovererrors.IsValidationError(err))
	})
}
