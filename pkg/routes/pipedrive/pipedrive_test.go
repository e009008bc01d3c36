package pipedrive

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/internal/services/reconciliation"
	"github.com/Ramsey-B/clover/pkg/container"
	"github.com/Ramsey-B/clover/pkg/httpclient"
	"github.com/Ramsey-B/clover/pkg/httpclient/fakeclient"
	"github.com/Ramsey-B/clover/pkg/middleware"
	pipedriveclient "github.com/Ramsey-B/clover/pkg/pipedrive"
	"github.com/Ramsey-B/clover/pkg/provision"
	"github.com/Ramsey-B/clover/pkg/typeform"
)

const leadForm = `{
	"id": "lead",
	"title": "Lead form",
	"fields": [
		{"id": "f1", "ref": "r1", "title": "Imię", "type": "short_text"},
		{"id": "f2", "ref": "r2", "title": "Email", "type": "email"},
		{"id": "f3", "ref": "r3", "title": "Budget", "type": "number"}
	]
}`

type testServer struct {
	echo      *echo.Echo
	typeform  *fakeclient.Client
	pipedrive *fakeclient.Client
}

func testConfig() *config.Config {
	return &config.Config{
		PipedriveBaseURLOverride: "https://acme.pipedrive.test/api/v1",
		PipedriveAPIToken:        "pd-token",
		PipedrivePageLimit:       500,
		TypeformBaseURL:          "https://api.typeform.test",
		TypeformToken:            "tf-token",
		TypeformDefaultFormID:    "lead",
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	tfFake := fakeclient.New().Handle(http.MethodGet, "/forms/lead", func(_ fakeclient.Call) (*httpclient.Response, error) {
		return &httpclient.Response{StatusCode: http.StatusOK, Body: []byte(leadForm)}, nil
	})
	pdFake := fakeclient.New()

	forms := typeform.NewClient(cfg, tfFake, logger)
	crm := pipedriveclient.NewClient(cfg, pdFake, logger)
	service := reconciliation.NewService(cfg, forms, crm, logger)
	provisioner := provision.NewProvisioner(crm, nil, logger)

	id := "pipedrive-" + uuid.NewString()
	di, err := container.New(id, logger)
	require.NoError(t, err)
	require.NoError(t, ectoinject.RegisterInstance[Comparer](di, service))
	require.NoError(t, ectoinject.RegisterInstance[FieldProvisioner](di, provisioner))
	require.NoError(t, ectoinject.RegisterInstance[CrmReader](di, crm))

	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(logger)
	NewHandler(cfg).Register(e.Group("/api/v1", middleware.Container(id)))

	return &testServer{echo: e, typeform: tfFake, pipedrive: pdFake}
}

func (s *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func dealFieldsPage(fields ...map[string]any) map[string]any {
	return map[string]any{
		"data":            fields,
		"additional_data": map[string]any{"pagination": map[string]any{"more_items_in_collection": false}},
	}
}

func TestHandler_Compare(t *testing.T) {
	t.Run("reports missing deal fields", func(t *testing.T) {
		server := newTestServer(t, testConfig())
		server.pipedrive.HandleJSON(http.MethodGet, "/api/v1/dealFields", http.StatusOK, dealFieldsPage(
			map[string]any{"id": 1, "key": "budgetkey", "name": "Budget", "field_type": "double"},
		))

		rec := server.do(http.MethodGet, "/api/v1/compare?entity=deal", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var result reconciliation.CompareResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, "lead", result.Form.ID)
		assert.Len(t, result.TypeformFields, 2)
		require.Len(t, result.MissingOnPipedrive, 1)
		assert.Equal(t, "imie", result.MissingOnPipedrive[0].Suggested.Name)
		assert.NotEmpty(t, result.NamingConvention)
	})

	t.Run("unknown entity is a 400", func(t *testing.T) {
		server := newTestServer(t, testConfig())

		rec := server.do(http.MethodGet, "/api/v1/compare?entity=org", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, server.typeform.Calls())
	})

	t.Run("missing crm token is a 500", func(t *testing.T) {
		cfg := testConfig()
		cfg.PipedriveAPIToken = ""
		server := newTestServer(t, cfg)

		rec := server.do(http.MethodGet, "/api/v1/compare", "")
		require.Equal(t, http.StatusInternalServerError, rec.Code)

		var body middleware.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "PIPEDRIVE_API_TOKEN", body.Meta["setting"])
	})

	t.Run("upstream failure is a 502 with the upstream status", func(t *testing.T) {
		server := newTestServer(t, testConfig())
		server.pipedrive.Handle(http.MethodGet, "/api/v1/dealFields", func(_ fakeclient.Call) (*httpclient.Response, error) {
			return fakeclient.Text(http.StatusTooManyRequests, "slow down")
		})

		rec := server.do(http.MethodGet, "/api/v1/compare", "")
		require.Equal(t, http.StatusBadGateway, rec.Code)

		var body middleware.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "429", body.Meta["upstream_status"])
		assert.Equal(t, "slow down", body.Meta["upstream_body"])
	})
}

func TestHandler_CreateField(t *testing.T) {
	t.Run("existing field is not created again", func(t *testing.T) {
		server := newTestServer(t, testConfig())
		server.pipedrive.HandleJSON(http.MethodGet, "/api/v1/dealFields", http.StatusOK, dealFieldsPage(
			map[string]any{"id": 3, "key": "budgetkey", "name": "Budget", "field_type": "double"},
		))

		rec := server.do(http.MethodPost, "/api/v1/create-field", `{"entity":"deal","name":"budget","field_type":"numeric"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var result map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, false, result["created"])
		assert.Equal(t, "budgetkey", result["key"])
		assert.Empty(t, server.pipedrive.CallsTo(http.MethodPost, "/api/v1/dealFields"))
	})

	t.Run("new person field is created", func(t *testing.T) {
		server := newTestServer(t, testConfig())
		server.pipedrive.
			HandleJSON(http.MethodGet, "/api/v1/personFields", http.StatusOK, dealFieldsPage()).
			HandleJSON(http.MethodPost, "/api/v1/personFields", http.StatusCreated, map[string]any{
				"data": map[string]any{"id": 9, "key": "k9", "name": "Plan", "field_type": "set"},
			})

		rec := server.do(http.MethodPost, "/api/v1/create-field", `{"entity":"person","name":"Plan","field_type":"multi-choice","options":["A","B"]}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var result map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, true, result["created"])
		assert.Equal(t, "k9", result["key"])

		calls := server.pipedrive.CallsTo(http.MethodPost, "/api/v1/personFields")
		require.Len(t, calls, 1)
		assert.JSONEq(t, `{"name":"Plan","field_type":"set","options":[{"label":"A"},{"label":"B"}]}`, string(calls[0].Body))
	})

	testCases := []struct {
		name  string
		body  string
		field string
	}{
		{name: "missing name", body: `{"field_type":"varchar"}`, field: "name"},
		{name: "missing type", body: `{"name":"x"}`, field: "field_type"},
		{name: "bad entity", body: `{"entity":"org","name":"x","field_type":"varchar"}`, field: "entity"},
		{name: "bad type", body: `{"name":"x","field_type":"blob"}`, field: "field_type"},
		{name: "choice without options", body: `{"name":"x","field_type":"enum"}`, field: "options"},
		{name: "malformed body", body: `{"name":`, field: "body"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			server := newTestServer(t, testConfig())

			rec := server.do(http.MethodPost, "/api/v1/create-field", testCase.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var body middleware.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, testCase.field, body.Meta["field"])
			assert.Empty(t, server.pipedrive.Calls())
		})
	}
}

func TestHandler_Lookups(t *testing.T) {
	server := newTestServer(t, testConfig())
	server.pipedrive.
		HandleJSON(http.MethodGet, "/api/v1/dealFields", http.StatusOK, dealFieldsPage(
			map[string]any{"id": 1, "key": "title", "name": "Title", "field_type": "varchar"},
		)).
		HandleJSON(http.MethodGet, "/api/v1/pipelines", http.StatusOK, map[string]any{"data": []map[string]any{{"id": 1}}}).
		HandleJSON(http.MethodGet, "/api/v1/stages", http.StatusOK, map[string]any{"data": []map[string]any{{"id": 4, "pipeline_id": 1}}})

	rec := server.do(http.MethodGet, "/api/v1/pipedrive/deal-fields", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var fields DealFieldsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fields))
	assert.Equal(t, 1, fields.Count)

	rec = server.do(http.MethodGet, "/api/v1/pipedrive/pipelines", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1}]`, rec.Body.String())

	rec = server.do(http.MethodGet, "/api/v1/pipedrive/stages?pipeline_id=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":4,"pipeline_id":1}]`, rec.Body.String())
}
