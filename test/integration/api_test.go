// Package integration provides end-to-end integration tests for the outreach
// API. Tests run the full router against both PostgreSQL and MySQL databases.
package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/outreach/internal/app"
	"github.com/allisson/outreach/internal/config"
	correlationHTTP "github.com/allisson/outreach/internal/correlation/http"
	correlationUseCase "github.com/allisson/outreach/internal/correlation/usecase"
	"github.com/allisson/outreach/internal/testutil"
)

const testWebhookSecret = "integration-test-webhook-secret"

// integrationTestContext holds all dependencies and state for integration testing.
type integrationTestContext struct {
	container *app.Container
	db        *sql.DB
	server    *httptest.Server
	dbDriver  string
}

// makeRequest performs an HTTP request and returns the response and body.
// When sign is true the request carries the webhook signature header computed
// over the marshaled body.
func (ctx *integrationTestContext) makeRequest(
	t *testing.T,
	method, path string,
	body interface{},
	sign bool,
) (*http.Response, []byte) {
	t.Helper()

	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
	}

	req, err := http.NewRequest(method, ctx.server.URL+path, bytes.NewReader(bodyBytes))
	require.NoError(t, err, "failed to create request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sign {
		req.Header.Set(
			correlationHTTP.SignatureHeader,
			correlationUseCase.ComputeSignature([]byte(testWebhookSecret), bodyBytes),
		)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err, "failed to perform request")

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	require.NoError(t, resp.Body.Close(), "failed to close response body")

	return resp, respBody
}

// setupIntegrationTest initializes all components for integration testing.
func setupIntegrationTest(t *testing.T, dbDriver string) *integrationTestContext {
	t.Helper()

	gin.SetMode(gin.TestMode)

	// Setup database
	var db *sql.DB
	var dsn string
	if dbDriver == "postgres" {
		testutil.SkipIfNoPostgres(t)
		db = testutil.SetupPostgresDB(t)
		dsn = testutil.GetPostgresTestDSN()
	} else {
		testutil.SkipIfNoMySQL(t)
		db = testutil.SetupMySQLDB(t)
		dsn = testutil.GetMySQLTestDSN()
	}

	cfg := &config.Config{
		ServerHost:             "localhost",
		ServerPort:             8080,
		DBDriver:               dbDriver,
		DBConnectionString:     dsn,
		DBMaxOpenConnections:   10,
		DBMaxIdleConnections:   5,
		DBConnMaxLifetime:      time.Hour,
		LogLevel:               "error",
		QueueConcurrency:       1,
		QueuePollInterval:      100 * time.Millisecond,
		QueueMaxAttempts:       3,
		QueueRetryBaseDelay:    time.Second,
		QueueStuckGracePeriod:  5 * time.Minute,
		QueueFallbackPacing:    10 * time.Millisecond,
		QueueHistoryLimit:      100,
		PipelineBatchSize:      10,
		PipelineBatchesPerSec:  10,
		PipelineStageTimeout:   30 * time.Second,
		WebhookSecret:          testWebhookSecret,
		WebhookRateLimitPerSec: 100,
		WebhookRateLimitBurst:  100,
		CorrelationWindow:      14 * 24 * time.Hour,
		CorrelationLookback:    24 * time.Hour,
		OrganizationDomains:    []string{"outreach.test"},
	}

	container := app.NewContainer(cfg)

	httpSrv, err := container.HTTPServer()
	require.NoError(t, err, "failed to get HTTP server")

	handler := httpSrv.GetHandler()
	require.NotNil(t, handler, "handler should not be nil after SetupRouter")

	testServer := httptest.NewServer(handler)

	t.Logf("Integration test setup complete for %s", dbDriver)

	return &integrationTestContext{
		container: container,
		db:        db,
		server:    testServer,
		dbDriver:  dbDriver,
	}
}

// teardownIntegrationTest cleans up all resources.
func teardownIntegrationTest(t *testing.T, ctx *integrationTestContext) {
	t.Helper()

	if ctx.server != nil {
		ctx.server.Close()
	}

	if ctx.container != nil {
		if err := ctx.container.Shutdown(context.Background()); err != nil {
			t.Logf("Warning: container shutdown error: %v", err)
		}
	}

	if ctx.db != nil {
		testutil.TeardownDB(t, ctx.db)
	}

	t.Logf("Integration test teardown complete for %s", ctx.dbDriver)
}

// driverTestCases enumerates the databases every integration flow runs against.
var driverTestCases = []struct {
	name     string
	dbDriver string
}{
	{"PostgreSQL", "postgres"},
	{"MySQL", "mysql"},
}

// TestIntegration_Health_BasicChecks validates infrastructure health and
// readiness endpoints against both PostgreSQL and MySQL.
func TestIntegration_Health_BasicChecks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range driverTestCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			// [1/2] Test GET /health - Health check endpoint
			t.Run("01_HealthCheck", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/health", nil, false)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response map[string]string
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "healthy", response["status"])
			})

			// [2/2] Test GET /ready - Readiness with live database
			t.Run("02_Readiness", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/ready", nil, false)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response struct {
					Status     string            `json:"status"`
					Components map[string]string `json:"components"`
				}
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "ready", response.Status)
				assert.Equal(t, "ok", response.Components["database"])
			})
		})
	}
}

// TestIntegration_Campaign_Lifecycle validates the campaign control surface:
// pause, resume, progress and email job listing.
func TestIntegration_Campaign_Lifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range driverTestCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			campaignID := testutil.CreateTestCampaign(t, ctx.db, tc.dbDriver, "lifecycle-campaign")

			// [1/6] Pause an active campaign
			t.Run("01_PauseCampaign", func(t *testing.T) {
				resp, body := ctx.makeRequest(t,
					http.MethodPost, fmt.Sprintf("/v1/campaigns/%s/pause", campaignID), nil, false)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response map[string]string
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, campaignID.String(), response["campaign_id"])
				assert.Equal(t, "paused", response["status"])
			})

			// [2/6] Resume the paused campaign
			t.Run("02_ResumeCampaign", func(t *testing.T) {
				resp, body := ctx.makeRequest(t,
					http.MethodPost, fmt.Sprintf("/v1/campaigns/%s/resume", campaignID), nil, false)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response map[string]string
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "active", response["status"])
			})

			// [3/6] Progress for a campaign with no email jobs
			t.Run("03_Progress", func(t *testing.T) {
				resp, body := ctx.makeRequest(t,
					http.MethodGet, fmt.Sprintf("/v1/campaigns/%s/progress", campaignID), nil, false)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response struct {
					CampaignID  string  `json:"campaign_id"`
					Total       int     `json:"total"`
					PercentDone float64 `json:"percent_done"`
				}
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, campaignID.String(), response.CampaignID)
				assert.Equal(t, 0, response.Total)
				assert.Equal(t, 0.0, response.PercentDone)
			})

			// [4/6] Email job listing starts empty
			t.Run("04_ListEmailJobs", func(t *testing.T) {
				resp, body := ctx.makeRequest(t,
					http.MethodGet, fmt.Sprintf("/v1/campaigns/%s/email-jobs", campaignID), nil, false)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response struct {
					Data []json.RawMessage `json:"data"`
				}
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Empty(t, response.Data)
			})

			// [5/6] Unknown campaign returns 404
			t.Run("05_UnknownCampaign", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t,
					http.MethodPost, fmt.Sprintf("/v1/campaigns/%s/pause", uuid.New()), nil, false)
				assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			})

			// [6/6] Malformed campaign id returns 400
			t.Run("06_InvalidCampaignID", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t,
					http.MethodPost, "/v1/campaigns/not-a-uuid/pause", nil, false)
				assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			})
		})
	}
}

// TestIntegration_Queue_And_Retries validates the queue stats endpoint and
// the retry sweep endpoint on an empty database.
func TestIntegration_Queue_And_Retries(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range driverTestCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			// [1/2] Queue stats are all zero with no jobs
			t.Run("01_QueueStats", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/queue/stats", nil, false)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response map[string]int
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, 0, response["waiting"])
				assert.Equal(t, 0, response["active"])
				assert.Equal(t, 0, response["completed"])
				assert.Equal(t, 0, response["failed"])
			})

			// [2/2] Retry sweeps find nothing to do
			t.Run("02_RetrySweeps", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/retries", nil, false)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response struct {
					RequeuedEmailJobs int `json:"requeued_email_jobs"`
					ResetProspects    int `json:"reset_prospects"`
					DraftsCreated     int `json:"drafts_created"`
				}
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, 0, response.RequeuedEmailJobs)
				assert.Equal(t, 0, response.ResetProspects)
				assert.Equal(t, 0, response.DraftsCreated)
			})
		})
	}
}

// TestIntegration_Webhook_Signature validates webhook authentication and the
// unmatched event outcomes that never touch the reply analyzer.
func TestIntegration_Webhook_Signature(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range driverTestCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			event := map[string]interface{}{
				"message_id":  "msg-001",
				"from":        "prospect@example.com",
				"subject":     "Re: hello",
				"body":        "sounds interesting",
				"received_at": time.Now().UTC().Format(time.RFC3339),
			}

			// [1/4] Missing signature is rejected
			t.Run("01_MissingSignature", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/webhooks/inbound", event, false)
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			})

			// [2/4] Wrong signature is rejected
			t.Run("02_InvalidSignature", func(t *testing.T) {
				bodyBytes, err := json.Marshal(event)
				require.NoError(t, err)

				req, err := http.NewRequest(
					http.MethodPost, ctx.server.URL+"/v1/webhooks/inbound", bytes.NewReader(bodyBytes))
				require.NoError(t, err)
				req.Header.Set("Content-Type", "application/json")
				req.Header.Set(correlationHTTP.SignatureHeader, "deadbeef")

				resp, err := http.DefaultClient.Do(req)
				require.NoError(t, err)
				require.NoError(t, resp.Body.Close())
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			})

			// [3/4] Valid signature with an unknown sender is an expected unmatched outcome
			t.Run("03_UnknownSender", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/webhooks/inbound", event, true)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response map[string]interface{}
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "unmatched", response["match_type"])
				assert.Equal(t, "unknown sender", response["reason"])
			})

			// [4/4] Replies from the organization's own domain are filtered out
			t.Run("04_SelfAddress", func(t *testing.T) {
				selfEvent := map[string]interface{}{
					"from":        "sales@outreach.test",
					"received_at": time.Now().UTC().Format(time.RFC3339),
				}

				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/webhooks/inbound", selfEvent, true)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response map[string]interface{}
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "unmatched", response["match_type"])
				assert.Equal(t, "self address", response["reason"])
			})
		})
	}
}
