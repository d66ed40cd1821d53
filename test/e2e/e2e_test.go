//go:build e2e

// Package e2e drives the wizard API against a local Redis and PostgreSQL:
//
//	docker compose up -d redis postgres
//	go test -tags e2e ./test/e2e/...
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pool-wizard/internal/backend"
	"pool-wizard/internal/common/config"
	"pool-wizard/internal/common/database"
	"pool-wizard/internal/common/logger"
	"pool-wizard/internal/ledger"
	"pool-wizard/internal/models"
	"pool-wizard/internal/server"
	"pool-wizard/internal/services/poolwizard"
	"pool-wizard/internal/session"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type apiClient struct {
	t   *testing.T
	url string
}

func (c *apiClient) call(method, path string, body interface{}) (int, envelope) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.url+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cookie", "sid=e2e")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp.StatusCode, env
}

func lendingBackend() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(models.AuthProfile{
			Authenticated: true,
			FirstName:     "Jane",
			LastName:      "Doe",
			Email:         "jane.doe@example.com",
			Phone:         "415-555-0134",
		})
	})
	mux.HandleFunc("/api/pools/create", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"pool-e2e","poolType":"equity","amount":250000,"roiRate":10,"term":12}`))
	})
	mux.HandleFunc("/api/pools", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"pool-e2e","poolType":"equity","amount":250000,"roiRate":10,"term":12}]`))
	})
	return httptest.NewServer(mux)
}

func TestWizardE2E(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	log := logger.NewTestLogger(t)

	rdb, err := database.NewRedis(config.RedisConfig{Address: envOr("E2E_REDIS_ADDRESS", "localhost:6379")})
	require.NoError(t, err, "redis client creation failed")
	require.NoError(t, rdb.Ping(ctx), "redis ping failed")
	defer rdb.Close()

	pg, err := database.NewPostgres(config.PostgresConfig{
		Host:     envOr("E2E_DB_HOST", "localhost"),
		Port:     5432,
		Database: envOr("E2E_DB_NAME", "pool_wizard"),
		User:     envOr("E2E_DB_USER", "postgres"),
		Password: envOr("E2E_DB_PASSWORD", "postgres"),
		SSLMode:  "disable",
	})
	require.NoError(t, err, "postgres connection failed")
	defer pg.Close()

	led := ledger.New(pg.GetDB(), log)
	require.NoError(t, led.RunMigrations(ctx))

	lending := lendingBackend()
	defer lending.Close()

	svc := poolwizard.NewService(poolwizard.Dependencies{
		Backend:  backend.NewClient(lending.URL, 5*time.Second, nil, log),
		Sessions: session.NewStore(rdb.GetClient(), time.Minute, fmt.Sprintf("e2e:%d:", time.Now().UnixNano()), log),
		Ledger:   led,
		Logger:   log,
	})
	api := httptest.NewServer(server.NewRouter(server.NewHandler(svc, log)))
	defer api.Close()
	c := &apiClient{t: t, url: api.URL}

	status, env := c.call(http.MethodPost, "/v1/wizard/sessions", map[string]string{"poolType": "equity"})
	require.Equal(t, http.StatusCreated, status)
	var view struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	base := "/v1/wizard/sessions/" + view.ID

	steps := []map[string]string{
		{"dateOfBirth": "1985-04-12", "ssn": "123-45-6789", "address": "1 Market St", "city": "San Francisco", "zipCode": "94105"},
		{"propertyAddress": "742 Evergreen Terrace", "propertyCity": "Oakland", "propertyZip": "94607", "propertyType": "single-family", "propertyValue": "$850,000"},
		{"amount": "$250,000", "roiRate": "10", "term": "12", "loanType": "interest-only"},
	}
	for i, values := range steps {
		status, _ = c.call(http.MethodPatch, fmt.Sprintf("%s/steps/%d", base, i+1), poolwizard.StepUpdate{Values: values})
		require.Equal(t, http.StatusOK, status)

		status, env = c.call(http.MethodPost, base+"/continue", nil)
		require.Equal(t, http.StatusOK, status)
		var nav struct {
			Advanced bool `json:"advanced"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &nav))
		require.True(t, nav.Advanced, "step %d blocked: %s", i+1, env.Data)
	}

	status, _ = c.call(http.MethodPost, base+"/jump", map[string]int{"step": 6})
	require.Equal(t, http.StatusOK, status)

	status, env = c.call(http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusCreated, status, "submit failed: %+v", env.Error)

	var result struct {
		Pool struct {
			ID string `json:"id"`
		} `json:"pool"`
		View struct {
			Phase string `json:"phase"`
		} `json:"view"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "pool-e2e", result.Pool.ID)
	assert.Equal(t, "confirmation", result.View.Phase)

	rows, err := led.ListBySession(ctx, view.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.SubmissionStatusCreated, rows[0].Status)
	assert.Equal(t, "pool-e2e", rows[0].PoolID)

	status, _ = c.call(http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, env = c.call(http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "SESSION_NOT_FOUND", env.Error.Code)
}
