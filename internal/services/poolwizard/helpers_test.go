package poolwizard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"pool-wizard/internal/backend"
	"pool-wizard/internal/common/logger"
	"pool-wizard/internal/models"
	"pool-wizard/internal/notify"
	"pool-wizard/internal/session"
	"pool-wizard/internal/wizard"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)

// fakeBackend serves the slice of the lending API the wizard calls.
type fakeBackend struct {
	mu           sync.Mutex
	createStatus int
	createBody   string
	createCalls  int
	lastCreate   models.CreatePoolRequest
	lastCookie   string
	meStatus     int
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		status := f.meStatus
		f.mu.Unlock()
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		_ = json.NewEncoder(w).Encode(models.AuthProfile{
			Authenticated: true,
			FirstName:     "Jane",
			LastName:      "Doe",
			Email:         "jane.doe@example.com",
			Phone:         "(415) 555-0134",
		})
	})
	mux.HandleFunc("/api/pools/create", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.createCalls++
		f.lastCookie = r.Header.Get("Cookie")
		_ = json.NewDecoder(r.Body).Decode(&f.lastCreate)
		w.WriteHeader(f.createStatus)
		_, _ = w.Write([]byte(f.createBody))
	})
	mux.HandleFunc("/api/pools", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"pool-1","poolType":"equity","amount":250000,"roiRate":10,"term":12}]`))
	})
	return mux
}

func (f *fakeBackend) respondCreate(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createStatus, f.createBody = status, body
}

func (f *fakeBackend) respondMe(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meStatus = status
}

// snapshot returns the last create request, its cookie and the call count.
func (f *fakeBackend) snapshot() (models.CreatePoolRequest, string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastCreate, f.lastCookie, f.createCalls
}

type mockLedger struct{ mock.Mock }

func (m *mockLedger) Record(ctx context.Context, sub *models.Submission) error {
	return m.Called(ctx, sub).Error(0)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) NotifyPoolCreated(ctx context.Context, evt notify.PoolCreated) []models.Notification {
	args := m.Called(ctx, evt)
	out, _ := args.Get(0).([]models.Notification)
	return out
}

type mockProcesses struct{ mock.Mock }

func (m *mockProcesses) StartProcess(ctx context.Context, processID string, variables map[string]interface{}) (int64, error) {
	args := m.Called(ctx, processID, variables)
	return args.Get(0).(int64), args.Error(1)
}

type testEnv struct {
	svc       *Service
	backend   *fakeBackend
	store     *session.Store
	ledger    *mockLedger
	notifier  *mockNotifier
	processes *mockProcesses
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	fb := &fakeBackend{createStatus: http.StatusOK, createBody: `{"id":"pool-1","poolType":"equity","amount":250000,"roiRate":10,"term":12}`}
	srv := httptest.NewServer(fb.handler())
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	log := logger.NewTestLogger(t)
	store := session.NewStore(rdb, 30*time.Minute, "", log)
	env := &testEnv{
		backend:   fb,
		store:     store,
		ledger:    &mockLedger{},
		notifier:  &mockNotifier{},
		processes: &mockProcesses{},
	}
	env.svc = NewService(Dependencies{
		Backend:   backend.NewClient(srv.URL, 2*time.Second, nil, log),
		Sessions:  store,
		Ledger:    env.ledger,
		Notifier:  env.notifier,
		Processes: env.processes,
		Logger:    log,
	})
	env.svc.nowFn = func() time.Time { return testNow }
	n := 0
	env.svc.newID = func() string {
		n++
		return "sess-" + strconv.Itoa(n)
	}
	return env
}

var testCreds = models.Credentials{Cookie: "sid=abc123"}

// fillToReview walks a fresh session through steps 1 to 5 with valid input.
func fillToReview(t *testing.T, env *testEnv) string {
	t.Helper()
	ctx := context.Background()

	view, err := env.svc.Open(ctx, testCreds, "equity")
	require.NoError(t, err)
	id := view.ID

	steps := []struct {
		step   wizard.Step
		values map[string]string
	}{
		{wizard.StepPersonalInfo, map[string]string{
			"dateOfBirth": "1985-04-12",
			"ssn":         "123-45-6789",
			"address":     "1 Market St",
			"city":        "San Francisco",
			"zipCode":     "94105",
		}},
		{wizard.StepPropertyInfo, map[string]string{
			"propertyAddress": "742 Evergreen Terrace",
			"propertyCity":    "Oakland",
			"propertyZip":     "94607",
			"propertyType":    "single-family",
			"propertyValue":   "$850,000",
		}},
		{wizard.StepPoolTerms, map[string]string{
			"amount":   "$250,000",
			"roiRate":  "10",
			"term":     "12",
			"loanType": "interest-only",
		}},
	}
	for _, s := range steps {
		_, err := env.svc.UpdateStep(ctx, id, s.step, StepUpdate{Values: s.values})
		require.NoError(t, err)
		res, err := env.svc.Continue(ctx, id)
		require.NoError(t, err)
		require.True(t, res.Advanced, "step %s blocked: %v", s.step, res.Errors)
	}
	for i := 0; i < 2; i++ {
		res, err := env.svc.Continue(ctx, id)
		require.NoError(t, err)
		require.True(t, res.Advanced)
	}
	return id
}
