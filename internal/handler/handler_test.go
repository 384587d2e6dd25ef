package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/angryrobotdeals/mtagent/internal/auth"
	"github.com/angryrobotdeals/mtagent/internal/models"
	"github.com/angryrobotdeals/mtagent/internal/repository"
	"github.com/angryrobotdeals/mtagent/internal/service"
)

type dealKey struct {
	clientID   string
	ts         int64
	dealTicket int64
}

// memRepo backs the handler tests with the same visible semantics as
// the gorm store.
type memRepo struct {
	mu      sync.Mutex
	users   map[string]models.User
	signals []models.Signal
	deals   map[dealKey]models.DealHistory

	insertSignalErr error
}

func newMemRepo() *memRepo {
	return &memRepo{
		users: map[string]models.User{},
		deals: map[dealKey]models.DealHistory{},
	}
}

func (r *memRepo) CreateUser(ctx context.Context, item *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[item.Username]; ok {
		return repository.ErrDuplicate
	}
	r.users[item.Username] = *item
	return nil
}

func (r *memRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *memRepo) GetUserByToken(ctx context.Context, token string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token == "" {
		return nil, nil
	}
	for _, u := range r.users {
		if u.Token == token {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (r *memRepo) UpdateUserToken(ctx context.Context, username, token string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return 0, nil
	}
	u.Token = token
	r.users[username] = u
	return 1, nil
}

func (r *memRepo) ClearUserToken(ctx context.Context, username string) (int64, error) {
	return r.UpdateUserToken(ctx, username, "")
}

func (r *memRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *memRepo) InsertSignal(ctx context.Context, item *models.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertSignalErr != nil {
		return r.insertSignalErr
	}
	item.ID = uint64(len(r.signals) + 1)
	r.signals = append(r.signals, *item)
	return nil
}

func (r *memRepo) ListSignals(ctx context.Context, params repository.ListSignalsParams) ([]models.Signal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Signal
	for _, s := range r.signals {
		if params.ClientID != nil && s.ClientID != *params.ClientID {
			continue
		}
		if params.Since != nil && s.CreatedAt.Before(*params.Since) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *memRepo) DeleteSignalsBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (r *memRepo) UpsertDealHistory(ctx context.Context, item *models.DealHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deals[dealKey{item.ClientID, item.Time, item.DealTicket}] = *item
	return nil
}

// testServer wires the routes the way cmd/server does, with an
// adjustable clock for the freshness window.
type testServer struct {
	engine *gin.Engine
	repo   *memRepo
	clock  *time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := newMemRepo()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	ts := &testServer{repo: repo, clock: &now}

	tokenSvc := &service.TokenService{Repo: repo}
	signalSvc := &service.SignalService{Repo: repo, Now: func() time.Time { return *ts.clock }}
	historySvc := &service.HistoryService{Repo: repo}
	guard := &auth.Guard{Repo: repo}

	engine := gin.New()
	(&AuthHandler{Tokens: tokenSvc}).Register(engine, guard)
	(&SignalHandler{Signals: signalSvc, Tokens: tokenSvc}).Register(engine, guard)
	(&OrderHandler{History: historySvc, Tokens: tokenSvc}).Register(engine, guard)
	ts.engine = engine
	return ts
}

func (ts *testServer) seedAdmin(token string) {
	ts.repo.users[auth.AdminUsername] = models.User{Username: auth.AdminUsername, Token: token}
}

func (ts *testServer) advance(d time.Duration) {
	*ts.clock = ts.clock.Add(d)
}

func (ts *testServer) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) (int, map[string]any) {
	t.Helper()
	var resp struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, w.Body.String())
	}
	data := map[string]any{}
	if len(resp.Data) > 0 && resp.Data[0] == '{' {
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return resp.Code, data
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var resp struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode list: %v (body %s)", err, w.Body.String())
	}
	return resp.Data
}
