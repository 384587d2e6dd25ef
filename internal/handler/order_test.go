package handler

import (
	"net/http"
	"testing"
)

func registerClient(t *testing.T, ts *testServer, username string) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/auth/register", "x", map[string]string{"username": username})
	if w.Code != http.StatusOK {
		t.Fatalf("register %s: status = %d", username, w.Code)
	}
	_, data := decodeEnvelope(t, w)
	token, _ := data["token"].(string)
	return token
}

func TestPostHistoryRequiresKnownToken(t *testing.T) {
	ts := newTestServer(t)
	body := map[string]any{
		"username": "alice",
		"history":  []map[string]any{{"time": 1000, "deal_ticket": 55}},
	}

	w := ts.do(t, http.MethodPost, "/order/history", "", body)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no bearer: status = %d, want 401", w.Code)
	}

	// Bearer present but resolving to no identity.
	w = ts.do(t, http.MethodPost, "/order/history", "unknown-token", body)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unknown token: status = %d, want 401", w.Code)
	}
}

func TestPostHistoryEmptyBatch(t *testing.T) {
	ts := newTestServer(t)
	token := registerClient(t, ts, "alice")

	w := ts.do(t, http.MethodPost, "/order/history", token,
		map[string]any{"username": "alice", "history": []map[string]any{}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty history: status = %d, want 400", w.Code)
	}
}

func TestPostHistoryUpsert(t *testing.T) {
	ts := newTestServer(t)
	token := registerClient(t, ts, "alice")

	row := map[string]any{
		"time":        1000,
		"deal_ticket": 55,
		"symbol":      "EURUSD",
		"volume":      0.1,
		"profit":      10,
	}
	w := ts.do(t, http.MethodPost, "/order/history", token,
		map[string]any{"username": "alice", "history": []map[string]any{row}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	// Same natural key again with a new profit: still one stored row.
	row["profit"] = 25
	w = ts.do(t, http.MethodPost, "/order/history", token,
		map[string]any{"username": "alice", "history": []map[string]any{row}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	if len(ts.repo.deals) != 1 {
		t.Fatalf("stored %d rows, want 1", len(ts.repo.deals))
	}
	stored := ts.repo.deals[dealKey{"alice", 1000, 55}]
	if stored.Profit.IntPart() != 25 {
		t.Fatalf("profit = %s, want 25", stored.Profit)
	}
}

func TestPostHistoryPartialFailureReported(t *testing.T) {
	ts := newTestServer(t)
	token := registerClient(t, ts, "alice")

	history := []map[string]any{
		{"time": 1000, "deal_ticket": 55, "profit": 1},
		{"time": 0, "deal_ticket": 56, "profit": 2}, // malformed key
		{"time": 1002, "deal_ticket": 57, "profit": 3},
	}
	w := ts.do(t, http.MethodPost, "/order/history", token,
		map[string]any{"username": "alice", "history": history})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	code, data := decodeEnvelope(t, w)
	if code == 0 {
		t.Fatalf("batch with a bad row must flag failure: %s", w.Body.String())
	}
	if ok, _ := data["ok"].(bool); ok {
		t.Fatalf("report.ok = true, want false")
	}
	if up, _ := data["upserted"].(float64); up != 2 {
		t.Fatalf("upserted = %v, want 2", data["upserted"])
	}
	if len(ts.repo.deals) != 2 {
		t.Fatalf("stored %d rows, want 2", len(ts.repo.deals))
	}
}

func TestPostHistoryWritesUnderCallerIdentity(t *testing.T) {
	ts := newTestServer(t)
	token := registerClient(t, ts, "alice")

	// Body claims another username; the row lands under the token's
	// identity regardless.
	w := ts.do(t, http.MethodPost, "/order/history", token, map[string]any{
		"username": "mallory",
		"history":  []map[string]any{{"time": 1000, "deal_ticket": 55}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if _, ok := ts.repo.deals[dealKey{"alice", 1000, 55}]; !ok {
		t.Fatalf("row not stored under caller identity: %+v", ts.repo.deals)
	}
}
