package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"Stardust/internal/ads"
	"Stardust/internal/clock"
	"Stardust/internal/model"
	"Stardust/internal/session"
	"Stardust/internal/store"
)

func testCatalogs() model.Catalogs {
	return model.Catalogs{
		Upgrades: []model.Upgrade{{
			ID: "miner", Name: "Dust Miner", CostCurrency: model.CurrencyPrimary,
			BaseCost: 100, CostGrowthFactor: 1.6, MaxLevel: 10,
			Effect: model.UpgradeEffect{PassiveAdd: 10},
		}},
		DailyRewards: []model.DailyReward{{Kind: model.DailyStardust, Amount: 500}},
		Admin:        model.AdminConfig{DailyRewardMultiplier: 1, CipherCode: "ORION", CipherReward: 1000, MinWithdrawal: 100, PayoutRate: "0.01"},
	}
}

type fixture struct {
	srv  *httptest.Server
	sess *session.Manager
	gate *ads.Gate
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	gate := ads.NewGate()
	sess, err := session.Open(context.Background(), session.Deps{
		Store: st,
		Clock: clock.NewManual(time.Date(2025, 8, 1, 8, 0, 0, 0, time.UTC)),
		Ads:   gate,
	}, session.Options{
		PlayerID:        "p1",
		DisplayName:     "Nova",
		Catalogs:        testCatalogs(),
		Rules:           model.DefaultRules(),
		PersistDebounce: time.Millisecond,
		ManualHold:      true,
	})
	if err != nil {
		t.Fatal(err)
	}
	s := NewServer(sess)
	s.EnableMetrics()
	s.SetAdGate(gate)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		sess.Close(context.Background())
	})
	return fixture{srv: srv, sess: sess, gate: gate}
}

func (f fixture) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func TestRoutesStatus(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"state", http.MethodGet, "/api/state", "", http.StatusOK},
		{"unknown upgrade", http.MethodPost, "/api/upgrades/ghost/purchase", "", http.StatusNotFound},
		{"cannot afford", http.MethodPost, "/api/upgrades/miner/purchase", "", http.StatusConflict},
		{"wrong cipher", http.MethodPost, "/api/cipher", `{"code":"nope"}`, http.StatusConflict},
		{"bad body", http.MethodPost, "/api/cipher", `{`, http.StatusBadRequest},
		{"unknown ad", http.MethodPost, "/api/ads/nope/complete", "", http.StatusNotFound},
		{"no offline income", http.MethodPost, "/api/offline/claim", "", http.StatusConflict},
		{"leaderboard", http.MethodGet, "/api/leaderboard?limit=5", "", http.StatusOK},
		{"rank", http.MethodGet, "/api/rank", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := f.do(t, tt.method, tt.path, tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("%s %s: status %d, want %d (%s)", tt.method, tt.path, resp.StatusCode, tt.want, body)
			}
		})
	}
}

func TestDailyThenUpgrade(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPost, "/api/daily/claim", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("daily claim: %d %s", resp.StatusCode, body)
	}
	var p model.Player
	if err := json.Unmarshal(body, &p); err != nil {
		t.Fatal(err)
	}
	if p.Balance != 500 {
		t.Fatalf("expected balance 500, got %v", p.Balance)
	}

	resp, _ = f.do(t, http.MethodPost, "/api/daily/claim", "")
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second daily claim: status %d, want 409", resp.StatusCode)
	}

	resp, body = f.do(t, http.MethodPost, "/api/upgrades/miner/purchase", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("purchase: %d %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, &p); err != nil {
		t.Fatal(err)
	}
	if p.Balance != 400 || p.PassiveIncomePerHour != 10 {
		t.Errorf("unexpected player after purchase: balance=%v passive=%v", p.Balance, p.PassiveIncomePerHour)
	}
}

func TestAdTicketFlow(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPost, "/api/level/ad", "")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("level ad: %d %s", resp.StatusCode, body)
	}
	var tr ticketResponse
	if err := json.Unmarshal(body, &tr); err != nil || tr.Ticket == "" {
		t.Fatalf("expected a ticket, got %s (%v)", body, err)
	}

	resp, _ = f.do(t, http.MethodPost, "/api/ads/"+tr.Ticket+"/complete", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("complete: status %d", resp.StatusCode)
	}

	deadline := time.Now().Add(2 * time.Second)
	for f.sess.Player().LastAdWatchedAt.IsZero() {
		if time.Now().After(deadline) {
			t.Fatal("ad completion was not applied")
		}
		time.Sleep(5 * time.Millisecond)
	}

	resp, _ = f.do(t, http.MethodPost, "/api/ads/"+tr.Ticket+"/complete", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("resolving a ticket twice: status %d, want 404", resp.StatusCode)
	}
}

func TestHoldReleaseWithoutTicks(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPost, "/api/hold/start", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "holding") {
		t.Fatalf("hold start: %d %s", resp.StatusCode, body)
	}
	resp, _ = f.do(t, http.MethodPost, "/api/hold/start", "")
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second start: status %d, want 409", resp.StatusCode)
	}
	resp, body = f.do(t, http.MethodPost, "/api/hold/release", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "idle") {
		t.Errorf("release: %d %s", resp.StatusCode, body)
	}
}

func TestDeleteAccountBlocksActions(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodDelete, "/api/account", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: %d %s", resp.StatusCode, body)
	}
	resp, _ = f.do(t, http.MethodPost, "/api/daily/claim", "")
	if resp.StatusCode != http.StatusGone {
		t.Errorf("action after deletion: status %d, want 410", resp.StatusCode)
	}
}

func TestVisibilityPauses(t *testing.T) {
	f := newFixture(t)
	resp, body := f.do(t, http.MethodPost, "/api/visibility", `{"visible":false}`)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"paused":true`) {
		t.Errorf("visibility: %d %s", resp.StatusCode, body)
	}
}
