// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/strikelab"
	"github.com/zintix-labs/strikelab/chain"
	"github.com/zintix-labs/strikelab/demo/demo_configs"
	"github.com/zintix-labs/strikelab/dto"
	"github.com/zintix-labs/strikelab/flow"
	"github.com/zintix-labs/strikelab/history"
	"github.com/zintix-labs/strikelab/identity"
	"github.com/zintix-labs/strikelab/sdk/core"
	"github.com/zintix-labs/strikelab/sdk/reveal"
	"github.com/zintix-labs/strikelab/server/api"
	"github.com/zintix-labs/strikelab/server/logger"
	"github.com/zintix-labs/strikelab/server/metrics"
	"github.com/zintix-labs/strikelab/server/netsvr"
	"github.com/zintix-labs/strikelab/server/svrcfg"
	"github.com/zintix-labs/strikelab/spec"
)

type env struct {
	srv *httptest.Server
	rt  *strikelab.Runtime
	ls  *spec.LabSetting
}

// newEnv 建立測試伺服器；rate <= 0 時給足夠大的 burst，避免非限流測試撞到 429。
func newEnv(t *testing.T, ident identity.Provider, rate float64) *env {
	t.Helper()
	burst := 2
	if rate <= 0 {
		burst = 1000
	}
	lab, err := strikelab.NewWithSeed(core.Default(), strikelab.Configs(demo_configs.FS), 42)
	if err != nil {
		t.Fatalf("new lab: %v", err)
	}
	if err := lab.RegisterAll(); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := lab.Freeze(); err != nil {
		t.Fatalf("freeze: %v", err)
	}
	ls, _, err := lab.Setting("")
	if err != nil {
		t.Fatalf("setting: %v", err)
	}
	if ident == nil {
		ident = identity.NewDemo("")
	}
	log := logger.NewDefaultLogger(logger.ModeSilence)
	rt, err := lab.BuildRuntime(strikelab.RuntimeDeps{
		Wallet:   chain.NewSimulated(ls.Odds(), decimal.RequireFromString(ls.Chain.StrikeFeeETH)),
		History:  history.NewMemory(ls.History.MaxRecords),
		Identity: ident,
		Log:      log,
	})
	if err != nil {
		t.Fatalf("runtime: %v", err)
	}
	cfg := &svrcfg.SvrCfg{Log: log, Runtime: rt, SimEnabled: true, RatePerSec: rate, RateBurst: burst}
	if err := cfg.Valid(); err != nil {
		t.Fatalf("cfg: %v", err)
	}
	svr := netsvr.NewChiServer(":0", 0)
	if err := api.RegisterRoutes(svr, cfg, metrics.New()); err != nil {
		t.Fatalf("routes: %v", err)
	}
	ts := httptest.NewServer(svr.Handler())
	t.Cleanup(func() {
		ts.Close()
		rt.Close()
	})
	return &env{srv: ts, rt: rt, ls: ls}
}

func (e *env) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (e *env) newSession(t *testing.T) dto.SessionResponse {
	t.Helper()
	var s dto.SessionResponse
	if code := e.do(t, http.MethodPost, "/v1/sessions", nil, &s); code != http.StatusCreated {
		t.Fatalf("create session = %d", code)
	}
	return s
}

// solve 依謎題種類把謎題玩到完成。
func (e *env) solve(t *testing.T, id string, st flow.State) flow.State {
	t.Helper()
	base := "/v1/sessions/" + id
	var resp dto.StepResponse
	switch st.PuzzleType {
	case spec.KindClick:
		for i := range st.Puzzle.Cells {
			if code := e.do(t, http.MethodPost, fmt.Sprintf("%s/tiles/%d", base, i), nil, &resp); code != http.StatusOK {
				t.Fatalf("tile %d = %d", i, code)
			}
		}
	case spec.KindScratch:
		c := e.ls.Puzzles.Scratch.Canvas
		pts := reveal.Raster(c.Width, c.Height, c.BrushRadius)
		if code := e.do(t, http.MethodPost, base+"/scratch", dto.StrokeRequest{Points: pts}, &resp); code != http.StatusOK {
			t.Fatalf("scratch = %d", code)
		}
	case spec.KindSwipe:
		c := e.ls.Puzzles.Swipe
		pts := reveal.Raster(c.Width, c.Height, c.BrushRadius)
		if code := e.do(t, http.MethodPost, base+"/swipe", dto.StrokeRequest{Points: pts}, &resp); code != http.StatusOK {
			t.Fatalf("swipe = %d", code)
		}
	case spec.KindDrag:
		for i := 0; i < e.ls.Puzzles.Drag.Pieces; i++ {
			if code := e.do(t, http.MethodPost, fmt.Sprintf("%s/pieces/%d", base, i), dto.DropRequest{}, &resp); code != http.StatusOK {
				t.Fatalf("piece %d = %d", i, code)
			}
		}
	default:
		t.Fatalf("unexpected puzzle %q", st.PuzzleType)
	}
	return resp.State
}

func TestTiers(t *testing.T) {
	e := newEnv(t, nil, 0)
	var info dto.LabInfo
	if code := e.do(t, http.MethodGet, "/v1/tiers", nil, &info); code != http.StatusOK {
		t.Fatalf("tiers = %d", code)
	}
	if info.Name != "spark-strike" || len(info.Tiers) != 3 {
		t.Fatalf("info = %+v", info)
	}
	if info.Tiers[2].Tier != spec.Gold || info.Tiers[2].PriceUSD != "$20" || info.Tiers[2].Prizes[4] != "$50" {
		t.Fatalf("gold = %+v", info.Tiers[2])
	}
	var labs []dto.LabInfo
	if code := e.do(t, http.MethodGet, "/v1/labs", nil, &labs); code != http.StatusOK || len(labs) != 2 {
		t.Fatalf("labs = %d, %d", code, len(labs))
	}
	if code := e.do(t, http.MethodGet, "/v1/tiers?lab=nope", nil, nil); code != http.StatusNotFound {
		t.Fatalf("unknown lab = %d", code)
	}
}

func TestLabConfigYAML(t *testing.T) {
	e := newEnv(t, nil, 0)
	resp, err := http.Get(e.srv.URL + "/v1/labs/spark-strike/config")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("config = %d %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/yaml") {
		t.Fatalf("content type = %q", ct)
	}
	for _, want := range []string{"lab_name:", "tiers:", "puzzles:"} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("config missing %q:\n%s", want, body)
		}
	}
	if code := e.do(t, http.MethodGet, "/v1/labs/nope/config", nil, nil); code != http.StatusNotFound {
		t.Fatalf("unknown lab config = %d", code)
	}
}

func TestSessionPlayThrough(t *testing.T) {
	e := newEnv(t, nil, 0)
	s := e.newSession(t)
	base := "/v1/sessions/" + s.Session

	var got dto.SessionResponse
	if code := e.do(t, http.MethodGet, base, nil, &got); code != http.StatusOK || got.State.Stage != flow.StagePurchase {
		t.Fatalf("get = %d %+v", code, got.State)
	}
	if code := e.do(t, http.MethodPost, base+"/purchase", dto.PurchaseRequest{Tier: "Gold"}, &got); code != http.StatusOK {
		t.Fatalf("purchase = %d", code)
	}
	if got.State.Stage != flow.StagePuzzle || got.State.Tier != spec.Gold || got.State.Ticket == nil {
		t.Fatalf("after purchase = %+v", got.State)
	}
	// 謎題中不得再買
	if code := e.do(t, http.MethodPost, base+"/purchase", dto.PurchaseRequest{Tier: "gold"}, nil); code != http.StatusConflict {
		t.Fatalf("double purchase = %d", code)
	}

	st := e.solve(t, s.Session, got.State)
	if st.Stage != flow.StageResults {
		t.Fatalf("stage = %s", st.Stage)
	}
	if !st.IsWinner && st.PrizeAmount != nil {
		t.Fatalf("loser paid %v", st.PrizeAmount)
	}

	var h dto.HistoryResponse
	if code := e.do(t, http.MethodGet, "/v1/history", nil, &h); code != http.StatusOK {
		t.Fatalf("history = %d", code)
	}
	if h.Player != identity.DemoPlayerID || len(h.Records) != 1 || h.Records[0].Tier != spec.Gold {
		t.Fatalf("history = %+v", h)
	}
	var total dto.TotalResponse
	if code := e.do(t, http.MethodGet, "/v1/history/total", nil, &total); code != http.StatusOK || total.Total != h.Total {
		t.Fatalf("total = %d %+v", code, total)
	}

	if code := e.do(t, http.MethodPost, base+"/play-again", nil, &got); code != http.StatusOK || got.State.Stage != flow.StagePurchase {
		t.Fatalf("play again = %d %+v", code, got.State)
	}
	if code := e.do(t, http.MethodDelete, "/v1/history", nil, nil); code != http.StatusNoContent {
		t.Fatalf("clear = %d", code)
	}
	if code := e.do(t, http.MethodGet, "/v1/history", nil, &h); code != http.StatusOK || len(h.Records) != 0 || h.Total != "$0" {
		t.Fatalf("after clear = %d %+v", code, h)
	}
}

func TestSessionErrors(t *testing.T) {
	e := newEnv(t, nil, 0)
	if code := e.do(t, http.MethodGet, "/v1/sessions/missing", nil, nil); code != http.StatusNotFound {
		t.Fatalf("missing = %d", code)
	}
	if code := e.do(t, http.MethodPost, "/v1/sessions", dto.CreateSessionRequest{Lab: "nope"}, nil); code != http.StatusNotFound {
		t.Fatalf("unknown lab = %d", code)
	}
	s := e.newSession(t)
	base := "/v1/sessions/" + s.Session
	if code := e.do(t, http.MethodPost, base+"/purchase", dto.PurchaseRequest{Tier: "platinum"}, nil); code != http.StatusBadRequest {
		t.Fatalf("unknown tier = %d", code)
	}
	if code := e.do(t, http.MethodPost, base+"/purchase", map[string]string{}, nil); code != http.StatusBadRequest {
		t.Fatalf("missing tier = %d", code)
	}
	if code := e.do(t, http.MethodPost, base+"/purchase", map[string]string{"tier": "gold", "x": "1"}, nil); code != http.StatusBadRequest {
		t.Fatalf("unknown field = %d", code)
	}
	if code := e.do(t, http.MethodPost, base+"/tiles/0", nil, nil); code != http.StatusConflict {
		t.Fatalf("tile before purchase = %d", code)
	}
	if code := e.do(t, http.MethodPost, base+"/tiles/x", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("bad index = %d", code)
	}
	if code := e.do(t, http.MethodPost, base+"/play-again", nil, nil); code != http.StatusConflict {
		t.Fatalf("play again in purchase = %d", code)
	}
	if code := e.do(t, http.MethodDelete, base, nil, nil); code != http.StatusNoContent {
		t.Fatalf("delete = %d", code)
	}
	if code := e.do(t, http.MethodDelete, base, nil, nil); code != http.StatusNotFound {
		t.Fatalf("delete again = %d", code)
	}
}

func TestAuthenticatedHistoryRequiresToken(t *testing.T) {
	jwt := identity.NewJWT([]byte("test-secret"), "strikelab")
	e := newEnv(t, jwt, 0)
	if code := e.do(t, http.MethodGet, "/v1/history", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("no token = %d", code)
	}
	tok, err := jwt.Issue("player-1", "0xabc", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req, _ := http.NewRequest(http.MethodGet, e.srv.URL+"/v1/history", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var h dto.HistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil || resp.StatusCode != http.StatusOK || h.Player != "player-1" {
		t.Fatalf("with token = %d %+v %v", resp.StatusCode, h, err)
	}
}

func TestPurchaseRateLimited(t *testing.T) {
	e := newEnv(t, nil, 0.001)
	limited := false
	for i := 0; i < 4; i++ {
		s := e.newSession(t)
		req, _ := http.NewRequest(http.MethodPost, e.srv.URL+"/v1/sessions/"+s.Session+"/purchase", strings.NewReader(`{"tier":"bronze"}`))
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("purchase: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			if resp.Header.Get("Retry-After") == "" {
				t.Fatalf("429 without Retry-After")
			}
			if i != 2 {
				t.Fatalf("limited at purchase %d, want 2", i)
			}
			limited = true
			break
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("purchase = %d", resp.StatusCode)
		}
	}
	if !limited {
		t.Fatalf("burst of 2 should be exceeded")
	}
}

func TestSimAndTrace(t *testing.T) {
	e := newEnv(t, nil, 0)
	var sim struct {
		Lab   string `json:"lab"`
		Seed  int64  `json:"seed"`
		Stats struct {
			Summary struct {
				Rounds  int `json:"Rounds"`
				Winners int `json:"Winners"`
			} `json:"Summary"`
		} `json:"stats"`
	}
	if code := e.do(t, http.MethodGet, "/v1/sim?tier=gold&rounds=2000&workers=2&seed=5", nil, &sim); code != http.StatusOK {
		t.Fatalf("sim = %d", code)
	}
	if sim.Seed != 5 || sim.Stats.Summary.Rounds != 4000 {
		t.Fatalf("sim = %+v", sim)
	}
	if code := e.do(t, http.MethodGet, "/v1/sim?tier=gold&rounds=0", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("zero rounds = %d", code)
	}
	if code := e.do(t, http.MethodGet, "/v1/sim?tier=platinum", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("unknown tier = %d", code)
	}

	var first, again strikelab.DevPlayReport
	if code := e.do(t, http.MethodPost, "/v1/trace", dto.TraceRequest{Tier: spec.Silver, Rounds: 20}, &first); code != http.StatusOK {
		t.Fatalf("trace = %d", code)
	}
	if len(first.Results) != 20 {
		t.Fatalf("results = %d", len(first.Results))
	}
	q := "/v1/trace?tier=silver&rounds=20&start_b64u=" + first.Before
	if code := e.do(t, http.MethodGet, q, nil, &again); code != http.StatusOK {
		t.Fatalf("replay = %d", code)
	}
	if !reflect.DeepEqual(first.Results, again.Results) || first.After != again.After {
		t.Fatalf("replay diverged")
	}
	if code := e.do(t, http.MethodGet, "/v1/trace?tier=silver&start_b64u=!!", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("bad snapshot = %d", code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	e := newEnv(t, nil, 0)
	e.newSession(t)
	resp, err := http.Get(e.srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(b), "strikelab_http_requests_total") {
		t.Fatalf("metrics = %d", resp.StatusCode)
	}
	if !strings.Contains(string(b), `route="/v1/sessions"`) {
		t.Fatalf("route label missing")
	}
}

func TestHistoryStream(t *testing.T) {
	e := newEnv(t, nil, 0)
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/v1/history/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	s := e.newSession(t)
	var got dto.SessionResponse
	if code := e.do(t, http.MethodPost, "/v1/sessions/"+s.Session+"/purchase", dto.PurchaseRequest{Tier: "silver"}, &got); code != http.StatusOK {
		t.Fatalf("purchase = %d", code)
	}
	e.solve(t, s.Session, got.State)

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg dto.StreamMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Kind != flow.EventHistoryChanged || msg.Session != s.Session || msg.Record == nil || msg.Total == "" {
		t.Fatalf("msg = %+v", msg)
	}
}
