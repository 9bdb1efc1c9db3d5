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

package dto

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/sdk/reveal"
	"github.com/zintix-labs/strikelab/spec"
)

const (
	// 防止 body 過大（預設 1MiB）
	maxBody = 1 << 20

	DefaultSimRounds = 10_000
	MaxSimRounds     = 1_000_000
	MaxSimWorkers    = 64
	MaxTraceRounds   = 5_000
)

// CreateSessionRequest body 可省略，省略時使用預設設定。
type CreateSessionRequest struct {
	Lab string `json:"lab,omitempty"`
}

type PurchaseRequest struct {
	Tier string `json:"tier"`
}

// StrokeRequest 一段刮除或滑動軌跡（畫布座標）。
type StrokeRequest struct {
	Points []reveal.Point `json:"points"`
}

// DropRequest 拼圖碎片放下時相對槽位的位移。
type DropRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// SimRequest 機率模擬參數（GET query）。Rounds 為每個 worker 的張數。
type SimRequest struct {
	Lab     string
	Tier    spec.Tier
	Rounds  int
	Workers int
	Seed    *int64
}

// TraceRequest 可審計的逐張模擬；Start 為 PRNG 起始快照（Base64URL），空字串表示新局。
type TraceRequest struct {
	Lab    string    `json:"lab,omitempty"`
	Tier   spec.Tier `json:"tier"`
	Rounds int       `json:"rounds"`
	Start  string    `json:"start_b64u,omitempty"`
}

// DecodeJSON 以嚴格模式解析 JSON body：未知欄位即報錯；空 body 視為零值。
func DecodeJSON[T any](r *http.Request, dst *T) error {
	if r == nil || r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errs.WrapKind(err, errs.Warn, errs.KindNone, "invalid json")
	}
	return nil
}

// DecodePurchase 解析購票請求；tier 必填。
func DecodePurchase(r *http.Request) (spec.Tier, error) {
	req := PurchaseRequest{}
	if err := DecodeJSON(r, &req); err != nil {
		return "", err
	}
	if strings.TrimSpace(req.Tier) == "" {
		return "", errs.NewWarn("tier required")
	}
	return spec.ParseTier(strings.TrimSpace(req.Tier)), nil
}

// DecodeSimRequest 從 query string 讀取 lab/tier/rounds/workers/seed。
func DecodeSimRequest(r *http.Request) (*SimRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	q := r.URL.Query()
	req := &SimRequest{
		Lab:     q.Get("lab"),
		Tier:    spec.ParseTier(q.Get("tier")),
		Rounds:  DefaultSimRounds,
		Workers: 1,
	}
	if req.Tier == "" {
		return nil, errs.NewWarn("tier required")
	}
	var err error
	if req.Rounds, err = intParam(q.Get("rounds"), DefaultSimRounds, 1, MaxSimRounds, "rounds"); err != nil {
		return nil, err
	}
	if req.Workers, err = intParam(q.Get("workers"), 1, 1, MaxSimWorkers, "workers"); err != nil {
		return nil, err
	}
	if s := q.Get("seed"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil || v < 0 {
			return nil, errs.Warnf("invalid seed: %q", s)
		}
		req.Seed = &v
	}
	return req, nil
}

// DecodeTraceRequest 支援 GET（query）與 POST（JSON body）。
func DecodeTraceRequest(r *http.Request) (*TraceRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	req := &TraceRequest{}
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.Lab = q.Get("lab")
		req.Tier = spec.Tier(q.Get("tier"))
		req.Start = q.Get("start_b64u")
		n, err := intParam(q.Get("rounds"), 1, 1, MaxTraceRounds, "rounds")
		if err != nil {
			return nil, err
		}
		req.Rounds = n
	case http.MethodPost:
		if err := DecodeJSON(r, req); err != nil {
			return nil, err
		}
		if req.Rounds == 0 {
			req.Rounds = 1
		}
		if req.Rounds < 1 || req.Rounds > MaxTraceRounds {
			return nil, errs.Warnf("rounds must be between 1 and %d", MaxTraceRounds)
		}
	default:
		return nil, errs.NewWarn("method not allowed")
	}
	req.Tier = spec.ParseTier(strings.TrimSpace(string(req.Tier)))
	if req.Tier == "" {
		return nil, errs.NewWarn("tier required")
	}
	return req, nil
}

func intParam(s string, def, lo, hi int, name string) (int, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errs.Warnf("invalid %s: %v", name, err)
	}
	if v < lo || v > hi {
		return 0, errs.Warnf("%s must be between %d and %d", name, lo, hi)
	}
	return v, nil
}
