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

package v1

import (
	"context"
	"net/http"

	"github.com/zintix-labs/strikelab"
	"github.com/zintix-labs/strikelab/dto"
	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/stats"
)

// SimResponse 模擬報表與耗時。
type SimResponse struct {
	Lab      string            `json:"lab"`
	Seed     int64             `json:"seed"`
	Stats    *stats.StatReport `json:"stats"`
	UsedTime int64             `json:"used_ms"`
}

// runBounded 在 ctx 期限內等待 fn；逾時直接回應，fn 在背景跑完後丟棄。
func runBounded[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()
	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, errs.Wrap(ctx.Err(), "simulation timeout")
	}
}

// Sim GET /v1/sim?lab=&tier=&rounds=&workers=&seed=
func (h *Handler) Sim(w http.ResponseWriter, q *http.Request) {
	req, err := dto.DecodeSimRequest(q)
	if err != nil {
		h.fail(w, "sim", err)
		return
	}
	lab := h.rt.Lab()
	ls, name, err := lab.Setting(req.Lab)
	if err != nil {
		h.fail(w, "sim", err)
		return
	}
	if _, err := ls.Odds().Lookup(req.Tier); err != nil {
		h.fail(w, "sim", errs.Warnf("unknown tier %q", req.Tier))
		return
	}
	seed := lab.NextSeed()
	if req.Seed != nil {
		seed = *req.Seed
	}
	sim, err := lab.NewSimulatorWithSeed(name, seed)
	if err != nil {
		h.fail(w, "sim", errs.Wrap(err, "build simulator"))
		return
	}

	ctx, cancel := context.WithTimeout(q.Context(), h.simTimeout)
	defer cancel()
	st, used, err := sim.Run(ctx, req.Tier, req.Rounds, max(req.Workers, 1), false)
	if err != nil {
		h.fail(w, "sim", errs.Wrap(err, "simulate"))
		return
	}
	writeJSON(w, http.StatusOK, SimResponse{
		Lab:      name,
		Seed:     seed,
		Stats:    st,
		UsedTime: used.Milliseconds(),
	})
}

// Trace GET|POST /v1/trace 可審計的逐張模擬；帶 start_b64u 時從該 PRNG 快照重播。
func (h *Handler) Trace(w http.ResponseWriter, q *http.Request) {
	req, err := dto.DecodeTraceRequest(q)
	if err != nil {
		h.fail(w, "trace", err)
		return
	}
	lab := h.rt.Lab()
	ls, name, err := lab.Setting(req.Lab)
	if err != nil {
		h.fail(w, "trace", err)
		return
	}
	if _, err := ls.Odds().Lookup(req.Tier); err != nil {
		h.fail(w, "trace", errs.Warnf("unknown tier %q", req.Tier))
		return
	}
	dev, err := lab.NewDevSimulator(name)
	if err != nil {
		h.fail(w, "trace", err)
		return
	}

	ctx, cancel := context.WithTimeout(q.Context(), h.simTimeout)
	defer cancel()
	rep, err := runBounded(ctx, func() (strikelab.DevPlayReport, error) {
		if req.Start != "" {
			return dev.RestorePlays(req.Start, req.Tier, req.Rounds)
		}
		return dev.Plays(req.Tier, req.Rounds)
	})
	if err != nil {
		h.fail(w, "trace", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
