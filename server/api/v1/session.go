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
	"net/http"
	"strconv"
	"strings"

	"github.com/zintix-labs/strikelab"
	"github.com/zintix-labs/strikelab/dto"
	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/flow"
	"github.com/zintix-labs/strikelab/sdk/reveal"
	"github.com/zintix-labs/strikelab/server/netsvr"
)

func sessionResponse(s *strikelab.Session, st flow.State) dto.SessionResponse {
	return dto.SessionResponse{Session: s.ID(), Lab: s.Lab, State: st}
}

func (h *Handler) session(w http.ResponseWriter, q *http.Request) (*strikelab.Session, bool) {
	ctx, cancel := h.ctx(q)
	defer cancel()
	s, err := h.rt.Session(ctx, netsvr.Param(q, "id"))
	if err != nil {
		h.fail(w, "session lookup", err)
		return nil, false
	}
	return s, true
}

// CreateSession POST /v1/sessions {lab?}
func (h *Handler) CreateSession(w http.ResponseWriter, q *http.Request) {
	req := dto.CreateSessionRequest{}
	if err := dto.DecodeJSON(q, &req); err != nil {
		h.fail(w, "create session", err)
		return
	}
	ctx, cancel := h.ctx(q)
	defer cancel()
	s, err := h.rt.NewSession(ctx, strings.TrimSpace(req.Lab))
	if err != nil {
		h.fail(w, "create session", err)
		return
	}
	w.Header().Set("Location", "/v1/sessions/"+s.ID())
	writeJSON(w, http.StatusCreated, sessionResponse(s, s.Snapshot()))
}

// GetSession GET /v1/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, q *http.Request) {
	s, ok := h.session(w, q)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(s, s.Snapshot()))
}

// DeleteSession DELETE /v1/sessions/{id}：放棄進行中的謎題並移除。
func (h *Handler) DeleteSession(w http.ResponseWriter, q *http.Request) {
	if err := h.rt.CloseSession(netsvr.Param(q, "id")); err != nil {
		h.fail(w, "delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Purchase POST /v1/sessions/{id}/purchase {tier}
func (h *Handler) Purchase(w http.ResponseWriter, q *http.Request) {
	s, ok := h.session(w, q)
	if !ok {
		return
	}
	tier, err := dto.DecodePurchase(q)
	if err != nil {
		h.fail(w, "purchase", err)
		return
	}
	// 未知票種是請求問題，不讓它以設定錯誤的身分進入流程
	ls, _, err := h.rt.Lab().Setting(s.Lab)
	if err != nil {
		h.fail(w, "purchase", err)
		return
	}
	if _, err := ls.Odds().Lookup(tier); err != nil {
		h.fail(w, "purchase", errs.Warnf("unknown tier %q", tier))
		return
	}

	ctx, cancel := h.ctx(q)
	defer cancel()
	st, err := s.Purchase(ctx, tier)
	if err != nil {
		h.fail(w, "purchase", err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(s, st))
}

// PlayAgain POST /v1/sessions/{id}/play-again
func (h *Handler) PlayAgain(w http.ResponseWriter, q *http.Request) {
	s, ok := h.session(w, q)
	if !ok {
		return
	}
	st, err := s.PlayAgain()
	if err != nil {
		h.fail(w, "play again", err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(s, st))
}

// Abandon POST /v1/sessions/{id}/abandon：放棄謎題但保留 Session。
func (h *Handler) Abandon(w http.ResponseWriter, q *http.Request) {
	s, ok := h.session(w, q)
	if !ok {
		return
	}
	st, err := s.Abandon()
	if err != nil {
		h.fail(w, "abandon", err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(s, st))
}

// step 互動端點共用：查 Session、執行、回傳步驟與最新狀態。
func (h *Handler) step(w http.ResponseWriter, q *http.Request, msg string, fn func(s *strikelab.Session) (reveal.Step, error)) {
	s, ok := h.session(w, q)
	if !ok {
		return
	}
	st, err := fn(s)
	if err != nil {
		h.fail(w, msg, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.StepResponse{Session: s.ID(), Step: st, State: s.Snapshot()})
}

// RevealTile POST /v1/sessions/{id}/tiles/{index}
func (h *Handler) RevealTile(w http.ResponseWriter, q *http.Request) {
	idx, err := strconv.Atoi(netsvr.Param(q, "index"))
	if err != nil {
		h.fail(w, "reveal tile", errs.Warnf("invalid tile index %q", netsvr.Param(q, "index")))
		return
	}
	h.step(w, q, "reveal tile", func(s *strikelab.Session) (reveal.Step, error) {
		ctx, cancel := h.ctx(q)
		defer cancel()
		return s.RevealTile(ctx, idx)
	})
}

// Scratch POST /v1/sessions/{id}/scratch {points}
func (h *Handler) Scratch(w http.ResponseWriter, q *http.Request) {
	req := dto.StrokeRequest{}
	if err := dto.DecodeJSON(q, &req); err != nil {
		h.fail(w, "scratch", err)
		return
	}
	h.step(w, q, "scratch", func(s *strikelab.Session) (reveal.Step, error) {
		ctx, cancel := h.ctx(q)
		defer cancel()
		return s.Scratch(ctx, req.Points)
	})
}

// Swipe POST /v1/sessions/{id}/swipe {points}
func (h *Handler) Swipe(w http.ResponseWriter, q *http.Request) {
	req := dto.StrokeRequest{}
	if err := dto.DecodeJSON(q, &req); err != nil {
		h.fail(w, "swipe", err)
		return
	}
	h.step(w, q, "swipe", func(s *strikelab.Session) (reveal.Step, error) {
		ctx, cancel := h.ctx(q)
		defer cancel()
		return s.Swipe(ctx, req.Points)
	})
}

// DropPiece POST /v1/sessions/{id}/pieces/{piece} {dx,dy}
func (h *Handler) DropPiece(w http.ResponseWriter, q *http.Request) {
	piece, err := strconv.Atoi(netsvr.Param(q, "piece"))
	if err != nil {
		h.fail(w, "drop piece", errs.Warnf("invalid piece %q", netsvr.Param(q, "piece")))
		return
	}
	req := dto.DropRequest{}
	if err := dto.DecodeJSON(q, &req); err != nil {
		h.fail(w, "drop piece", err)
		return
	}
	h.step(w, q, "drop piece", func(s *strikelab.Session) (reveal.Step, error) {
		ctx, cancel := h.ctx(q)
		defer cancel()
		return s.DropPiece(ctx, piece, req.DX, req.DY)
	})
}
