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

	"github.com/zintix-labs/strikelab/dto"
	"github.com/zintix-labs/strikelab/flow"
	"github.com/zintix-labs/strikelab/identity"
)

func (h *Handler) player(ctx context.Context) (identity.Player, error) {
	return h.rt.Identity().Identify(ctx)
}

// History GET /v1/history 目前玩家的紀錄（新到舊）與累計獎金。
func (h *Handler) History(w http.ResponseWriter, q *http.Request) {
	ctx, cancel := h.ctx(q)
	defer cancel()
	p, err := h.player(ctx)
	if err != nil {
		h.fail(w, "history", err)
		return
	}
	store := h.rt.History()
	recs, err := store.List(ctx, p.ID)
	if err != nil {
		h.fail(w, "history list", err)
		return
	}
	total, err := store.TotalWinnings(ctx, p.ID)
	if err != nil {
		h.fail(w, "history total", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.HistoryResponse{Player: p.ID, Records: recs, Total: total.String()})
}

// ClearHistory DELETE /v1/history
func (h *Handler) ClearHistory(w http.ResponseWriter, q *http.Request) {
	ctx, cancel := h.ctx(q)
	defer cancel()
	p, err := h.player(ctx)
	if err != nil {
		h.fail(w, "history clear", err)
		return
	}
	if err := h.rt.History().Clear(ctx, p.ID); err != nil {
		h.fail(w, "history clear", err)
		return
	}
	h.rt.Events().Publish(flow.Event{Kind: flow.EventHistoryChanged, Player: p.ID})
	w.WriteHeader(http.StatusNoContent)
}

// TotalWinnings GET /v1/history/total
func (h *Handler) TotalWinnings(w http.ResponseWriter, q *http.Request) {
	ctx, cancel := h.ctx(q)
	defer cancel()
	p, err := h.player(ctx)
	if err != nil {
		h.fail(w, "history total", err)
		return
	}
	total, err := h.rt.History().TotalWinnings(ctx, p.ID)
	if err != nil {
		h.fail(w, "history total", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.TotalResponse{Player: p.ID, Total: total.String()})
}
