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

// Package v1 HTTP API：票種、Session 流程、謎題互動、歷史紀錄與推播、機率模擬。
package v1

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/zintix-labs/strikelab"
	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/server/httperr"
	"github.com/zintix-labs/strikelab/server/metrics"
	"github.com/zintix-labs/strikelab/server/svrcfg"
)

// Handler 所有 v1 端點共用的依賴。
type Handler struct {
	rt         *strikelab.Runtime
	log        *slog.Logger
	met        *metrics.Metrics
	reqTimeout time.Duration
	simTimeout time.Duration
}

func NewHandler(sCfg *svrcfg.SvrCfg, met *metrics.Metrics) (*Handler, error) {
	if sCfg == nil || sCfg.Runtime == nil {
		return nil, errs.NewFatal("runtime is required")
	}
	return &Handler{
		rt:         sCfg.Runtime,
		log:        sCfg.Log,
		met:        met,
		reqTimeout: sCfg.ReqTimeout,
		simTimeout: sCfg.SimTimeout,
	}, nil
}

func (h *Handler) ctx(q *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(q.Context(), h.reqTimeout)
}

// fail 寫回錯誤，同時記錄 log 與錯誤指標。
func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	httperr.Log(h.log, msg, err)
	if h.met != nil {
		h.met.ObserveError(err)
	}
	httperr.Errs(w, err)
}

// writeJSON 先編碼到記憶體再寫出，避免寫到一半才發生錯誤。
func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, "encode response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}
