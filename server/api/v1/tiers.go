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

	"github.com/zintix-labs/strikelab/dto"
	"github.com/zintix-labs/strikelab/server/netsvr"
	"github.com/zintix-labs/strikelab/spec"
)

// Labs GET /v1/labs 所有開獎設定。
func (h *Handler) Labs(w http.ResponseWriter, q *http.Request) {
	lab := h.rt.Lab()
	names := lab.Names()
	out := make([]dto.LabInfo, 0, len(names))
	for _, n := range names {
		ls, name, err := lab.Setting(n)
		if err != nil {
			h.fail(w, "labs", err)
			return
		}
		out = append(out, dto.NewLabInfo(name, ls))
	}
	writeJSON(w, http.StatusOK, out)
}

// Tiers GET /v1/tiers?lab= 票種、價格、機率與獎金表；lab 省略時為預設設定。
func (h *Handler) Tiers(w http.ResponseWriter, q *http.Request) {
	ls, name, err := h.rt.Lab().Setting(q.URL.Query().Get("lab"))
	if err != nil {
		h.fail(w, "tiers", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewLabInfo(name, ls))
}

// LabConfig GET /v1/labs/{lab}/config 以 YAML 輸出目前生效的完整設定。
func (h *Handler) LabConfig(w http.ResponseWriter, q *http.Request) {
	ls, _, err := h.rt.Lab().Setting(netsvr.Param(q, "lab"))
	if err != nil {
		h.fail(w, "lab config", err)
		return
	}
	bs, err := spec.EncodeYAML(ls)
	if err != nil {
		h.fail(w, "lab config", err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(bs)
}
