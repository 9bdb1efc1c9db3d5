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

package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/server/httperr"
)

// Recover 使用 chi 的 Recoverer（輸出 stack 到 stderr，回 500）。
func Recover(next http.Handler) http.Handler {
	return chimid.Recoverer(next)
}

// RecoverWithLog 把 panic 寫進 slog 並以 JSON 錯誤本體回 500。
// http.ErrAbortHandler 照舊往上拋，由 net/http 處理。
func RecoverWithLog(log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		return Recover
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("panic recovered",
					slog.Any("panic", rec),
					slog.String("req_id", GetReqId(r)),
					slog.String("stack", string(debug.Stack())),
				)
				if r.Header.Get("Connection") != "Upgrade" {
					httperr.Errs(w, errs.NewFatal("internal server error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
