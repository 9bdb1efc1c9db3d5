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

package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zintix-labs/strikelab/errs"
)

// StatusCode 將錯誤映射成 HTTP status code。
//
// 規則：
//   - ctx timeout/cancel → 504/408
//   - 錯誤種類優先：Unauthorized 401、NotFound 404、Stage 409、Chain 502
//   - 其餘依分級：errs.Warn 400、errs.Fatal 500
//
// 本函數屬於 HTTP 邊界層，核心 errs 包不依賴 net/http。
func StatusCode(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}

	switch {
	case errs.IsKind(err, errs.KindUnauthorized):
		return http.StatusUnauthorized
	case errs.IsKind(err, errs.KindNotFound):
		return http.StatusNotFound
	case errs.IsKind(err, errs.KindStage):
		return http.StatusConflict
	case errs.IsKind(err, errs.KindChain):
		return http.StatusBadGateway
	}

	var e *errs.E
	if errors.As(err, &e) && e.ErrLv == errs.Warn {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Body 錯誤回應本體。
type Body struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Code  int    `json:"code"`
}

// Errs 寫回 JSON 錯誤本體。
func Errs(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	WriteStatus(w, StatusCode(err), err)
}

// WriteStatus 以指定 status 寫回錯誤本體（路由層的 405 等不經由 StatusCode 映射）。
func WriteStatus(w http.ResponseWriter, status int, err error) {
	b := Body{Error: err.Error(), Code: status}
	var e *errs.E
	if errors.As(err, &e) && e.Kind != errs.KindNone {
		b.Kind = e.Kind.String()
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(b)
}

func Log(log *slog.Logger, msg string, err error) {
	if err == nil || log == nil {
		return
	}
	status := StatusCode(err)
	switch {
	case status == 408 || status == 409 || status == 429 || status == 502:
		log.Warn(msg, slog.Any("err", err))
	case status >= 500:
		log.Error(msg, slog.Any("err", err))
	}
}
