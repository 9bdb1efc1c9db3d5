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
	"net/http"

	"github.com/zintix-labs/strikelab/identity"
)

// Credential 把 Authorization: Bearer 或 ?token=（websocket 無法帶標頭）放進 context，
// 交給 identity.Provider 驗證；這裡不做驗證。
func Credential(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := identity.BearerToken(r.Header.Get("Authorization"))
		if tok == "" {
			tok = r.URL.Query().Get("token")
		}
		if tok != "" {
			r = r.WithContext(identity.WithCredential(r.Context(), tok))
		}
		next.ServeHTTP(w, r)
	})
}
