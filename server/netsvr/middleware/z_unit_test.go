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
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/strikelab/identity"
)

var payload = strings.Repeat(`{"tier":"gold","prize":"$50"}`, 64)

func echo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, payload)
}

func TestCompressionZstdPreferred(t *testing.T) {
	h := Compression(http.HandlerFunc(echo))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip, zstd")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Content-Encoding") != "zstd" {
		t.Fatalf("encoding = %q", rec.Header().Get("Content-Encoding"))
	}
	dec, err := zstd.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()
	b, err := io.ReadAll(dec)
	if err != nil || string(b) != payload {
		t.Fatalf("roundtrip mismatch: %v", err)
	}
}

func TestCompressionGzip(t *testing.T) {
	h := Compression(http.HandlerFunc(echo))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	gr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	b, err := io.ReadAll(gr)
	if err != nil || string(b) != payload {
		t.Fatalf("roundtrip mismatch: %v", err)
	}
}

func TestCompressionNoBodyStatus(t *testing.T) {
	h := Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 || rec.Header().Get("Content-Encoding") != "" {
		t.Fatalf("204 = %d len %d enc %q", rec.Code, rec.Body.Len(), rec.Header().Get("Content-Encoding"))
	}
}

func TestSkipPaths(t *testing.T) {
	h := SkipPaths(Compression, "/metrics")(http.HandlerFunc(echo))
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Content-Encoding") != "" || rec.Body.String() != payload {
		t.Fatalf("skipped path was compressed")
	}
}

func TestCredential(t *testing.T) {
	var got string
	h := Credential(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = identity.CredentialFrom(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "abc" {
		t.Fatalf("header token = %q", got)
	}
	req = httptest.NewRequest(http.MethodGet, "/?token=xyz", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "xyz" {
		t.Fatalf("query token = %q", got)
	}
}

func TestRateLimiterPerClient(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	hit := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	if hit("10.0.0.1:1000") != 200 || hit("10.0.0.1:1001") != 200 {
		t.Fatalf("burst should pass")
	}
	if code := hit("10.0.0.1:1002"); code != http.StatusTooManyRequests {
		t.Fatalf("third = %d", code)
	}
	if code := hit("10.0.0.2:1000"); code != 200 {
		t.Fatalf("other client = %d", code)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Unix(0, 0)
	rl.now = func() time.Time { return now }
	rl.get("a")
	now = now.Add(time.Hour)
	rl.get("b")
	rl.Cleanup()
	if _, ok := rl.limiters["a"]; ok {
		t.Fatalf("idle limiter kept")
	}
	if _, ok := rl.limiters["b"]; !ok {
		t.Fatalf("active limiter removed")
	}
}

func TestAccessLogAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	h := RequestID(AccessLog(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/tiers", nil))
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("request id header missing")
	}
	out := buf.String()
	if !strings.Contains(out, `"status":418`) || !strings.Contains(out, `"path":"/v1/tiers"`) || !strings.Contains(out, `"req_id"`) {
		t.Fatalf("log = %s", out)
	}
}

func TestRecoverWithLog(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	h := RecoverWithLog(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError || !strings.Contains(buf.String(), "panic recovered") {
		t.Fatalf("code = %d log = %s", rec.Code, buf.String())
	}
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://strike.example"})(http.HandlerFunc(echo))
	req := httptest.NewRequest(http.MethodOptions, "/v1/tiers", nil)
	req.Header.Set("Origin", "https://strike.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://strike.example" {
		t.Fatalf("allow origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}
