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

package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/zintix-labs/strikelab/errs"
)

func TestParseMode(t *testing.T) {
	cases := map[string]LogMode{"": ModeDev, "dev": ModeDev, "PROD": ModeProd, " silence ": ModeSilence}
	for in, want := range cases {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMode("loud"); !errs.IsKind(err, errs.KindConfiguration) {
		t.Fatalf("unknown mode err = %v", err)
	}
	if ModeProd.String() != "prod" {
		t.Fatalf("string = %q", ModeProd.String())
	}
}

func TestAsyncHandlerDrainsOnClose(t *testing.T) {
	var buf bytes.Buffer
	ah := NewAsyncHandler(slog.NewTextHandler(&buf, nil), 64)
	log := slog.New(ah).With(slog.String("lab", "spark-strike"))
	for i := 0; i < 10; i++ {
		log.Info("ticket purchased", slog.Int("i", i))
	}
	ah.Close()
	if n := strings.Count(buf.String(), "ticket purchased"); n != 10 {
		t.Fatalf("lines = %d", n)
	}
	if !strings.Contains(buf.String(), "lab=spark-strike") {
		t.Fatalf("attrs lost: %s", buf.String())
	}
	// 關閉後丟棄
	_ = ah.Handle(context.Background(), slog.Record{})
	if ah.Dropped() != 1 {
		t.Fatalf("dropped = %d", ah.Dropped())
	}
}

func TestProdLoggerExpandsDomainErrors(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(ModeProd, &buf)
	log.Info("purchase failed", slog.Any("err", errs.Chainf("rpc timeout")))
	log.Debug("hidden in prod")

	out := buf.String()
	if strings.Contains(out, "hidden in prod") {
		t.Fatalf("prod mode should drop debug: %s", out)
	}
	for _, want := range []string{`"kind":"chain"`, `"level":"warn"`, `rpc timeout`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in %s", want, out)
		}
	}
}
