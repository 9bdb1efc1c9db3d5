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

package perf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(" CPU "); err != nil || m != ModeCPU {
		t.Fatalf("cpu = %q, %v", m, err)
	}
	if m, err := ParseMode(""); err != nil || m != ModeOff {
		t.Fatalf("off = %q, %v", m, err)
	}
	if _, err := ParseMode("trace"); err == nil {
		t.Fatalf("unknown mode should fail")
	}
}

func TestRunWritesProfile(t *testing.T) {
	dir := t.TempDir()
	for _, m := range []Mode{ModeCPU, ModeHeap, ModeAllocs} {
		ran := false
		if err := Run(m, dir, func() error { ran = true; return nil }); err != nil {
			t.Fatalf("%s: %v", m, err)
		}
		if !ran {
			t.Fatalf("%s: exe not called", m)
		}
		if fi, err := os.Stat(filepath.Join(dir, string(m)+".pprof")); err != nil || fi.Size() == 0 {
			t.Fatalf("%s: profile missing: %v", m, err)
		}
	}
}

func TestRunPropagatesError(t *testing.T) {
	boom := errors.New("sim failed")
	if err := Run(ModeOff, "", func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("off err = %v", err)
	}
	if err := Run(ModeHeap, t.TempDir(), func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("heap err = %v", err)
	}
}
