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

package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/zintix-labs/strikelab/spec"
)

func str(s string) *string { return &s }

func sampleRecords() []Record {
	return []Record{
		{Tier: spec.Bronze, PuzzleType: spec.KindClick, IsWinner: true, PrizeAmount: str("$5"), MatchCount: 3},
		{Tier: spec.Gold, PuzzleType: spec.KindDrag, IsWinner: true, PrizeAmount: str("$100")},
		{Tier: spec.Silver, PuzzleType: spec.KindScratch, IsWinner: false, MatchCount: 2},
		{Tier: spec.Silver, PuzzleType: spec.KindClick, IsWinner: true, PrizeAmount: nil, MatchCount: 2},
	}
}

func checkStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	for _, r := range sampleRecords() {
		got, err := s.Append(ctx, "alice", r)
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		if got.ID == "" || got.Timestamp.IsZero() {
			t.Fatalf("record not prepared: %+v", got)
		}
	}
	s.Append(ctx, "bob", Record{Tier: spec.Gold, IsWinner: true, PrizeAmount: str("$50")})

	list, err := s.List(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 4 || list[0].MatchCount != 2 || list[3].Tier != spec.Bronze {
		t.Fatalf("list order wrong: %+v", list)
	}
	total, err := s.TotalWinnings(ctx, "alice")
	if err != nil || total.String() != "$105" {
		t.Fatalf("total = %s %v", total, err)
	}
	if err := s.Clear(ctx, "alice"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if list, _ := s.List(ctx, "alice"); len(list) != 0 {
		t.Fatalf("list after clear = %d", len(list))
	}
	if total, _ := s.TotalWinnings(ctx, "bob"); total.String() != "$50" {
		t.Fatalf("bob total = %s", total)
	}
}

func TestMemoryStore(t *testing.T) {
	checkStore(t, NewMemory(0))
}

func TestMemoryCap(t *testing.T) {
	m := NewMemory(50)
	ctx := context.Background()
	for i := 0; i < 60; i++ {
		m.Append(ctx, "p", Record{ID: fmt.Sprint(i)})
	}
	list, _ := m.List(ctx, "p")
	if len(list) != 50 || list[0].ID != "59" || list[49].ID != "10" {
		t.Fatalf("cap: len=%d first=%s last=%s", len(list), list[0].ID, list[len(list)-1].ID)
	}
}

func TestFileStoreReopen(t *testing.T) {
	for _, name := range []string{"history.json", "history.json.zst"} {
		dir := t.TempDir()
		f, err := OpenFile(filepath.Join(dir, "all-"+name), 0)
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		checkStore(t, f)

		path := filepath.Join(dir, name)
		f, err = OpenFile(path, 3)
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		ctx := context.Background()
		for i := 0; i < 5; i++ {
			f.Append(ctx, "carol", Record{ID: fmt.Sprint(i), IsWinner: true, PrizeAmount: str("$10")})
		}

		g, err := OpenFile(path, 3)
		if err != nil {
			t.Fatalf("reopen %s: %v", name, err)
		}
		list, _ := g.List(ctx, "carol")
		if len(list) != 3 || list[0].ID != "4" {
			t.Fatalf("%s reopened list = %+v", name, list)
		}
		if total, _ := g.TotalWinnings(ctx, "carol"); total.String() != "$30" {
			t.Fatalf("%s total = %s", name, total)
		}
	}
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte("{not json"), 0o644)
	if _, err := OpenFile(path, 0); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestTotalSkipsLosersAndGarbage(t *testing.T) {
	recs := []Record{
		{IsWinner: true, PrizeAmount: str("$1,000")},
		{IsWinner: true, PrizeAmount: str("n/a")},
		{IsWinner: false, PrizeAmount: str("$5")},
	}
	if got := Total(recs); got.String() != "$1000" {
		t.Fatalf("total = %s", got)
	}
}

func TestPostgresAppend(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	p := NewPostgres(db, 50)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO strike_history").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM strike_history WHERE player = \\$1 AND id NOT IN").
		WithArgs("alice", "alice", 50).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	r, err := p.Append(context.Background(), "alice", Record{Tier: spec.Gold, PuzzleType: spec.KindClick, IsWinner: true, PrizeAmount: str("$50"), MatchCount: 4})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if r.ID == "" {
		t.Fatalf("id not assigned")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresAppendRollback(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	p := NewPostgres(db, 50)

	boom := errors.New("connection reset")
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO strike_history").WillReturnError(boom)
	mock.ExpectRollback()

	if _, err := p.Append(context.Background(), "alice", Record{Tier: spec.Bronze}); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresListAndTotal(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	p := NewPostgres(db, 50)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "ts", "tier", "puzzle_type", "is_winner", "prize_amount", "match_count", "ticket_id"}).
		AddRow("b", now, "gold", "click", true, "50.00", 4, "t2").
		AddRow("a", now.Add(-time.Minute), "bronze", "scratch", false, nil, 1, "t1")
	mock.ExpectQuery("SELECT id, ts, tier, puzzle_type, is_winner, prize_amount, match_count, ticket_id FROM strike_history WHERE player = \\$1 ORDER BY ts DESC, id DESC LIMIT 50").
		WithArgs("alice").
		WillReturnRows(rows)

	list, err := p.List(context.Background(), "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != "b" || list[0].PrizeAmount == nil || *list[0].PrizeAmount != "$50" {
		t.Fatalf("list = %+v", list)
	}
	if list[1].PrizeAmount != nil || list[1].PuzzleType != spec.KindScratch {
		t.Fatalf("second record = %+v", list[1])
	}

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(prize_amount\\), 0\\) FROM strike_history").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("75.00"))
	total, err := p.TotalWinnings(context.Background(), "alice")
	if err != nil || total.String() != "$75" {
		t.Fatalf("total = %s %v", total, err)
	}

	mock.ExpectExec("DELETE FROM strike_history WHERE player = \\$1").WithArgs("alice").WillReturnResult(sqlmock.NewResult(0, 2))
	if err := p.Clear(context.Background(), "alice"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := OpenRedis(ctx, "redis://"+addr+"/15")
	if err != nil {
		t.Fatalf("open redis: %v", err)
	}
	defer c.Close()
	s := NewRedis(c, fmt.Sprintf("strikelab:test:%d:", time.Now().UnixNano()), 0)
	defer s.Clear(ctx, "bob")
	checkStore(t, s)
}
