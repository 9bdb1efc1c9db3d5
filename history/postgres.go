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
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/sdk/money"
	"github.com/zintix-labs/strikelab/spec"
)

const (
	pgTable       = "strike_history"
	colID         = "id"
	colPlayer     = "player"
	colTS         = "ts"
	colTier       = "tier"
	colPuzzle     = "puzzle_type"
	colIsWinner   = "is_winner"
	colPrize      = "prize_amount"
	colMatchCount = "match_count"
	colTicketID   = "ticket_id"
)

const pgSchema = `CREATE TABLE IF NOT EXISTS strike_history (
	id           TEXT PRIMARY KEY,
	player       TEXT NOT NULL,
	ts           TIMESTAMPTZ NOT NULL,
	tier         TEXT NOT NULL,
	puzzle_type  TEXT NOT NULL,
	is_winner    BOOLEAN NOT NULL,
	prize_amount NUMERIC(20,2),
	match_count  INTEGER NOT NULL DEFAULT 0,
	ticket_id    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS strike_history_player_ts ON strike_history (player, ts DESC)`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// OpenPostgres 以 pgx 驅動開啟 database/sql 連線池。
// 使用 simple protocol，相容 PgBouncer 之類的連線池。
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, errs.WrapKind(err, errs.Fatal, errs.KindConfiguration, "history: invalid postgres dsn")
	}
	cfg.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	db := stdlib.OpenDB(*cfg)
	db.SetConnMaxIdleTime(4 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errs.Wrap(err, "history: ping postgres")
	}
	return db, nil
}

// Postgres 以資料表保存紀錄。
type Postgres struct {
	db  *sql.DB
	max int
	now func() time.Time
}

func NewPostgres(db *sql.DB, max int) *Postgres {
	return &Postgres{db: db, max: normalizeMax(max), now: time.Now}
}

// Migrate 建立資料表（冪等）。
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, pgSchema); err != nil {
		return errs.Wrap(err, "history: migrate")
	}
	return nil
}

func prizeColumn(s *string) (decimal.NullDecimal, error) {
	if s == nil {
		return decimal.NullDecimal{}, nil
	}
	a, err := money.Parse(*s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(a.Decimal()), nil
}

// Append 在同一個交易內寫入並刪除超過上限的舊紀錄。
func (p *Postgres) Append(ctx context.Context, player string, r Record) (Record, error) {
	r = prepare(r, p.now())
	prize, err := prizeColumn(r.PrizeAmount)
	if err != nil {
		return Record{}, err
	}

	ins, insArgs, err := psql.Insert(pgTable).
		Columns(colID, colPlayer, colTS, colTier, colPuzzle, colIsWinner, colPrize, colMatchCount, colTicketID).
		Values(r.ID, player, r.Timestamp.UTC(), string(r.Tier), string(r.PuzzleType), r.IsWinner, prize, r.MatchCount, r.TicketID).
		ToSql()
	if err != nil {
		return Record{}, errs.Wrap(err, "history: build insert")
	}
	trim, trimArgs, err := psql.Delete(pgTable).
		Where(sq.Eq{colPlayer: player}).
		Where("id NOT IN (SELECT id FROM strike_history WHERE player = ? ORDER BY ts DESC, id DESC LIMIT ?)", player, p.max).
		ToSql()
	if err != nil {
		return Record{}, errs.Wrap(err, "history: build trim")
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, errs.Wrap(err, "history: begin")
	}
	if _, err := tx.ExecContext(ctx, ins, insArgs...); err != nil {
		tx.Rollback()
		return Record{}, errs.Wrap(err, "history: insert")
	}
	if _, err := tx.ExecContext(ctx, trim, trimArgs...); err != nil {
		tx.Rollback()
		return Record{}, errs.Wrap(err, "history: trim")
	}
	if err := tx.Commit(); err != nil {
		return Record{}, errs.Wrap(err, "history: commit")
	}
	return r, nil
}

func (p *Postgres) List(ctx context.Context, player string) ([]Record, error) {
	query, args, err := psql.Select(colID, colTS, colTier, colPuzzle, colIsWinner, colPrize, colMatchCount, colTicketID).
		From(pgTable).
		Where(sq.Eq{colPlayer: player}).
		OrderBy(colTS+" DESC", colID+" DESC").
		Limit(uint64(p.max)).
		ToSql()
	if err != nil {
		return nil, errs.Wrap(err, "history: build list")
	}
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Wrap(err, "history: list")
	}
	defer rows.Close()

	out := make([]Record, 0, p.max)
	for rows.Next() {
		var (
			r      Record
			tier   string
			puzzle string
			prize  decimal.NullDecimal
		)
		if err := rows.Scan(&r.ID, &r.Timestamp, &tier, &puzzle, &r.IsWinner, &prize, &r.MatchCount, &r.TicketID); err != nil {
			return nil, errs.Wrap(err, "history: scan")
		}
		r.Tier = spec.Tier(tier)
		r.PuzzleType = spec.PuzzleKind(puzzle)
		if prize.Valid {
			a := money.FromDecimal(prize.Decimal)
			r.PrizeAmount = Prize(&a)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, "history: rows")
	}
	return out, nil
}

func (p *Postgres) Clear(ctx context.Context, player string) error {
	query, args, err := psql.Delete(pgTable).Where(sq.Eq{colPlayer: player}).ToSql()
	if err != nil {
		return errs.Wrap(err, "history: build clear")
	}
	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return errs.Wrap(err, "history: clear")
	}
	return nil
}

func (p *Postgres) TotalWinnings(ctx context.Context, player string) (money.Amount, error) {
	query, args, err := psql.Select("COALESCE(SUM(" + colPrize + "), 0)").
		From(pgTable).
		Where(sq.Eq{colPlayer: player, colIsWinner: true}).
		ToSql()
	if err != nil {
		return money.Zero, errs.Wrap(err, "history: build total")
	}
	var total decimal.Decimal
	if err := p.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return money.Zero, errs.Wrap(err, "history: total")
	}
	return money.FromDecimal(total), nil
}
