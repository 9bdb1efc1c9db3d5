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

package chain_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/strikelab/chain"
	"github.com/zintix-labs/strikelab/demo/demo_configs"
	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/spec"
)

func newChain(t *testing.T) *chain.Simulated {
	t.Helper()
	ls, err := spec.GetLabSettingFromFS(demo_configs.FS, demo_configs.Default)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	return chain.NewSimulated(ls.Odds(), decimal.RequireFromString("0.0001"))
}

func TestBuyStrikeSettle(t *testing.T) {
	c := newChain(t)
	defer c.Close()
	ctx := context.Background()
	events, cancel := c.Subscribe()
	defer cancel()

	p, err := c.BuyTicket(ctx, "0xabc", spec.Silver)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if !strings.HasPrefix(p.TxHash, "0x") || len(p.TxHash) != 66 {
		t.Fatalf("tx hash = %q", p.TxHash)
	}
	if !p.PriceETH.Equal(decimal.RequireFromString("0.005")) {
		t.Fatalf("price = %s", p.PriceETH)
	}
	if ev := <-events; ev.Kind != chain.EventTicketPurchased || ev.TicketID != p.TicketID {
		t.Fatalf("event = %+v", ev)
	}

	r, err := c.StrikeTicket(ctx, p.TicketID, [32]byte{1})
	if err != nil {
		t.Fatalf("strike: %v", err)
	}
	if r.SequenceNumber != 1 || !r.FeeETH.Equal(decimal.RequireFromString("0.0001")) {
		t.Fatalf("receipt = %+v", r)
	}
	if ev := <-events; ev.Kind != chain.EventTicketStruck {
		t.Fatalf("event = %+v", ev)
	}
	if _, err := c.StrikeTicket(ctx, p.TicketID, [32]byte{2}); !errs.IsKind(err, errs.KindChain) {
		t.Fatalf("double strike err = %v", err)
	}

	amt := decimal.NewFromInt(25)
	if err := c.Settle(ctx, p.TicketID, &amt); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if ev := <-events; ev.Kind != chain.EventPrizeWon || !ev.Amount.Equal(amt) {
		t.Fatalf("event = %+v", ev)
	}

	rec, err := c.GetTicket(ctx, p.TicketID)
	if err != nil || !rec.Claimed || rec.Owner != "0xabc" || rec.Tier != spec.Silver {
		t.Fatalf("ticket = %+v %v", rec, err)
	}
}

func TestFailNext(t *testing.T) {
	c := newChain(t)
	ctx := context.Background()
	cause := errors.New("user rejected")
	c.FailNext(cause)
	_, err := c.BuyTicket(ctx, "p", spec.Bronze)
	if !errs.IsKind(err, errs.KindChain) || !errors.Is(err, cause) {
		t.Fatalf("err = %v", err)
	}
	if _, err := c.BuyTicket(ctx, "p", spec.Bronze); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestUnknownTierAndContext(t *testing.T) {
	c := newChain(t)
	if _, err := c.BuyTicket(context.Background(), "p", "platinum"); !errs.IsKind(err, errs.KindConfiguration) {
		t.Fatalf("err = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.BuyTicket(ctx, "p", spec.Gold); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if _, err := c.GetTicket(context.Background(), "nope"); !errs.IsKind(err, errs.KindChain) {
		t.Fatalf("err = %v", err)
	}
}
