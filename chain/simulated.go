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

package chain

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/strikelab/corefmt"
	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/sdk/notify"
	"github.com/zintix-labs/strikelab/spec"
)

// Simulated 記憶體內的模擬鏈，行為近似合約：購票需付票價、開刮需付手續費、每張票只能開刮一次。
type Simulated struct {
	mu       sync.Mutex
	odds     *spec.OddsTable
	fee      decimal.Decimal
	tickets  map[string]*TicketRecord
	nonce    uint64
	seq      uint64
	failNext error
	events   *notify.Subject[Event]
	now      func() time.Time
}

// NewSimulated 建立模擬鏈；fee 為開刮手續費（ETH）。
func NewSimulated(odds *spec.OddsTable, fee decimal.Decimal) *Simulated {
	return &Simulated{
		odds:    odds,
		fee:     fee,
		tickets: make(map[string]*TicketRecord),
		events:  notify.NewSubject[Event](64),
		now:     time.Now,
	}
}

// FailNext 讓下一次交易以 err 失敗（模擬使用者拒簽、交易 revert、網路錯誤）。
func (s *Simulated) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

func (s *Simulated) takeFailure() error {
	err := s.failNext
	s.failNext = nil
	return err
}

func (s *Simulated) txHash(parts ...any) string {
	s.nonce++
	sum := sha256.Sum256(fmt.Appendf(nil, "%d|%v", s.nonce, parts))
	return corefmt.EncodeHex0x(sum[:])
}

func (s *Simulated) BuyTicket(ctx context.Context, owner string, tier spec.Tier) (Purchase, error) {
	if err := ctx.Err(); err != nil {
		return Purchase{}, err
	}
	ts, err := s.odds.Lookup(tier)
	if err != nil {
		return Purchase{}, err
	}

	s.mu.Lock()
	if cause := s.takeFailure(); cause != nil {
		s.mu.Unlock()
		return Purchase{}, errs.WrapKind(cause, errs.Warn, errs.KindChain, "buy ticket rejected")
	}
	id := uuid.NewString()
	rec := &TicketRecord{ID: id, Owner: owner, Tier: ts.Tier, Timestamp: s.now()}
	s.tickets[id] = rec
	p := Purchase{TicketID: id, TxHash: s.txHash("buy", id, owner), Tier: ts.Tier, PriceETH: ts.PriceInETH()}
	s.mu.Unlock()

	price := p.PriceETH
	s.events.Publish(Event{Kind: EventTicketPurchased, TicketID: id, Player: owner, Tier: ts.Tier, PriceETH: &price})
	return p, nil
}

func (s *Simulated) StrikeTicket(ctx context.Context, ticketID string, randomness [32]byte) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	s.mu.Lock()
	if cause := s.takeFailure(); cause != nil {
		s.mu.Unlock()
		return Receipt{}, errs.WrapKind(cause, errs.Warn, errs.KindChain, "strike ticket rejected")
	}
	rec, ok := s.tickets[ticketID]
	if !ok {
		s.mu.Unlock()
		return Receipt{}, errs.Chainf("ticket %s not found", ticketID)
	}
	if rec.Claimed {
		s.mu.Unlock()
		return Receipt{}, errs.Chainf("ticket %s already struck", ticketID)
	}
	rec.Claimed = true
	s.seq++
	r := Receipt{
		TicketID:       ticketID,
		TxHash:         s.txHash("strike", ticketID, corefmt.EncodeHex(randomness[:])),
		SequenceNumber: s.seq,
		FeeETH:         s.fee,
	}
	owner := rec.Owner
	s.mu.Unlock()

	s.events.Publish(Event{Kind: EventTicketStruck, TicketID: ticketID, Player: owner, SequenceNumber: r.SequenceNumber})
	return r, nil
}

// Settle 發出 PrizeWon（amount 非 nil）或 PrizeLost。票券必須已開刮。
func (s *Simulated) Settle(ctx context.Context, ticketID string, amount *decimal.Decimal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	rec, ok := s.tickets[ticketID]
	if !ok || !rec.Claimed {
		s.mu.Unlock()
		return errs.Chainf("ticket %s not struck", ticketID)
	}
	owner := rec.Owner
	s.mu.Unlock()

	if amount != nil {
		a := *amount
		s.events.Publish(Event{Kind: EventPrizeWon, TicketID: ticketID, Player: owner, Amount: &a})
		return nil
	}
	s.events.Publish(Event{Kind: EventPrizeLost, TicketID: ticketID, Player: owner})
	return nil
}

func (s *Simulated) GetTicket(ctx context.Context, ticketID string) (TicketRecord, error) {
	if err := ctx.Err(); err != nil {
		return TicketRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tickets[ticketID]
	if !ok {
		return TicketRecord{}, errs.Chainf("ticket %s not found", ticketID)
	}
	return *rec, nil
}

func (s *Simulated) Subscribe() (<-chan Event, func()) {
	return s.events.Subscribe()
}

// Close 關閉事件串流。
func (s *Simulated) Close() {
	s.events.Close()
}
