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

// Package money 以十進位表示獎金與票價，避免浮點誤差累積到總獎金。
package money

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/strikelab/errs"
)

// Amount 是美元金額，字串形式為 "$5"、"$12.5"。
type Amount struct {
	d decimal.Decimal
}

// Zero 為零元。
var Zero = Amount{d: decimal.Zero}

// USD 以整數美元建立金額。
func USD(v int64) Amount {
	return Amount{d: decimal.NewFromInt(v)}
}

// FromDecimal 以 decimal 建立金額。
func FromDecimal(d decimal.Decimal) Amount {
	return Amount{d: d}
}

// Parse 解析 "$5"、"5"、"$1,000.50" 等格式。
func Parse(s string) (Amount, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimPrefix(raw, "$")
	raw = strings.ReplaceAll(raw, ",", "")
	if raw == "" {
		return Zero, errs.Warnf("money: empty amount %q", s)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return Zero, errs.WrapKind(err, errs.Warn, errs.KindNone, "money: invalid amount "+s)
	}
	return Amount{d: d}, nil
}

// MustParse 用於常數金額。
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) Decimal() decimal.Decimal { return a.d }

func (a Amount) IsZero() bool { return a.d.IsZero() }

func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }

func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }

// Float64 僅供統計使用（RTP、標準差），金額加總一律走 decimal。
func (a Amount) Float64() float64 {
	f, _ := a.d.Float64()
	return f
}

func (a Amount) String() string {
	return "$" + a.d.String()
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Sum 加總一組金額。
func Sum(as ...Amount) Amount {
	total := Zero
	for _, a := range as {
		total = total.Add(a)
	}
	return total
}
