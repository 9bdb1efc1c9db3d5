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

package errs

import (
	"errors"
	"fmt"
)

// ErrLevel : Error 分級，使最上層理解問題嚴重程度
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvMap = map[ErrLevel]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

func ErrLv(errlv ErrLevel) string {
	if str, ok := errLvMap[errlv]; ok {
		return str
	}
	return ""
}

// Kind 標記錯誤的領域類別，讓上層（流程控制、HTTP 邊界）不需比對字串即可分流。
type Kind uint8

const (
	KindNone           Kind = iota
	KindConfiguration       // 設定錯誤：未知票種、賠率表缺漏
	KindInvalidPattern      // 盤面請求不合法：目標連線數超過格數
	KindStage               // 流程階段不符：例如 Puzzle 階段再次購票
	KindUnauthorized        // 身分驗證失敗
	KindChain               // 鏈上協作者失敗（交易拒絕、網路錯誤）
	KindNotFound            // 查無資源：Session、設定名稱
)

var kindMap = map[Kind]string{
	KindNone:           "",
	KindConfiguration:  "configuration",
	KindInvalidPattern: "invalid_pattern",
	KindStage:          "stage",
	KindUnauthorized:   "unauthorized",
	KindChain:          "chain",
	KindNotFound:       "not_found",
}

func (k Kind) String() string {
	return kindMap[k]
}

// E 是統一的錯誤型別。
// Message 為主訊息；Extra 為呼叫端可追加的額外上下文；
// Cause 可串接下層錯誤（wrap）；ErrLv 為嚴重度；Kind 為領域類別。
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
	Kind    Kind
}

// Error 實作 error 介面並回傳格式化後的錯誤訊息。
func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s %s", ErrLv(e.ErrLv), e.Message)
	if e.Kind != KindNone {
		base = fmt.Sprintf("errlv=%s kind=%s %s", ErrLv(e.ErrLv), e.Kind, e.Message)
	}
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap 讓 errors.Is / errors.As 能夠向下展開。
func (e *E) Unwrap() error { return e.Cause }

// New 依錯誤碼與參數建立錯誤
func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

func NewFatal(msg string) *E {
	return &E{Message: msg, ErrLv: Fatal}
}

func NewWarn(msg string) *E {
	return &E{Message: msg, ErrLv: Warn}
}

func NewLog(msg string) *E {
	return &E{Message: msg, ErrLv: Log}
}

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

func Logf(format string, a ...any) *E {
	return NewLog(fmt.Sprintf(format, a...))
}

// NewWithExtra 與 New 相同，但可附加額外上下文字串（不影響主訊息）。
func NewWithExtra(errLv ErrLevel, msg string, extra string) *E {
	e := New(errLv, msg)
	e.Extra = extra
	return e
}

// Wrap 以訊息包裝底層錯誤，建立一個 *E。
//
// ErrLevel / Kind 規則：
//   - 若 cause 已經是 *E，則沿用其 ErrLv 與 Kind。
//   - 若 cause 不是 *E（標準庫或三方依賴錯誤），ErrLv 一律視為 Fatal。
func Wrap(cause error, msg string) *E {
	var e *E
	errLv := Fatal
	kind := KindNone
	if errors.As(cause, &e) {
		errLv = e.ErrLv
		kind = e.Kind
	}
	r := New(errLv, msg)
	r.Kind = kind
	r.Cause = cause
	return r
}

// WrapWithExtra 與 Wrap 相同，另附加上下文字串。
func WrapWithExtra(cause error, msg string, extra string) *E {
	r := Wrap(cause, msg)
	r.Extra = extra
	return r
}

// WrapKind 包裝下層錯誤並強制指定 ErrLv 與 Kind（用於三方依賴錯誤轉入領域類別）。
func WrapKind(cause error, errLv ErrLevel, kind Kind, msg string) *E {
	return &E{Message: msg, Cause: cause, ErrLv: errLv, Kind: kind}
}

// NewKind 建立帶有領域類別的錯誤。
func NewKind(errLv ErrLevel, kind Kind, msg string) *E {
	return &E{Message: msg, ErrLv: errLv, Kind: kind}
}

// Configurationf 建立 KindConfiguration 的致命錯誤（未知票種、設定缺漏）。
func Configurationf(format string, a ...any) *E {
	return NewKind(Fatal, KindConfiguration, fmt.Sprintf(format, a...))
}

// InvalidPatternf 建立 KindInvalidPattern 的致命錯誤（呼叫端違反前置條件）。
func InvalidPatternf(format string, a ...any) *E {
	return NewKind(Fatal, KindInvalidPattern, fmt.Sprintf(format, a...))
}

// Stagef 建立 KindStage 的警告（流程階段不符，可由呼叫端修正）。
func Stagef(format string, a ...any) *E {
	return NewKind(Warn, KindStage, fmt.Sprintf(format, a...))
}

// Chainf 建立 KindChain 的警告（交易被拒、網路失敗，可重試）。
func Chainf(format string, a ...any) *E {
	return NewKind(Warn, KindChain, fmt.Sprintf(format, a...))
}

// Unauthorizedf 建立 KindUnauthorized 的警告。
func Unauthorizedf(format string, a ...any) *E {
	return NewKind(Warn, KindUnauthorized, fmt.Sprintf(format, a...))
}

// NotFoundf 建立 KindNotFound 的警告。
func NotFoundf(format string, a ...any) *E {
	return NewKind(Warn, KindNotFound, fmt.Sprintf(format, a...))
}

// IsKind 判斷錯誤鏈上是否存在指定 Kind 的 *E。
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var e *E
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return e, false
}
