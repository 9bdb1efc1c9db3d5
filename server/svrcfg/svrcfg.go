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

package svrcfg

import (
	"log/slog"
	"time"

	"github.com/zintix-labs/strikelab"
	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/server/logger"
)

const (
	DefaultAddr         = ":5808"
	DefaultRatePerSec   = 5.0
	DefaultRateBurst    = 10
	DefaultSweepEvery   = time.Minute
	DefaultReqTimeout   = 5 * time.Second
	DefaultSimTimeout   = 60 * time.Second
	defaultLogBuf       = 1024
	maxRateLimitPerSec  = 1000.0
	maxRateLimitBurstSz = 10000
)

type SvrCfg struct {
	Log     *slog.Logger
	Addr    string
	Runtime *strikelab.Runtime

	// CORS 允許的來源；空值代表不掛 CORS middleware。
	CORSOrigins []string

	// 購票端點每個玩家（或 IP）的速率限制；RatePerSec <= 0 使用預設值。
	RatePerSec float64
	RateBurst  int

	// 是否開放 /v1/sim、/v1/trace 這類耗 CPU 的模擬端點
	SimEnabled bool

	SweepEvery time.Duration
	ReqTimeout time.Duration
	SimTimeout time.Duration
}

// Valid 補齊預設值並檢查必要依賴。
func (sc *SvrCfg) Valid() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		sc.Log, _ = logger.NewAsync(defaultLogBuf, logger.ModeDev)
	}
	if sc.Runtime == nil {
		return errs.NewFatal("runtime is required")
	}
	if sc.Runtime.Closed() {
		return errs.NewFatal("runtime already closed")
	}
	if sc.Addr == "" {
		sc.Addr = DefaultAddr
	}
	if sc.RatePerSec <= 0 {
		sc.RatePerSec = DefaultRatePerSec
	}
	sc.RatePerSec = min(maxRateLimitPerSec, sc.RatePerSec)
	if sc.RateBurst <= 0 {
		sc.RateBurst = DefaultRateBurst
	}
	sc.RateBurst = min(maxRateLimitBurstSz, sc.RateBurst)
	if sc.SweepEvery <= 0 {
		sc.SweepEvery = DefaultSweepEvery
	}
	if sc.ReqTimeout <= 0 {
		sc.ReqTimeout = DefaultReqTimeout
	}
	if sc.SimTimeout <= 0 {
		sc.SimTimeout = DefaultSimTimeout
	}
	return nil
}
