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

package api

import (
	"log/slog"

	v1 "github.com/zintix-labs/strikelab/server/api/v1"
	"github.com/zintix-labs/strikelab/server/metrics"
	"github.com/zintix-labs/strikelab/server/netsvr"
	"github.com/zintix-labs/strikelab/server/netsvr/middleware"
	"github.com/zintix-labs/strikelab/server/svrcfg"
)

// RegisterRoutes 註冊 middleware、/metrics 與 v1 api。sCfg 需已通過 Valid。
func RegisterRoutes(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg, met *metrics.Metrics) error {
	registerMiddleware(svr, sCfg, sCfg.Log, met) // 1. 註冊 middleware
	svr.Handle("/metrics", met.Handler())        // 2. 指標
	return registerV1API(svr, sCfg, met)         // 3. 註冊 v1 api
}

// 註冊 middleware
func registerMiddleware(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg, log *slog.Logger, met *metrics.Metrics) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(log))
	svr.Use(middleware.RecoverWithLog(log))
	svr.Use(met.Instrument)
	svr.Use(middleware.CORS(sCfg.CORSOrigins))
	svr.Use(middleware.Credential)
	svr.Use(middleware.SkipPaths(middleware.Compression, "/metrics"))
}

// 註冊 v1 api
func registerV1API(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg, met *metrics.Metrics) error {
	h, err := v1.NewHandler(sCfg, met)
	if err != nil {
		return err
	}
	limit := middleware.NewRateLimiter(sCfg.RatePerSec, sCfg.RateBurst)

	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Get("/labs", h.Labs)
		vOne.Get("/labs/{lab}/config", h.LabConfig)
		vOne.Get("/tiers", h.Tiers)

		vOne.Post("/sessions", h.CreateSession)
		vOne.Group("/sessions/{id}", func(s netsvr.NetRouter) {
			s.Get("/", h.GetSession)
			s.Delete("/", h.DeleteSession)
			s.With(limit.Handler).Post("/purchase", h.Purchase)
			s.Post("/play-again", h.PlayAgain)
			s.Post("/abandon", h.Abandon)
			s.Post("/tiles/{index}", h.RevealTile)
			s.Post("/scratch", h.Scratch)
			s.Post("/swipe", h.Swipe)
			s.Post("/pieces/{piece}", h.DropPiece)
		})

		vOne.Get("/history", h.History)
		vOne.Delete("/history", h.ClearHistory)
		vOne.Get("/history/total", h.TotalWinnings)
		vOne.Get("/history/stream", h.Stream)

		if sCfg.SimEnabled {
			vOne.Get("/sim", h.Sim)
			vOne.Get("/trace", h.Trace)
			vOne.Post("/trace", h.Trace)
		}
	})
	return nil
}
