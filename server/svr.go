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

package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/server/api"
	"github.com/zintix-labs/strikelab/server/app"
	"github.com/zintix-labs/strikelab/server/logger"
	"github.com/zintix-labs/strikelab/server/metrics"
	"github.com/zintix-labs/strikelab/server/netsvr"
	"github.com/zintix-labs/strikelab/server/svrcfg"
)

// Run 是 server 套件的組裝器與啟動入口。
//
// 它負責：
//  1. 驗證 SvrCfg（logger、Runtime 等必要依賴）。
//  2. 建立 HTTP server（netsvr）與指標。
//  3. 註冊路由與 middleware（api.RegisterRoutes）。
//  4. 啟動 app.Run()：HTTP、閒置 Session 清理、事件指標三個元件，並回傳停止原因。
//
// Run 不綁定檔案路徑或環境變數；所有依賴都透過 SvrCfg 注入。
func Run(ctx context.Context, sCfg *svrcfg.SvrCfg) error {
	if err := sCfg.Valid(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	svr := netsvr.NewChiServer(sCfg.Addr, sCfg.SimTimeout+sCfg.ReqTimeout)
	return RunWithSvr(ctx, sCfg, svr)
}

// RunWithSvr 與 Run 相同，但允許注入自訂的 NetSvr（自己的 listener、TLS、timeout）。
func RunWithSvr(ctx context.Context, sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) error {
	if err := sCfg.Valid(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	if svr == nil {
		err := errs.NewFatal("svr is required")
		sCfg.Log.Error(err.Error())
		return err
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		err := errs.NewFatal("default server is not ready")
		sCfg.Log.Error(err.Error())
		return err
	}

	met := metrics.New()
	rt := sCfg.Runtime
	met.WatchSessions(rt.Sessions)
	if ah, ok := sCfg.Log.Handler().(*logger.AsyncHandler); ok {
		met.WatchLogDrops(ah.Dropped)
	}
	if err := api.RegisterRoutes(svr, sCfg, met); err != nil {
		sCfg.Log.Error("register routes failed", slog.Any("err", err))
		return err
	}

	// 閒置 Session 清理；關閉時一併關閉 Runtime
	janitor := app.NewFunc(
		func(ctx context.Context) error {
			rt.Run(ctx, sCfg.SweepEvery)
			return nil
		},
		func(context.Context) error {
			rt.Close()
			return nil
		},
	)
	// 事件轉指標
	events, unsub := rt.Events().Subscribe()
	observer := app.NewFunc(
		func(ctx context.Context) error {
			met.Consume(ctx, events)
			<-ctx.Done()
			return nil
		},
		func(context.Context) error {
			unsub()
			return nil
		},
	)

	a := app.NewWith(sCfg.Log, observer, janitor, svr)
	if c, ok := svr.(*netsvr.ChiAdapter); ok {
		for _, r := range c.Routes() {
			sCfg.Log.Debug("route", slog.String("route", r))
		}
		sCfg.Log.Info("[strikelab] listening on " + c.Address())
	}
	err := a.Run(ctx)
	if err != nil {
		sCfg.Log.Error("app stopped", slog.Any("err", err))
	}
	return err
}
