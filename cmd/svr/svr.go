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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/zintix-labs/strikelab"
	"github.com/zintix-labs/strikelab/demo"
	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/history"
	"github.com/zintix-labs/strikelab/identity"
	"github.com/zintix-labs/strikelab/server"
	"github.com/zintix-labs/strikelab/server/logger"
	"github.com/zintix-labs/strikelab/server/svrcfg"
)

// 本機開發用的伺服器入口：設定來源依序為 flag > 環境變數 > .env > 預設值。
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type config struct {
	envFile     string
	addr        string
	logMode     string
	cfgDir      string
	jwtSecret   string
	jwtIssuer   string
	cors        string
	rate        float64
	burst       int
	sim         bool
	maxSessions int
	idleTTL     time.Duration
	store       string
	storeDSN    string
}

func run() error {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		return err
	}
	mode, err := logger.ParseMode(cfg.logMode)
	if err != nil {
		return err
	}
	log, ah := logger.NewAsync(4096, mode)
	defer ah.Close()

	ctx := context.Background()

	var extra []fs.FS
	if cfg.cfgDir != "" {
		extra = append(extra, os.DirFS(cfg.cfgDir))
	}
	lab, err := demo.New(extra...)
	if err != nil {
		return err
	}
	ls, _, err := lab.Setting("")
	if err != nil {
		return err
	}
	wallet, err := demo.Wallet(lab, "")
	if err != nil {
		return err
	}
	store, closer, err := openStore(ctx, cfg.store, cfg.storeDSN, ls.History.MaxRecords)
	if err != nil {
		return err
	}
	defer closer.Close()

	ident := identity.Select(cfg.jwtSecret, cfg.jwtIssuer)
	rt, err := lab.BuildRuntime(strikelab.RuntimeDeps{
		Wallet:      wallet,
		History:     store,
		Identity:    ident,
		Log:         log,
		MaxSessions: cfg.maxSessions,
		IdleTTL:     cfg.idleTTL,
	})
	if err != nil {
		return err
	}
	log.Info("strikelab starting",
		slog.String("addr", cfg.addr),
		slog.String("lab", lab.Default()),
		slog.String("history", cfg.store),
		slog.String("identity", string(ident.Mode())),
		slog.Bool("sim", cfg.sim),
	)

	return server.Run(ctx, &svrcfg.SvrCfg{
		Log:         log,
		Addr:        cfg.addr,
		Runtime:     rt,
		CORSOrigins: splitList(cfg.cors),
		RatePerSec:  cfg.rate,
		RateBurst:   cfg.burst,
		SimEnabled:  cfg.sim,
	})
}

func loadConfig(args []string) (*config, error) {
	// 先載入 .env，環境變數才能作為 flag 預設值
	envFile := envFileArg(args)
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errs.WrapKind(err, errs.Fatal, errs.KindConfiguration, "load "+envFile)
	}

	cfg := new(config)
	fset := flag.NewFlagSet("svr", flag.ContinueOnError)
	fset.StringVar(&cfg.envFile, "env", ".env", "dotenv file")
	fset.StringVar(&cfg.addr, "addr", env("STRIKELAB_ADDR", svrcfg.DefaultAddr), "listen address")
	fset.StringVar(&cfg.logMode, "log-mode", env("STRIKELAB_LOG_MODE", "dev"), "log mode: dev|prod|silence")
	fset.StringVar(&cfg.cfgDir, "cfg", env("STRIKELAB_CFG_DIR", ""), "extra lab setting directory")
	fset.StringVar(&cfg.jwtSecret, "jwt-secret", env("STRIKELAB_JWT_SECRET", ""), "HS256 secret; empty means demo identity")
	fset.StringVar(&cfg.jwtIssuer, "jwt-issuer", env("STRIKELAB_JWT_ISSUER", "strikelab"), "expected token issuer")
	fset.StringVar(&cfg.cors, "cors", env("STRIKELAB_CORS_ORIGINS", ""), "comma separated allowed origins")
	fset.Float64Var(&cfg.rate, "rate", envFloat("STRIKELAB_RATE", svrcfg.DefaultRatePerSec), "purchase requests per second per player")
	fset.IntVar(&cfg.burst, "burst", envInt("STRIKELAB_BURST", svrcfg.DefaultRateBurst), "purchase burst per player")
	fset.BoolVar(&cfg.sim, "sim", envBool("STRIKELAB_SIM", true), "enable /v1/sim and /v1/trace")
	fset.IntVar(&cfg.maxSessions, "max-sessions", envInt("STRIKELAB_MAX_SESSIONS", strikelab.DefaultMaxSessions), "max live sessions")
	fset.DurationVar(&cfg.idleTTL, "idle-ttl", envDuration("STRIKELAB_IDLE_TTL", strikelab.DefaultIdleTTL), "idle session ttl")
	fset.StringVar(&cfg.store, "history", env("STRIKELAB_HISTORY", "memory"), "history backend: memory|file|postgres|redis")
	fset.StringVar(&cfg.storeDSN, "history-dsn", env("STRIKELAB_HISTORY_DSN", ""), "file path, postgres dsn or redis url")
	if err := fset.Parse(args); err != nil {
		return nil, errs.WrapKind(err, errs.Fatal, errs.KindConfiguration, "parse flags")
	}
	return cfg, nil
}

// envFileArg 從參數中找出 -env（接受 -env x、--env x、-env=x）。
func envFileArg(args []string) string {
	for i, a := range args {
		name, val, hasVal := strings.Cut(strings.TrimLeft(a, "-"), "=")
		if !strings.HasPrefix(a, "-") || name != "env" {
			continue
		}
		if hasVal {
			return val
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ".env"
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openStore 依名稱開啟歷史儲存，回傳的 io.Closer 負責釋放底層連線。
func openStore(ctx context.Context, kind, dsn string, max int) (history.Store, io.Closer, error) {
	switch strings.ToLower(kind) {
	case "", "memory":
		return history.NewMemory(max), nopCloser{}, nil
	case "file":
		if dsn == "" {
			dsn = "build/history.json.zst"
		}
		f, err := history.OpenFile(dsn, max)
		if err != nil {
			return nil, nil, err
		}
		return f, nopCloser{}, nil
	case "postgres":
		db, err := history.OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		pg := history.NewPostgres(db, max)
		if err := pg.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return pg, db, nil
	case "redis":
		c, err := history.OpenRedis(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return history.NewRedis(c, "", max), c, nil
	}
	return nil, nil, errs.Configurationf("unknown history backend %q", kind)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func env(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return def
}
