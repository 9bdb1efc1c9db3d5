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

// Package metrics Prometheus 指標：HTTP 請求、購票、開獎結果、派彩、錯誤種類與在線 Session。
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/flow"
	"github.com/zintix-labs/strikelab/server/netsvr/middleware"
)

const namespace = "strikelab"

// Metrics 持有獨立的 Registry，測試可以各自建立互不干擾。
type Metrics struct {
	reg *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	purchases   *prometheus.CounterVec
	completions *prometheus.CounterVec
	prizePaid   *prometheus.CounterVec
	errors      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"method", "route"}),
		purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tickets",
			Name:      "purchased_total",
			Help:      "Tickets purchased, by tier and puzzle kind.",
		}, []string{"tier", "puzzle"}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tickets",
			Name:      "completed_total",
			Help:      "Puzzles completed, by tier and outcome.",
		}, []string{"tier", "outcome"}),
		prizePaid: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tickets",
			Name:      "prize_usd_total",
			Help:      "Prize amount awarded in USD, by tier.",
		}, []string{"tier"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors returned to clients, by error kind.",
		}, []string{"kind"}),
	}
	m.reg.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.purchases,
		m.completions,
		m.prizePaid,
		m.errors,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Registry 供測試或外部 exporter 使用。
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// WatchSessions 以 GaugeFunc 回報在線 Session 數。
func (m *Metrics) WatchSessions(fn func() int) {
	m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "runtime",
		Name:      "sessions",
		Help:      "Live sessions in the runtime registry.",
	}, func() float64 { return float64(fn()) }))
}

// WatchLogDrops 回報非同步 logger 丟棄的筆數。
func (m *Metrics) WatchLogDrops(fn func() uint64) {
	m.reg.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "log",
		Name:      "dropped_total",
		Help:      "Log records dropped by the async handler.",
	}, func() float64 { return float64(fn()) }))
}

// Instrument HTTP middleware；route 標籤用 chi 的路由樣板，避免 session id 造成高基數。
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		rec := middleware.NewStatusRecorder(w)
		start := time.Now()

		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		method := strings.ToUpper(r.Method)
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.Status)).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

// ObserveError 依錯誤種類累計。
func (m *Metrics) ObserveError(err error) {
	if err == nil {
		return
	}
	kind := "unknown"
	var e *errs.E
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = "deadline"
	case errors.Is(err, context.Canceled):
		kind = "canceled"
	case errors.As(err, &e):
		kind = e.Kind.String()
		if kind == "" {
			kind = errs.ErrLv(e.ErrLv)
		}
	}
	m.errors.WithLabelValues(kind).Inc()
}

// Observe 依流程事件更新購票 / 開獎指標。
func (m *Metrics) Observe(ev flow.Event) {
	st := ev.State
	switch ev.Kind {
	case flow.EventPurchased:
		m.purchases.WithLabelValues(string(st.Tier), string(st.PuzzleType)).Inc()
	case flow.EventCompleted:
		outcome := "lose"
		if st.IsWinner {
			outcome = "win"
		}
		m.completions.WithLabelValues(string(st.Tier), outcome).Inc()
		if st.PrizeAmount != nil {
			m.prizePaid.WithLabelValues(string(st.Tier)).Add(st.PrizeAmount.Float64())
		}
	}
}

// Consume 持續讀取事件直到 channel 關閉或 ctx 結束。
func (m *Metrics) Consume(ctx context.Context, events <-chan flow.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.Observe(ev)
		}
	}
}
