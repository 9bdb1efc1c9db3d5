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

package v1

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zintix-labs/strikelab/dto"
	"github.com/zintix-labs/strikelab/flow"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// 來源檢查交給 CORS 設定與 bearer token
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Stream GET /v1/history/stream（websocket）推播目前玩家的歷史變動。
//
// 每則訊息帶上最新累計獎金，前端不需要再打 /v1/history/total。
func (h *Handler) Stream(w http.ResponseWriter, q *http.Request) {
	ctx, cancel := h.ctx(q)
	p, err := h.player(ctx)
	cancel()
	if err != nil {
		h.fail(w, "history stream", err)
		return
	}

	// 先訂閱再升級，握手完成後的事件不會漏掉
	events, unsub := h.rt.Events().Subscribe()
	defer unsub()

	conn, err := upgrader.Upgrade(w, q, nil)
	if err != nil {
		// Upgrade 已寫回錯誤
		h.log.Warn("websocket upgrade failed", slog.Any("err", err))
		return
	}
	defer conn.Close()

	// 讀端只處理 pong / close
	done := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-done:
			return
		case ev, ok := <-events:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
				return
			}
			if ev.Kind != flow.EventHistoryChanged || ev.Player != p.ID {
				continue
			}
			msg := dto.StreamMessage{Kind: ev.Kind, Session: ev.Session, Record: ev.Record}
			tctx, tcancel := context.WithTimeout(context.Background(), h.reqTimeout)
			if total, err := h.rt.History().TotalWinnings(tctx, p.ID); err == nil {
				msg.Total = total.String()
			}
			tcancel()
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
