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

// Package app 定義管理長期運行元件的最小生命週期抽象。
package app

import "context"

// Component 可啟動 / 可關閉的長生命週期元件。
//   - Run() 為阻塞呼叫，直到元件停止為止。
//   - Shutdown(ctx) 要求優雅關閉，需尊重 ctx deadline。
type Component interface {
	Run() error
	Shutdown(ctx context.Context) error
}

// Func 把一個可被 ctx 取消的阻塞函式包成 Component（背景工作用）。
type Func struct {
	run    func(ctx context.Context) error
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	stop   func(ctx context.Context) error
}

// NewFunc run 需在 ctx 結束時返回；stop 可為 nil，會在 run 返回後呼叫。
func NewFunc(run func(ctx context.Context) error, stop func(ctx context.Context) error) *Func {
	ctx, cancel := context.WithCancel(context.Background())
	return &Func{run: run, ctx: ctx, cancel: cancel, done: make(chan struct{}), stop: stop}
}

func (f *Func) Run() error {
	defer close(f.done)
	return f.run(f.ctx)
}

func (f *Func) Shutdown(ctx context.Context) error {
	f.cancel()
	select {
	case <-f.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if f.stop != nil {
		return f.stop(ctx)
	}
	return nil
}
