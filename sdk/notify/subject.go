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

// Package notify 提供明確擁有者的觀察者（取代全域事件廣播）。
package notify

import (
	"sync"
	"sync/atomic"
)

// DefaultBuffer 每個訂閱者的緩衝長度。
const DefaultBuffer = 16

// Subject 泛型主題。Publish 永不阻塞：訂閱者緩衝已滿時丟棄該事件並累計 Dropped。
type Subject[T any] struct {
	mu      sync.RWMutex
	subs    map[int64]chan T
	nextID  int64
	buf     int
	closed  bool
	dropped atomic.Uint64
}

// NewSubject 建立主題；buf <= 0 使用 DefaultBuffer。
func NewSubject[T any](buf int) *Subject[T] {
	if buf <= 0 {
		buf = DefaultBuffer
	}
	return &Subject[T]{subs: make(map[int64]chan T), buf: buf}
}

// Subscribe 回傳事件 channel 與取消函式。取消後 channel 會被關閉；重複取消無害。
// 主題已關閉時回傳已關閉的 channel。
func (s *Subject[T]) Subscribe() (<-chan T, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan T, s.buf)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Publish 把事件送給所有訂閱者。
func (s *Subject[T]) Publish(v T) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	for _, ch := range s.subs {
		select {
		case ch <- v:
		default:
			s.dropped.Add(1)
		}
	}
}

// Subscribers 目前訂閱者數量。
func (s *Subject[T]) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Dropped 因緩衝已滿而丟棄的事件數。
func (s *Subject[T]) Dropped() uint64 {
	return s.dropped.Load()
}

// Close 關閉所有訂閱 channel，之後的 Publish 為 no-op。
func (s *Subject[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
