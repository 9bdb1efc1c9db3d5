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

package notify

import "testing"

func TestSubjectFanOut(t *testing.T) {
	s := NewSubject[int](4)
	a, cancelA := s.Subscribe()
	b, cancelB := s.Subscribe()
	defer cancelB()

	s.Publish(1)
	if got := <-a; got != 1 {
		t.Fatalf("a got %d", got)
	}
	if got := <-b; got != 1 {
		t.Fatalf("b got %d", got)
	}

	cancelA()
	cancelA()
	if _, ok := <-a; ok {
		t.Fatalf("cancelled channel still open")
	}
	if s.Subscribers() != 1 {
		t.Fatalf("subscribers = %d", s.Subscribers())
	}
}

func TestSubjectNeverBlocks(t *testing.T) {
	s := NewSubject[int](1)
	ch, cancel := s.Subscribe()
	defer cancel()
	for i := 0; i < 5; i++ {
		s.Publish(i)
	}
	if s.Dropped() != 4 {
		t.Fatalf("dropped = %d, want 4", s.Dropped())
	}
	if got := <-ch; got != 0 {
		t.Fatalf("got %d", got)
	}
}

func TestSubjectClose(t *testing.T) {
	s := NewSubject[string](0)
	ch, cancel := s.Subscribe()
	s.Close()
	if _, ok := <-ch; ok {
		t.Fatalf("channel open after close")
	}
	cancel()
	s.Publish("x")
	late, _ := s.Subscribe()
	if _, ok := <-late; ok {
		t.Fatalf("late subscriber got open channel")
	}
}
