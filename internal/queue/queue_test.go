package queue

import (
	"testing"

	"github.com/OCAP2/terrain/pkg/core"
)

func TestQueue_New(t *testing.T) {
	q := New[core.Cell](8)
	if q == nil {
		t.Fatal("expected non-nil queue")
	}
	if !q.Empty() {
		t.Error("expected empty queue")
	}
	if q.Len() != 0 {
		t.Errorf("expected length 0, got %d", q.Len())
	}
}

func TestQueue_NegativeCapacity(t *testing.T) {
	q := New[int](-5)
	q.Push(1)
	if q.Len() != 1 {
		t.Errorf("expected length 1, got %d", q.Len())
	}
}

func TestQueue_PopOrder(t *testing.T) {
	q := New[core.Cell](0)

	// Pop from empty queue reports !ok
	if _, ok := q.Pop(); ok {
		t.Error("expected ok=false on empty queue")
	}

	q.Push(core.Cell{Col: 1, Row: 1}, core.Cell{Col: 2, Row: 2})
	q.Push(core.Cell{Col: 3, Row: 3})

	for i := 1; i <= 3; i++ {
		c, ok := q.Pop()
		if !ok {
			t.Fatalf("expected item %d", i)
		}
		if c.Col != i || c.Row != i {
			t.Errorf("expected (%d,%d), got %+v", i, i, c)
		}
	}
	if !q.Empty() {
		t.Error("expected empty queue after draining")
	}
}

func TestQueue_InterleavedPushPopCompacts(t *testing.T) {
	q := New[int](0)
	expected := func(k int) int {
		if k%2 == 0 {
			return k / 2
		}
		return 1000000 + k/2
	}
	for i := 0; i < 1000; i++ {
		q.Push(i, i+1000000)
		v, ok := q.Pop()
		if !ok {
			t.Fatalf("unexpected empty queue at %d", i)
		}
		if v != expected(i) {
			t.Fatalf("pop %d: expected %d, got %d", i, expected(i), v)
		}
	}
	if q.Len() != 1000 {
		t.Errorf("expected 1000 remaining, got %d", q.Len())
	}

	for k := 1000; !q.Empty(); k++ {
		v, ok := q.Pop()
		if !ok {
			t.Fatal("Pop failed on non-empty queue")
		}
		if v != expected(k) {
			t.Fatalf("pop %d: expected %d, got %d", k, expected(k), v)
		}
	}
}

func TestQueue_FIFOAcrossCompaction(t *testing.T) {
	q := New[int](0)
	for i := 0; i < 500; i++ {
		q.Push(i)
	}
	for i := 0; i < 500; i++ {
		v, _ := q.Pop()
		if v != i {
			t.Fatalf("expected %d, got %d", i, v)
		}
		if i%3 == 0 {
			q.Push(500 + i/3)
		}
	}
	want := 500
	for !q.Empty() {
		v, _ := q.Pop()
		if v != want {
			t.Fatalf("expected %d, got %d", want, v)
		}
		want++
	}
}

func TestQueue_Reset(t *testing.T) {
	q := New[int](0)
	q.Push(1, 2, 3)
	q.Pop()

	q.Reset()

	if !q.Empty() {
		t.Error("expected empty queue after reset")
	}
	if q.Len() != 0 {
		t.Errorf("expected length 0, got %d", q.Len())
	}
	q.Push(7)
	if v, _ := q.Pop(); v != 7 {
		t.Errorf("expected 7 after reset, got %d", v)
	}
}
