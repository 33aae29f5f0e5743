package buffer

import (
	"reflect"
	"testing"
)

func TestRingAddAndList(t *testing.T) {
	ring := NewRing[int](3)
	for value := 1; value <= 2; value++ {
		ring.Add(value)
	}
	if ring.Len() != 2 {
		t.Fatalf("expected len 2, got %d", ring.Len())
	}
	if !reflect.DeepEqual(ring.List(), []int{1, 2}) {
		t.Fatalf("unexpected list %#v", ring.List())
	}
}

func TestRingEvictsOldest(t *testing.T) {
	ring := NewRing[int](3)
	for value := 1; value <= 5; value++ {
		ring.Add(value)
	}
	if !reflect.DeepEqual(ring.List(), []int{3, 4, 5}) {
		t.Fatalf("unexpected list %#v", ring.List())
	}
}

func TestRingTail(t *testing.T) {
	ring := NewRing[string](4)
	for _, value := range []string{"a", "b", "c", "d", "e"} {
		ring.Add(value)
	}
	if !reflect.DeepEqual(ring.Tail(2), []string{"d", "e"}) {
		t.Fatalf("unexpected tail %#v", ring.Tail(2))
	}
	if !reflect.DeepEqual(ring.Tail(10), []string{"b", "c", "d", "e"}) {
		t.Fatalf("tail larger than contents should return everything, got %#v", ring.Tail(10))
	}
	if ring.Tail(0) != nil {
		t.Fatalf("expected nil for zero tail")
	}
}

func TestRingZeroSize(t *testing.T) {
	ring := NewRing[int](0)
	ring.Add(1)
	if ring.Len() != 1 {
		t.Fatalf("zero size should clamp to capacity 1, got len %d", ring.Len())
	}
}

func TestRingNilReceiver(t *testing.T) {
	var ring *Ring[int]
	ring.Add(1)
	if ring.Len() != 0 || ring.List() != nil || ring.Tail(1) != nil {
		t.Fatalf("nil ring should be inert")
	}
}
