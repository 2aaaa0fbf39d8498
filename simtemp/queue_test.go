package simtemp

import "testing"

func TestRecordQueueTryPushFillsToCapacity(t *testing.T) {
	var q recordQueue
	for i := 0; i < QueueCapacity; i++ {
		if !q.tryPush(Record{TempMC: int32(i)}) {
			t.Fatalf("tryPush failed before reaching capacity, at i=%d", i)
		}
	}
	if !q.isFull() {
		t.Fatalf("expected queue full after %d pushes", QueueCapacity)
	}
	if q.tryPush(Record{TempMC: 999}) {
		t.Fatalf("tryPush succeeded on a full queue")
	}
	if q.size() != QueueCapacity {
		t.Fatalf("size = %d, want %d", q.size(), QueueCapacity)
	}
}

func TestRecordQueueForcePushEvictsOldest(t *testing.T) {
	var q recordQueue
	for i := 0; i < QueueCapacity; i++ {
		q.tryPush(Record{TempMC: int32(i)})
	}

	if evicted := q.forcePush(Record{TempMC: 1000}); !evicted {
		t.Fatalf("forcePush on a full queue did not report eviction")
	}
	if q.size() != QueueCapacity {
		t.Fatalf("size = %d after forcePush, want %d", q.size(), QueueCapacity)
	}

	rec, ok := q.popOne()
	if !ok {
		t.Fatalf("popOne on non-empty queue returned ok=false")
	}
	if rec.TempMC != 1 {
		t.Fatalf("oldest record TempMC = %d, want 1 (record 0 should have been evicted)", rec.TempMC)
	}
}

func TestRecordQueuePopOneFIFOOrder(t *testing.T) {
	var q recordQueue
	for i := 0; i < 5; i++ {
		q.tryPush(Record{TempMC: int32(i)})
	}
	for i := 0; i < 5; i++ {
		rec, ok := q.popOne()
		if !ok {
			t.Fatalf("popOne returned ok=false at i=%d", i)
		}
		if rec.TempMC != int32(i) {
			t.Fatalf("popOne order violated: got TempMC=%d, want %d", rec.TempMC, i)
		}
	}
	if !q.isEmpty() {
		t.Fatalf("queue not empty after draining all pushed records")
	}
	if _, ok := q.popOne(); ok {
		t.Fatalf("popOne on empty queue returned ok=true")
	}
}

func TestRecordQueueForcePushNeverExceedsCapacity(t *testing.T) {
	var q recordQueue
	for i := 0; i < QueueCapacity*4; i++ {
		q.forcePush(Record{TempMC: int32(i)})
		if q.size() < 0 || q.size() > QueueCapacity {
			t.Fatalf("size = %d out of bounds [0, %d] at i=%d", q.size(), QueueCapacity, i)
		}
	}
	if q.size() != QueueCapacity {
		t.Fatalf("size = %d after sustained forcePush, want %d", q.size(), QueueCapacity)
	}
}
