package compute

import (
	"strings"
	"sync/atomic"
	"testing"
)

func TestDispatchVisitsEveryItemOnce(t *testing.T) {
	d := NewDispatcher(WithWorkers(4), WithWorkgroupSize(7))
	defer d.Close()

	for _, count := range []int{0, 1, 7, 8, 1000, 4099} {
		hits := make([]atomic.Int32, count)
		d.Dispatch("visit", count, func(i int) {
			hits[i].Add(1)
		})
		for i := range hits {
			if n := hits[i].Load(); n != 1 {
				t.Fatalf("count=%d: item %d visited %d times", count, i, n)
			}
		}
	}
}

func TestDispatchIsBarrier(t *testing.T) {
	d := NewDispatcher(WithWorkers(3), WithWorkgroupSize(16))
	defer d.Close()

	var sum atomic.Int64
	d.Dispatch("sum", 10000, func(i int) {
		sum.Add(int64(i))
	})
	if got, want := sum.Load(), int64(10000*9999/2); got != want {
		t.Errorf("sum after barrier: expected %d, got %d", want, got)
	}
	if got := d.Dispatches(); got != 1 {
		t.Errorf("dispatch count: expected 1, got %d", got)
	}
}

func TestDispatchRepanicsOnCaller(t *testing.T) {
	d := NewDispatcher(WithWorkers(2), WithWorkgroupSize(4))
	defer d.Close()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic to propagate")
		}
		if msg, ok := r.(string); !ok || !strings.Contains(msg, "boom") {
			t.Errorf("unexpected panic value: %v", r)
		}
	}()
	d.Dispatch("boom", 100, func(i int) {
		if i == 57 {
			panic("boom")
		}
	})
}

func BenchmarkDispatch(b *testing.B) {
	d := NewDispatcher()
	defer d.Close()
	data := make([]float32, 1<<16)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Dispatch("bench", len(data), func(j int) {
			data[j] = data[j]*0.5 + 1
		})
	}
}
