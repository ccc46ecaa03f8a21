package queue

import (
	"errors"
	"sort"
	"sync"
	"testing"
	"time"
)

func TestNewInvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1, -100} {
		q, err := New(capacity)
		if !errors.Is(err, ErrInvalidCapacity) {
			t.Errorf("New(%d): expected ErrInvalidCapacity, got %v", capacity, err)
		}
		if q != nil {
			t.Errorf("New(%d): expected nil queue", capacity)
		}
	}
}

func TestNewEmpty(t *testing.T) {
	q, err := New(3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d items", q.Len())
	}
	if q.Cap() != 3 {
		t.Errorf("expected capacity 3, got %d", q.Cap())
	}
}

func TestFIFOSingleThread(t *testing.T) {
	q, err := New(4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Wrap around the ring several times.
	next := 0
	for round := 0; round < 5; round++ {
		for i := 0; i < 3; i++ {
			q.Put(round*3 + i)
		}
		for i := 0; i < 3; i++ {
			got := q.Get().(int)
			if got != next {
				t.Fatalf("round %d: expected %d, got %d", round, next, got)
			}
			next++
		}
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d items", q.Len())
	}
}

func TestFIFOSingleProducerSingleConsumer(t *testing.T) {
	q, err := New(2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	const n = 1000
	go func() {
		for i := 0; i < n; i++ {
			q.Put(i)
		}
	}()

	for i := 0; i < n; i++ {
		if got := q.Get().(int); got != i {
			t.Fatalf("expected %d, got %d", i, got)
		}
	}
}

func TestPutBlocksWhenFull(t *testing.T) {
	const capacity = 3
	q, err := New(capacity)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// K puts must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < capacity; i++ {
			q.Put(i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("first capacity puts blocked")
	}

	// The (K+1)th put blocks until a get.
	extra := make(chan struct{})
	go func() {
		q.Put(capacity)
		close(extra)
	}()
	select {
	case <-extra:
		t.Fatal("put on a full queue did not block")
	case <-time.After(100 * time.Millisecond):
	}

	if got := q.Get().(int); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}

	select {
	case <-extra:
	case <-time.After(2 * time.Second):
		t.Fatal("blocked put did not resume after get")
	}
	if q.Len() != capacity {
		t.Errorf("expected %d items, got %d", capacity, q.Len())
	}
}

func TestGetBlocksWhenEmpty(t *testing.T) {
	q, err := New(1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := make(chan any, 1)
	go func() {
		got <- q.Get()
	}()

	select {
	case <-got:
		t.Fatal("get on an empty queue did not block")
	case <-time.After(100 * time.Millisecond):
	}

	q.Put("task")

	select {
	case item := <-got:
		if item != "task" {
			t.Errorf("expected task, got %v", item)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("blocked get did not resume after put")
	}
}

func TestConcurrentNoLoss(t *testing.T) {
	const (
		producers   = 4
		consumers   = 4
		perProducer = 1000
		total       = producers * perProducer
	)

	q, err := New(8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	type tagged struct {
		producer int
		seq      int
	}

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Put(tagged{producer: p, seq: i})
			}
		}(p)
	}

	var (
		mu        sync.Mutex
		collected []tagged
		remaining = total
	)
	var cwg sync.WaitGroup
	for c := 0; c < consumers; c++ {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			var local []tagged
			for {
				mu.Lock()
				if remaining == 0 {
					mu.Unlock()
					break
				}
				remaining--
				mu.Unlock()

				local = append(local, q.Get().(tagged))
			}
			mu.Lock()
			collected = append(collected, local...)
			mu.Unlock()
		}()
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		cwg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(30 * time.Second):
		t.Fatal("producers and consumers did not finish")
	}

	if len(collected) != total {
		t.Fatalf("expected %d items, got %d", total, len(collected))
	}

	seen := make(map[tagged]int, total)
	for _, item := range collected {
		seen[item]++
	}
	for p := 0; p < producers; p++ {
		for i := 0; i < perProducer; i++ {
			if n := seen[tagged{producer: p, seq: i}]; n != 1 {
				t.Fatalf("item %d/%d seen %d times", p, i, n)
			}
		}
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d items", q.Len())
	}
}

func TestPerProducerOrderPreserved(t *testing.T) {
	const (
		producers   = 3
		perProducer = 500
	)

	q, err := New(4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for p := 0; p < producers; p++ {
		go func(p int) {
			for i := 0; i < perProducer; i++ {
				q.Put([2]int{p, i})
			}
		}(p)
	}

	// A single consumer observes each producer's items in the order they were put.
	last := make([]int, producers)
	for i := range last {
		last[i] = -1
	}
	for i := 0; i < producers*perProducer; i++ {
		item := q.Get().([2]int)
		if item[1] != last[item[0]]+1 {
			t.Fatalf("producer %d: expected seq %d, got %d", item[0], last[item[0]]+1, item[1])
		}
		last[item[0]] = item[1]
	}
}

func TestSentinelShutdown(t *testing.T) {
	const workers = 4
	q, err := New(workers)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	stop := new(struct{})

	var (
		mu   sync.Mutex
		seen []int
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				item := q.Get()
				if item == stop {
					return
				}
				mu.Lock()
				seen = append(seen, item.(int))
				mu.Unlock()
			}
		}()
	}

	for i := 0; i < 20; i++ {
		q.Put(i)
	}
	for w := 0; w < workers; w++ {
		q.Put(stop)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("workers did not exit after sentinels")
	}

	sort.Ints(seen)
	if len(seen) != 20 {
		t.Fatalf("expected 20 items, got %d", len(seen))
	}
	for i, v := range seen {
		if v != i {
			t.Fatalf("expected %d at position %d, got %d", i, i, v)
		}
	}
}
