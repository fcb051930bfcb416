package util

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// TestBasicOperations tests basic push and consume functionality
func TestBasicOperations(t *testing.T) {
	q := NewQueue[int]()
	defer q.Close()

	for i := 0; i < 10; i++ {
		if !q.Push(&i) {
			t.Fatalf("Failed to push item %d", i)
		}
	}

	for i := 0; i < 10; i++ {
		select {
		case val := <-q.Recv():
			if *val != i {
				t.Errorf("Expected %d, got %d", i, *val)
			}
		case <-time.After(time.Second):
			t.Fatalf("Timeout waiting for item %d", i)
		}
	}

	select {
	case val := <-q.Recv():
		t.Errorf("Queue should be empty, but got %v", *val)
	case <-time.After(10 * time.Millisecond):
	}

	if q.Push(nil) {
		t.Errorf("Pushing nil must fail")
	}
}

// TestConcurrentProducers verifies that no item is lost or duplicated
func TestConcurrentProducers(t *testing.T) {
	q := NewQueue[string]()
	defer q.Close()

	const numProducers = 10
	const itemsPerProducer = 500

	var wg sync.WaitGroup
	for p := 0; p < numProducers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < itemsPerProducer; i++ {
				item := fmt.Sprintf("%d-%d", p, i)
				q.Push(&item)
			}
		}()
	}

	received := make(map[string]bool)
	lastPerProducer := make(map[int]int)
	for i := 0; i < numProducers*itemsPerProducer; i++ {
		select {
		case val := <-q.Recv():
			if received[*val] {
				t.Fatalf("Received %s twice", *val)
			}
			received[*val] = true

			var p, n int
			fmt.Sscanf(*val, "%d-%d", &p, &n)
			if last, ok := lastPerProducer[p]; ok && n < last {
				t.Errorf("Producer %d: item %d received after %d", p, n, last)
			}
			lastPerProducer[p] = n
		case <-time.After(5 * time.Second):
			t.Fatalf("Timeout after %d items", i)
		}
	}
	wg.Wait()
}

// TestCloseQueue verifies that closing drains the queue and closes the channel
func TestCloseQueue(t *testing.T) {
	q := NewQueue[int]()

	for i := 0; i < 5; i++ {
		q.Push(&i)
	}
	q.Close()

	if !q.IsClosed() {
		t.Errorf("Expected queue to be closed")
	}
	if q.Push(new(int)) {
		t.Errorf("Push after close must fail")
	}

	count := 0
	timeout := time.After(time.Second)
	for {
		select {
		case _, ok := <-q.Recv():
			if !ok {
				if count != 5 {
					t.Errorf("Expected 5 items before close, got %d", count)
				}
				if q.Len() != 0 {
					t.Errorf("Expected empty queue, got %d", q.Len())
				}
				return
			}
			count++
		case <-timeout:
			t.Fatalf("Channel was not closed")
		}
	}
}

// TestWakeUp verifies that a parked consumer is woken by a push
func TestWakeUp(t *testing.T) {
	q := NewQueue[int]()
	defer q.Close()

	for i := 0; i < 100; i++ {
		time.Sleep(time.Millisecond)
		q.Push(&i)
		select {
		case <-q.Recv():
		case <-time.After(time.Second):
			t.Fatalf("Consumer was not woken for item %d", i)
		}
	}
}

func BenchmarkMultiProducer(b *testing.B) {
	q := NewQueue[int]()
	defer q.Close()

	go func() {
		for range q.Recv() {
		}
	}()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		v := 1
		for pb.Next() {
			q.Push(&v)
		}
	})
}
