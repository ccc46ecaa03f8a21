// Package queue provides a fixed-capacity blocking FIFO queue used to hand
// chunk tasks from the orchestrator to a pool of workers.
//
// Items are opaque to the queue. Put blocks while the queue is full and Get
// blocks while it is empty. Ordering is strictly FIFO across all producers
// and consumers combined.
//
// # Usage
//
//	q, err := queue.New(workers)
//	if err != nil {
//	    return err
//	}
//
//	// producer
//	q.Put(task)
//
//	// consumer
//	task := q.Get()
//
// # Shutdown
//
// The queue has no close or cancel operation. To stop a pool of consumers,
// put one sentinel item per consumer; each consumer exits when it receives
// the sentinel. The queue must not be discarded while any Put or Get is
// still in flight.
package queue
