package queue

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	job1 := Job{SessionID: "s1", Idx: 0, VideoPath: "a.mp4"}
	if !q.Enqueue(ctx, job1) {
		t.Error("expected enqueue to succeed")
	}

	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	jobChan := q.Dequeue(ctx)
	job := <-jobChan
	if job.SessionID != "s1" || job.VideoPath != "a.mp4" {
		t.Errorf("unexpected job %+v", job)
	}

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, Job{SessionID: "s1", Idx: 0, VideoPath: "a.mp4"}) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, Job{SessionID: "s1", Idx: 1, VideoPath: "b.mp4"}) {
		t.Error("expected enqueue to succeed")
	}

	if q.Enqueue(ctx, Job{SessionID: "s1", Idx: 2, VideoPath: "c.mp4"}) {
		t.Error("expected enqueue to fail when full")
	}

	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, Job{SessionID: "s1", Idx: 0, VideoPath: "a.mp4"}) {
		t.Error("expected enqueue to succeed")
	}

	if err := q.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to report closed")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected idempotent close, got %v", err)
	}

	if q.Enqueue(ctx, Job{SessionID: "s1", Idx: 1, VideoPath: "b.mp4"}) {
		t.Error("expected enqueue to fail after close")
	}

	// The buffered job is still drainable, then the channel closes.
	jobChan := q.Dequeue(ctx)
	if job, ok := <-jobChan; !ok || job.Idx != 0 {
		t.Errorf("expected buffered job, got %+v ok=%v", job, ok)
	}
	select {
	case _, ok := <-jobChan:
		if ok {
			t.Error("expected dequeue channel to close")
		}
	case <-time.After(time.Second):
		t.Error("timed out waiting for channel close")
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2000))
	ctx := context.Background()
	numGoroutines := 10
	numJobs := 100

	done := make(chan bool, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			for j := 0; j < numJobs; j++ {
				job := Job{
					SessionID: fmt.Sprintf("s%d", id),
					Idx:       j,
					VideoPath: fmt.Sprintf("clip-%d-%d.mp4", id, j),
				}
				if !q.Enqueue(ctx, job) {
					t.Errorf("enqueue failed for %s/%d", job.SessionID, job.Idx)
				}
			}
			done <- true
		}(i)
	}
	for i := 0; i < numGoroutines; i++ {
		<-done
	}

	if l := q.Len(ctx); l != numGoroutines*numJobs {
		t.Errorf("expected %d jobs, got %d", numGoroutines*numJobs, l)
	}

	received := 0
	jobChan := q.Dequeue(ctx)
	timeout := time.After(5 * time.Second)
	for received < numGoroutines*numJobs {
		select {
		case <-jobChan:
			received++
		case <-timeout:
			t.Fatalf("timed out after receiving %d jobs", received)
		}
	}
}
