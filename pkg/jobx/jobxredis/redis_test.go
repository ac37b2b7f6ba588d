package jobxredis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Abraxas-365/keygate/pkg/jobx"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestQueue(t *testing.T) *RedisQueue {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisQueue(client)
}

func TestEnqueueDequeueComplete(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, jobx.Job{
		Type:       "email:send",
		Queue:      "default",
		Payload:    json.RawMessage(`{"to":"jo@example.com"}`),
		MaxRetries: 3,
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	info, err := q.Dequeue(ctx, []string{"default"}, time.Second)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if info == nil || info.ID != id {
		t.Fatalf("dequeued wrong job: %+v", info)
	}
	if info.Status != jobx.JobStatusActive || info.Attempts != 1 {
		t.Errorf("status=%s attempts=%d after dequeue", info.Status, info.Attempts)
	}

	if err := q.Complete(ctx, id); err != nil {
		t.Fatalf("Complete: %v", err)
	}
}

func TestDequeueTimeoutReturnsNil(t *testing.T) {
	q := newTestQueue(t)

	info, err := q.Dequeue(context.Background(), []string{"default"}, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Dequeue on empty queue: %v", err)
	}
	if info != nil {
		t.Fatalf("expected nil job on timeout, got %+v", info)
	}
}

func TestFailTracksRetryBudget(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, jobx.Job{Type: "email:send", Queue: "default", MaxRetries: 2})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	// First attempt fails with budget remaining.
	if _, err := q.Dequeue(ctx, []string{"default"}, time.Second); err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	retry, err := q.Fail(ctx, id, "provider unavailable")
	if err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if !retry {
		t.Fatal("first failure should leave a retry")
	}

	if err := q.Retry(ctx, id, 0); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if err := q.PromoteScheduled(ctx, []string{"default"}); err != nil {
		t.Fatalf("PromoteScheduled: %v", err)
	}

	// Second attempt exhausts the budget.
	if _, err := q.Dequeue(ctx, []string{"default"}, time.Second); err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	retry, err = q.Fail(ctx, id, "provider unavailable")
	if err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if retry {
		t.Fatal("exhausted job should not retry")
	}
}

func TestDelayedJobsPromoteWhenDue(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	id, err := q.EnqueueDelayed(ctx, jobx.Job{Type: "email:send", Queue: "default", MaxRetries: 3}, time.Hour)
	if err != nil {
		t.Fatalf("EnqueueDelayed: %v", err)
	}

	// Not due yet.
	if err := q.PromoteScheduled(ctx, []string{"default"}); err != nil {
		t.Fatalf("PromoteScheduled: %v", err)
	}
	info, err := q.Dequeue(ctx, []string{"default"}, 50*time.Millisecond)
	if err != nil || info != nil {
		t.Fatalf("future job should not be dequeued, got %+v, %v", info, err)
	}

	// Due immediately.
	id2, err := q.EnqueueDelayed(ctx, jobx.Job{Type: "email:send", Queue: "default", MaxRetries: 3}, -time.Second)
	if err != nil {
		t.Fatalf("EnqueueDelayed: %v", err)
	}
	if err := q.PromoteScheduled(ctx, []string{"default"}); err != nil {
		t.Fatalf("PromoteScheduled: %v", err)
	}

	info, err = q.Dequeue(ctx, []string{"default"}, time.Second)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if info == nil || info.ID != id2 {
		t.Fatalf("expected due job %s, got %+v", id2, info)
	}
	if info.ID == id {
		t.Fatal("hour-delayed job promoted too early")
	}
}
