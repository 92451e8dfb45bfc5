package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// exerciseCounter incrémente un compteur non atomique sous verrou depuis
// n goroutines; sans exclusion mutuelle le résultat serait faux.
func exerciseCounter(t *testing.T, l Locker, n int) {
	t.Helper()

	counter := 0
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < n; i++ {
		g.Go(func() error {
			unlock, err := l.Lock(ctx, "cart:u1")
			if err != nil {
				return err
			}
			defer unlock()
			v := counter
			time.Sleep(time.Millisecond)
			counter = v + 1
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	if counter != n {
		t.Fatalf("counter = %d, want %d", counter, n)
	}
}

func TestLocal_MutualExclusion(t *testing.T) {
	l := NewLocal()
	exerciseCounter(t, l, 50)
	if l.size() != 0 {
		t.Fatalf("expected entries to be released, %d left", l.size())
	}
}

func TestLocal_DistinctKeysDoNotBlock(t *testing.T) {
	l := NewLocal()
	unlockA, err := l.Lock(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	unlockB, err := l.Lock(ctx, "b")
	if err != nil {
		t.Fatalf("key b should be free: %v", err)
	}
	unlockB()
}

func TestLocal_ContextExpiry(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "k")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "k"); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected ErrNotAcquired, got %v", err)
	}

	unlock()
	unlock() // idempotent
	if l.size() != 0 {
		t.Fatalf("expected no entries, got %d", l.size())
	}
}

func TestLocal_UnlockHandsOver(t *testing.T) {
	l := NewLocal()
	unlock, _ := l.Lock(context.Background(), "k")

	var wg sync.WaitGroup
	got := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		u, err := l.Lock(context.Background(), "k")
		if err == nil {
			close(got)
			u()
		}
	}()

	select {
	case <-got:
		t.Fatal("second caller acquired a held lock")
	case <-time.After(20 * time.Millisecond):
	}
	unlock()
	wg.Wait()
	select {
	case <-got:
	default:
		t.Fatal("second caller never acquired the lock")
	}
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedis_MutualExclusion(t *testing.T) {
	mr, client := newMiniredis(t)
	exerciseCounter(t, NewRedis(client, 5*time.Second), 10)
	if mr.Exists("lock:cart:u1") {
		t.Fatal("lock key should be deleted after release")
	}
}

func TestRedis_ReleaseKeepsForeignToken(t *testing.T) {
	mr, client := newMiniredis(t)
	l := NewRedis(client, 5*time.Second)

	unlock, err := l.Lock(context.Background(), "p1")
	if err != nil {
		t.Fatal(err)
	}
	// bail expiré puis repris par une autre instance
	mr.Set("lock:p1", "someone-else")
	unlock()

	v, err := mr.Get("lock:p1")
	if err != nil || v != "someone-else" {
		t.Fatalf("foreign lock was released: %q %v", v, err)
	}
}

func TestRedis_ContextExpiry(t *testing.T) {
	mr, client := newMiniredis(t)
	mr.Set("lock:busy", "held")

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	if _, err := NewRedis(client, time.Second).Lock(ctx, "busy"); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected ErrNotAcquired, got %v", err)
	}
}
