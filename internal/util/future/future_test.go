package future

import (
	"errors"
	"testing"
	"time"
)

func ready(v int) *Future[int] {
	return New(func() (int, error) { return v, nil })
}

func TestSettleKeepsOrder(t *testing.T) {
	boom := errors.New("boom")
	futures := []*Future[int]{
		New(func() (int, error) {
			time.Sleep(30 * time.Millisecond)
			return 1, nil
		}),
		New(func() (int, error) {
			return 0, boom
		}),
		New(func() (int, error) {
			time.Sleep(10 * time.Millisecond)
			return 3, nil
		}),
	}

	out, err := Settle(futures...).Await()
	if err != nil {
		t.Fatalf("settle returned error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(out))
	}
	if out[0].Value != 1 || out[2].Value != 3 {
		t.Fatalf("unexpected order: %+v", out)
	}
	if !errors.Is(out[1].Err, boom) {
		t.Fatalf("expected boom at index 1, got %v", out[1].Err)
	}
}

func TestFirstMatch(t *testing.T) {
	even := func(v int, err error) bool { return err == nil && v%2 == 0 }

	t.Run("picks first accepted", func(t *testing.T) {
		v, err := FirstMatch(even,
			New(func() (int, error) {
				time.Sleep(40 * time.Millisecond)
				return 4, nil
			}),
			ready(3),
			New(func() (int, error) {
				time.Sleep(5 * time.Millisecond)
				return 8, nil
			}),
		).Await()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != 8 {
			t.Fatalf("expected 8, got %d", v)
		}
	})

	t.Run("falls back to first in order", func(t *testing.T) {
		v, err := FirstMatch(even,
			New(func() (int, error) {
				time.Sleep(20 * time.Millisecond)
				return 1, nil
			}),
			ready(3),
		).Await()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != 1 {
			t.Fatalf("expected 1, got %d", v)
		}
	})
}
