package runtime

import (
	"context"
	"testing"
	"time"
)

func TestStreamRunsCommandsInSubmissionOrder(t *testing.T) {
	s := NewStream(0)
	defer s.Close()

	var order []int
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		i := i
		if err := s.Submit(ctx, func(context.Context) error {
			order = append(order, i)
			return nil
		}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v, want strictly increasing", order)
		}
	}
}

func TestStreamSynchronizeWaitsForPriorCommands(t *testing.T) {
	s := NewStream(0)
	defer s.Close()

	done := false
	ctx := context.Background()
	s.Submit(ctx, func(context.Context) error {
		time.Sleep(5 * time.Millisecond)
		done = true
		return nil
	})
	if err := s.Synchronize(ctx); err != nil {
		t.Fatalf("Synchronize: %v", err)
	}
	if !done {
		t.Fatal("Synchronize returned before the prior command completed")
	}
}

func TestStreamPoisonFailsSubsequentCommands(t *testing.T) {
	s := NewStream(0)
	defer s.Close()

	s.Poison()
	err := s.Submit(context.Background(), func(context.Context) error { return nil })
	if err == nil {
		t.Fatal("expected a poisoned stream to fail its next command")
	}
}

func TestStreamSubmitAfterCloseFails(t *testing.T) {
	s := NewStream(0)
	s.Close()

	err := s.Submit(context.Background(), func(context.Context) error { return nil })
	if err == nil {
		t.Fatal("expected Submit on a closed stream to fail")
	}
}

func TestStreamSubmitHonorsCancellation(t *testing.T) {
	s := NewStream(0)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Submit(ctx, func(context.Context) error { return nil })
	if err == nil {
		t.Fatal("expected a canceled context to fail Submit")
	}
}
