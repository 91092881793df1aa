package worker

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestToken_Cancel(t *testing.T) {
	token := NewToken(context.Background())
	if token.Cancelled() {
		t.Fatalf("new token should be live")
	}

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token.Cancel()
		}()
	}
	wg.Wait()

	if !token.Cancelled() {
		t.Errorf("expected token to be cancelled")
	}
	select {
	case <-token.Done():
	default:
		t.Errorf("expected Done to be closed after Cancel")
	}
}

func TestToken_ParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	token := NewToken(parent)

	cancel()

	select {
	case <-token.Done():
	case <-time.After(time.Second):
		t.Fatalf("token did not observe parent cancellation")
	}
	if !token.Cancelled() {
		t.Errorf("expected Cancelled after parent cancellation")
	}
}

func TestToken_Release(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	defer cancel()
	token := NewToken(parent)

	token.Release()

	if token.Context().Err() == nil {
		t.Fatalf("expected context to end on Release")
	}
	if token.Cancelled() {
		t.Errorf("released token should not report cancellation")
	}
	if parent.Err() != nil {
		t.Errorf("Release must not cancel the parent")
	}

	cancel()
	if token.Cancelled() {
		t.Errorf("parent cancellation after Release should be ignored")
	}
}

func TestToken_CancelThenRelease(t *testing.T) {
	token := NewToken(context.Background())
	token.Cancel()
	token.Release()

	if !token.Cancelled() {
		t.Errorf("a cancelled token stays cancelled after Release")
	}
}
