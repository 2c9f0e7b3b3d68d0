package events

import (
	"testing"
	"time"
)

func TestSubscribeReceivesEvents(t *testing.T) {
	sub := Subscribe()
	defer Unsubscribe(sub)

	if _, err := Emit("info", "mechanic.completed", "done", nil); err != nil {
		t.Fatalf("emit failed: %v", err)
	}

	select {
	case e := <-sub:
		if e.Name != "mechanic.completed" {
			t.Errorf("expected mechanic.completed, got %s", e.Name)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber never received event")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	sub := Subscribe()
	before := SubscriberCount()
	Unsubscribe(sub)

	if SubscriberCount() != before-1 {
		t.Errorf("subscriber count did not drop")
	}
	if _, ok := <-sub; ok {
		t.Errorf("expected channel closed after unsubscribe")
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	sub := Subscribe()
	defer Unsubscribe(sub)

	// Overflow the subscriber buffer without draining it. Emit must
	// return promptly, dropping events for the stalled client.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			Emit("info", "action.dispatched", "", nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow subscriber")
	}
}
