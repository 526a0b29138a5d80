package realtime

import (
	"fmt"
	"testing"
)

func TestNewBroadcaster(t *testing.T) {
	b := NewBroadcaster()
	if b == nil {
		t.Fatal("NewBroadcaster returned nil")
	}
}

func TestBroadcaster_Subscribe(t *testing.T) {
	b := NewBroadcaster()
	sub := b.Subscribe(4)
	if sub == nil {
		t.Fatal("Subscribe returned nil subscriber")
	}
	b.Unsubscribe(sub)
}

func TestBroadcaster_PublishDeliversToSubscriber(t *testing.T) {
	b := NewBroadcaster()
	sub := b.Subscribe(4)
	defer b.Unsubscribe(sub)

	failed := b.Publish([]byte("hello"))
	if len(failed) != 0 {
		t.Errorf("Publish reported %d failed subscribers, want 0", len(failed))
	}
	got := <-sub.C()
	if string(got) != "hello" {
		t.Errorf("got payload %q, want %q", got, "hello")
	}
}

func TestBroadcaster_PublishDeliversToMultipleSubscribers(t *testing.T) {
	b := NewBroadcaster()
	sub1 := b.Subscribe(4)
	sub2 := b.Subscribe(4)
	defer b.Unsubscribe(sub1)
	defer b.Unsubscribe(sub2)

	b.Publish([]byte("x"))
	if got := <-sub1.C(); string(got) != "x" {
		t.Errorf("sub1 got %q, want x", got)
	}
	if got := <-sub2.C(); string(got) != "x" {
		t.Errorf("sub2 got %q, want x", got)
	}
}

func TestBroadcaster_PublishPreservesOrder(t *testing.T) {
	b := NewBroadcaster()
	sub := b.Subscribe(8)
	defer b.Unsubscribe(sub)

	for i := 0; i < 5; i++ {
		b.Publish([]byte(fmt.Sprintf("event-%d", i)))
	}
	for i := 0; i < 5; i++ {
		want := fmt.Sprintf("event-%d", i)
		if got := <-sub.C(); string(got) != want {
			t.Fatalf("payload %d: got %q, want %q", i, got, want)
		}
	}
}

func TestBroadcaster_PublishReportsFullSubscriber(t *testing.T) {
	b := NewBroadcaster()
	slow := b.Subscribe(1)
	fast := b.Subscribe(2)
	defer b.Unsubscribe(slow)
	defer b.Unsubscribe(fast)

	b.Publish([]byte("one"))
	failed := b.Publish([]byte("two")) // slow's buffer of 1 is full
	if len(failed) != 1 || failed[0] != slow {
		t.Fatalf("Publish failed = %v, want just the slow subscriber", failed)
	}
	if got := <-fast.C(); string(got) != "one" {
		t.Errorf("fast got %q, want one", got)
	}
	if got := <-fast.C(); string(got) != "two" {
		t.Errorf("fast got %q, want two", got)
	}
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster()
	sub := b.Subscribe(4)
	b.Unsubscribe(sub)
	_, open := <-sub.C()
	if open {
		t.Error("channel should be closed after Unsubscribe")
	}
}

func TestBroadcaster_UnsubscribeRemovesFromDelivery(t *testing.T) {
	b := NewBroadcaster()
	sub1 := b.Subscribe(4)
	sub2 := b.Subscribe(4)
	b.Unsubscribe(sub1) // sub1 is closed; only sub2 should receive subsequent payloads
	b.Publish([]byte("later"))
	if got := <-sub2.C(); string(got) != "later" {
		t.Errorf("sub2 got %q, want later", got)
	}
	b.Unsubscribe(sub2)
}

func TestSubscriber_SendAfterCloseFails(t *testing.T) {
	b := NewBroadcaster()
	sub := b.Subscribe(4)
	b.Unsubscribe(sub)
	if sub.Send([]byte("late")) {
		t.Error("Send on a closed subscriber should report false")
	}
}
