package spillkv

import (
	"context"
	"testing"
	"time"
)

func TestAsyncBufferPutAndGet(t *testing.T) {
	buf := NewBuffer[string, int](100, NewMapStore[string, int](), NewMapStore[string, int]())
	ab := NewAsyncBuffer[string, int](buf, nil)
	defer ab.Close()

	ab.AsyncPut("a", 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for async put to land")
		default:
		}
		if buf.Contains("a") {
			break
		}
		time.Sleep(time.Millisecond)
	}

	res := <-ab.AsyncGet(ctx, "a")
	if res.Err != nil || res.Value != 1 {
		t.Fatalf("AsyncGet(a) = %v, %v, want 1, nil", res.Value, res.Err)
	}
}

func TestAsyncBufferCloseDrainsQueue(t *testing.T) {
	buf := NewBuffer[string, int](100, NewMapStore[string, int](), NewMapStore[string, int]())
	ab := NewAsyncBuffer[string, int](buf, nil)

	ab.AsyncPut("a", 1)
	if err := ab.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if !buf.Contains("a") {
		t.Error("queued put should have landed before Close returned")
	}
}
