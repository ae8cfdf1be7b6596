package broker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type recorder struct {
	mu      sync.Mutex
	paths   []string
	layouts int
}

func (r *recorder) RevalidatePath(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recorder) RevalidateLayout() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layouts++
}

func (r *recorder) snapshot() ([]string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...), r.layouts
}

func TestFanOutPublishes(t *testing.T) {
	local := &recorder{}
	mock := &MockKafka{}
	f := NewFanOut(local, mock, nil)

	f.RevalidatePath("/post/1")
	f.RevalidateLayout()

	paths, layouts := local.snapshot()
	if len(paths) != 1 || paths[0] != "/post/1" || layouts != 1 {
		t.Errorf("local cache not revalidated: %v %d", paths, layouts)
	}

	written := mock.Written()
	if len(written) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(written))
	}
	var inv Invalidation
	if err := json.Unmarshal(written[0].Value, &inv); err != nil {
		t.Fatalf("bad message: %v", err)
	}
	if inv.Kind != KindPath || inv.Path != "/post/1" || inv.Origin != f.Origin() {
		t.Errorf("unexpected invalidation %+v", inv)
	}
}

func TestFanOutPublishFailureStillRevalidatesLocally(t *testing.T) {
	local := &recorder{}
	f := NewFanOut(local, &MockKafka{ShouldFail: true}, nil)
	f.RevalidatePath("/")
	if paths, _ := local.snapshot(); len(paths) != 1 {
		t.Errorf("expected local revalidation despite publish failure")
	}
}

func TestApplyIgnoresOwnMessages(t *testing.T) {
	local := &recorder{}
	f := NewFanOut(local, &MockKafka{}, nil)

	own, _ := json.Marshal(Invalidation{Origin: f.Origin(), Kind: KindPath, Path: "/"})
	if err := f.Apply(own); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if paths, _ := local.snapshot(); len(paths) != 0 {
		t.Errorf("own message should be ignored")
	}

	other, _ := json.Marshal(Invalidation{Origin: "other", Kind: KindLayout})
	if err := f.Apply(other); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if _, layouts := local.snapshot(); layouts != 1 {
		t.Errorf("expected layout revalidation from other replica")
	}

	if err := f.Apply([]byte("not json")); err == nil {
		t.Errorf("expected decode error")
	}
}

func TestRunConsumesUntilCancelled(t *testing.T) {
	local := &recorder{}
	a, _ := json.Marshal(Invalidation{Origin: "other", Kind: KindPath, Path: "/post/1"})
	b, _ := json.Marshal(Invalidation{Origin: "other", Kind: KindPath, Path: "/"})
	reader := &MockKafka{ReadMessages: []kafka.Message{{Value: a}, {Value: b}}}
	f := NewFanOut(local, &MockKafka{}, reader)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		if paths, _ := local.snapshot(); len(paths) == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("messages were not consumed")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
