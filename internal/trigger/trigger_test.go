package trigger

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"pdf-rag/internal/models"
)

func startTestNATS(t *testing.T) *nats.Conn {
	t.Helper()
	srv, err := natsserver.NewServer(&natsserver.Options{Port: -1})
	if err != nil {
		t.Fatal(err)
	}
	srv.Start()
	if !srv.ReadyForConnections(3 * time.Second) {
		t.Fatal("nats not ready")
	}
	nc, err := nats.Connect(srv.ClientURL())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		nc.Close()
		srv.Shutdown()
	})
	return nc
}

func TestPublishSubscribe(t *testing.T) {
	nc := startTestNATS(t)

	got := make(chan models.StorageEvent, 1)
	sub, err := Subscribe(nc, "storage.objects.finalized", "ingestor", func(_ context.Context, ev models.StorageEvent) {
		got <- ev
	})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Unsubscribe()

	want := models.StorageEvent{Bucket: "docs", Name: "policy.pdf"}
	if err := Publish(context.Background(), nc, "storage.objects.finalized", want); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-got:
		if ev != want {
			t.Fatalf("got %+v, want %+v", ev, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestSubscribeGCSNotificationPayload(t *testing.T) {
	nc := startTestNATS(t)

	got := make(chan models.StorageEvent, 1)
	sub, err := Subscribe(nc, "gcs", "", func(_ context.Context, ev models.StorageEvent) {
		got <- ev
	})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Unsubscribe()

	payload := `{"kind":"storage#object","bucket":"docs","name":"q3/report.pdf","contentType":"application/pdf","size":"1024"}`
	if err := nc.Publish("gcs", []byte(payload)); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-got:
		if ev.Bucket != "docs" || ev.Name != "q3/report.pdf" {
			t.Fatalf("got %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestSubscribeDropsMalformed(t *testing.T) {
	nc := startTestNATS(t)

	got := make(chan models.StorageEvent, 2)
	sub, err := Subscribe(nc, "events", "", func(_ context.Context, ev models.StorageEvent) {
		got <- ev
	})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Unsubscribe()

	if err := nc.Publish("events", []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	if err := Publish(context.Background(), nc, "events", models.StorageEvent{Bucket: "b", Name: "ok.pdf"}); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-got:
		if ev.Name != "ok.pdf" {
			t.Fatalf("expected only the valid event, got %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestQueueSubscribersShareEvents(t *testing.T) {
	nc := startTestNATS(t)

	var mu sync.Mutex
	counts := map[string]int{}
	done := make(chan struct{}, 10)
	for _, worker := range []string{"a", "b"} {
		sub, err := Subscribe(nc, "work", "ingestor", func(_ context.Context, _ models.StorageEvent) {
			mu.Lock()
			counts[worker]++
			mu.Unlock()
			done <- struct{}{}
		})
		if err != nil {
			t.Fatal(err)
		}
		defer sub.Unsubscribe()
	}
	if err := nc.Flush(); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 10; i++ {
		if err := Publish(context.Background(), nc, "work", models.StorageEvent{Bucket: "b", Name: "f.pdf"}); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 10; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("timeout")
		}
	}
	mu.Lock()
	defer mu.Unlock()
	if counts["a"]+counts["b"] != 10 {
		t.Fatalf("each event must be delivered once, got %v", counts)
	}
}

func TestWatcherEmitsSettledFiles(t *testing.T) {
	root := t.TempDir()
	w := NewWatcher(root, "docs", WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan models.StorageEvent, 4)
	errc := make(chan error, 1)
	go func() {
		errc <- w.Run(ctx, func(_ context.Context, ev models.StorageEvent) { got <- ev })
	}()

	dir := filepath.Join(root, "docs")
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(dir); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("watch dir not created")
		}
		time.Sleep(10 * time.Millisecond)
	}
	// allow the fsnotify watch to be registered
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "policy.pdf")
	for i := 0; i < 3; i++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			t.Fatal(err)
		}
		f.WriteString("data")
		f.Close()
	}

	select {
	case ev := <-got:
		if ev.Bucket != "docs" || ev.Name != "policy.pdf" {
			t.Fatalf("got %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for watcher event")
	}

	select {
	case ev := <-got:
		t.Fatalf("writes were not debounced, extra event %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
