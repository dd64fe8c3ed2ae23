package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/veletrh/pattern-kiosk/internal/config"
	"github.com/veletrh/pattern-kiosk/pkg/models"
)

func TestNewClientUnreachable(t *testing.T) {
	cfg := config.RedisConfig{Addr: "127.0.0.1:1", Channel: "test"}
	if _, err := NewClient(cfg, zap.NewNop()); err == nil {
		t.Error("Expected error for unreachable Redis")
	}
}

func TestPublishPostcard(t *testing.T) {
	// This test requires a running Redis instance
	cfg := config.RedisConfig{
		Addr:         "localhost:6379",
		DB:           1, // Use a test database
		Channel:      "test:kiosk:postcards",
		Stream:       "test:kiosk:postcards:log",
		StreamMaxLen: 100,
	}

	client, err := NewClient(cfg, zap.NewNop())
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	client.client.Del(ctx, cfg.Stream)
	defer client.client.Del(ctx, cfg.Stream)

	sub := client.client.Subscribe(ctx, cfg.Channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	event := &models.PostcardEvent{
		Type:      models.PostcardEventType,
		Filename:  "postcard_rd_20261015_120000_000001.pdf",
		Format:    "pdf",
		Tier:      "pdf",
		SimType:   "rd",
		CreatedAt: time.Date(2026, 10, 15, 12, 0, 0, 1000, time.UTC),
	}

	if err := client.PublishPostcard(ctx, event); err != nil {
		t.Fatalf("PublishPostcard failed: %v", err)
	}

	t.Run("channel receives event", func(t *testing.T) {
		select {
		case msg := <-sub.Channel():
			var got models.PostcardEvent
			if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
				t.Fatalf("Failed to decode payload: %v", err)
			}
			if got.Filename != event.Filename {
				t.Errorf("Filename = %q, want %q", got.Filename, event.Filename)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Timed out waiting for published event")
		}
	})

	t.Run("stream holds event", func(t *testing.T) {
		entries, err := client.client.XRange(ctx, cfg.Stream, "-", "+").Result()
		if err != nil {
			t.Fatalf("XRange failed: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("Expected 1 stream entry, got %d", len(entries))
		}
		if entries[0].Values["filename"] != event.Filename {
			t.Errorf("stream filename = %v", entries[0].Values["filename"])
		}
	})

	if !client.IsHealthy() {
		t.Error("Expected healthy client")
	}
}
