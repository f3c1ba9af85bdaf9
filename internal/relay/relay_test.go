package relay

import (
	"context"
	"encoding/hex"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisRelayAppendsToStream(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	rl, err := NewRedisRelay(client, "corewriter:actions")
	if err != nil {
		t.Fatalf("new relay: %v", err)
	}

	ctx := context.Background()
	payload := []byte{1, 0, 0, 6, 0xde, 0xad}
	if err := rl.Submit(ctx, payload); err != nil {
		t.Fatalf("submit: %v", err)
	}

	entries, err := client.XRange(ctx, "corewriter:actions", "-", "+").Result()
	if err != nil {
		t.Fatalf("xrange: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 stream entry, got %d", len(entries))
	}
	got, ok := entries[0].Values["payload"].(string)
	if !ok || got != hex.EncodeToString(payload) {
		t.Fatalf("unexpected stream payload: %v", entries[0].Values)
	}
}

func TestNewRedisRelayValidation(t *testing.T) {
	if _, err := NewRedisRelay(nil, "s"); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if _, err := NewRedisRelay(redis.NewClient(&redis.Options{}), ""); err == nil {
		t.Fatalf("expected error for empty stream")
	}
}

func TestRecordingCopiesPayloads(t *testing.T) {
	r := NewRecording()
	ctx := context.Background()

	payload := []byte{1, 2, 3}
	if err := r.Submit(ctx, payload); err != nil {
		t.Fatalf("submit: %v", err)
	}
	payload[0] = 9

	got := r.Submitted()
	if len(got) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(got))
	}
	if got[0][0] != 1 {
		t.Fatalf("recorded payload aliased caller memory")
	}
}
