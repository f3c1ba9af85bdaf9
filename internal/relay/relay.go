package relay

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Relay forwards opaque encoded action payloads into the settlement layer.
// Submission is fire-and-forget: no acknowledgment is ever observed by the
// caller, and the settlement-layer effect lands in a later block if at all.
type Relay interface {
	Submit(ctx context.Context, payload []byte) error
}

// RedisRelay publishes payloads onto a Redis stream consumed by the
// settlement-layer forwarder.
type RedisRelay struct {
	client *redis.Client
	stream string
}

// NewRedisRelay builds a relay writing to the named stream.
func NewRedisRelay(client *redis.Client, stream string) (*RedisRelay, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if stream == "" {
		return nil, fmt.Errorf("relay stream name is required")
	}
	return &RedisRelay{client: client, stream: stream}, nil
}

// Submit appends the payload to the stream. Delivery beyond the stream append
// is somebody else's problem, matching the one-way settlement channel.
func (r *RedisRelay) Submit(ctx context.Context, payload []byte) error {
	return r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]any{"payload": hex.EncodeToString(payload)},
	}).Err()
}

// Recording is an in-memory relay capturing submitted payloads. It backs unit
// tests and the no-Redis development fallback.
type Recording struct {
	mu       sync.Mutex
	payloads [][]byte
}

// NewRecording constructs an empty recording relay.
func NewRecording() *Recording {
	return &Recording{}
}

// Submit stores a copy of the payload.
func (r *Recording) Submit(_ context.Context, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]byte, len(payload))
	copy(cp, payload)
	r.payloads = append(r.payloads, cp)
	return nil
}

// Submitted returns the payloads submitted so far, in order.
func (r *Recording) Submitted() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]byte, len(r.payloads))
	copy(out, r.payloads)
	return out
}
