package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyKeyPrefix = "idem:"
	idempotencyPending   = "pending"

	idempotencyStoreTimeout = 2 * time.Second
)

// replayRecord is the cached outcome of a completed request.
type replayRecord struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Idempotency replays the stored response when an unsafe request is retried
// with the same Idempotency-Key. Cache entries are scoped to the caller's
// Authorization credential and the request route, so a key presented by one
// caller can never replay a response cached for another, and the same key may
// be reused across endpoints.
func Idempotency(cache *redis.Client, ttl time.Duration, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}

		key := c.Get(idempotencyKeyHeader)
		if key == "" {
			return fiber.NewError(fiber.StatusBadRequest, "missing Idempotency-Key header")
		}
		cacheKey := idempotencyCacheKey(c, key)

		ctx, cancel := context.WithTimeout(context.Background(), idempotencyStoreTimeout)
		defer cancel()

		claimed, err := cache.SetNX(ctx, cacheKey, idempotencyPending, ttl).Result()
		if err != nil {
			logger.Error("idempotency claim failed", slog.String("key", key), slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency store failure")
		}
		if !claimed {
			stored, err := cache.Get(ctx, cacheKey).Result()
			if err != nil {
				logger.Error("idempotency lookup failed", slog.String("key", key), slog.Any("error", err))
				return fiber.NewError(fiber.StatusInternalServerError, "idempotency store failure")
			}
			if stored == idempotencyPending {
				return fiber.NewError(fiber.StatusConflict, "duplicate request currently processing")
			}
			var rec replayRecord
			if err := json.Unmarshal([]byte(stored), &rec); err != nil {
				logger.Warn("stored idempotent response unreadable", slog.String("key", key), slog.Any("error", err))
				return fiber.NewError(fiber.StatusConflict, "duplicate request")
			}
			if rec.ContentType != "" {
				c.Set(fiber.HeaderContentType, rec.ContentType)
			}
			return c.Status(rec.Status).Send(rec.Body)
		}

		if err := c.Next(); err != nil {
			// The request never produced a response to replay; drop the
			// claim so the caller can retry.
			dropCtx, dropCancel := context.WithTimeout(context.Background(), idempotencyStoreTimeout)
			defer dropCancel()
			cache.Del(dropCtx, cacheKey)
			return err
		}

		rec := replayRecord{
			Status:      c.Response().StatusCode(),
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		}
		payload, err := json.Marshal(rec)
		if err != nil {
			logger.Error("idempotent response encode failed", slog.String("key", key), slog.Any("error", err))
			payload = nil
		}

		storeCtx, storeCancel := context.WithTimeout(context.Background(), idempotencyStoreTimeout)
		defer storeCancel()
		if payload == nil {
			cache.Del(storeCtx, cacheKey)
			return nil
		}
		if err := cache.Set(storeCtx, cacheKey, payload, ttl).Err(); err != nil {
			logger.Error("idempotent response persist failed", slog.String("key", key), slog.Any("error", err))
			cache.Del(storeCtx, cacheKey)
		}
		return nil
	}
}

// idempotencyCacheKey derives the storage key from the caller's credential,
// the route and the client-chosen key.
func idempotencyCacheKey(c *fiber.Ctx, key string) string {
	sum := sha256.Sum256([]byte(c.Get(fiber.HeaderAuthorization) + "\n" + c.Method() + "\n" + c.Path() + "\n" + key))
	return idempotencyKeyPrefix + hex.EncodeToString(sum[:])
}
