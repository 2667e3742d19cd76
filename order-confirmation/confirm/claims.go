package confirm

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"voice-order-confirm/order-confirmation/types"
)

// recordingNamespace scopes idempotency keys derived from recording callbacks
var recordingNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("voice-order-confirm/recording"))

// DefaultClaimTTL bounds how long a processed recording is remembered
const DefaultClaimTTL = 24 * time.Hour

// IdempotencyKey is stable for the same order and recording
func IdempotencyKey(req types.RecordingRequest) string {
	return uuid.NewSHA1(recordingNamespace, []byte(req.OrderID+"\n"+req.RecordingURL)).String()
}

// Claims records which recordings have been accepted for processing
type Claims interface {
	// Claim returns true the first time key is seen
	Claim(ctx context.Context, key string) (bool, error)
}

// MemoryClaims keeps claims in process memory
type MemoryClaims struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]time.Time
	now   func() time.Time
}

func NewMemoryClaims(ttl time.Duration) *MemoryClaims {
	if ttl <= 0 {
		ttl = DefaultClaimTTL
	}
	return &MemoryClaims{ttl: ttl, items: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryClaims) Claim(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if exp, ok := m.items[key]; ok && now.Before(exp) {
		return false, nil
	}
	m.items[key] = now.Add(m.ttl)
	return true, nil
}

// RedisClaims shares claims between server replicas
type RedisClaims struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	prefix string
}

func NewRedisClaims(rdb redis.UniversalClient, ttl time.Duration) *RedisClaims {
	if ttl <= 0 {
		ttl = DefaultClaimTTL
	}
	return &RedisClaims{rdb: rdb, ttl: ttl, prefix: "confirm:claim:"}
}

func (r *RedisClaims) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := r.rdb.SetNX(ctx, r.prefix+key, time.Now().Unix(), r.ttl).Result()
	if err != nil {
		return false, &types.TransportError{Op: "redis claim", Err: err}
	}
	return ok, nil
}
