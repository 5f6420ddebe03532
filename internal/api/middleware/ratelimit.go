package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/inventory-system/api/internal/api/exception"
	apperrors "github.com/inventory-system/api/pkg/errors"
)

const throttledMessage = "ThrottlerException: Too Many Requests"

// Quota is the outcome of taking one request from a client's allowance.
type Quota struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Store tracks request allowances per key.
type Store interface {
	Take(ctx context.Context, key string) (Quota, error)
}

type limiterEntry struct {
	limiter *rate.Limiter
	last    time.Time
}

// MemoryStore keeps a token bucket per key refilling max tokens every ttl.
// Idle keys are evicted after ttl.
type MemoryStore struct {
	mu       sync.Mutex
	visitors map[string]*limiterEntry
	every    rate.Limit
	max      int
	ttl      time.Duration
	stop     chan struct{}
	once     sync.Once
}

func NewMemoryStore(ttl time.Duration, max int) *MemoryStore {
	s := &MemoryStore{
		visitors: map[string]*limiterEntry{},
		every:    rate.Every(ttl / time.Duration(max)),
		max:      max,
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	go s.gc()
	return s
}

func (s *MemoryStore) Take(_ context.Context, key string) (Quota, error) {
	now := time.Now()
	s.mu.Lock()
	le, ok := s.visitors[key]
	if !ok {
		le = &limiterEntry{limiter: rate.NewLimiter(s.every, s.max)}
		s.visitors[key] = le
	}
	le.last = now
	q := Quota{Limit: s.max}
	if le.limiter.AllowN(now, 1) {
		q.Allowed = true
		q.Remaining = int(math.Max(0, math.Floor(le.limiter.TokensAt(now))))
	} else {
		r := le.limiter.ReserveN(now, 1)
		q.RetryAfter = r.DelayFrom(now)
		r.CancelAt(now)
	}
	s.mu.Unlock()
	return q, nil
}

// Close stops the eviction loop.
func (s *MemoryStore) Close() { s.once.Do(func() { close(s.stop) }) }

func (s *MemoryStore) gc() {
	interval := s.ttl
	if interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			s.mu.Lock()
			for k, v := range s.visitors {
				if time.Since(v.last) > s.ttl {
					delete(s.visitors, k)
				}
			}
			s.mu.Unlock()
		}
	}
}

var fixedWindow = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {count, redis.call('PTTL', KEYS[1])}
`)

// RedisStore counts requests in a fixed window shared by every instance.
type RedisStore struct {
	client redis.Scripter
	prefix string
	ttl    time.Duration
	max    int
}

func NewRedisStore(client redis.Scripter, ttl time.Duration, max int) *RedisStore {
	return &RedisStore{client: client, prefix: "throttle:", ttl: ttl, max: max}
}

func (s *RedisStore) Take(ctx context.Context, key string) (Quota, error) {
	res, err := fixedWindow.Run(ctx, s.client, []string{s.prefix + key}, s.ttl.Milliseconds()).Int64Slice()
	if err != nil {
		return Quota{}, err
	}
	count, pttl := res[0], res[1]
	q := Quota{Limit: s.max, Allowed: count <= int64(s.max)}
	if q.Allowed {
		q.Remaining = s.max - int(count)
	} else if pttl > 0 {
		q.RetryAfter = time.Duration(pttl) * time.Millisecond
	}
	return q, nil
}

// RateLimit throttles clients by IP. Store failures let the request through.
func RateLimit(store Store, filter *exception.Filter, log *zap.Logger) func(http.Handler) http.Handler {
	log = log.Named("ThrottlerGuard")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q, err := store.Take(r.Context(), getIP(r))
			if err != nil {
				log.Warn("rate limit store unavailable", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(q.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(q.Remaining))
			if !q.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(q.RetryAfter.Seconds()))))
				filter.Handle(w, r, apperrors.TooManyRequests(throttledMessage).WithBody(throttledMessage))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func getIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
