package server

import (
	"sync"
	"time"

	"github.com/thruflo/captcha/internal/config"
)

// maxBlock caps the exponential backoff.
const maxBlock = 24 * time.Hour

// rateLimiter refuses hosts that keep failing challenges. A nil
// *rateLimiter allows everything, which is how a disabled limit is
// represented.
type rateLimiter struct {
	mu     sync.Mutex
	config config.RateLimitConfig
	now    func() time.Time

	// failures counts consecutive failed challenges per host.
	failures map[string]int

	// blocked maps a host to the time its block expires.
	blocked map[string]time.Time
}

// newRateLimiter returns nil when cfg disables rate limiting.
func newRateLimiter(cfg config.RateLimitConfig) *rateLimiter {
	if !cfg.Enabled() {
		return nil
	}
	if cfg.BlockTime <= 0 {
		cfg.BlockTime = config.DefaultBlockTime
	}
	return &rateLimiter{
		config:   cfg,
		now:      time.Now,
		failures: make(map[string]int),
		blocked:  make(map[string]time.Time),
	}
}

// checkResult represents the result of a rate limit check.
type checkResult struct {
	Allowed    bool
	RetryAfter time.Duration
}

// check reports whether host may be served now. Expired blocks are
// dropped as a side effect.
func (rl *rateLimiter) check(host string) checkResult {
	if rl == nil {
		return checkResult{Allowed: true}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.cleanupLocked(now)

	if expiry, ok := rl.blocked[host]; ok {
		return checkResult{Allowed: false, RetryAfter: expiry.Sub(now)}
	}
	return checkResult{Allowed: true}
}

// recordSuccess resets the failure streak of host.
func (rl *rateLimiter) recordSuccess(host string) {
	if rl == nil {
		return
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	delete(rl.failures, host)
	delete(rl.blocked, host)
}

// recordFailure extends the failure streak of host and blocks it once the
// streak reaches BlockAfter. Each further BlockAfter failures double the
// block time. Returns the block duration, or zero if host is not blocked.
func (rl *rateLimiter) recordFailure(host string) time.Duration {
	if rl == nil {
		return 0
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.failures[host]++
	count := rl.failures[host]
	if count < rl.config.BlockAfter {
		return 0
	}

	blocks := (count - rl.config.BlockAfter) / rl.config.BlockAfter
	duration := maxBlock
	if blocks < 16 {
		duration = rl.config.BlockTime * time.Duration(1<<blocks)
		if duration > maxBlock {
			duration = maxBlock
		}
	}

	rl.blocked[host] = rl.now().Add(duration)
	return duration
}

// cleanupLocked removes expired blocks. Failure streaks are kept so that
// a host that keeps failing after a block is blocked for longer.
func (rl *rateLimiter) cleanupLocked(now time.Time) {
	for host, expiry := range rl.blocked {
		if !now.Before(expiry) {
			delete(rl.blocked, host)
		}
	}
}
