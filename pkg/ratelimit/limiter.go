// Package ratelimit applique un budget par viewer et par action
// (fenêtre fixe). Les compteurs vivent dans Redis en prod, en mémoire en test.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

var ErrLimited = errors.New("rate limit exceeded")

type Budget struct {
	Limit  int
	Window time.Duration
}

type Limiter interface {
	// Allow consomme une unité du budget de (subject, action).
	// Retourne ErrLimited (wrappée) si le budget est épuisé.
	Allow(ctx context.Context, subject, action string) error
}

// Budgets associe un budget à chaque action, avec un défaut.
type Budgets struct {
	Default   Budget
	PerAction map[string]Budget
}

func (b Budgets) For(action string) Budget {
	if budget, ok := b.PerAction[action]; ok {
		return budget
	}
	return b.Default
}

func key(subject, action string) string {
	return fmt.Sprintf("ratelimit:%s:%s", action, subject)
}

// --- Redis ---

type RedisLimiter struct {
	client  redis.Cmdable
	budgets Budgets
}

func NewRedisLimiter(client redis.Cmdable, budgets Budgets) *RedisLimiter {
	return &RedisLimiter{client: client, budgets: budgets}
}

func (l *RedisLimiter) Allow(ctx context.Context, subject, action string) error {
	budget := l.budgets.For(action)
	if budget.Limit <= 0 {
		return nil
	}
	k := key(subject, action)

	// INCR + EXPIRE NX dans une même transaction : un compteur sans TTL
	// (crash entre les deux appels) se répare au hit suivant.
	var incr *redis.IntCmd
	if _, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, budget.Window)
		return nil
	}); err != nil {
		return fmt.Errorf("ratelimit incr: %w", err)
	}
	if n := incr.Val(); n > int64(budget.Limit) {
		return fmt.Errorf("%w: %s", ErrLimited, action)
	}
	return nil
}

// --- Mémoire ---

type window struct {
	start time.Time
	count int
}

type MemoryLimiter struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	budgets Budgets
	windows map[string]*window
}

func NewMemoryLimiter(clock clockwork.Clock, budgets Budgets) *MemoryLimiter {
	return &MemoryLimiter{
		clock:   clock,
		budgets: budgets,
		windows: make(map[string]*window),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, subject, action string) error {
	budget := l.budgets.For(action)
	if budget.Limit <= 0 {
		return nil
	}
	k := key(subject, action)
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[k]
	if !ok || now.Sub(w.start) >= budget.Window {
		w = &window{start: now}
		l.windows[k] = w
	}
	w.count++
	if w.count > budget.Limit {
		return fmt.Errorf("%w: %s", ErrLimited, action)
	}
	return nil
}
