package scroll

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Restoration defaults.
const (
	DefaultAttempts = 100
	DefaultInterval = 10 * time.Millisecond
)

// Container is the scrollable element whose offset is tracked.
type Container interface {
	// ScrollTo asks the container to scroll to top.
	ScrollTo(ctx context.Context, top int) error

	// ScrollTop reports the container's current offset.
	ScrollTop(ctx context.Context) (int, error)
}

// Manager records and restores scroll offsets.
type Manager struct {
	storage  Storage
	attempts int
	interval time.Duration
	logger   *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithAttempts bounds the restoration retries.
func WithAttempts(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.attempts = n
		}
	}
}

// WithInterval sets the delay between restoration attempts.
func WithInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a manager over storage. A nil storage selects a
// MemoryStorage with default capacity.
func NewManager(storage Storage, opts ...Option) *Manager {
	if storage == nil {
		storage = NewMemoryStorage(0)
	}
	m := &Manager{
		storage:  storage,
		attempts: DefaultAttempts,
		interval: DefaultInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Record stores top as the offset of the location identified by key.
func (m *Manager) Record(ctx context.Context, session, key string, top int) error {
	if key == "" {
		return nil
	}
	if err := m.storage.Set(ctx, session, key, top); err != nil {
		return fmt.Errorf("record scroll offset: %w", err)
	}
	return nil
}

// Offset returns the offset recorded for key, or 0 when none exists.
func (m *Manager) Offset(ctx context.Context, session, key string) (int, error) {
	top, ok, err := m.storage.Get(ctx, session, key)
	if err != nil {
		return 0, fmt.Errorf("load scroll offset: %w", err)
	}
	if !ok {
		return 0, nil
	}
	return top, nil
}

// Restore applies the offset recorded for key to c. It retries until the
// container reports the offset or the attempts run out; running out is not
// an error. The result reports whether the offset took effect.
func (m *Manager) Restore(ctx context.Context, session, key string, c Container) (bool, error) {
	top, err := m.Offset(ctx, session, key)
	if err != nil {
		return false, err
	}
	if top == 0 {
		return true, nil
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for attempt := 1; attempt <= m.attempts; attempt++ {
		if err := c.ScrollTo(ctx, top); err != nil {
			return false, err
		}
		got, err := c.ScrollTop(ctx)
		if err != nil {
			return false, err
		}
		if got == top {
			return true, nil
		}

		if attempt == m.attempts {
			break
		}
		if timer == nil {
			timer = time.NewTimer(m.interval)
		} else {
			timer.Reset(m.interval)
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
		}
	}

	m.logger.Debug("scroll restoration gave up",
		"session", session,
		"key", key,
		"offset", top,
		"attempts", m.attempts,
	)
	return false, nil
}
