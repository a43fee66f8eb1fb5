package monitor

import (
	"context"
	"sync"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/auditrail/backend/repository"
)

// Status is one snapshot of dependency health. Sessions is nil when no
// session backend is configured.
type Status struct {
	Store     bool      `json:"store"`
	Sessions  *bool     `json:"sessions,omitempty"`
	LastCheck time.Time `json:"last_check"`
}

// Healthy reports whether every configured dependency responded.
func (s Status) Healthy() bool {
	if !s.Store {
		return false
	}
	if s.Sessions != nil && !*s.Sessions {
		return false
	}
	return true
}

// Monitor periodically probes the record store and, when configured, the
// session backend.
type Monitor struct {
	store repository.Store
	redis *redislib.Client

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(store repository.Store, redis *redislib.Client, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		store:    store,
		redis:    redis,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

// Stop halts the probe loop. Safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.refresh()
	for {
		select {
		case <-ticker.C:
			m.refresh()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) refresh() {
	status := Status{
		Store:     m.checkStore(),
		LastCheck: time.Now(),
	}
	if m.redis != nil {
		ok := m.checkRedis()
		status.Sessions = &ok
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()

	if !status.Healthy() {
		m.logger.Warn("dependency check failed", zap.Bool("store", status.Store))
	}
}

func (m *Monitor) checkStore() bool {
	if m.store == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return m.store.Ping(ctx) == nil
}

func (m *Monitor) checkRedis() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return m.redis.Ping(ctx).Err() == nil
}
