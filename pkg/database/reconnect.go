package database

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"
)

// ReconnectPlugin pings the pool before statements and waits for it to recover
// when the previous check saw a dropped connection. Checks are throttled to checkEvery.
type ReconnectPlugin struct {
	log        *slog.Logger
	maxRetries int
	retryDelay time.Duration
	checkEvery time.Duration

	mu         sync.Mutex
	lastCheck  time.Time
	reconnects atomic.Int64
}

// NewReconnectPlugin creates a new reconnect plugin.
func NewReconnectPlugin(log *slog.Logger) *ReconnectPlugin {
	return &ReconnectPlugin{
		log:        log,
		maxRetries: 3,
		retryDelay: 500 * time.Millisecond,
		checkEvery: 5 * time.Second,
	}
}

func (p *ReconnectPlugin) Name() string {
	return "reconnect_plugin"
}

func (p *ReconnectPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		name     string
		register func(name string, fn func(*gorm.DB)) error
	}{
		{"reconnect:before_query", cb.Query().Before("gorm:query").Register},
		{"reconnect:before_create", cb.Create().Before("gorm:create").Register},
		{"reconnect:before_update", cb.Update().Before("gorm:update").Register},
		{"reconnect:before_delete", cb.Delete().Before("gorm:delete").Register},
		{"reconnect:before_row", cb.Row().Before("gorm:row").Register},
		{"reconnect:before_raw", cb.Raw().Before("gorm:raw").Register},
	}
	for _, h := range hooks {
		if err := h.register(h.name, p.check); err != nil {
			return err
		}
	}
	return nil
}

// Reconnects returns the number of recoveries observed since start.
func (p *ReconnectPlugin) Reconnects() int64 {
	return p.reconnects.Load()
}

func (p *ReconnectPlugin) check(db *gorm.DB) {
	p.mu.Lock()
	if time.Since(p.lastCheck) < p.checkEvery {
		p.mu.Unlock()
		return
	}
	p.lastCheck = time.Now()
	p.mu.Unlock()

	sqlDB, err := db.DB()
	if err != nil {
		return
	}

	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}

	err = sqlDB.PingContext(ctx)
	if err == nil || !isConnectionError(err) {
		return
	}

	p.log.Warn("database connection lost, waiting for recovery", slog.String("error", err.Error()))
	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.retryDelay * time.Duration(attempt)):
		}

		if sqlDB.PingContext(ctx) == nil {
			p.log.Info("database connection recovered",
				slog.Int("attempt", attempt),
				slog.Int64("total_reconnects", p.reconnects.Add(1)),
			)
			return
		}
	}
	p.log.Error("database reconnection failed", slog.Int("max_retries", p.maxRetries))
}

var connectionErrorPatterns = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"network is unreachable",
	"connection timed out",
	"bad connection",
	"closed network connection",
	"server closed",
	"eof",
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sql.ErrConnDone) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range connectionErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
