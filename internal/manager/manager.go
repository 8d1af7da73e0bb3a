// Package manager implements the merge engine: a read-only analysis pass that
// plans how source trees would merge into a destination, and an execution
// pass that performs the merge, records it for undo and caches sources left
// without files.
package manager

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/AntoineGS/dirfusion/internal/cache"
	"github.com/AntoineGS/dirfusion/internal/clock"
	"github.com/AntoineGS/dirfusion/internal/ledger"
	"github.com/AntoineGS/dirfusion/internal/platform"
)

// runGuards allow at most one analysis and one merge per Manager. They are
// shared by every copy made through the With* builders.
type runGuards struct {
	analysis atomic.Bool
	merge    atomic.Bool
}

// Manager runs analysis and merge passes. Collaborators are injected with the
// With* builders; a Manager without a ledger, cache or history store simply
// skips those steps.
type Manager struct {
	ctx      context.Context
	Platform *platform.Platform
	logger   *slog.Logger
	clock    clock.Clock
	ledger   ledger.Recorder
	cache    cache.FolderCache
	history  HistoryStore
	guards   *runGuards
	// AutoCacheEmpty caches every source root left without files after a
	// completed merge.
	AutoCacheEmpty bool
	Verbose        bool
}

// New creates a new Manager for the given platform.
// The Manager is initialized with structured logging using slog.
func New(plat *platform.Platform) *Manager {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	handler := slog.NewTextHandler(os.Stdout, opts)

	return &Manager{
		Platform:       plat,
		ctx:            context.Background(),
		logger:         slog.New(handler),
		clock:          clock.Real{},
		guards:         &runGuards{},
		AutoCacheEmpty: true,
	}
}

// WithContext returns a new Manager with the given context
func (m *Manager) WithContext(ctx context.Context) *Manager {
	m2 := *m
	m2.ctx = ctx

	return &m2
}

// WithLogger sets a custom logger
func (m *Manager) WithLogger(logger *slog.Logger) *Manager {
	m2 := *m
	m2.logger = logger

	return &m2
}

// WithVerbose returns a new Manager with adjusted log level based on verbose flag.
func (m *Manager) WithVerbose(verbose bool) *Manager {
	m2 := *m
	m2.Verbose = verbose

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	handler := slog.NewTextHandler(os.Stdout, opts)
	m2.logger = slog.New(handler)

	return &m2
}

// WithClock sets the clock used for run timestamps.
func (m *Manager) WithClock(c clock.Clock) *Manager {
	m2 := *m
	m2.clock = c

	return &m2
}

// WithLedger sets where merges record their undo log.
func (m *Manager) WithLedger(r ledger.Recorder) *Manager {
	m2 := *m
	m2.ledger = r

	return &m2
}

// WithCache sets the empty-folder cache used after merges.
func (m *Manager) WithCache(c cache.FolderCache) *Manager {
	m2 := *m
	m2.cache = c

	return &m2
}

// WithHistory sets the store merge runs are recorded in.
func (m *Manager) WithHistory(h HistoryStore) *Manager {
	m2 := *m
	m2.history = h

	return &m2
}

// WithAutoCache toggles caching of emptied sources after a completed merge.
func (m *Manager) WithAutoCache(enabled bool) *Manager {
	m2 := *m
	m2.AutoCacheEmpty = enabled

	return &m2
}

// Cache returns the empty-folder cache, or nil when none is configured.
func (m *Manager) Cache() cache.FolderCache {
	return m.cache
}

// checkContext checks if context is canceled and returns error
func (m *Manager) checkContext() error {
	select {
	case <-m.ctx.Done():
		return m.ctx.Err()
	default:
		return nil
	}
}

func (m *Manager) hidden(path string) bool {
	return platform.IsHidden(path)
}
