package cache

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/lib/pq"
)

// RevisionManager tracks the current rule-store revision for cache keying.
// It uses PostgreSQL LISTEN/NOTIFY to learn about rule edits the instant
// they commit, with a TTL-based refresh from the database as a fallback
// when the listener connection drops.
type RevisionManager struct {
	mu          sync.RWMutex
	current     string
	db          *sql.DB
	connStr     string
	refreshTTL  time.Duration
	lastRefresh time.Time
	listener    *pq.Listener
	stopCh      chan struct{}
	stopped     bool
}

// NewRevisionManager creates a new RevisionManager.
// connStr is the PostgreSQL connection string for LISTEN/NOTIFY.
// refreshTTL is the fallback interval for refreshing the revision from DB.
func NewRevisionManager(db *sql.DB, connStr string, refreshTTL time.Duration) *RevisionManager {
	return &RevisionManager{
		db:         db,
		connStr:    connStr,
		refreshTTL: refreshTTL,
		stopCh:     make(chan struct{}),
	}
}

// Start fetches the initial revision and starts the LISTEN/NOTIFY listener.
func (m *RevisionManager) Start(ctx context.Context) error {
	revision, err := m.fetchLatest(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch initial revision: %w", err)
	}

	m.mu.Lock()
	m.current = revision
	m.lastRefresh = time.Now()
	m.mu.Unlock()

	if err := m.startListener(); err != nil {
		return fmt.Errorf("failed to start listener: %w", err)
	}

	return nil
}

// Stop stops the RevisionManager and cleans up resources.
func (m *RevisionManager) Stop() error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	close(m.stopCh)
	m.mu.Unlock()

	if m.listener != nil {
		return m.listener.Close()
	}
	return nil
}

// Current implements postgres.RevisionProvider. It returns the cached
// revision, refreshing from the database when it is older than refreshTTL.
func (m *RevisionManager) Current(ctx context.Context) (string, error) {
	m.mu.RLock()
	revision := m.current
	needsRefresh := time.Since(m.lastRefresh) > m.refreshTTL
	m.mu.RUnlock()

	// db is nil in testing mode; just serve the cached revision.
	if m.db == nil {
		return revision, nil
	}

	if needsRefresh || revision == "" {
		return m.refreshFromDB(ctx)
	}

	return revision, nil
}

// SetRevision manually sets the current revision.
// This is primarily used for testing.
func (m *RevisionManager) SetRevision(revision string) {
	m.mu.Lock()
	m.current = revision
	m.lastRefresh = time.Now()
	m.mu.Unlock()
}

// refreshFromDB fetches the latest revision and updates the cached value.
func (m *RevisionManager) refreshFromDB(ctx context.Context) (string, error) {
	revision, err := m.fetchLatest(ctx)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.current = revision
	m.lastRefresh = time.Now()
	m.mu.Unlock()

	return revision, nil
}

// fetchLatest reads the current transaction snapshot from the database.
// Any committed rule edit moves the snapshot forward.
func (m *RevisionManager) fetchLatest(ctx context.Context) (string, error) {
	var snapshot string
	err := m.db.QueryRowContext(ctx, "SELECT txid_current_snapshot()::text").Scan(&snapshot)
	if err != nil {
		return "", fmt.Errorf("failed to fetch latest revision: %w", err)
	}
	return snapshot, nil
}

// startListener starts the PostgreSQL LISTEN/NOTIFY listener.
func (m *RevisionManager) startListener() error {
	reportProblem := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			// The TTL fallback covers us while the listener reconnects.
			log.Printf("RevisionManager listener error: %v", err)
		}
	}

	m.listener = pq.NewListener(m.connStr, 10*time.Second, time.Minute, reportProblem)

	if err := m.listener.Listen("rules_changed"); err != nil {
		return fmt.Errorf("failed to listen on rules_changed: %w", err)
	}

	go m.handleNotifications()

	return nil
}

// handleNotifications processes incoming NOTIFY events.
func (m *RevisionManager) handleNotifications() {
	for {
		select {
		case <-m.stopCh:
			return
		case notification := <-m.listener.Notify:
			if notification == nil {
				// Connection lost; the listener reconnects automatically.
				continue
			}

			m.mu.Lock()
			m.current = notification.Extra
			m.lastRefresh = time.Now()
			m.mu.Unlock()
		case <-time.After(90 * time.Second):
			// Periodic ping to keep the connection alive.
			go func() {
				if err := m.listener.Ping(); err != nil {
					log.Printf("RevisionManager ping error: %v", err)
				}
			}()
		}
	}
}
