package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/trainwr/fantasy-cricket/internal/domain/realm"
	"github.com/trainwr/fantasy-cricket/internal/platform/logging"
)

const mirrorSaveTimeout = 10 * time.Second

// managedRealm is the in-memory authority for one realm. All mutation flows
// through mu; doc is only replaced after the primary store confirmed the
// write, so a storage failure never leaves memory ahead of disk.
type managedRealm struct {
	mu       sync.Mutex
	loaded   bool
	revision uint64
	doc      realm.Document
}

// RealmManager serializes every operation against a realm document and owns
// the persist-before-acknowledge rule. Mutations write to the primary store
// synchronously; mirror stores are updated best-effort on a bounded pool.
type RealmManager struct {
	primary realm.Store
	mirrors []realm.Store
	pool    *ants.Pool
	logger  *logging.Logger

	mu     sync.Mutex
	realms map[string]*managedRealm
}

func NewRealmManager(primary realm.Store, mirrors []realm.Store, pool *ants.Pool, logger *logging.Logger) *RealmManager {
	if logger == nil {
		logger = logging.Default()
	}

	return &RealmManager{
		primary: primary,
		mirrors: mirrors,
		pool:    pool,
		logger:  logger,
		realms:  make(map[string]*managedRealm),
	}
}

func (m *RealmManager) realm(name string) *managedRealm {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.realms[name]
	if !ok {
		state = &managedRealm{}
		m.realms[name] = state
	}
	return state
}

func (m *RealmManager) ensureLoaded(ctx context.Context, name string, state *managedRealm) error {
	if state.loaded {
		return nil
	}

	doc, found, err := m.primary.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: load realm %s: %v", ErrStorageUnavailable, name, err)
	}
	if !found {
		doc = realm.NewDocument()
	}
	doc.Normalize()

	state.doc = doc
	state.loaded = true
	return nil
}

// Update runs apply against a private clone of the realm document, persists
// the result to the primary store, then swaps it in and fans out to mirrors.
// If apply returns an error, or the primary save fails, nothing changes.
func (m *RealmManager) Update(ctx context.Context, name string, apply func(doc *realm.Document) error) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: realm name is required", ErrInvalidInput)
	}

	state := m.realm(name)
	state.mu.Lock()
	defer state.mu.Unlock()

	if err := m.ensureLoaded(ctx, name, state); err != nil {
		return err
	}

	working := state.doc.Clone()
	if err := apply(&working); err != nil {
		return err
	}

	if err := m.primary.Save(ctx, name, working); err != nil {
		return fmt.Errorf("%w: save realm %s: %v", ErrStorageUnavailable, name, err)
	}

	state.doc = working
	state.revision++

	if len(m.mirrors) > 0 {
		m.fanOut(name, working.Clone())
	}
	return nil
}

// View calls fn with a consistent snapshot. fn must not retain the document
// past its return.
func (m *RealmManager) View(ctx context.Context, name string, fn func(doc realm.Document) error) error {
	doc, _, err := m.Snapshot(ctx, name)
	if err != nil {
		return err
	}
	return fn(doc)
}

// Snapshot returns a private copy of the realm document plus its revision.
// The revision increments on every committed update, which makes it a cheap
// cache key for read-side aggregations.
func (m *RealmManager) Snapshot(ctx context.Context, name string) (realm.Document, uint64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return realm.Document{}, 0, fmt.Errorf("%w: realm name is required", ErrInvalidInput)
	}

	state := m.realm(name)
	state.mu.Lock()
	defer state.mu.Unlock()

	if err := m.ensureLoaded(ctx, name, state); err != nil {
		return realm.Document{}, 0, err
	}
	return state.doc.Clone(), state.revision, nil
}

// Stats reports the primary store's capacity reading for the realm.
func (m *RealmManager) Stats(ctx context.Context, name string) (realm.StorageStats, error) {
	stats, err := m.primary.Stats(ctx, name)
	if err != nil {
		return realm.StorageStats{}, fmt.Errorf("%w: stats for realm %s: %v", ErrStorageUnavailable, name, err)
	}
	return stats, nil
}

// fanOut pushes a committed snapshot to every mirror. Failures are logged
// and swallowed; mirrors are redundancy, not part of the durability promise.
func (m *RealmManager) fanOut(name string, snapshot realm.Document) {
	for i, mirror := range m.mirrors {
		mirror := mirror
		index := i

		task := func() {
			ctx, cancel := context.WithTimeout(context.Background(), mirrorSaveTimeout)
			defer cancel()

			if err := mirror.Save(ctx, name, snapshot); err != nil {
				m.logger.Warn("mirror save failed",
					"realm", name,
					"mirror", index,
					"error", err,
				)
			}
		}

		if m.pool == nil {
			go task()
			continue
		}
		if err := m.pool.Submit(task); err != nil {
			m.logger.Warn("mirror save not scheduled",
				"realm", name,
				"mirror", index,
				"error", err,
			)
		}
	}
}
