package realm

import "context"

// Store persists whole realm documents. Implementations must treat Save as
// atomic: a failed save leaves the previously stored document readable.
type Store interface {
	// Load returns the stored document and whether one existed. A missing
	// realm is not an error; callers start from an empty document.
	Load(ctx context.Context, name string) (Document, bool, error)
	Save(ctx context.Context, name string, doc Document) error
	// Stats reports capacity figures for monitoring. Stores without a
	// meaningful notion of capacity report zero limits.
	Stats(ctx context.Context, name string) (StorageStats, error)
}

// StorageStats is a point-in-time capacity reading for one realm.
type StorageStats struct {
	// UsedBytes is the size of the stored document, or of the backing
	// database for stores that cannot attribute size per document.
	UsedBytes int64
	// LimitBytes is the configured or backend-imposed ceiling; zero means
	// unbounded.
	LimitBytes int64
}

// Usage returns used capacity as a fraction of the limit, or 0 when the
// store is unbounded.
func (s StorageStats) Usage() float64 {
	if s.LimitBytes <= 0 {
		return 0
	}
	return float64(s.UsedBytes) / float64(s.LimitBytes)
}
