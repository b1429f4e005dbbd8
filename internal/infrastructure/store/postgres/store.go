package postgres

import (
	"context"
	"database/sql"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	"github.com/trainwr/fantasy-cricket/internal/domain/realm"
	qb "github.com/trainwr/fantasy-cricket/internal/platform/querybuilder"
)

// Store keeps one jsonb row per realm in the realm_documents table. The
// schema lives in db/migrations and is applied by cmd/migration.
type Store struct {
	db         *sqlx.DB
	limitBytes int64
}

func NewStore(db *sqlx.DB, limitBytes int64) *Store {
	return &Store{db: db, limitBytes: limitBytes}
}

type documentRow struct {
	Document []byte `db:"document"`
}

func (s *Store) Load(ctx context.Context, name string) (realm.Document, bool, error) {
	query, args, err := qb.Select("document").From("realm_documents").
		Where(qb.Eq("name", name)).
		ToSQL()
	if err != nil {
		return realm.Document{}, false, errors.Wrap(err, "build load realm query")
	}

	var row documentRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return realm.Document{}, false, nil
		}
		return realm.Document{}, false, errors.Wrapf(err, "load realm %s", name)
	}

	var doc realm.Document
	if err := sonic.Unmarshal(row.Document, &doc); err != nil {
		return realm.Document{}, false, errors.Wrapf(err, "decode realm %s", name)
	}
	doc.Normalize()
	return doc, true, nil
}

func (s *Store) Save(ctx context.Context, name string, doc realm.Document) error {
	payload, err := sonic.Marshal(doc)
	if err != nil {
		return errors.Wrapf(err, "encode realm %s", name)
	}

	query, args, err := qb.InsertInto("realm_documents").
		Columns("name", "document").
		Values(name, payload).
		Suffix("ON CONFLICT (name) DO UPDATE SET document = EXCLUDED.document, updated_at = now()").
		ToSQL()
	if err != nil {
		return errors.Wrap(err, "build save realm query")
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrapf(err, "save realm %s", name)
	}
	return nil
}

func (s *Store) Stats(ctx context.Context, name string) (realm.StorageStats, error) {
	query, args, err := qb.Select("coalesce(octet_length(document::text), 0) AS used").
		From("realm_documents").
		Where(qb.Eq("name", name)).
		ToSQL()
	if err != nil {
		return realm.StorageStats{}, errors.Wrap(err, "build realm stats query")
	}

	var used int64
	if err := s.db.GetContext(ctx, &used, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return realm.StorageStats{LimitBytes: s.limitBytes}, nil
		}
		return realm.StorageStats{}, errors.Wrapf(err, "stats for realm %s", name)
	}
	return realm.StorageStats{UsedBytes: used, LimitBytes: s.limitBytes}, nil
}
