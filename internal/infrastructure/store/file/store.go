package file

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/trainwr/fantasy-cricket/internal/domain/realm"
)

const (
	fileMode = 0o644
	dirMode  = 0o755
)

// Store persists each realm as one JSON file under the data directory.
// Before a save overwrites an existing document, the previous file is
// copied to <name>.json.bak, so a bad write always leaves one good
// generation behind.
type Store struct {
	dir        string
	limitBytes int64
}

func NewStore(dir string, limitBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, errors.Wrapf(err, "create data dir %s", dir)
	}
	return &Store{dir: dir, limitBytes: limitBytes}, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *Store) Load(_ context.Context, name string) (realm.Document, bool, error) {
	payload, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return realm.Document{}, false, nil
		}
		return realm.Document{}, false, errors.Wrapf(err, "read realm file %s", name)
	}

	var doc realm.Document
	if err := sonic.Unmarshal(payload, &doc); err != nil {
		return realm.Document{}, false, errors.Wrapf(err, "decode realm file %s", name)
	}
	doc.Normalize()
	return doc, true, nil
}

func (s *Store) Save(_ context.Context, name string, doc realm.Document) error {
	path := s.path(name)

	if _, err := os.Stat(path); err == nil {
		if err := copyFile(path, path+".bak"); err != nil {
			return errors.Wrapf(err, "back up realm file %s", name)
		}
	}

	payload, err := sonic.Marshal(doc)
	if err != nil {
		return errors.Wrapf(err, "encode realm %s", name)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, fileMode); err != nil {
		return errors.Wrapf(err, "write realm file %s", name)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "replace realm file %s", name)
	}
	return nil
}

func (s *Store) Stats(_ context.Context, name string) (realm.StorageStats, error) {
	info, err := os.Stat(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return realm.StorageStats{LimitBytes: s.limitBytes}, nil
		}
		return realm.StorageStats{}, errors.Wrapf(err, "stat realm file %s", name)
	}
	return realm.StorageStats{UsedBytes: info.Size(), LimitBytes: s.limitBytes}, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fileMode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
