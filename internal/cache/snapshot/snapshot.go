// Package snapshot persists parsed parameter grids in Redis so a restart can
// skip re-parsing the par files.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/mohammed-shakir/jgd-gridshift/internal/cache/keys"
	"github.com/mohammed-shakir/jgd-gridshift/internal/transformer"
)

// KV is the subset of redisstore.Client the store needs.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

type Store struct {
	kv  KV
	ttl time.Duration
}

func New(kv KV, ttl time.Duration) *Store {
	return &Store{kv: kv, ttl: ttl}
}

// Load returns the snapshot stored for format and content digest. A missing
// snapshot is not an error.
func (s *Store) Load(ctx context.Context, f transformer.Format, digest uint64) (*transformer.Transformer, bool, error) {
	key := keys.Snapshot(f.String(), digest)
	raw, found, err := s.kv.Get(ctx, key)
	if err != nil || !found {
		return nil, false, err
	}
	t, err := transformer.UnmarshalSnapshot(raw)
	if err != nil {
		return nil, false, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	if t.Format() != f {
		return nil, false, fmt.Errorf("snapshot %s holds format %v", key, t.Format())
	}
	return t, true, nil
}

func (s *Store) Save(ctx context.Context, t *transformer.Transformer, digest uint64) error {
	raw, err := transformer.MarshalSnapshot(t)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return s.kv.Set(ctx, keys.Snapshot(t.Format().String(), digest), raw, s.ttl)
}
