package snapshot

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/mohammed-shakir/jgd-gridshift/internal/cache/keys"
	"github.com/mohammed-shakir/jgd-gridshift/internal/cache/redisstore"
	"github.com/mohammed-shakir/jgd-gridshift/internal/core/model"
	"github.com/mohammed-shakir/jgd-gridshift/internal/transformer"
)

func newStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rc, err := redisstore.New(context.Background(), mr.Addr())
	if err != nil {
		t.Fatalf("redisstore.New: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })
	return New(rc, time.Hour), mr
}

func sample(t *testing.T) *transformer.Transformer {
	t.Helper()
	tf, err := transformer.NewBuilder().
		Format(transformer.TKY2JGD).
		Parameter(54401027, model.Correction{Latitude: 11.49105, Longitude: -11.80078}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tf
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()
	tf := sample(t)
	digest := keys.Digest([]byte("content"))

	if err := s.Save(ctx, tf, digest); err != nil {
		t.Fatalf("Save: %v", err)
	}
	key := keys.Snapshot("TKY2JGD", digest)
	if !mr.Exists(key) {
		t.Fatalf("expected key %s in redis", key)
	}
	if ttl := mr.TTL(key); ttl != time.Hour {
		t.Fatalf("ttl=%v want 1h", ttl)
	}

	got, found, err := s.Load(ctx, transformer.TKY2JGD, digest)
	if err != nil || !found {
		t.Fatalf("Load found=%v err=%v", found, err)
	}
	c, ok := got.Get(54401027)
	if !ok || c.Latitude != 11.49105 || c.Longitude != -11.80078 {
		t.Fatalf("parameter=%+v ok=%v", c, ok)
	}
}

func TestLoad_MissIsNotAnError(t *testing.T) {
	s, _ := newStore(t)
	got, found, err := s.Load(context.Background(), transformer.TKY2JGD, 42)
	if err != nil || found || got != nil {
		t.Fatalf("Load=%v,%v,%v want miss", got, found, err)
	}
}

func TestLoad_RejectsCorruptAndMismatchedSnapshots(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()

	if err := mr.Set(keys.Snapshot("TKY2JGD", 1), "not msgpack"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Load(ctx, transformer.TKY2JGD, 1); err == nil {
		t.Fatalf("expected decode error")
	}

	raw, err := transformer.MarshalSnapshot(sample(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := mr.Set(keys.Snapshot("PatchJGD", 2), string(raw)); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Load(ctx, transformer.PatchJGD, 2); err == nil {
		t.Fatalf("expected format mismatch error")
	}
}
