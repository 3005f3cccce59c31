package transformer

import (
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/mohammed-shakir/jgd-gridshift/internal/core/model"
	"github.com/mohammed-shakir/jgd-gridshift/internal/mesh"
)

// document is the JSON shape; snapshot mirrors it for msgpack.
type document struct {
	Format    Format                      `json:"format"`
	Parameter map[string]model.Correction `json:"parameter"`
}

func (t *Transformer) document() document {
	d := document{Format: t.spec.Format, Parameter: make(map[string]model.Correction, t.grid.Len())}
	t.grid.Range(func(code mesh.Code, c model.Correction) bool {
		d.Parameter[code.String()] = c
		return true
	})
	return d
}

func fromDocument(d document) (*Transformer, error) {
	b := WithCapacity(len(d.Parameter)).Format(d.Format)
	for k, c := range d.Parameter {
		n, err := strconv.ParseUint(k, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("meshcode %q: %w", k, err)
		}
		b.Parameter(mesh.Code(n), c)
	}
	return b.Build()
}

func (t *Transformer) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(t.document())
	if err != nil {
		return nil, fmt.Errorf("encode transformer: %w", err)
	}
	return b, nil
}

func (t *Transformer) UnmarshalJSON(b []byte) error {
	var d document
	if err := json.Unmarshal(b, &d); err != nil {
		return fmt.Errorf("decode transformer: %w", err)
	}
	out, err := fromDocument(d)
	if err != nil {
		return fmt.Errorf("decode transformer: %w", err)
	}
	*t = *out
	return nil
}

// MarshalSnapshot encodes t as a compact msgpack blob.
func MarshalSnapshot(t *Transformer) ([]byte, error) {
	d := t.document()
	b, err := msgpack.Marshal(&snapshot{Format: d.Format.String(), Parameter: d.Parameter})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// UnmarshalSnapshot decodes a blob written by MarshalSnapshot.
func UnmarshalSnapshot(b []byte) (*Transformer, error) {
	var s snapshot
	if err := msgpack.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	f, err := ParseFormat(s.Format)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	t, err := fromDocument(document{Format: f, Parameter: s.Parameter})
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return t, nil
}

type snapshot struct {
	Format    string                      `msgpack:"format"`
	Parameter map[string]model.Correction `msgpack:"parameter"`
}
