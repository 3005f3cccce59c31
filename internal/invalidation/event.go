package invalidation

import (
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/mohammed-shakir/jgd-gridshift/internal/transformer"
)

// Event announces that the par file behind Format changed. Version increases
// monotonically per format; older or repeated versions are ignored.
type Event struct {
	Version uint64             `json:"version"`
	Format  transformer.Format `json:"format"`
	Source  string             `json:"source,omitempty"`
	TS      time.Time          `json:"ts"`
}

func Decode(b []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(b, &ev); err != nil {
		return Event{}, fmt.Errorf("decode reload event: %w", err)
	}
	return ev, nil
}

func (e Event) Validate() error {
	if e.Version == 0 {
		return errors.New("version must be positive")
	}
	if _, ok := e.Format.Spec(); !ok {
		return errors.New("format is required")
	}
	if e.TS.IsZero() {
		return errors.New("ts is required")
	}
	return nil
}
