package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jaehyun-dev/concord/internal/contracts"
)

// StaticUniverse serves a fixed instrument list, typically loaded from a
// universe file at startup.
type StaticUniverse struct {
	instruments []contracts.Instrument
}

// NewStaticUniverse creates a universe provider over a fixed list.
func NewStaticUniverse(instruments []contracts.Instrument) *StaticUniverse {
	return &StaticUniverse{instruments: instruments}
}

// Universe returns the configured instrument list.
func (u *StaticUniverse) Universe(ctx context.Context) ([]contracts.Instrument, error) {
	if len(u.instruments) == 0 {
		return nil, fmt.Errorf("universe is empty")
	}
	return u.instruments, nil
}

// LoadUniverseFile reads a JSON universe file: an array of instruments with
// symbol, name, sector, and market_cap fields.
func LoadUniverseFile(path string) ([]contracts.Instrument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe file: %w", err)
	}

	var instruments []contracts.Instrument
	if err := json.Unmarshal(data, &instruments); err != nil {
		return nil, fmt.Errorf("parse universe file %s: %w", path, err)
	}

	for i, inst := range instruments {
		if inst.Symbol == "" {
			return nil, fmt.Errorf("universe file %s: entry %d has no symbol", path, i)
		}
	}
	return instruments, nil
}
