package providers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jaehyun-dev/concord/internal/contracts"
)

func TestLoadUniverseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "universe.json")
	content := `[
		{"symbol": "AAA", "name": "Acme", "sector": "Technology", "market_cap": 120000000000},
		{"symbol": "BBB", "name": "Bolt", "sector": "Energy", "market_cap": 8000000000}
	]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	instruments, err := LoadUniverseFile(path)
	if err != nil {
		t.Fatalf("LoadUniverseFile() error = %v", err)
	}
	if len(instruments) != 2 {
		t.Fatalf("got %d instruments, want 2", len(instruments))
	}
	if instruments[0].Symbol != "AAA" || instruments[0].Sector != "Technology" {
		t.Errorf("first instrument parsed wrong: %+v", instruments[0])
	}
	if instruments[1].MarketCap != 8e9 {
		t.Errorf("market cap = %v, want 8e9", instruments[1].MarketCap)
	}
}

func TestLoadUniverseFile_MissingSymbol(t *testing.T) {
	path := filepath.Join(t.TempDir(), "universe.json")
	if err := os.WriteFile(path, []byte(`[{"name": "NoSymbol"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadUniverseFile(path); err == nil {
		t.Fatal("expected error for entry without symbol")
	}
}

func TestLoadUniverseFile_NotFound(t *testing.T) {
	if _, err := LoadUniverseFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestStaticUniverse(t *testing.T) {
	u := NewStaticUniverse([]contracts.Instrument{{Symbol: "AAA"}})
	instruments, err := u.Universe(context.Background())
	if err != nil || len(instruments) != 1 {
		t.Fatalf("Universe() = %v, %v", instruments, err)
	}

	empty := NewStaticUniverse(nil)
	if _, err := empty.Universe(context.Background()); err == nil {
		t.Fatal("expected error for empty universe")
	}
}
