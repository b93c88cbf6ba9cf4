package store_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jacentio/suds/store"
	"github.com/jacentio/suds/store/memory"
)

func testConfig() store.Config {
	cfg := store.DefaultConfig()
	cfg.Location = time.UTC
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return cfg
}

func newMemory(t *testing.T, cfg store.Config) *memory.Backend {
	t.Helper()
	return memory.New(cfg.Schemas())
}

// countPuts makes b count the puts it sees on table.
func countPuts(b *memory.Backend, table string) *int {
	n := new(int)
	b.OnPut = func(tbl string, rec store.Record) error {
		if tbl == table {
			*n++
		}
		return nil
	}
	return n
}
