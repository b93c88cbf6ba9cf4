// Package memory provides an in-memory store.Backend for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/suds/store"
)

// Backend keeps every table in process memory. It is safe for concurrent use.
type Backend struct {
	mu      sync.RWMutex
	schemas map[string]store.KeySchema
	tables  map[string]map[string]store.Record

	// OnPut, when set, runs before every put. A non-nil error aborts the put
	// and is returned to the caller. Tests use it to inject failures.
	OnPut func(table string, rec store.Record) error
}

var _ store.Backend = (*Backend)(nil)

// New creates a Backend for the given tables, usually store.Config.Schemas().
func New(schemas map[string]store.KeySchema) *Backend {
	tables := make(map[string]map[string]store.Record, len(schemas))
	for name := range schemas {
		tables[name] = make(map[string]store.Record)
	}
	return &Backend{
		schemas: schemas,
		tables:  tables,
	}
}

// PutItem upserts rec after checking cond against the current item.
func (b *Backend) PutItem(ctx context.Context, table string, rec store.Record, cond store.Filter) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrBackendUnavailable, err)
	}
	if b.OnPut != nil {
		if err := b.OnPut(table, rec); err != nil {
			return err
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	schema, items, err := b.table(table)
	if err != nil {
		return err
	}
	k, err := itemKey(schema, rec)
	if err != nil {
		return err
	}

	if len(cond) > 0 {
		existing, ok := items[k]
		if !ok {
			existing = store.Record{}
		}
		if !cond.Match(existing) {
			return fmt.Errorf("put %s: %w", table, store.ErrConditionFailed)
		}
	}

	items[k] = maps.Clone(rec)
	return nil
}

// GetItem returns a copy of the item under key.
func (b *Backend) GetItem(ctx context.Context, table string, key store.PK) (store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrBackendUnavailable, err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	schema, items, err := b.table(table)
	if err != nil {
		return nil, err
	}
	k, err := itemKey(schema, store.Record(key))
	if err != nil {
		return nil, err
	}
	rec, ok := items[k]
	if !ok {
		return nil, store.ErrNotFound
	}
	return maps.Clone(rec), nil
}

// Scan returns copies of the matching items. Map iteration keeps the order
// unspecified, as with a real scan.
func (b *Backend) Scan(ctx context.Context, table string, filter store.Filter) ([]store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrBackendUnavailable, err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	_, items, err := b.table(table)
	if err != nil {
		return nil, err
	}

	var out []store.Record
	for _, rec := range items {
		if filter.Match(rec) {
			out = append(out, maps.Clone(rec))
		}
	}
	return out, nil
}

// Len returns the number of items in table.
func (b *Backend) Len(table string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.tables[table])
}

func (b *Backend) table(name string) (store.KeySchema, map[string]store.Record, error) {
	schema, ok := b.schemas[name]
	if !ok {
		return store.KeySchema{}, nil, fmt.Errorf("%w: table %q does not exist", store.ErrBackendUnavailable, name)
	}
	return schema, b.tables[name], nil
}

// itemKey joins the key attributes of rec into a map key.
func itemKey(schema store.KeySchema, rec store.Record) (string, error) {
	pk, err := keyPart(rec, schema.PartitionKey)
	if err != nil {
		return "", err
	}
	if schema.SortKey == "" {
		return pk, nil
	}
	sk, err := keyPart(rec, schema.SortKey)
	if err != nil {
		return "", err
	}
	return pk + "\x00" + sk, nil
}

func keyPart(rec store.Record, attr string) (string, error) {
	switch v := rec[attr].(type) {
	case *types.AttributeValueMemberS:
		return "S:" + v.Value, nil
	case *types.AttributeValueMemberN:
		return "N:" + v.Value, nil
	}
	return "", fmt.Errorf("%w: key attribute %q missing or not a string/number", store.ErrInvalidInput, attr)
}
