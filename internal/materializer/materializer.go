// Package materializer turns external payloads into stored local records.
package materializer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"eventbritesync/internal/domain"
	"eventbritesync/internal/mapping"
)

// DefaultMaxDepth bounds nested relation materialization.
const DefaultMaxDepth = 8

// maxLoggedValue is the longest field value printed in verbose diagnostics.
const maxLoggedValue = 60

// Materializer finds or creates local records from external payloads,
// applies scalar fields and resolves relations.
type Materializer struct {
	registry *mapping.Registry
	store    domain.RecordStore
	logger   *slog.Logger
	verbose  bool
	maxDepth int
}

// Option configures a Materializer.
type Option func(*Materializer)

// WithVerbose logs every field assignment at debug level.
func WithVerbose(v bool) Option {
	return func(m *Materializer) { m.verbose = v }
}

// WithMaxDepth bounds relation recursion. Values below 1 keep the default.
func WithMaxDepth(depth int) Option {
	return func(m *Materializer) {
		if depth > 0 {
			m.maxDepth = depth
		}
	}
}

// New returns a Materializer writing through store.
func New(registry *mapping.Registry, store domain.RecordStore, logger *slog.Logger, opts ...Option) *Materializer {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Materializer{
		registry: registry,
		store:    store,
		logger:   logger,
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Materialize maps payload onto a record of the given kind, using the kind's default
// external entity name. See MaterializeNamed.
func (m *Materializer) Materialize(ctx context.Context, kind domain.Kind, payload any, persist bool) (domain.Record, error) {
	schema, err := m.registry.Schema(kind)
	if err != nil {
		return nil, err
	}
	return m.materialize(ctx, schema, schema.ExternalName, payload, persist, 0)
}

// MaterializeNamed maps payload onto a record of the given kind.
//
// A bare identifier is looked up and returned as is; it is never created.
// A structured payload is matched to an existing record by its external id, or a new
// record is created. The record is saved when persist is true; callers nesting
// materialization pass false and save the parent themselves.
func (m *Materializer) MaterializeNamed(ctx context.Context, kind domain.Kind, externalName string, payload any, persist bool) (domain.Record, error) {
	schema, err := m.registry.Schema(kind)
	if err != nil {
		return nil, err
	}
	return m.materialize(ctx, schema, externalName, payload, persist, 0)
}

func (m *Materializer) materialize(ctx context.Context, schema *mapping.Schema, externalName string, payload any, persist bool, depth int) (domain.Record, error) {
	if depth > m.maxDepth {
		return nil, fmt.Errorf("%s: %w", schema.Kind, domain.ErrMaxDepth)
	}

	obj, ok := payload.(map[string]any)
	if !ok {
		return m.resolve(ctx, schema.Kind, payload)
	}

	rec, err := m.findOrCreate(ctx, schema.Kind, obj)
	if err != nil {
		return nil, err
	}

	pending := make(map[string]any)
	fields := flatten(obj, m.registry.Flatten(externalName))
	for _, extKey := range sortedKeys(fields) {
		local := m.registry.LocalKey(schema, extKey)
		field, ok := schema.Field(local)
		if !ok {
			continue
		}
		value := fields[extKey]
		if field.Relation != nil {
			pending[local] = value
			continue
		}
		if structured, ok := value.(map[string]any); ok {
			coerced, err := mapping.CoerceStructured(structured)
			if errors.Is(err, mapping.ErrUnknownShape) {
				m.logger.Warn("unknown complex value type", "kind", schema.Kind, "field", extKey)
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("%s %s: field %s: %w", schema.Kind, rec.ExternalID(), extKey, err)
			}
			value = coerced
		}
		if err := field.Assign(rec, value); err != nil {
			return nil, fmt.Errorf("%s %s: %w", schema.Kind, rec.ExternalID(), err)
		}
		m.trace(schema.Kind, extKey, local, value)
	}

	savedFirst := false
	if schema.PersistFirst && persist {
		if err := m.save(ctx, rec); err != nil {
			return nil, err
		}
		savedFirst = true
	}

	touched, err := m.resolveRelations(ctx, schema, rec, pending, depth)
	if err != nil {
		return nil, err
	}

	if persist && (!savedFirst || touched) {
		if err := m.save(ctx, rec); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// resolve handles a bare external id: the record must already exist.
func (m *Materializer) resolve(ctx context.Context, kind domain.Kind, payload any) (domain.Record, error) {
	id, ok := mapping.ExternalIDOf(payload)
	if !ok {
		return nil, fmt.Errorf("%s: cannot resolve %T: %w", kind, payload, domain.ErrMissingExternalID)
	}
	rec, err := m.store.FindByExternalID(ctx, kind, id)
	if err != nil {
		return nil, fmt.Errorf("resolve %s %s: %w", kind, id, err)
	}
	return rec, nil
}

func (m *Materializer) findOrCreate(ctx context.Context, kind domain.Kind, obj map[string]any) (domain.Record, error) {
	id, ok := mapping.ExternalIDOf(obj["id"])
	if !ok {
		return nil, fmt.Errorf("%s: %w", kind, domain.ErrMissingExternalID)
	}
	rec, err := m.store.FindByExternalID(ctx, kind, id)
	switch {
	case err == nil:
		return rec, nil
	case errors.Is(err, domain.ErrNotFound):
		return domain.NewRecord(kind, id)
	default:
		return nil, fmt.Errorf("find %s %s: %w", kind, id, err)
	}
}

func (m *Materializer) save(ctx context.Context, rec domain.Record) error {
	if err := m.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("save %s %s: %w", rec.Kind(), rec.ExternalID(), err)
	}
	return nil
}

// flatten lifts the fields of the named sub-objects into a copy of obj.
// Top-level keys win over lifted ones.
func flatten(obj map[string]any, keys []string) map[string]any {
	if len(keys) == 0 {
		return obj
	}
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = v
	}
	for _, key := range keys {
		sub, ok := obj[key].(map[string]any)
		if !ok {
			continue
		}
		delete(out, key)
		for k, v := range sub {
			if _, exists := obj[k]; !exists {
				out[k] = v
			}
		}
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
