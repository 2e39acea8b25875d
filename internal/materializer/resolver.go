package materializer

import (
	"context"
	"fmt"
	"sort"

	"eventbritesync/internal/domain"
	"eventbritesync/internal/mapping"
)

// resolveRelations materializes every pending relation and attaches it to rec.
// It reports whether a to-one reference on rec changed, which means rec needs saving.
func (m *Materializer) resolveRelations(ctx context.Context, schema *mapping.Schema, rec domain.Record, pending map[string]any, depth int) (bool, error) {
	names := make([]string, 0, len(pending))
	for name := range pending {
		names = append(names, name)
	}
	sort.Strings(names)

	touched := false
	for _, name := range names {
		field, _ := schema.Field(name)
		rel := field.Relation
		target, err := m.registry.Schema(rel.Target)
		if err != nil {
			return false, err
		}

		switch value := pending[name].(type) {
		case nil:
			continue
		case []any:
			if rel.Cardinality != mapping.ToMany {
				return false, fmt.Errorf("%s %s: relation %s is %s but got a list", schema.Kind, rec.ExternalID(), name, rel.Cardinality)
			}
			for _, item := range value {
				if err := m.addToMany(ctx, target, rel, rec, item, depth); err != nil {
					return false, fmt.Errorf("%s %s: relation %s: %w", schema.Kind, rec.ExternalID(), name, err)
				}
			}
		default:
			if rel.Cardinality == mapping.ToMany {
				if err := m.addToMany(ctx, target, rel, rec, value, depth); err != nil {
					return false, fmt.Errorf("%s %s: relation %s: %w", schema.Kind, rec.ExternalID(), name, err)
				}
				continue
			}
			if err := m.setToOne(ctx, target, rel, rec, value, depth); err != nil {
				return false, fmt.Errorf("%s %s: relation %s: %w", schema.Kind, rec.ExternalID(), name, err)
			}
			touched = true
		}
	}
	return touched, nil
}

// setToOne stores the related record (when it came as a full payload) before rec references it.
func (m *Materializer) setToOne(ctx context.Context, target *mapping.Schema, rel *mapping.Relation, rec domain.Record, value any, depth int) error {
	child, err := m.materialize(ctx, target, target.ExternalName, value, false, depth+1)
	if err != nil {
		return err
	}
	if _, structured := value.(map[string]any); structured || child.StorageID() == 0 {
		if err := m.save(ctx, child); err != nil {
			return err
		}
	}
	return rel.Attach(rec, child)
}

// addToMany adds the related record to rec's collection. The child's back-reference
// needs rec's storage identity, so rec is saved first if it has none yet.
func (m *Materializer) addToMany(ctx context.Context, target *mapping.Schema, rel *mapping.Relation, rec domain.Record, value any, depth int) error {
	child, err := m.materialize(ctx, target, target.ExternalName, value, false, depth+1)
	if err != nil {
		return err
	}
	if rec.StorageID() == 0 {
		if err := m.save(ctx, rec); err != nil {
			return err
		}
	}
	if err := rel.Attach(rec, child); err != nil {
		return err
	}
	return m.save(ctx, child)
}
