package mapping

import (
	"fmt"
	"time"

	"eventbritesync/internal/domain"
)

// Cardinality tells the resolver how a relation is attached.
type Cardinality int

const (
	// ToOne relations are references held by the record itself (attendee -> order).
	ToOne Cardinality = iota + 1
	// ToMany relations are collections owned through the child's back-reference (event -> tickets).
	ToMany
)

func (c Cardinality) String() string {
	switch c {
	case ToOne:
		return "to-one"
	case ToMany:
		return "to-many"
	}
	return fmt.Sprintf("Cardinality(%d)", int(c))
}

// Relation describes a field whose value is another record.
type Relation struct {
	Cardinality Cardinality
	Target      domain.Kind
	// Attach links child to parent. For ToOne it sets the parent's reference,
	// for ToMany it adds child to the collection and sets its back-reference.
	Attach func(parent, child domain.Record) error
}

// Field is one local attribute a schema knows how to populate.
type Field struct {
	Name     string
	Relation *Relation
	Assign   func(rec domain.Record, v any) error
}

// Schema is the static description of one local record type.
type Schema struct {
	Kind domain.Kind
	// ExternalName is the external entity name used when no other is given.
	ExternalName string
	// Fields is keyed by local field name.
	Fields map[string]Field
	// Aliases map external keys to local ones for this type only; they win over the KeyMap.
	Aliases map[string]string
	// PersistFirst records are saved before their relations are attached.
	PersistFirst bool
}

// Field looks up a local field by name.
func (s *Schema) Field(local string) (Field, bool) {
	f, ok := s.Fields[local]
	return f, ok
}

func fieldSet(fields ...Field) map[string]Field {
	out := make(map[string]Field, len(fields))
	for _, f := range fields {
		out[f.Name] = f
	}
	return out
}

func scalar[R domain.Record, T any](name string, conv func(any) (T, error), ptr func(R) *T) Field {
	return Field{
		Name: name,
		Assign: func(rec domain.Record, v any) error {
			r, ok := rec.(R)
			if !ok {
				return fmt.Errorf("field %s: unexpected record %T", name, rec)
			}
			val, err := conv(v)
			if err != nil {
				return fmt.Errorf("field %s: %w", name, err)
			}
			*ptr(r) = val
			return nil
		},
	}
}

// StringField binds a local string attribute.
func StringField[R domain.Record](name string, ptr func(R) *string) Field {
	return scalar(name, toString, ptr)
}

// IntField binds a local integer attribute.
func IntField[R domain.Record](name string, ptr func(R) *int) Field {
	return scalar(name, toInt, ptr)
}

// BoolField binds a local boolean attribute.
func BoolField[R domain.Record](name string, ptr func(R) *bool) Field {
	return scalar(name, toBool, ptr)
}

// MoneyField binds a local currency amount.
func MoneyField[R domain.Record](name string, ptr func(R) *domain.Money) Field {
	return scalar(name, toMoney, ptr)
}

// TimeField binds a local timestamp.
func TimeField[R domain.Record](name string, ptr func(R) *time.Time) Field {
	return scalar(name, toTime, ptr)
}

// EventStatusField binds a local event status.
func EventStatusField[R domain.Record](name string, ptr func(R) *domain.EventStatus) Field {
	return scalar(name, toEventStatus, ptr)
}

func relation[P, C domain.Record](name string, card Cardinality, target domain.Kind, link func(P, C)) Field {
	return Field{
		Name: name,
		Relation: &Relation{
			Cardinality: card,
			Target:      target,
			Attach: func(parent, child domain.Record) error {
				p, ok := parent.(P)
				if !ok {
					return fmt.Errorf("relation %s: unexpected parent %T", name, parent)
				}
				c, ok := child.(C)
				if !ok {
					return fmt.Errorf("relation %s: unexpected child %T", name, child)
				}
				link(p, c)
				return nil
			},
		},
	}
}

// ToOneField binds a reference from P to a single C.
func ToOneField[P, C domain.Record](name string, target domain.Kind, set func(P, C)) Field {
	return relation(name, ToOne, target, set)
}

// ToManyField binds a collection of C owned by P.
func ToManyField[P, C domain.Record](name string, target domain.Kind, add func(P, C)) Field {
	return relation(name, ToMany, target, add)
}
