package mapping

import "fmt"

// KeyPair links one local field name to one external field name.
type KeyPair struct {
	Local    string
	External string
}

// KeyMap translates field names between the external and local vocabularies.
// It is immutable once built; keys absent from the table map to themselves.
type KeyMap struct {
	pairs      []KeyPair
	toLocal    map[string]string
	toExternal map[string]string
}

// DefaultPairs is the Eventbrite key table.
var DefaultPairs = []KeyPair{
	{Local: "eb_id", External: "id"},
	{Local: "eb_url", External: "url"},
	{Local: "tickets", External: "ticket_classes"},
	{Local: "canceled", External: "cancelled"},
}

// NewKeyMap builds a KeyMap. A key may appear at most once on each side.
func NewKeyMap(pairs ...KeyPair) (*KeyMap, error) {
	m := &KeyMap{
		pairs:      make([]KeyPair, 0, len(pairs)),
		toLocal:    make(map[string]string, len(pairs)),
		toExternal: make(map[string]string, len(pairs)),
	}
	for _, p := range pairs {
		if p.Local == "" || p.External == "" {
			return nil, fmt.Errorf("key pair %+v: empty key", p)
		}
		if _, dup := m.toLocal[p.External]; dup {
			return nil, fmt.Errorf("external key %q mapped twice", p.External)
		}
		if _, dup := m.toExternal[p.Local]; dup {
			return nil, fmt.Errorf("local key %q mapped twice", p.Local)
		}
		m.toLocal[p.External] = p.Local
		m.toExternal[p.Local] = p.External
		m.pairs = append(m.pairs, p)
	}
	return m, nil
}

// DefaultKeyMap returns the Eventbrite key table.
func DefaultKeyMap() *KeyMap {
	m, err := NewKeyMap(DefaultPairs...)
	if err != nil {
		panic(err)
	}
	return m
}

// ToLocalKey maps an external field name to the local one.
func (m *KeyMap) ToLocalKey(external string) string {
	if local, ok := m.toLocal[external]; ok {
		return local
	}
	return external
}

// ToExternalKey maps a local field name to the external one.
func (m *KeyMap) ToExternalKey(local string) string {
	if external, ok := m.toExternal[local]; ok {
		return external
	}
	return local
}

// Pairs returns a copy of the table.
func (m *KeyMap) Pairs() []KeyPair {
	out := make([]KeyPair, len(m.pairs))
	copy(out, m.pairs)
	return out
}
