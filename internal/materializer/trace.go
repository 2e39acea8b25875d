package materializer

import (
	"fmt"

	"eventbritesync/internal/domain"
)

func (m *Materializer) trace(kind domain.Kind, extKey, local string, value any) {
	if !m.verbose {
		return
	}
	m.logger.Debug("set field",
		"kind", kind,
		"field", local,
		"external_field", extKey,
		"value", describe(value),
	)
}

// describe renders v for diagnostics. A value whose formatting panics is reported
// as unprintable instead of failing the assignment.
func describe(v any) (s string) {
	defer func() {
		if recover() != nil {
			s = "<unprintable>"
		}
	}()
	s = fmt.Sprintf("%v", v)
	if r := []rune(s); len(r) > maxLoggedValue {
		s = string(r[:maxLoggedValue]) + "..."
	}
	return s
}
