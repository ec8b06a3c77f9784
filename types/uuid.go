package types

import (
	"github.com/chxdb/chxdb/errs"
	"github.com/google/uuid"
)

// parseUUIDText parses a canonical hyphenated UUID string into the
// [16]byte logical value used everywhere else in this package.
func parseUUIDText(s string) (interface{}, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return nil, errs.Wrap(errs.TypeMismatch, "parse UUID literal", err)
	}
	var out [16]byte
	copy(out[:], u[:])
	return out, nil
}

// FormatUUID renders a [16]byte UUID logical value in canonical
// hyphenated form, for display or text-quoted re-serialization.
func FormatUUID(b [16]byte) string {
	return uuid.UUID(b).String()
}
