package types

import "sync"

// registry interns ColumnType instances by canonical descriptor string so
// that parsing the same descriptor twice returns the same *ColumnType
// (§5, §8 invariant 1) — mirroring how the teacher's entry tag/name
// tables are built once and shared, not rebuilt per lookup.
type registry struct {
	mtx    sync.Mutex
	byName map[string]*ColumnType
}

var global = newRegistry()

func newRegistry() *registry {
	return &registry{byName: make(map[string]*ColumnType)}
}

// Parse parses a type descriptor string (e.g. "Array(Nullable(FixedString(3)))")
// into a ColumnType, interning the result against the process-wide registry.
func Parse(descriptor string) (*ColumnType, error) {
	return global.parse(descriptor)
}

func (reg *registry) parse(descriptor string) (*ColumnType, error) {
	reg.mtx.Lock()
	defer reg.mtx.Unlock()

	if t, ok := reg.byName[descriptor]; ok {
		return t, nil
	}
	p, err := newParser(descriptor, reg.byName)
	if err != nil {
		return nil, err
	}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	reg.byName[descriptor] = t
	return t, nil
}
