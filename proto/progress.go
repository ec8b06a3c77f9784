package proto

import (
	"github.com/chxdb/chxdb/block"
	"github.com/chxdb/chxdb/wire"
)

// ProgressMsg reports incremental query progress (§4.6).
type ProgressMsg struct {
	Rows      uint64
	Bytes     uint64
	TotalRows uint64
}

func DecodeProgress(r *wire.Reader) (*ProgressMsg, error) {
	m := &ProgressMsg{}
	var err error
	if m.Rows, err = r.VarUint(); err != nil {
		return nil, err
	}
	if m.Bytes, err = r.VarUint(); err != nil {
		return nil, err
	}
	if m.TotalRows, err = r.VarUint(); err != nil {
		return nil, err
	}
	return m, nil
}

// ProfileInfoMsg surfaces server-reported execution statistics. The real
// wire form is a handful of varUint counters; callers that don't need
// them can skip straight to the next packet tag.
type ProfileInfoMsg struct {
	Rows                      uint64
	Blocks                    uint64
	Bytes                     uint64
	AppliedLimit              bool
	RowsBeforeLimit           uint64
	CalculatedRowsBeforeLimit bool
}

func DecodeProfileInfo(r *wire.Reader) (*ProfileInfoMsg, error) {
	m := &ProfileInfoMsg{}
	var err error
	if m.Rows, err = r.VarUint(); err != nil {
		return nil, err
	}
	if m.Blocks, err = r.VarUint(); err != nil {
		return nil, err
	}
	if m.Bytes, err = r.VarUint(); err != nil {
		return nil, err
	}
	applied, err := r.U8()
	if err != nil {
		return nil, err
	}
	m.AppliedLimit = applied != 0
	if m.RowsBeforeLimit, err = r.VarUint(); err != nil {
		return nil, err
	}
	calculated, err := r.U8()
	if err != nil {
		return nil, err
	}
	m.CalculatedRowsBeforeLimit = calculated != 0
	return m, nil
}

// TotalsMsg and ExtremesMsg each carry a single Block (§4.6).
type TotalsMsg struct{ Block *block.Block }
type ExtremesMsg struct{ Block *block.Block }

func DecodeTotals(r *wire.Reader) (*TotalsMsg, error) {
	b, err := block.Decode(r)
	if err != nil {
		return nil, err
	}
	return &TotalsMsg{Block: b}, nil
}

func DecodeExtremes(r *wire.Reader) (*ExtremesMsg, error) {
	b, err := block.Decode(r)
	if err != nil {
		return nil, err
	}
	return &ExtremesMsg{Block: b}, nil
}
