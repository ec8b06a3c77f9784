package proto

import "github.com/chxdb/chxdb/wire"

// QueryMsg is the client→server Query packet (§4.6). ClientInfo is sent
// only when the negotiated server revision supports it.
type QueryMsg struct {
	QueryID     string
	ClientInfo  *ClientInfo // nil if the server revision doesn't support it
	Settings    map[string]string
	Stage       QueryStage
	Compression bool
	Query       string
}

func (m *QueryMsg) Encode(w *wire.Writer) error {
	if err := w.VarUint(uint64(ClientQuery)); err != nil {
		return err
	}
	if err := w.String(m.QueryID); err != nil {
		return err
	}
	if m.ClientInfo != nil {
		if err := m.ClientInfo.Encode(w); err != nil {
			return err
		}
	}
	for name, value := range m.Settings {
		if err := w.String(name); err != nil {
			return err
		}
		if err := w.String(value); err != nil {
			return err
		}
	}
	if err := w.String(""); err != nil { // settings terminator
		return err
	}
	if err := w.VarUint(uint64(m.Stage)); err != nil {
		return err
	}
	compression := uint8(0)
	if m.Compression {
		compression = 1
	}
	if err := w.U8(compression); err != nil {
		return err
	}
	return w.String(m.Query)
}
