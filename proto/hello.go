package proto

import "github.com/chxdb/chxdb/wire"

// ClientHelloMsg is the client→server Hello payload.
type ClientHelloMsg struct {
	ClientName    string
	VersionMajor  uint64
	VersionMinor  uint64
	Revision      uint64
	DefaultDB     string
	User          string
	Password      string
}

func (m *ClientHelloMsg) Encode(w *wire.Writer) error {
	if err := w.VarUint(uint64(ClientHello)); err != nil {
		return err
	}
	if err := w.String(m.ClientName); err != nil {
		return err
	}
	if err := w.VarUint(m.VersionMajor); err != nil {
		return err
	}
	if err := w.VarUint(m.VersionMinor); err != nil {
		return err
	}
	if err := w.VarUint(m.Revision); err != nil {
		return err
	}
	if err := w.String(m.DefaultDB); err != nil {
		return err
	}
	if err := w.String(m.User); err != nil {
		return err
	}
	return w.String(m.Password)
}

// ServerHelloMsg is the server→client Hello payload; fields beyond
// Revision are populated only when the server's revision is recent
// enough to have sent them (§4.6).
type ServerHelloMsg struct {
	ServerName     string
	VersionMajor   uint64
	VersionMinor   uint64
	Revision       uint64
	Timezone       string
	DisplayName    string
	PatchVersion   uint64
}

// DecodeServerHello reads a ServerHelloMsg body; the caller has already
// consumed the packet tag.
func DecodeServerHello(r *wire.Reader) (*ServerHelloMsg, error) {
	m := &ServerHelloMsg{}
	var err error
	if m.ServerName, err = r.String(); err != nil {
		return nil, err
	}
	if m.VersionMajor, err = r.VarUint(); err != nil {
		return nil, err
	}
	if m.VersionMinor, err = r.VarUint(); err != nil {
		return nil, err
	}
	if m.Revision, err = r.VarUint(); err != nil {
		return nil, err
	}
	if m.Revision >= RevisionTimezone {
		if m.Timezone, err = r.String(); err != nil {
			return nil, err
		}
	}
	if m.Revision >= RevisionDisplayName {
		if m.DisplayName, err = r.String(); err != nil {
			return nil, err
		}
	}
	if m.Revision >= RevisionPatchVersion {
		if m.PatchVersion, err = r.VarUint(); err != nil {
			return nil, err
		}
	}
	return m, nil
}
