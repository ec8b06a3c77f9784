package proto

import "github.com/chxdb/chxdb/wire"

// QueryKind distinguishes an initial query from one issued on behalf of
// another (a secondary query forwarded by a distributed table, say);
// the core client only ever originates initial queries.
type QueryKind uint8

const (
	QueryKindNoQuery   QueryKind = 0
	QueryKindInitial   QueryKind = 1
	QueryKindSecondary QueryKind = 2
)

// ClientInfo is the optional sub-block of a Query packet, sent only when
// the server's Hello revision is at least RevisionClientInfo (§4.6).
type ClientInfo struct {
	QueryKind        QueryKind
	InitialUser      string
	InitialQueryID   string
	InitialAddress   string
	OSUser           string
	ClientHostname   string
	ClientName       string
	VersionMajor     uint64
	VersionMinor     uint64
	Revision         uint64
	QuotaKey         string
}

func (c *ClientInfo) Encode(w *wire.Writer) error {
	if err := w.U8(uint8(c.QueryKind)); err != nil {
		return err
	}
	if err := w.String(c.InitialUser); err != nil {
		return err
	}
	if err := w.String(c.InitialQueryID); err != nil {
		return err
	}
	if err := w.String(c.InitialAddress); err != nil {
		return err
	}
	if err := w.U8(InterfaceTCP); err != nil {
		return err
	}
	if err := w.String(c.OSUser); err != nil {
		return err
	}
	if err := w.String(c.ClientHostname); err != nil {
		return err
	}
	if err := w.String(c.ClientName); err != nil {
		return err
	}
	if err := w.VarUint(c.VersionMajor); err != nil {
		return err
	}
	if err := w.VarUint(c.VersionMinor); err != nil {
		return err
	}
	if err := w.VarUint(c.Revision); err != nil {
		return err
	}
	return w.String(c.QuotaKey)
}
