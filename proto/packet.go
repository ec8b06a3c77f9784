// Package proto implements the protocol message layer (§4.6): the
// client→server and server→client packet kinds, and their encode/decode
// against the wire primitives and Block codec. It is grounded on the
// same tagged-dispatch shape the teacher uses for its own wire framing
// in _teachercopy/entryWriter.go/entryReader.go (a leading tag selects
// the decode path), generalised here from one entry tag to the full
// packet set.
package proto

// ClientPacket is a client→server packet tag.
type ClientPacket uint64

const (
	ClientHello ClientPacket = 0
	ClientQuery ClientPacket = 1
	ClientData  ClientPacket = 2
	ClientCancel ClientPacket = 3
	ClientPing  ClientPacket = 4
)

// ServerPacket is a server→client packet tag.
type ServerPacket uint64

const (
	ServerHello       ServerPacket = 0
	ServerData        ServerPacket = 1
	ServerException   ServerPacket = 2
	ServerProgress    ServerPacket = 3
	ServerPong        ServerPacket = 4
	ServerEndOfStream ServerPacket = 5
	ServerProfileInfo ServerPacket = 6
	ServerTotals      ServerPacket = 7
	ServerExtremes    ServerPacket = 8
)

// Protocol revision gates, mirroring the way the real wire protocol
// introduces fields only for servers recent enough to send/expect them.
const (
	RevisionClientInfo     = 54032
	RevisionTimezone       = 54058
	RevisionDisplayName    = 54372
	RevisionPatchVersion   = 54401
)

// QueryStage is the processing stage requested of the server; the core
// client always requests Complete (§4.6).
type QueryStage uint64

const QueryStageComplete QueryStage = 2

// Interface identifies the client transport to the server; TCP is the
// only one this client speaks.
const InterfaceTCP uint8 = 1
