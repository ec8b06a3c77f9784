package proto

import (
	"github.com/chxdb/chxdb/errs"
	"github.com/chxdb/chxdb/wire"
)

// ServerMessage is any decoded server→client packet body, tagged by the
// packet kind that produced it.
type ServerMessage struct {
	Kind        ServerPacket
	Hello       *ServerHelloMsg
	Data        *DataMsg
	Exception   *ExceptionMsg
	Progress    *ProgressMsg
	ProfileInfo *ProfileInfoMsg
	Totals      *TotalsMsg
	Extremes    *ExtremesMsg
}

// ReadServerMessage reads one packet tag and dispatches to the matching
// decoder (§4.6's closed packet-kind set). An unrecognised tag is a
// protocol error, not a silent skip — the caller's state machine no
// longer knows where the next packet begins. compress must reflect
// whatever compression was negotiated on the Query that produced this
// response stream (§4.2, §4.6): only Data packet bodies are ever
// wrapped in a compressed frame.
func ReadServerMessage(r *wire.Reader, compress bool) (*ServerMessage, error) {
	tag, err := r.VarUint()
	if err != nil {
		return nil, err
	}
	kind := ServerPacket(tag)
	switch kind {
	case ServerHello:
		m, err := DecodeServerHello(r)
		if err != nil {
			return nil, err
		}
		return &ServerMessage{Kind: kind, Hello: m}, nil
	case ServerData:
		m, err := DecodeData(r, compress)
		if err != nil {
			return nil, err
		}
		return &ServerMessage{Kind: kind, Data: m}, nil
	case ServerException:
		m, err := DecodeException(r)
		if err != nil {
			return nil, err
		}
		return &ServerMessage{Kind: kind, Exception: m}, nil
	case ServerProgress:
		m, err := DecodeProgress(r)
		if err != nil {
			return nil, err
		}
		return &ServerMessage{Kind: kind, Progress: m}, nil
	case ServerPong, ServerEndOfStream:
		return &ServerMessage{Kind: kind}, nil
	case ServerProfileInfo:
		m, err := DecodeProfileInfo(r)
		if err != nil {
			return nil, err
		}
		return &ServerMessage{Kind: kind, ProfileInfo: m}, nil
	case ServerTotals:
		m, err := DecodeTotals(r)
		if err != nil {
			return nil, err
		}
		return &ServerMessage{Kind: kind, Totals: m}, nil
	case ServerExtremes:
		m, err := DecodeExtremes(r)
		if err != nil {
			return nil, err
		}
		return &ServerMessage{Kind: kind, Extremes: m}, nil
	default:
		return nil, errs.New(errs.UnknownPacket, "unrecognised server packet tag")
	}
}
