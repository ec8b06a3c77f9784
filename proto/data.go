package proto

import (
	"bytes"

	"github.com/chxdb/chxdb/block"
	"github.com/chxdb/chxdb/wire"
)

// DataMsg is a Data packet body in either direction: an optional table
// name followed by a Block (§4.6). The table name is outer control
// framing and is always sent in the clear; the Block itself is wrapped
// in a compressed frame (§4.2) whenever compress is true.
type DataMsg struct {
	TableName string
	Block     *block.Block
}

func EncodeData(w *wire.Writer, m *DataMsg, compress bool) error {
	if err := w.VarUint(uint64(ClientData)); err != nil {
		return err
	}
	if err := w.String(m.TableName); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := block.Encode(wire.NewWriter(&buf), m.Block); err != nil {
		return err
	}
	if !compress {
		return w.WriteBytes(buf.Bytes())
	}
	return w.WriteCompressedFrame(buf.Bytes(), wire.MethodLZ4)
}

func DecodeData(r *wire.Reader, compress bool) (*DataMsg, error) {
	tableName, err := r.String()
	if err != nil {
		return nil, err
	}
	br := r
	if compress {
		cr, err := r.ReadCompressedFrame()
		if err != nil {
			return nil, err
		}
		br = cr
	}
	b, err := block.Decode(br)
	if err != nil {
		return nil, err
	}
	return &DataMsg{TableName: tableName, Block: b}, nil
}

// EncodeCancel writes the client's Cancel(3) packet; it has no body.
func EncodeCancel(w *wire.Writer) error {
	return w.VarUint(uint64(ClientCancel))
}

// EncodePing writes the client's Ping(4) packet; it has no body.
func EncodePing(w *wire.Writer) error {
	return w.VarUint(uint64(ClientPing))
}
