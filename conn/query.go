package conn

import (
	"github.com/chxdb/chxdb/block"
	"github.com/chxdb/chxdb/errs"
	"github.com/chxdb/chxdb/proto"
)

// SendQuery runs query to completion and returns the collected response
// items (§4.7, §6's sendQuery). It is used for non-INSERT statements and
// INSERTs without an inline VALUES clause.
func (c *Connection) SendQuery(query string) (*QueryResponse, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.st != StateIdle {
		return nil, errs.New(errs.ProtocolViolation, "SendQuery requires an Idle connection")
	}
	if err := c.sendQueryPacket(query); err != nil {
		return nil, c.fail(err)
	}
	if err := c.sendEmptyData(); err != nil {
		return nil, c.fail(err)
	}

	c.st = StateAwaitingResponseStream
	resp := &QueryResponse{}
	for {
		msg, err := proto.ReadServerMessage(c.r, c.cfg.Compress)
		if err != nil {
			return nil, c.fail(err)
		}
		switch msg.Kind {
		case proto.ServerData:
			resp.Blocks = append(resp.Blocks, msg.Data.Block)
		case proto.ServerProgress:
			// progress updates are not part of the collected response (§4.7)
		case proto.ServerProfileInfo:
			resp.ProfileInfo = msg.ProfileInfo
		case proto.ServerTotals:
			resp.Totals = msg.Totals.Block
		case proto.ServerExtremes:
			resp.Extremes = msg.Extremes.Block
		case proto.ServerEndOfStream:
			c.st = StateIdle
			return resp, nil
		case proto.ServerException:
			c.st = StateIdle
			return nil, toServerException(msg.Exception)
		default:
			return nil, c.fail(errs.New(errs.UnknownPacket, "unexpected packet awaiting query response"))
		}
	}
}

func (c *Connection) sendQueryPacket(query string) error {
	var ci *proto.ClientInfo
	if c.serverRevision >= proto.RevisionClientInfo {
		ci = &proto.ClientInfo{
			QueryKind:    proto.QueryKindInitial,
			OSUser:       c.cfg.User,
			ClientName:   c.cfg.ClientName,
			VersionMajor: c.cfg.VersionMajor,
			VersionMinor: c.cfg.VersionMinor,
			Revision:     c.cfg.ClientRevision,
		}
	}
	msg := &proto.QueryMsg{
		ClientInfo:  ci,
		Settings:    c.cfg.Settings,
		Stage:       proto.QueryStageComplete,
		Compression: c.cfg.Compress,
		Query:       query,
	}
	if err := msg.Encode(c.w); err != nil {
		return err
	}
	return c.w.Flush()
}

func (c *Connection) sendEmptyData() error {
	msg := &proto.DataMsg{Block: &block.Block{}}
	if err := proto.EncodeData(c.w, msg, c.cfg.Compress); err != nil {
		return err
	}
	return c.w.Flush()
}

// SendDataBlock writes one Data packet body carrying b; used by both the
// insert path (sample header negotiation, batches, terminator) and by a
// higher layer streaming extra input blocks into an in-flight query.
func (c *Connection) SendDataBlock(b *block.Block) error {
	msg := &proto.DataMsg{Block: b}
	if err := proto.EncodeData(c.w, msg, c.cfg.Compress); err != nil {
		return err
	}
	return c.w.Flush()
}
