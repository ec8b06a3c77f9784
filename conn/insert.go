package conn

import (
	"github.com/chxdb/chxdb/errs"
	"github.com/chxdb/chxdb/insert"
	"github.com/chxdb/chxdb/proto"
)

// SendInsert drives the insert path: send the query prefix, await the
// sample-header Data block, then repeatedly hand adapter-built Blocks to
// the server until the empty terminator, and finally await EndOfStream
// (§4.7, §4.8, §6's sendInsert). It returns the total number of rows
// written.
func (c *Connection) SendInsert(query string, source insert.RowSource) (int64, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.st != StateIdle {
		return 0, errs.New(errs.ProtocolViolation, "SendInsert requires an Idle connection")
	}
	if err := c.sendQueryPacket(query); err != nil {
		return 0, c.fail(err)
	}

	c.st = StateAwaitingSampleHeader
	msg, err := proto.ReadServerMessage(c.r, c.cfg.Compress)
	if err != nil {
		return 0, c.fail(err)
	}
	switch msg.Kind {
	case proto.ServerException:
		c.st = StateIdle
		return 0, toServerException(msg.Exception)
	case proto.ServerData:
		// sample header received, proceed below
	default:
		return 0, c.fail(errs.New(errs.ProtocolViolation, "expected sample-header Data for insert"))
	}

	header := msg.Data.Block
	c.st = StateSendingInsertData
	adapter := insert.NewAdapter(header, source)

	var totalRows int64
	for {
		batch, more, err := adapter.NextBatch()
		if err != nil {
			return totalRows, c.fail(err)
		}
		if !more {
			break
		}
		if err := c.SendDataBlock(batch); err != nil {
			return totalRows, c.fail(err)
		}
		if batch.NumRows() == 0 {
			break
		}
		totalRows += int64(batch.NumRows())
	}

	c.st = StateAwaitingEndOfStream
	end, err := proto.ReadServerMessage(c.r, c.cfg.Compress)
	if err != nil {
		return totalRows, c.fail(err)
	}
	switch end.Kind {
	case proto.ServerEndOfStream:
		c.st = StateIdle
		return totalRows, nil
	case proto.ServerException:
		c.st = StateIdle
		return totalRows, toServerException(end.Exception)
	default:
		return totalRows, c.fail(errs.New(errs.ProtocolViolation, "expected EndOfStream after insert data"))
	}
}
