package proto

import "github.com/chxdb/chxdb/wire"

// ExceptionMsg is one link of a server exception chain (§4.6); Nested
// points at the cause, mirroring has_nested on the wire.
type ExceptionMsg struct {
	Code       int32
	Name       string
	Message    string
	StackTrace string
	Nested     *ExceptionMsg
}

// DecodeException reads a full {code,name,message,stack,has_nested}
// chain, the caller having already consumed the packet tag.
func DecodeException(r *wire.Reader) (*ExceptionMsg, error) {
	head := &ExceptionMsg{}
	cur := head
	for {
		code, err := r.I32()
		if err != nil {
			return nil, err
		}
		name, err := r.String()
		if err != nil {
			return nil, err
		}
		message, err := r.String()
		if err != nil {
			return nil, err
		}
		stack, err := r.String()
		if err != nil {
			return nil, err
		}
		hasNested, err := r.U8()
		if err != nil {
			return nil, err
		}
		cur.Code, cur.Name, cur.Message, cur.StackTrace = code, name, message, stack
		if hasNested == 0 {
			return head, nil
		}
		cur.Nested = &ExceptionMsg{}
		cur = cur.Nested
	}
}
