// Package errs defines the closed set of error kinds the protocol engine
// can surface (§7) and the two concrete error types that carry them. It
// sits below every other package in this module (wire, types, block,
// proto, conn, insert, and the root client facade) so each can construct
// and classify these errors without an import cycle back to the facade.
package errs

import "fmt"

// Kind is one of the closed set of error conditions described in §7.
type Kind int

const (
	MalformedFrame Kind = iota
	UnknownPacket
	UnknownType
	TypeMismatch
	DomainError
	ChecksumMismatch
	ServerException
	Timeout
	ConnectionClosed
	ProtocolViolation
)

func (k Kind) String() string {
	switch k {
	case MalformedFrame:
		return "malformed frame"
	case UnknownPacket:
		return "unknown packet"
	case UnknownType:
		return "unknown type"
	case TypeMismatch:
		return "type mismatch"
	case DomainError:
		return "domain error"
	case ChecksumMismatch:
		return "checksum mismatch"
	case ServerException:
		return "server exception"
	case Timeout:
		return "timeout"
	case ConnectionClosed:
		return "connection closed"
	case ProtocolViolation:
		return "protocol violation"
	default:
		return "unknown error kind"
	}
}

// Error is the concrete error type for every Kind except ServerException,
// which is carried by *Exception instead.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("chxdb: %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("chxdb: %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, target) match by kind: target matches when it
// implements ErrKind() Kind (as *Error and *Exception do) and reports the
// same Kind.
func (e *Error) Is(target error) bool {
	if k, ok := target.(interface{ ErrKind() Kind }); ok {
		return e.Kind == k.ErrKind()
	}
	return false
}

func (e *Error) ErrKind() Kind { return e.Kind }

// New builds an *Error of the given kind.
func New(k Kind, msg string) *Error { return &Error{Kind: k, Msg: msg} }

// Wrap builds an *Error of the given kind around a lower-level cause.
func Wrap(k Kind, msg string, err error) *Error {
	if err == nil {
		return New(k, msg)
	}
	return &Error{Kind: k, Msg: msg, Err: err}
}

// Exception is one link in the chain the server sends back for a failed
// query (§4.6): code, name, message, stack trace, linked to the next by
// has_nested on the wire.
type Exception struct {
	Code       int32
	Name       string
	Message    string
	StackTrace string
	Nested     *Exception
}

func (e *Exception) Error() string {
	if e.Nested != nil {
		return fmt.Sprintf("%s (code %d): %s\n%s", e.Name, e.Code, e.Message, e.Nested.Error())
	}
	return fmt.Sprintf("%s (code %d): %s", e.Name, e.Code, e.Message)
}

func (e *Exception) Unwrap() error {
	if e.Nested == nil {
		return nil
	}
	return e.Nested
}

func (e *Exception) ErrKind() Kind { return ServerException }
