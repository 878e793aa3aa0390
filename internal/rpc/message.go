package rpc

// MessageType is the first element of every msgpack-rpc message.
type MessageType int

const (
	TypeRequest      MessageType = 0
	TypeResponse     MessageType = 1
	TypeNotification MessageType = 2
)

// Message is one of Request, Response or Notification.
type Message interface {
	Type() MessageType
}

type Request struct {
	ID     uint64
	Method string
	Params []Value
}

type Response struct {
	ID     uint64
	Error  Value
	Result Value
}

type Notification struct {
	Method string
	Params []Value
}

func (Request) Type() MessageType      { return TypeRequest }
func (Response) Type() MessageType     { return TypeResponse }
func (Notification) Type() MessageType { return TypeNotification }

// Failed reports whether the response carries an error payload.
func (r Response) Failed() bool { return !r.Error.IsNil() }
