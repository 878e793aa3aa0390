package rpc

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/neovim/go-client/msgpack"
)

// Marshal encodes m into its wire form.
func Marshal(m Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes m to w with a single Write call.
func Encode(w io.Writer, m Message) error {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	var err error
	switch msg := m.(type) {
	case Request:
		err = encodeAll(enc,
			Int(int64(TypeRequest)), Uint(msg.ID), String(msg.Method), Array(msg.Params...))
	case *Request:
		return Encode(w, *msg)
	case Response:
		err = encodeAll(enc,
			Int(int64(TypeResponse)), Uint(msg.ID), msg.Error, msg.Result)
	case *Response:
		return Encode(w, *msg)
	case Notification:
		err = encodeAll(enc,
			Int(int64(TypeNotification)), String(msg.Method), Array(msg.Params...))
	case *Notification:
		return Encode(w, *msg)
	default:
		return fmt.Errorf("rpc: cannot encode %T", m)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

func encodeAll(enc *msgpack.Encoder, items ...Value) error {
	if err := enc.PackArrayLen(int64(len(items))); err != nil {
		return err
	}
	for _, item := range items {
		if err := encodeValue(enc, item); err != nil {
			return err
		}
	}
	return nil
}

func encodeValue(enc *msgpack.Encoder, v Value) error {
	switch v.kind {
	case KindNil:
		return enc.PackNil()
	case KindBool:
		return enc.PackBool(v.n != 0)
	case KindInt:
		return enc.PackInt(int64(v.n))
	case KindUint:
		return enc.PackUint(v.n)
	case KindFloat:
		return enc.PackFloat(math.Float64frombits(v.n))
	case KindString:
		return enc.PackString(v.s)
	case KindBinary:
		return enc.PackBinary(v.b)
	case KindExt:
		return enc.PackExtension(int(v.ext), v.b)
	case KindArray:
		if err := enc.PackArrayLen(int64(len(v.arr))); err != nil {
			return err
		}
		for _, item := range v.arr {
			if err := encodeValue(enc, item); err != nil {
				return err
			}
		}
		return nil
	case KindMap:
		if err := enc.PackMapLen(int64(len(v.m))); err != nil {
			return err
		}
		for _, e := range v.m {
			if err := encodeValue(enc, e.Key); err != nil {
				return err
			}
			if err := encodeValue(enc, e.Value); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("rpc: cannot encode value of kind %s", v.kind)
}

// Unmarshal decodes exactly one message from frame. A truncated frame
// yields ErrNeedMoreData; a frame followed by extra bytes is rejected.
func Unmarshal(frame []byte) (Message, error) {
	n, err := frameLen(frame)
	if err != nil {
		return nil, err
	}
	if n != len(frame) {
		return nil, protocolErrorf("%d trailing bytes after message", len(frame)-n)
	}
	v, err := decodeValue(msgpack.NewDecoder(bytes.NewReader(frame)))
	if err != nil {
		return nil, err
	}
	return messageFromValue(v)
}

// DecodeValue decodes a single msgpack object. Used by tests and tools that
// deal with raw values rather than messages.
func DecodeValue(frame []byte) (Value, error) {
	if _, err := frameLen(frame); err != nil {
		return Value{}, err
	}
	return decodeValue(msgpack.NewDecoder(bytes.NewReader(frame)))
}

// EncodeValue encodes a single msgpack object.
func EncodeValue(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(msgpack.NewEncoder(&buf), v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeValue(d *msgpack.Decoder) (Value, error) {
	if err := d.Unpack(); err != nil {
		if errors.Is(err, io.EOF) {
			return Value{}, ErrNeedMoreData
		}
		return Value{}, &ProtocolError{Reason: "undecodable value", Err: err}
	}
	switch d.Type() {
	case msgpack.Nil:
		return Nil(), nil
	case msgpack.Bool:
		return Bool(d.Bool()), nil
	case msgpack.Int:
		return Int(d.Int()), nil
	case msgpack.Uint:
		return Uint(d.Uint()), nil
	case msgpack.Float:
		return Float(d.Float()), nil
	case msgpack.String:
		return String(d.String()), nil
	case msgpack.Binary:
		return Binary(d.Bytes()), nil
	case msgpack.Extension:
		return Ext(int8(d.Extension()), d.Bytes()), nil
	case msgpack.ArrayLen:
		n := d.Len()
		items := make([]Value, 0, min(n, 1024))
		for i := 0; i < n; i++ {
			item, err := decodeValue(d)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return Array(items...), nil
	case msgpack.MapLen:
		n := d.Len()
		entries := make([]MapEntry, 0, min(n, 1024))
		for i := 0; i < n; i++ {
			k, err := decodeValue(d)
			if err != nil {
				return Value{}, err
			}
			v, err := decodeValue(d)
			if err != nil {
				return Value{}, err
			}
			entries = append(entries, MapEntry{Key: k, Value: v})
		}
		return Map(entries...), nil
	default:
		return Value{}, protocolErrorf("unsupported msgpack type %v", d.Type())
	}
}

func messageFromValue(v Value) (Message, error) {
	items, err := v.AsArray()
	if err != nil {
		return nil, &ProtocolError{Reason: "message is not an array", Err: err}
	}
	if len(items) == 0 {
		return nil, protocolErrorf("empty message")
	}
	tag, err := items[0].AsInt()
	if err != nil {
		return nil, &ProtocolError{Reason: "message type", Err: err}
	}
	switch MessageType(tag) {
	case TypeRequest:
		if len(items) != 4 {
			return nil, protocolErrorf("request has %d elements, want 4", len(items))
		}
		id, err := items[1].AsUint()
		if err != nil {
			return nil, &ProtocolError{Reason: "request id", Err: err}
		}
		method, err := items[2].AsString()
		if err != nil {
			return nil, &ProtocolError{Reason: "request method", Err: err}
		}
		params, err := items[3].AsArray()
		if err != nil {
			return nil, &ProtocolError{Reason: "request params", Err: err}
		}
		return Request{ID: id, Method: method, Params: params}, nil
	case TypeResponse:
		if len(items) != 4 {
			return nil, protocolErrorf("response has %d elements, want 4", len(items))
		}
		id, err := items[1].AsUint()
		if err != nil {
			return nil, &ProtocolError{Reason: "response id", Err: err}
		}
		return Response{ID: id, Error: items[2], Result: items[3]}, nil
	case TypeNotification:
		if len(items) != 3 {
			return nil, protocolErrorf("notification has %d elements, want 3", len(items))
		}
		method, err := items[1].AsString()
		if err != nil {
			return nil, &ProtocolError{Reason: "notification method", Err: err}
		}
		params, err := items[2].AsArray()
		if err != nil {
			return nil, &ProtocolError{Reason: "notification params", Err: err}
		}
		return Notification{Method: method, Params: params}, nil
	default:
		return nil, protocolErrorf("unknown message type %d", tag)
	}
}

// Decoder reads messages from a byte stream.
type Decoder struct {
	s *bufio.Scanner
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), MaxFrameSize)
	s.Split(NewSplitter())
	return &Decoder{s: s}
}

// Decode returns the next message. io.EOF marks a clean end of stream. A
// *ProtocolError leaves the decoder usable; any other error is final.
func (d *Decoder) Decode() (Message, error) {
	if !d.s.Scan() {
		if err := d.s.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	return Unmarshal(d.s.Bytes())
}
