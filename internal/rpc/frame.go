package rpc

import (
	"bufio"
	"encoding/binary"
	"io"
)

// MaxFrameSize bounds a single message on the wire.
const MaxFrameSize = 64 << 20

// frameLen returns the encoded length of the first msgpack object in p.
// It walks headers only; payloads are skipped. The msgpack container
// headers are the only framing the protocol has, and go-client's decoder
// does not report how many bytes it consumed.
func frameLen(p []byte) (int, error) {
	var w frameWalker
	return w.walk(p)
}

// frameWalker measures one msgpack object across calls. After
// ErrNeedMoreData it remembers the objects already walked, so a frame
// arriving in pieces is scanned once in total. The bytes before pos must
// not change between calls.
type frameWalker struct {
	pos       int
	remaining int // objects still to walk; zero when no frame is in progress
}

func (w *frameWalker) reset() { *w = frameWalker{} }

func (w *frameWalker) walk(p []byte) (int, error) {
	if w.remaining == 0 {
		w.remaining = 1
	}
	for w.remaining > 0 {
		next, objects, err := objectHeader(p, w.pos)
		if err != nil {
			if err != ErrNeedMoreData {
				w.reset()
			}
			return 0, err
		}
		w.pos = next
		w.remaining += objects - 1
	}
	n := w.pos
	w.reset()
	return n, nil
}

// objectHeader decodes the header of the object at pos. It returns the
// offset past the header and any opaque payload, and how many nested
// objects follow.
func objectHeader(p []byte, pos int) (next, objects int, err error) {
	if pos >= len(p) {
		return 0, 0, ErrNeedMoreData
	}
	c := p[pos]
	var (
		header  int   // bytes of header including c
		payload int64 // opaque bytes following the header
		nested  int64
	)
	switch {
	case c <= 0x7f, c >= 0xe0, c == 0xc0, c == 0xc2, c == 0xc3:
		header = 1
	case c >= 0x80 && c <= 0x8f:
		header, nested = 1, 2*int64(c&0x0f)
	case c >= 0x90 && c <= 0x9f:
		header, nested = 1, int64(c&0x0f)
	case c >= 0xa0 && c <= 0xbf:
		header, payload = 1, int64(c&0x1f)
	case c == 0xc1:
		return 0, 0, &FramingError{Offset: pos, Byte: c}
	default:
		size, ok := fixedHeader[c]
		if !ok {
			return 0, 0, &FramingError{Offset: pos, Byte: c}
		}
		header = 1 + size.lenBytes + size.extra
		if pos+1+size.lenBytes > len(p) {
			return 0, 0, ErrNeedMoreData
		}
		n := readLen(p[pos+1 : pos+1+size.lenBytes])
		switch size.kind {
		case sizedPayload:
			payload = n + int64(size.fixed)
		case sizedObjects:
			nested = n * int64(size.perItem)
		case sizedFixed:
			payload = int64(size.fixed)
		}
	}
	if payload > MaxFrameSize || nested > MaxFrameSize {
		return 0, 0, &FramingError{Offset: pos, Byte: c}
	}
	end := int64(pos) + int64(header) + payload
	if end > int64(len(p)) {
		return 0, 0, ErrNeedMoreData
	}
	return int(end), int(nested), nil
}

type sizeKind int

const (
	sizedFixed sizeKind = iota
	sizedPayload
	sizedObjects
)

type headerSize struct {
	kind     sizeKind
	lenBytes int // width of the big-endian length field
	extra    int // bytes between the length field and the payload (ext type)
	fixed    int // fixed payload size, or payload bytes on top of the length
	perItem  int // objects per counted element (2 for maps)
}

var fixedHeader = map[byte]headerSize{
	0xc4: {kind: sizedPayload, lenBytes: 1},
	0xc5: {kind: sizedPayload, lenBytes: 2},
	0xc6: {kind: sizedPayload, lenBytes: 4},
	0xc7: {kind: sizedPayload, lenBytes: 1, extra: 1},
	0xc8: {kind: sizedPayload, lenBytes: 2, extra: 1},
	0xc9: {kind: sizedPayload, lenBytes: 4, extra: 1},
	0xca: {kind: sizedFixed, fixed: 4},
	0xcb: {kind: sizedFixed, fixed: 8},
	0xcc: {kind: sizedFixed, fixed: 1},
	0xcd: {kind: sizedFixed, fixed: 2},
	0xce: {kind: sizedFixed, fixed: 4},
	0xcf: {kind: sizedFixed, fixed: 8},
	0xd0: {kind: sizedFixed, fixed: 1},
	0xd1: {kind: sizedFixed, fixed: 2},
	0xd2: {kind: sizedFixed, fixed: 4},
	0xd3: {kind: sizedFixed, fixed: 8},
	0xd4: {kind: sizedFixed, fixed: 2},
	0xd5: {kind: sizedFixed, fixed: 3},
	0xd6: {kind: sizedFixed, fixed: 5},
	0xd7: {kind: sizedFixed, fixed: 9},
	0xd8: {kind: sizedFixed, fixed: 17},
	0xd9: {kind: sizedPayload, lenBytes: 1},
	0xda: {kind: sizedPayload, lenBytes: 2},
	0xdb: {kind: sizedPayload, lenBytes: 4},
	0xdc: {kind: sizedObjects, lenBytes: 2, perItem: 1},
	0xdd: {kind: sizedObjects, lenBytes: 4, perItem: 1},
	0xde: {kind: sizedObjects, lenBytes: 2, perItem: 2},
	0xdf: {kind: sizedObjects, lenBytes: 4, perItem: 2},
}

func readLen(p []byte) int64 {
	switch len(p) {
	case 1:
		return int64(p[0])
	case 2:
		return int64(binary.BigEndian.Uint16(p))
	case 4:
		return int64(binary.BigEndian.Uint32(p))
	}
	return 0
}

// SplitFrames is a bufio.SplitFunc yielding one msgpack object per token.
// It measures every frame from its first byte; a Decoder uses NewSplitter
// instead.
func SplitFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	var w frameWalker
	return w.split(data, atEOF)
}

// NewSplitter returns a bufio.SplitFunc like SplitFrames that resumes
// an incomplete frame where the previous call stopped. It must be used
// by a single bufio.Scanner.
func NewSplitter() bufio.SplitFunc {
	w := &frameWalker{}
	return w.split
}

func (w *frameWalker) split(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	n, err := w.walk(data)
	switch {
	case err == nil:
		return n, data[:n], nil
	case err == ErrNeedMoreData:
		if atEOF {
			w.reset()
			return 0, nil, io.ErrUnexpectedEOF
		}
		return 0, nil, nil
	default:
		return 0, nil, err
	}
}
