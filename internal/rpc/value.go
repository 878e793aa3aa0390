package rpc

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindUint // only for values that do not fit in an int64
	KindFloat
	KindString
	KindBinary
	KindArray
	KindMap
	KindExt
)

var kindNames = [...]string{
	KindNil:    "nil",
	KindBool:   "bool",
	KindInt:    "int",
	KindUint:   "uint",
	KindFloat:  "float",
	KindString: "string",
	KindBinary: "binary",
	KindArray:  "array",
	KindMap:    "map",
	KindExt:    "ext",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a dynamically typed msgpack value. The zero Value is nil.
type Value struct {
	kind Kind
	n    uint64 // bool, int, uint and float bits
	s    string
	b    []byte // binary and ext payloads
	arr  []Value
	m    []MapEntry
	ext  int8
}

// MapEntry is one key/value pair of a map Value. Order is preserved.
type MapEntry struct {
	Key   Value
	Value Value
}

func Nil() Value { return Value{} }

func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.n = 1
	}
	return v
}

func Int(i int64) Value { return Value{kind: KindInt, n: uint64(i)} }

// Uint stores u as an int when it fits, so equal numbers compare equal no
// matter how they were encoded.
func Uint(u uint64) Value {
	if u <= math.MaxInt64 {
		return Int(int64(u))
	}
	return Value{kind: KindUint, n: u}
}

func Float(f float64) Value { return Value{kind: KindFloat, n: math.Float64bits(f)} }

func String(s string) Value { return Value{kind: KindString, s: s} }

func Binary(p []byte) Value {
	return Value{kind: KindBinary, b: append([]byte{}, p...)}
}

func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, arr: items}
}

func Map(entries ...MapEntry) Value {
	if entries == nil {
		entries = []MapEntry{}
	}
	return Value{kind: KindMap, m: entries}
}

// Dict builds a string-keyed map with keys in sorted order.
func Dict(fields map[string]Value) Value {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entries := make([]MapEntry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, MapEntry{Key: String(k), Value: fields[k]})
	}
	return Map(entries...)
}

// Ext builds an extension value. Neovim uses these for Buffer, Window and
// Tabpage handles.
func Ext(code int8, data []byte) Value {
	return Value{kind: KindExt, ext: code, b: append([]byte{}, data...)}
}

// Strings is a convenience for an array of string values.
func Strings(items ...string) Value {
	out := make([]Value, len(items))
	for i, s := range items {
		out[i] = String(s)
	}
	return Array(out...)
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNil() bool { return v.kind == KindNil }

func mismatch(want string, v Value) error {
	return &ProtocolError{Reason: fmt.Sprintf("expected %s, got %s", want, v.kind)}
}

func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, mismatch("bool", v)
	}
	return v.n != 0, nil
}

func (v Value) AsInt() (int64, error) {
	if v.kind != KindInt {
		return 0, mismatch("int", v)
	}
	return int64(v.n), nil
}

func (v Value) AsUint() (uint64, error) {
	switch v.kind {
	case KindInt:
		if int64(v.n) < 0 {
			return 0, &ProtocolError{Reason: fmt.Sprintf("expected unsigned int, got %d", int64(v.n))}
		}
		return v.n, nil
	case KindUint:
		return v.n, nil
	default:
		return 0, mismatch("uint", v)
	}
}

func (v Value) AsFloat() (float64, error) {
	if v.kind != KindFloat {
		return 0, mismatch("float", v)
	}
	return math.Float64frombits(v.n), nil
}

func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", mismatch("string", v)
	}
	return v.s, nil
}

func (v Value) AsBinary() ([]byte, error) {
	if v.kind != KindBinary {
		return nil, mismatch("binary", v)
	}
	return v.b, nil
}

func (v Value) AsArray() ([]Value, error) {
	if v.kind != KindArray {
		return nil, mismatch("array", v)
	}
	return v.arr, nil
}

func (v Value) AsMap() ([]MapEntry, error) {
	if v.kind != KindMap {
		return nil, mismatch("map", v)
	}
	return v.m, nil
}

func (v Value) AsExt() (int8, []byte, error) {
	if v.kind != KindExt {
		return 0, nil, mismatch("ext", v)
	}
	return v.ext, v.b, nil
}

// Lookup finds a string key in a map Value.
func (v Value) Lookup(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	for _, e := range v.m {
		if e.Key.kind == KindString && e.Key.s == key {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Equal reports deep equality. Floats compare by bit pattern.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindBool, KindInt, KindUint, KindFloat:
		return v.n == o.n
	case KindString:
		return v.s == o.s
	case KindBinary:
		return bytes.Equal(v.b, o.b)
	case KindExt:
		return v.ext == o.ext && bytes.Equal(v.b, o.b)
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(o.m) {
			return false
		}
		for i := range v.m {
			if !v.m[i].Key.Equal(o.m[i].Key) || !v.m[i].Value.Equal(o.m[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders the value for logs.
func (v Value) String() string {
	var b strings.Builder
	v.format(&b)
	return b.String()
}

func (v Value) format(b *strings.Builder) {
	switch v.kind {
	case KindNil:
		b.WriteString("nil")
	case KindBool:
		b.WriteString(strconv.FormatBool(v.n != 0))
	case KindInt:
		b.WriteString(strconv.FormatInt(int64(v.n), 10))
	case KindUint:
		b.WriteString(strconv.FormatUint(v.n, 10))
	case KindFloat:
		b.WriteString(strconv.FormatFloat(math.Float64frombits(v.n), 'g', -1, 64))
	case KindString:
		b.WriteString(strconv.Quote(v.s))
	case KindBinary:
		fmt.Fprintf(b, "bin(%x)", v.b)
	case KindExt:
		fmt.Fprintf(b, "ext(%d,%x)", v.ext, v.b)
	case KindArray:
		b.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				b.WriteString(", ")
			}
			item.format(b)
		}
		b.WriteByte(']')
	case KindMap:
		b.WriteByte('{')
		for i, e := range v.m {
			if i > 0 {
				b.WriteString(", ")
			}
			e.Key.format(b)
			b.WriteString(": ")
			e.Value.format(b)
		}
		b.WriteByte('}')
	}
}
