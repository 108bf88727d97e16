package cache

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec names
const (
	CodecJSON    = "json"
	CodecMsgpack = "msgpack"
)

// Codec encodes a whole Options record as one document
type Codec interface {
	Name() string
	Marshal(opts *Options) ([]byte, error)
	Unmarshal(data []byte, opts *Options) error
}

// CodecFor returns the codec registered under name; empty selects JSON
func CodecFor(name string) (Codec, error) {
	switch name {
	case "", CodecJSON:
		return jsonCodec{}, nil
	case CodecMsgpack:
		return msgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return CodecJSON }

func (jsonCodec) Marshal(opts *Options) ([]byte, error) {
	return json.Marshal(opts)
}

func (jsonCodec) Unmarshal(data []byte, opts *Options) error {
	return json.Unmarshal(data, opts)
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string { return CodecMsgpack }

func (msgpackCodec) Marshal(opts *Options) ([]byte, error) {
	return msgpack.Marshal(opts)
}

// Unmarshal decodes integers as int64 and floats as float64 regardless of wire width
func (msgpackCodec) Unmarshal(data []byte, opts *Options) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	return dec.Decode(opts)
}
