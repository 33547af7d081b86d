package proto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec frames typed payloads into envelopes `{t, id, d}`. JSON travels as
// WebSocket text frames, msgpack as binary frames; both use the json tags.
type Codec interface {
	Name() string
	Binary() bool
	Encode(t string, id uint64, payload any) ([]byte, error)
	Decode(data []byte) (Frame, error)
}

// Frame is a decoded envelope whose payload is decoded lazily, once the
// receiver knows the type.
type Frame struct {
	T  string
	ID uint64

	raw   []byte
	codec Codec
}

// Decode unmarshals the envelope payload into v. An absent payload leaves v
// untouched.
func (f Frame) Decode(v any) error {
	if len(f.raw) == 0 {
		return nil
	}
	switch f.codec.(type) {
	case MsgpackCodec:
		return unmarshalMsgpack(f.raw, v)
	default:
		return json.Unmarshal(f.raw, v)
	}
}

// CodecByName picks a codec from a client-supplied name; unknown names fall
// back to JSON.
func CodecByName(name string) Codec {
	if name == "msgpack" {
		return MsgpackCodec{}
	}
	return JSONCodec{}
}

type JSONCodec struct{}

type jsonEnvelopeOut struct {
	T  string `json:"t"`
	ID uint64 `json:"id,omitempty"`
	D  any    `json:"d,omitempty"`
}

type jsonEnvelopeIn struct {
	T  string          `json:"t"`
	ID uint64          `json:"id,omitempty"`
	D  json.RawMessage `json:"d,omitempty"`
}

func (JSONCodec) Name() string { return "json" }
func (JSONCodec) Binary() bool { return false }

func (JSONCodec) Encode(t string, id uint64, payload any) ([]byte, error) {
	return json.Marshal(jsonEnvelopeOut{T: t, ID: id, D: payload})
}

func (c JSONCodec) Decode(data []byte) (Frame, error) {
	var env jsonEnvelopeIn
	if err := json.Unmarshal(data, &env); err != nil {
		return Frame{}, err
	}
	if env.T == "" {
		return Frame{}, fmt.Errorf("envelope without type")
	}
	if string(env.D) == "null" {
		env.D = nil
	}
	return Frame{T: env.T, ID: env.ID, raw: env.D, codec: c}, nil
}

type MsgpackCodec struct{}

type msgpackEnvelopeOut struct {
	T  string `json:"t"`
	ID uint64 `json:"id,omitempty"`
	D  any    `json:"d,omitempty"`
}

type msgpackEnvelopeIn struct {
	T  string             `json:"t"`
	ID uint64             `json:"id,omitempty"`
	D  msgpack.RawMessage `json:"d,omitempty"`
}

func (MsgpackCodec) Name() string { return "msgpack" }
func (MsgpackCodec) Binary() bool { return true }

func (MsgpackCodec) Encode(t string, id uint64, payload any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(msgpackEnvelopeOut{T: t, ID: id, D: payload}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c MsgpackCodec) Decode(data []byte) (Frame, error) {
	var env msgpackEnvelopeIn
	if err := unmarshalMsgpack(data, &env); err != nil {
		return Frame{}, err
	}
	if env.T == "" {
		return Frame{}, fmt.Errorf("envelope without type")
	}
	return Frame{T: env.T, ID: env.ID, raw: env.D, codec: c}, nil
}

func unmarshalMsgpack(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}
