// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bankrpc

// Message is a schema-defined record with a binary wire form.
type Message interface {
	// MessageName returns the fully qualified schema name.
	MessageName() string

	// AppendWire appends the wire encoding of the message to b. It never
	// fails: absent fields are encoded as their zero values.
	AppendWire(b []byte) []byte

	// UnmarshalWire replaces the message contents with the decoded bytes.
	UnmarshalWire(b []byte) error
}

// Codec encodes/decodes RPC messages
type Codec interface {
	Encode(m Message) []byte
	Decode(data []byte, m Message) error
}

// WireCodec is the protobuf binary codec used by every transport.
type WireCodec struct{}

func (WireCodec) Encode(m Message) []byte {
	return m.AppendWire(nil)
}

func (WireCodec) Decode(data []byte, m Message) error {
	if err := m.UnmarshalWire(data); err != nil {
		return &DecodeError{Message: m.MessageName(), Err: err}
	}
	return nil
}

// Wire is the default codec.
var Wire Codec = WireCodec{}

// Encode encodes m with the default codec.
func Encode(m Message) []byte { return Wire.Encode(m) }

// Decode decodes data into m with the default codec. Failures are always
// returned as *DecodeError.
func Decode(data []byte, m Message) error { return Wire.Decode(data, m) }
