// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pb

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

var errInvalidUTF8 = errors.New("string field contains invalid UTF-8")

// fieldFunc decodes one known field. It returns handled=false for field
// numbers the message does not define.
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (n int, handled bool, err error)

// unmarshalFields walks b, hands each field to fn and returns the raw bytes
// of every unknown field so they survive a re-encode.
func unmarshalFields(b []byte, fn fieldFunc) (unknown []byte, err error) {
	for len(b) > 0 {
		num, typ, tagLen := protowire.ConsumeTag(b)
		if tagLen < 0 {
			return nil, fmt.Errorf("tag: %w", protowire.ParseError(tagLen))
		}
		n, handled, err := fn(num, typ, b[tagLen:])
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", num, err)
		}
		if !handled {
			n = protowire.ConsumeFieldValue(num, typ, b[tagLen:])
			if n < 0 {
				return nil, fmt.Errorf("field %d: %w", num, protowire.ParseError(n))
			}
			unknown = append(unknown, b[:tagLen+n]...)
		}
		b = b[tagLen+n:]
	}
	return unknown, nil
}

// consumeString decodes a length-delimited string value into dst.
func consumeString(typ protowire.Type, b []byte, dst *string) (int, bool, error) {
	if typ != protowire.BytesType {
		return 0, true, fmt.Errorf("wire type %d, want %d", typ, protowire.BytesType)
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return 0, true, protowire.ParseError(n)
	}
	if !utf8.Valid(v) {
		return 0, true, errInvalidUTF8
	}
	*dst = string(v)
	return n, true, nil
}

// appendString skips empty strings, matching proto3 encoding.
func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}
