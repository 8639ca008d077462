// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bankrpc

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/textproto"
	"strings"
)

// grpc-web frame: [1 flag][4 big-endian len][payload]
const (
	frameData      byte = 0x00
	frameTrailer   byte = 0x80
	frameHeaderLen      = 5
	maxFrameLen         = 64 * 1024 * 1024 // 64MB max
)

var errFrameTooLarge = errors.New("grpc-web: frame exceeds 64MB")

func appendFrame(b []byte, flag byte, payload []byte) []byte {
	var hdr [frameHeaderLen]byte
	hdr[0] = flag
	binary.BigEndian.PutUint32(hdr[1:], uint32(len(payload)))
	b = append(b, hdr[:]...)
	return append(b, payload...)
}

// frameReader splits a grpc-web response body into frames.
type frameReader struct {
	r   io.Reader
	hdr [frameHeaderLen]byte
}

func newFrameReader(r io.Reader) *frameReader {
	return &frameReader{r: r}
}

// next returns io.EOF only on a clean frame boundary. A body that ends inside
// a frame yields io.ErrUnexpectedEOF.
func (f *frameReader) next() (byte, []byte, error) {
	if _, err := io.ReadFull(f.r, f.hdr[:]); err != nil {
		return 0, nil, err
	}
	n := binary.BigEndian.Uint32(f.hdr[1:])
	if n > maxFrameLen {
		return 0, nil, errFrameTooLarge
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(f.r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return 0, nil, err
	}
	return f.hdr[0], payload, nil
}

// parseTrailer reads "key: value\r\n" lines from a trailer frame.
func parseTrailer(payload []byte) (http.Header, error) {
	h := make(http.Header)
	sc := bufio.NewScanner(bytes.NewReader(payload))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("grpc-web: malformed trailer line %q", line)
		}
		h.Add(textproto.CanonicalMIMEHeaderKey(strings.TrimSpace(k)), strings.TrimSpace(v))
	}
	return h, sc.Err()
}

// textReader decodes a grpc-web-text body. Servers base64 each frame
// separately, so padding may appear mid-stream; decoding one 4-byte quantum
// at a time handles that.
type textReader struct {
	r   io.Reader
	in  [4]byte
	out [3]byte
	buf []byte
}

func newTextReader(r io.Reader) *textReader {
	return &textReader{r: r}
}

func (t *textReader) Read(p []byte) (int, error) {
	for len(t.buf) == 0 {
		if _, err := io.ReadFull(t.r, t.in[:]); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return 0, fmt.Errorf("grpc-web-text: %w", err)
			}
			return 0, err
		}
		n, err := base64.StdEncoding.Decode(t.out[:], t.in[:])
		if err != nil {
			return 0, fmt.Errorf("grpc-web-text: %w", err)
		}
		t.buf = t.out[:n]
	}
	n := copy(p, t.buf)
	t.buf = t.buf[n:]
	return n, nil
}
