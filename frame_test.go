// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bankrpc

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"google.golang.org/grpc/codes"
)

func encodeTrailer(h http.Header) []byte {
	var buf bytes.Buffer
	for k, vs := range h {
		for _, v := range vs {
			fmt.Fprintf(&buf, "%s: %s\r\n", strings.ToLower(k), v)
		}
	}
	return buf.Bytes()
}

func TestFrameRoundTrip(t *testing.T) {
	var body []byte
	body = appendFrame(body, frameData, []byte("one"))
	body = appendFrame(body, frameData, nil)
	body = appendFrame(body, frameTrailer, []byte("grpc-status: 0\r\n"))

	fr := newFrameReader(bytes.NewReader(body))
	want := []struct {
		flag    byte
		payload string
	}{
		{frameData, "one"},
		{frameData, ""},
		{frameTrailer, "grpc-status: 0\r\n"},
	}
	for i, w := range want {
		flag, payload, err := fr.next()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if flag != w.flag || string(payload) != w.payload {
			t.Fatalf("frame %d: got (%#x, %q), want (%#x, %q)", i, flag, payload, w.flag, w.payload)
		}
	}
	if _, _, err := fr.next(); err != io.EOF {
		t.Fatalf("after last frame: got %v, want io.EOF", err)
	}
}

func TestFrameTruncated(t *testing.T) {
	full := appendFrame(nil, frameData, []byte("payload"))
	for _, n := range []int{3, frameHeaderLen + 2} {
		fr := newFrameReader(bytes.NewReader(full[:n]))
		if _, _, err := fr.next(); !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("cut at %d: got %v, want io.ErrUnexpectedEOF", n, err)
		}
	}
}

func TestFrameTooLarge(t *testing.T) {
	hdr := []byte{frameData, 0xff, 0xff, 0xff, 0xff}
	fr := newFrameReader(bytes.NewReader(hdr))
	if _, _, err := fr.next(); !errors.Is(err, errFrameTooLarge) {
		t.Fatalf("got %v, want errFrameTooLarge", err)
	}
}

func TestParseTrailer(t *testing.T) {
	h := http.Header{}
	h.Set("Grpc-Status", "16")
	h.Set("Grpc-Message", "bad%20password")
	parsed, err := parseTrailer(encodeTrailer(h))
	if err != nil {
		t.Fatalf("parseTrailer: %v", err)
	}
	code, msg, ok, err := statusFromHeader(parsed)
	if err != nil || !ok {
		t.Fatalf("statusFromHeader: ok=%v err=%v", ok, err)
	}
	if code != codes.Unauthenticated || msg != "bad password" {
		t.Fatalf("got (%s, %q)", code, msg)
	}

	if _, err := parseTrailer([]byte("no colon here\r\n")); err == nil {
		t.Fatal("expected error for malformed trailer line")
	}
}

func TestStatusFromHeaderInvalid(t *testing.T) {
	h := http.Header{}
	h.Set("Grpc-Status", "abc")
	if _, _, _, err := statusFromHeader(h); err == nil {
		t.Fatal("expected error for non-numeric grpc-status")
	}
	if _, _, ok, err := statusFromHeader(http.Header{}); ok || err != nil {
		t.Fatalf("empty header: ok=%v err=%v", ok, err)
	}
}

func TestTextReaderPaddingMidStream(t *testing.T) {
	a := appendFrame(nil, frameData, []byte("xy"))
	b := appendFrame(nil, frameTrailer, []byte("grpc-status: 0\r\n"))
	// Each frame encoded on its own, so "=" padding lands in the middle.
	text := base64.StdEncoding.EncodeToString(a) + base64.StdEncoding.EncodeToString(b)
	if !strings.Contains(text[:len(text)-4], "=") {
		t.Fatal("fixture should carry padding before the end")
	}

	got, err := io.ReadAll(newTextReader(strings.NewReader(text)))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if want := append(append([]byte(nil), a...), b...); !bytes.Equal(got, want) {
		t.Fatalf("got %x, want %x", got, want)
	}
}

func TestTextReaderErrors(t *testing.T) {
	if _, err := io.ReadAll(newTextReader(strings.NewReader("QUJD!"))); err == nil {
		t.Fatal("expected error for a partial quantum")
	}
	if _, err := io.ReadAll(newTextReader(strings.NewReader("!!!!"))); err == nil {
		t.Fatal("expected error for invalid base64")
	}
}

func TestHTTPStatusCode(t *testing.T) {
	tests := map[int]codes.Code{
		400: codes.Internal,
		401: codes.Unauthenticated,
		403: codes.PermissionDenied,
		404: codes.Unimplemented,
		429: codes.Unavailable,
		503: codes.Unavailable,
		500: codes.Unknown,
	}
	for status, want := range tests {
		if got := httpStatusCode(status); got != want {
			t.Errorf("httpStatusCode(%d) = %s, want %s", status, got, want)
		}
	}
}

func TestPendingCallSettlesOnce(t *testing.T) {
	var p pendingCall
	if !p.settle(CallCompleted) {
		t.Fatal("first settle should win")
	}
	for _, to := range []CallState{CallFailed, CallCancelled, CallCompleted} {
		if p.settle(to) {
			t.Fatalf("settle(%s) after completion should lose", to)
		}
	}
	if p.current() != CallCompleted {
		t.Fatalf("state = %s", p.current())
	}
}
