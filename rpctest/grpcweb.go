// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpctest

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// WebHandler serves one grpc-web method. It calls send once per response
// message; a unary handler calls it exactly once. A returned error is sent
// as the grpc-status trailer (see status.FromError).
type WebHandler func(r *http.Request, body []byte, send func(payload []byte) error) error

// WebServer is an in-process grpc-web endpoint. It answers in the format
// the request used (binary or text) and base64-encodes each text frame on
// its own, as browsers' servers do.
type WebServer struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]WebHandler
	headers  []http.Header
}

// NewWebServer starts a server with no methods; unknown methods answer
// Unimplemented in a trailers-only response.
func NewWebServer() *WebServer {
	s := &WebServer{handlers: make(map[string]WebHandler)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// Handle registers h for path, e.g. "/proto.Customer/Login".
func (s *WebServer) Handle(path string, h WebHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[path] = h
}

// Headers returns the request headers seen so far.
func (s *WebServer) Headers() []http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]http.Header, len(s.headers))
	copy(out, s.headers)
	return out
}

func (s *WebServer) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	s.headers = append(s.headers, r.Header.Clone())
	h, ok := s.handlers[r.URL.Path]
	s.mu.Unlock()

	contentType := r.Header.Get("Content-Type")
	text := strings.HasPrefix(contentType, "application/grpc-web-text")
	w.Header().Set("Content-Type", contentType)

	if !ok {
		w.Header().Set("Grpc-Status", fmt.Sprint(int(codes.Unimplemented)))
		w.Header().Set("Grpc-Message", url.PathEscape("unknown method "+r.URL.Path))
		w.WriteHeader(http.StatusOK)
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if text {
		if raw, err = base64.StdEncoding.DecodeString(string(raw)); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if len(raw) < 5 || int(binary.BigEndian.Uint32(raw[1:5])) != len(raw)-5 {
		http.Error(w, "malformed grpc-web frame", http.StatusBadRequest)
		return
	}
	body := raw[5:]

	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	write := func(flag byte, payload []byte) error {
		frame := WebFrame(flag, payload)
		if text {
			frame = []byte(base64.StdEncoding.EncodeToString(frame))
		}
		if _, err := w.Write(frame); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	}

	herr := h(r, body, func(payload []byte) error { return write(0x00, payload) })
	st := status.Convert(herr)
	trailer := fmt.Sprintf("grpc-status: %d\r\n", int(st.Code()))
	if st.Message() != "" {
		trailer += "grpc-message: " + url.PathEscape(st.Message()) + "\r\n"
	}
	_ = write(0x80, []byte(trailer))
}

// WebFrame builds one grpc-web frame.
func WebFrame(flag byte, payload []byte) []byte {
	b := make([]byte, 5+len(payload))
	b[0] = flag
	binary.BigEndian.PutUint32(b[1:5], uint32(len(payload)))
	copy(b[5:], payload)
	return b
}
