// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bankrpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc/codes"
)

const (
	contentTypeWebProto = "application/grpc-web+proto"
	contentTypeWebText  = "application/grpc-web-text"

	defaultHTTPTimeout = 30 * time.Second
)

// newHTTPClient creates the HTTP client used when the caller does not
// supply one.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: http.DefaultTransport.(*http.Transport).Clone(),
	}
}

// CleanlyCloseBody drains and closes an HTTP response body to prevent
// HTTP/2 GOAWAY errors caused by closing bodies with unread data.
// See: https://github.com/golang/go/issues/46071
func CleanlyCloseBody(body io.ReadCloser) error {
	if body == nil {
		return nil
	}
	// Drain any remaining data to allow connection reuse
	_, _ = io.Copy(io.Discard, body)
	return body.Close()
}

// grpcWebTransport speaks the grpc-web protocol over plain HTTP.
type grpcWebTransport struct {
	unary  *http.Client
	stream *http.Client
	text   bool
}

func newGRPCWebTransport(o *dialOptions) (Transport, error) {
	hc := o.httpClient
	if hc == nil {
		hc = newHTTPClient(o.timeout)
	}
	// Client.Timeout covers reading the body, which would cut long streams.
	sc := *hc
	sc.Timeout = 0
	return &grpcWebTransport{unary: hc, stream: &sc, text: o.textFormat}, nil
}

func (t *grpcWebTransport) Send(ctx context.Context, endpoint, path string, body []byte, md Metadata) ([]byte, error) {
	resp, headerStatus, err := t.post(ctx, t.unary, endpoint, path, body, md)
	if err != nil {
		return nil, err
	}
	defer CleanlyCloseBody(resp.Body)

	fr := newFrameReader(t.body(resp))
	var msg []byte
	got := false
	for {
		flag, payload, err := fr.next()
		if errors.Is(err, io.EOF) {
			if err := endOfBody(path, resp, headerStatus); err != nil {
				return nil, err
			}
			break
		}
		if err != nil {
			return nil, readError(ctx, path, err)
		}
		if flag&frameTrailer != 0 {
			if err := trailerFrame(path, payload); err != nil {
				return nil, err
			}
			break
		}
		if flag != frameData {
			return nil, &TransportError{Path: path, Code: codes.Unimplemented, Message: "compressed frames are not supported"}
		}
		if got {
			return nil, &TransportError{Path: path, Code: codes.Internal, Message: "more than one response message for unary call"}
		}
		msg, got = payload, true
	}
	if !got {
		return nil, &TransportError{Path: path, Code: codes.Internal, Message: "no response message"}
	}
	return msg, nil
}

func (t *grpcWebTransport) OpenStream(ctx context.Context, endpoint, path string, body []byte, md Metadata) (ChunkReader, error) {
	resp, headerStatus, err := t.post(ctx, t.stream, endpoint, path, body, md)
	if err != nil {
		return nil, err
	}
	return &webChunkReader{
		ctx:          ctx,
		path:         path,
		resp:         resp,
		frames:       newFrameReader(t.body(resp)),
		headerStatus: headerStatus,
	}, nil
}

func (t *grpcWebTransport) Close() error {
	t.unary.CloseIdleConnections()
	return nil
}

func (t *grpcWebTransport) body(resp *http.Response) io.Reader {
	if t.text {
		return newTextReader(resp.Body)
	}
	return resp.Body
}

// post issues the request. headerStatus reports a trailers-only response
// carrying grpc-status 0 in the HTTP headers.
func (t *grpcWebTransport) post(ctx context.Context, hc *http.Client, endpoint, path string, body []byte, md Metadata) (*http.Response, bool, error) {
	frame := appendFrame(nil, frameData, body)
	contentType := contentTypeWebProto
	var payload io.Reader = bytes.NewReader(frame)
	if t.text {
		contentType = contentTypeWebText
		payload = strings.NewReader(base64.StdEncoding.EncodeToString(frame))
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, JoinURL(endpoint, path), payload)
	if err != nil {
		return nil, false, &TransportError{Path: path, Code: codes.Internal, Message: "failed to create request", Err: err}
	}
	md.Range(func(k, v string) bool {
		request.Header.Add(k, v)
		return true
	})
	request.Header.Set("Content-Type", contentType)
	request.Header.Set("Accept", contentType)
	request.Header.Set("X-Grpc-Web", "1")
	request.Header.Set("X-User-Agent", "grpc-web-go/bankrpc")

	resp, err := hc.Do(request)
	if err != nil {
		return nil, false, readError(ctx, path, err)
	}

	// Return an error for any non successful status code
	if resp.StatusCode != http.StatusOK {
		CleanlyCloseBody(resp.Body)
		return nil, false, &TransportError{
			Path:       path,
			Code:       httpStatusCode(resp.StatusCode),
			HTTPStatus: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
		}
	}

	code, msg, ok, err := statusFromHeader(resp.Header)
	if err != nil {
		CleanlyCloseBody(resp.Body)
		return nil, false, &TransportError{Path: path, Code: codes.Internal, Err: err}
	}
	if ok && code != codes.OK {
		CleanlyCloseBody(resp.Body)
		return nil, false, &TransportError{Path: path, Code: code, HTTPStatus: resp.StatusCode, Message: msg}
	}
	return resp, ok, nil
}

// webChunkReader yields data frames of a streaming response.
type webChunkReader struct {
	ctx          context.Context
	path         string
	resp         *http.Response
	frames       *frameReader
	headerStatus bool
	done         bool
	closeOnce    sync.Once
}

func (r *webChunkReader) Next() ([]byte, error) {
	for !r.done {
		flag, payload, err := r.frames.next()
		if errors.Is(err, io.EOF) {
			r.done = true
			if err := endOfBody(r.path, r.resp, r.headerStatus); err != nil {
				return nil, err
			}
			break
		}
		if err != nil {
			return nil, readError(r.ctx, r.path, err)
		}
		if flag&frameTrailer != 0 {
			r.done = true
			if err := trailerFrame(r.path, payload); err != nil {
				return nil, err
			}
			break
		}
		if flag != frameData {
			return nil, &TransportError{Path: r.path, Code: codes.Unimplemented, Message: "compressed frames are not supported"}
		}
		return payload, nil
	}
	return nil, io.EOF
}

// Close does not drain: an open stream may never end on its own.
func (r *webChunkReader) Close() error {
	var err error
	r.closeOnce.Do(func() { err = r.resp.Body.Close() })
	return err
}

func trailerFrame(path string, payload []byte) error {
	h, err := parseTrailer(payload)
	if err != nil {
		return &TransportError{Path: path, Code: codes.Internal, Err: err}
	}
	code, msg, ok, err := statusFromHeader(h)
	if err != nil {
		return &TransportError{Path: path, Code: codes.Internal, Err: err}
	}
	if !ok {
		return &TransportError{Path: path, Code: codes.Internal, Message: "trailer without grpc-status"}
	}
	if code != codes.OK {
		return &TransportError{Path: path, Code: code, Message: msg}
	}
	return nil
}

// endOfBody handles a body that ended without a trailer frame. Only a
// trailers-only response or real HTTP trailers make that valid.
func endOfBody(path string, resp *http.Response, headerStatus bool) error {
	if headerStatus {
		return nil
	}
	code, msg, ok, err := statusFromHeader(resp.Trailer)
	if err != nil {
		return &TransportError{Path: path, Code: codes.Internal, Err: err}
	}
	if !ok {
		return &TransportError{Path: path, Code: codes.Internal, Message: "response ended without grpc-status"}
	}
	if code != codes.OK {
		return &TransportError{Path: path, Code: code, Message: msg}
	}
	return nil
}

func statusFromHeader(h http.Header) (codes.Code, string, bool, error) {
	raw := h.Get("Grpc-Status")
	if raw == "" {
		return codes.OK, "", false, nil
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return codes.Unknown, "", false, errors.New("grpc-web: invalid grpc-status " + strconv.Quote(raw))
	}
	msg := h.Get("Grpc-Message")
	if unescaped, err := url.PathUnescape(msg); err == nil {
		msg = unescaped
	}
	return codes.Code(n), msg, true, nil
}

// readError classifies a failure to reach the server or read its reply.
func readError(ctx context.Context, path string, err error) error {
	code := codes.Unavailable
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(ctx.Err(), context.Canceled):
		code = codes.Canceled
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, errFrameTooLarge):
		code = codes.Internal
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		code = codes.DeadlineExceeded
	}
	return &TransportError{Path: path, Code: code, Err: err}
}
