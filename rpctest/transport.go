// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package rpctest provides a scriptable bankrpc.Transport for tests.
package rpctest

import (
	"context"
	"errors"
	"io"
	"sync"

	"google.golang.org/grpc/codes"

	"github.com/luxfi/bankrpc"
)

// Request records one exchange seen by a Transport.
type Request struct {
	Endpoint string
	Path     string
	Body     []byte
	Metadata bankrpc.Metadata
}

// Transport answers calls from the functions set on it. Unset functions
// fail the call with codes.Unimplemented.
type Transport struct {
	SendFunc   func(ctx context.Context, req Request) ([]byte, error)
	StreamFunc func(ctx context.Context, req Request) (bankrpc.ChunkReader, error)

	mu       sync.Mutex
	requests []Request
	closed   bool
}

// Requests returns every request seen so far.
func (t *Transport) Requests() []Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Request, len(t.requests))
	copy(out, t.requests)
	return out
}

func (t *Transport) record(endpoint, path string, body []byte, md bankrpc.Metadata) Request {
	req := Request{Endpoint: endpoint, Path: path, Body: append([]byte(nil), body...), Metadata: md}
	t.mu.Lock()
	t.requests = append(t.requests, req)
	t.mu.Unlock()
	return req
}

func (t *Transport) Send(ctx context.Context, endpoint, path string, body []byte, md bankrpc.Metadata) ([]byte, error) {
	req := t.record(endpoint, path, body, md)
	if t.SendFunc == nil {
		return nil, &bankrpc.TransportError{Path: path, Code: codes.Unimplemented, Message: "no SendFunc"}
	}
	return t.SendFunc(ctx, req)
}

func (t *Transport) OpenStream(ctx context.Context, endpoint, path string, body []byte, md bankrpc.Metadata) (bankrpc.ChunkReader, error) {
	req := t.record(endpoint, path, body, md)
	if t.StreamFunc == nil {
		return nil, &bankrpc.TransportError{Path: path, Code: codes.Unimplemented, Message: "no StreamFunc"}
	}
	return t.StreamFunc(ctx, req)
}

func (t *Transport) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (t *Transport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Reply returns a SendFunc answering every call with the encoding of m.
func Reply(m bankrpc.Message) func(context.Context, Request) ([]byte, error) {
	b := bankrpc.Encode(m)
	return func(context.Context, Request) ([]byte, error) {
		return b, nil
	}
}

// Raw returns a SendFunc answering every call with b as is.
func Raw(b []byte) func(context.Context, Request) ([]byte, error) {
	return func(context.Context, Request) ([]byte, error) {
		return b, nil
	}
}

// Fail returns a SendFunc failing every call with a TransportError.
func Fail(code codes.Code, msg string) func(context.Context, Request) ([]byte, error) {
	return func(_ context.Context, req Request) ([]byte, error) {
		return nil, &bankrpc.TransportError{Path: req.Path, Code: code, Message: msg}
	}
}

// Chunks is a ChunkReader over fixed payloads. After the payloads it
// returns Err, or io.EOF when Err is nil. Once closed it returns
// ErrClosed. Next blocks on Block, if set, before each payload.
type Chunks struct {
	Payloads [][]byte
	Err      error
	Block    <-chan struct{}

	mu     sync.Mutex
	next   int
	closes int
	done   chan struct{}
}

// ErrClosed is returned by Chunks.Next after Close.
var ErrClosed = errors.New("rpctest: chunk reader closed")

// NewChunks encodes msgs as a finite stream.
func NewChunks(msgs ...bankrpc.Message) *Chunks {
	c := &Chunks{}
	for _, m := range msgs {
		c.Payloads = append(c.Payloads, bankrpc.Encode(m))
	}
	return c
}

func (c *Chunks) closedCh() chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == nil {
		c.done = make(chan struct{})
	}
	return c.done
}

func (c *Chunks) Next() ([]byte, error) {
	done := c.closedCh()
	if c.Block != nil {
		select {
		case <-c.Block:
		case <-done:
			return nil, ErrClosed
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.done:
		return nil, ErrClosed
	default:
	}
	if c.next < len(c.Payloads) {
		p := c.Payloads[c.next]
		c.next++
		return p, nil
	}
	if c.Err != nil {
		return nil, c.Err
	}
	return nil, io.EOF
}

func (c *Chunks) Close() error {
	done := c.closedCh()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	if c.closes == 1 {
		close(done)
	}
	return nil
}

// Closes reports how many times Close was called.
func (c *Chunks) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}
