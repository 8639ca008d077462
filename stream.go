// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bankrpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"sync"

	"go.uber.org/zap"
)

// Stream is a server-streaming call. The request is sent on the first Recv.
// A Stream has one consumer; Cancel may be called from anywhere.
type Stream struct {
	client *Client
	call   *pendingCall
	ctx    context.Context
	cancel context.CancelFunc

	openOnce sync.Once

	mu     sync.Mutex
	reader ChunkReader
	err    error
}

// CallStream prepares a server-streaming call and returns immediately.
func (c *Client) CallStream(ctx context.Context, desc *MethodDescriptor, req Message, md Metadata) *Stream {
	sctx, cancel := context.WithCancel(ctx)
	s := &Stream{
		client: c,
		call:   &pendingCall{desc: desc, md: md},
		ctx:    sctx,
		cancel: cancel,
	}
	if desc.Kind != ServerStreaming {
		s.fail(fmt.Errorf("%w: %s is %s", ErrWrongCallKind, desc, desc.Kind))
		return s
	}
	s.call.body = c.codec.Encode(req)
	return s
}

// State reports where the call is in its lifecycle.
func (s *Stream) State() CallState { return s.call.current() }

// Recv returns the next response. It returns io.EOF once the server has
// finished, ErrStreamCancelled after Cancel, or the error that ended the
// stream.
func (s *Stream) Recv() (Message, error) {
	if st := s.call.current(); st != CallPending {
		return nil, s.terminal(st)
	}
	r, err := s.open()
	if err != nil {
		if errors.Is(err, ErrStreamCancelled) {
			return nil, err
		}
		return nil, s.fail(asTransportError(s.call.desc.Path(), err))
	}

	chunk, err := r.Next()
	if err != nil {
		if st := s.call.current(); st == CallCancelled {
			return nil, ErrStreamCancelled
		}
		if errors.Is(err, io.EOF) {
			if s.call.settle(CallCompleted) {
				s.client.logger.Debug("stream finished", zap.Stringer("method", s.call.desc))
				s.release()
			}
			return nil, s.terminal(s.call.current())
		}
		return nil, s.fail(asTransportError(s.call.desc.Path(), err))
	}

	msg, err := s.client.decode(s.call.desc, chunk)
	if err != nil {
		return nil, s.fail(err)
	}
	return msg, nil
}

// Cancel stops the stream and releases the transport. Cancelling a finished
// or already cancelled stream does nothing.
func (s *Stream) Cancel() {
	if !s.call.settle(CallCancelled) {
		return
	}
	s.client.logger.Debug("stream cancelled", zap.Stringer("method", s.call.desc))
	s.release()
}

// All iterates over the remaining responses. Stopping the iteration early
// cancels the stream. A terminal error other than io.EOF is yielded once.
func (s *Stream) All() iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		for {
			m, err := s.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(m, nil) {
				s.Cancel()
				return
			}
		}
	}
}

func (s *Stream) open() (ChunkReader, error) {
	s.openOnce.Do(func() {
		c := s.client
		r, err := c.transport.OpenStream(s.ctx, c.endpoint, s.call.desc.Path(), s.call.body, s.call.md)

		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.err = err
			return
		}
		if s.call.current() == CallCancelled {
			r.Close()
			s.err = ErrStreamCancelled
			return
		}
		s.reader = r
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reader == nil && s.err == nil {
		return nil, ErrStreamCancelled
	}
	return s.reader, s.err
}

// fail settles the stream with err unless it has already ended.
func (s *Stream) fail(err error) error {
	s.mu.Lock()
	if s.call.current() == CallPending {
		s.err = err
	}
	s.mu.Unlock()
	if !s.call.settle(CallFailed) {
		return s.terminal(s.call.current())
	}
	s.client.logger.Debug("stream failed", zap.Stringer("method", s.call.desc), zap.Error(err))
	s.release()
	return err
}

func (s *Stream) terminal(st CallState) error {
	switch st {
	case CallCancelled:
		return ErrStreamCancelled
	case CallCompleted:
		return io.EOF
	default:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.err
	}
}

func (s *Stream) release() {
	s.cancel()
	s.mu.Lock()
	r := s.reader
	s.reader = nil
	s.mu.Unlock()
	if r != nil {
		r.Close()
	}
}
