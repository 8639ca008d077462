// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bankrpc

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
)

// CallState is the lifecycle of one in-flight call.
type CallState int32

const (
	CallPending CallState = iota
	CallCompleted
	CallFailed
	CallCancelled
)

func (s CallState) String() string {
	switch s {
	case CallPending:
		return "pending"
	case CallCompleted:
		return "completed"
	case CallFailed:
		return "failed"
	case CallCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("CallState(%d)", int32(s))
	}
}

// pendingCall settles exactly once.
type pendingCall struct {
	desc  *MethodDescriptor
	body  []byte
	md    Metadata
	state atomic.Int32
}

func (p *pendingCall) settle(to CallState) bool {
	return p.state.CompareAndSwap(int32(CallPending), int32(to))
}

func (p *pendingCall) current() CallState {
	return CallState(p.state.Load())
}

// Invocation is what interceptors see of a unary call. Interceptors must
// not modify it; pass a copy to next instead.
type Invocation struct {
	Descriptor *MethodDescriptor
	Endpoint   string
	Body       []byte
	Metadata   Metadata
}

// Invoker performs the exchange for one unary invocation.
type Invoker func(ctx context.Context, inv *Invocation) ([]byte, error)

// send is the innermost invoker.
func (c *Client) send(ctx context.Context, inv *Invocation) ([]byte, error) {
	return c.transport.Send(ctx, inv.Endpoint, inv.Descriptor.Path(), inv.Body, inv.Metadata)
}

// CallUnary starts a unary call and returns immediately. done is invoked
// exactly once, from another goroutine, with either a response or an error.
//
// Unary calls cannot be cancelled: cancellation of ctx is ignored, only its
// values are kept.
func (c *Client) CallUnary(ctx context.Context, desc *MethodDescriptor, req Message, md Metadata, done func(Message, error)) {
	call := &pendingCall{desc: desc, md: md}

	deliver := func(resp Message, err error) {
		to := CallCompleted
		if err != nil {
			to = CallFailed
		}
		if !call.settle(to) {
			c.redeliveries.Add(1)
			c.logger.Error("dropping second delivery", zap.Stringer("method", desc), zap.Error(ErrAlreadySettled))
			return
		}
		done(resp, err)
	}

	if desc.Kind != Unary {
		go deliver(nil, fmt.Errorf("%w: %s is %s", ErrWrongCallKind, desc, desc.Kind))
		return
	}
	call.body = c.codec.Encode(req)

	go func() {
		inv := &Invocation{
			Descriptor: desc,
			Endpoint:   c.endpoint,
			Body:       call.body,
			Metadata:   call.md,
		}
		raw, err := c.invoker(context.WithoutCancel(ctx), inv)
		if err != nil {
			deliver(nil, asTransportError(desc.Path(), err))
			return
		}
		deliver(c.decode(desc, raw))
	}()
}

// Invoke starts a unary call and returns a Future for its result. It is a
// wrapper over CallUnary.
func (c *Client) Invoke(ctx context.Context, desc *MethodDescriptor, req Message, md Metadata) *Future {
	f := &Future{done: make(chan struct{})}
	c.CallUnary(ctx, desc, req, md, func(resp Message, err error) {
		f.resp, f.err = resp, err
		close(f.done)
	})
	return f
}

// Call makes a unary call and waits for its result. If ctx ends first the
// caller stops waiting, the exchange still completes.
func (c *Client) Call(ctx context.Context, desc *MethodDescriptor, req Message, md Metadata) (Message, error) {
	return c.Invoke(ctx, desc, req, md).Await(ctx)
}

func (c *Client) decode(desc *MethodDescriptor, raw []byte) (Message, error) {
	resp := desc.NewResponse()
	if err := c.codec.Decode(raw, resp); err != nil {
		if !IsDecodeError(err) {
			err = &DecodeError{Message: resp.MessageName(), Err: err}
		}
		return nil, err
	}
	return resp, nil
}

// Future is the result of Invoke.
type Future struct {
	done chan struct{}
	resp Message
	err  error
}

// Done is closed once the result is available.
func (f *Future) Done() <-chan struct{} { return f.done }

// Await blocks until the result is available or ctx ends.
func (f *Future) Await(ctx context.Context) (Message, error) {
	select {
	case <-f.done:
		return f.resp, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Await waits on f and asserts the response type.
func Await[T Message](ctx context.Context, f *Future) (T, error) {
	var zero T
	m, err := f.Await(ctx)
	if err != nil {
		return zero, err
	}
	t, ok := m.(T)
	if !ok {
		return zero, fmt.Errorf("bankrpc: response is %s, want %T", m.MessageName(), zero)
	}
	return t, nil
}

// asTransportError makes sure transport failures reach callers as
// *TransportError.
func asTransportError(path string, err error) error {
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	code := codes.Unknown
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	}
	return &TransportError{Path: path, Code: code, Err: err}
}
