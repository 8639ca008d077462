// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bankrpc_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc/codes"

	"github.com/luxfi/bankrpc"
	"github.com/luxfi/bankrpc/pb"
	"github.com/luxfi/bankrpc/rpctest"
)

func TestChainOrder(t *testing.T) {
	var (
		mu    sync.Mutex
		trace []string
	)
	mark := func(name string) bankrpc.Interceptor {
		return func(next bankrpc.Invoker) bankrpc.Invoker {
			return func(ctx context.Context, inv *bankrpc.Invocation) ([]byte, error) {
				mu.Lock()
				trace = append(trace, name)
				mu.Unlock()
				return next(ctx, inv)
			}
		}
	}
	tr := &rpctest.Transport{SendFunc: rpctest.Reply(&pb.LoginResponse{CustomerID: "c-1"})}
	c := dialStub(t, tr, bankrpc.WithInterceptors(mark("outer"), mark("middle")), bankrpc.WithInterceptors(mark("inner")))

	if _, err := c.Call(context.Background(), pb.CustomerLogin, &pb.LoginRequest{}, bankrpc.Metadata{}); err != nil {
		t.Fatalf("Call: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if !slices.Equal(trace, []string{"outer", "middle", "inner"}) {
		t.Fatalf("trace = %v", trace)
	}
}

func TestRequestIDInterceptor(t *testing.T) {
	tr := &rpctest.Transport{SendFunc: rpctest.Reply(&pb.LoginResponse{CustomerID: "c-1"})}
	c := dialStub(t, tr, bankrpc.WithInterceptors(bankrpc.RequestIDInterceptor()))

	md := bankrpc.NewMetadata("authorization", "Bearer t")
	if _, err := c.Call(context.Background(), pb.CustomerLogin, &pb.LoginRequest{}, md); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if _, err := c.Call(context.Background(), pb.CustomerLogin, &pb.LoginRequest{}, md.With(bankrpc.RequestIDHeader, "fixed")); err != nil {
		t.Fatalf("Call: %v", err)
	}

	reqs := tr.Requests()
	first, ok := reqs[0].Metadata.Get(bankrpc.RequestIDHeader)
	if !ok || len(first) != 36 {
		t.Fatalf("generated request id = %q", first)
	}
	if v, _ := reqs[0].Metadata.Get("authorization"); v != "Bearer t" {
		t.Fatalf("caller metadata lost: %q", v)
	}
	if _, ok := md.Get(bankrpc.RequestIDHeader); ok {
		t.Fatal("interceptor modified caller metadata")
	}
	if second, _ := reqs[1].Metadata.Get(bankrpc.RequestIDHeader); second != "fixed" {
		t.Fatalf("caller request id replaced: %q", second)
	}
}

func TestRateLimitInterceptor(t *testing.T) {
	tr := &rpctest.Transport{SendFunc: rpctest.Reply(&pb.LoginResponse{CustomerID: "c-1"})}
	c := dialStub(t, tr, bankrpc.WithInterceptors(bankrpc.RateLimitInterceptor(0.001, 2)))

	for i := range 2 {
		if _, err := c.Call(context.Background(), pb.CustomerLogin, &pb.LoginRequest{}, bankrpc.Metadata{}); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	_, err := c.Call(context.Background(), pb.CustomerLogin, &pb.LoginRequest{}, bankrpc.Metadata{})
	var te *bankrpc.TransportError
	if !errors.As(err, &te) || te.Code != codes.ResourceExhausted {
		t.Fatalf("err = %v, want ResourceExhausted", err)
	}
	if n := len(tr.Requests()); n != 2 {
		t.Fatalf("rejected call reached the transport: %d requests", n)
	}
}

func TestTimeoutInterceptor(t *testing.T) {
	tr := &rpctest.Transport{SendFunc: func(ctx context.Context, _ rpctest.Request) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	c := dialStub(t, tr, bankrpc.WithInterceptors(bankrpc.TimeoutInterceptor(10*time.Millisecond)))

	_, err := c.Call(context.Background(), pb.CustomerLogin, &pb.LoginRequest{}, bankrpc.Metadata{})
	var te *bankrpc.TransportError
	if !errors.As(err, &te) || te.Code != codes.DeadlineExceeded {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}
}

func TestLoggingInterceptor(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	calls := 0
	tr := &rpctest.Transport{SendFunc: func(context.Context, rpctest.Request) ([]byte, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("refused")
		}
		return bankrpc.Encode(&pb.LoginResponse{CustomerID: "c-1"}), nil
	}}
	c := dialStub(t, tr, bankrpc.WithInterceptors(
		bankrpc.RequestIDInterceptor(),
		bankrpc.LoggingInterceptor(zap.New(core)),
	))

	md := bankrpc.NewMetadata(bankrpc.RequestIDHeader, "req-1")
	if _, err := c.Call(context.Background(), pb.CustomerLogin, &pb.LoginRequest{}, md); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if _, err := c.Call(context.Background(), pb.CustomerLogin, &pb.LoginRequest{}, md); err == nil {
		t.Fatal("expected error")
	}

	finished := logs.FilterMessage("call finished").All()
	if len(finished) != 1 || finished[0].ContextMap()["request_id"] != "req-1" {
		t.Fatalf("call finished entries: %+v", finished)
	}
	failed := logs.FilterMessage("call failed").All()
	if len(failed) != 1 || failed[0].Level != zap.WarnLevel {
		t.Fatalf("call failed entries: %+v", failed)
	}
}
