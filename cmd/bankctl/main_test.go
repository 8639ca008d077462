// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/luxfi/bankrpc"
	"github.com/luxfi/bankrpc/pb"
	"github.com/luxfi/bankrpc/rpctest"
)

func gateway(t *testing.T) *rpctest.WebServer {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("BANKRPC_CONFIG", "")

	srv := rpctest.NewWebServer()
	t.Cleanup(srv.Close)
	srv.Handle("/proto.Customer/Login", func(_ *http.Request, body []byte, send func([]byte) error) error {
		var req pb.LoginRequest
		if err := bankrpc.Decode(body, &req); err != nil {
			return err
		}
		if req.Password != "secret" {
			return status.Error(codes.Unauthenticated, "invalid credentials")
		}
		return send(bankrpc.Encode(&pb.LoginResponse{CustomerID: "c-1", CustomerName: req.CustomerName}))
	})
	srv.Handle("/proto.Account/OpenAccount", func(_ *http.Request, body []byte, send func([]byte) error) error {
		var req pb.OpenAccountRequest
		if err := bankrpc.Decode(body, &req); err != nil {
			return err
		}
		return send(bankrpc.Encode(&pb.OpenAccountResponse{AccountID: req.AccountID, Name: req.Name}))
	})
	srv.Handle("/proto.Account/TestStreaming", func(r *http.Request, _ []byte, send func([]byte) error) error {
		for i := 1; ; i++ {
			if err := send(bankrpc.Encode(&pb.TestStreamingResponse{Message: fmt.Sprintf("tick %d", i)})); err != nil {
				return err
			}
			if err := r.Context().Err(); err != nil {
				return err
			}
		}
	})
	return srv
}

func TestRunLogin(t *testing.T) {
	srv := gateway(t)
	var out bytes.Buffer
	err := run(context.Background(), []string{"--endpoint", srv.URL, "--log-level", "error", "login", "alice", "secret"}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := "accounts before login: redirect-to-login\n" +
		"session: authenticated customer=c-1 name=alice\n" +
		"accounts after login: allow\n"
	if out.String() != want {
		t.Fatalf("output:\n%s\nwant:\n%s", out.String(), want)
	}
	if id := srv.Headers()[0].Get("X-Request-Id"); id == "" {
		t.Fatal("request id not sent")
	}
}

func TestRunLoginRejected(t *testing.T) {
	srv := gateway(t)
	var out bytes.Buffer
	err := run(context.Background(), []string{"--endpoint", srv.URL, "--log-level", "error", "login", "alice", "wrong"}, &out)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(out.String(), "session: failed") || !strings.Contains(out.String(), "accounts after login: redirect-to-login") {
		t.Fatalf("output:\n%s", out.String())
	}
}

func TestRunOpenAccount(t *testing.T) {
	srv := gateway(t)
	var out bytes.Buffer
	err := run(context.Background(), []string{"--endpoint", srv.URL, "--format", "text", "--md", "x-tenant=retail", "open-account", "a-1", "savings"}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != "opened account a-1 (savings)\n" {
		t.Fatalf("output = %q", out.String())
	}
	h := srv.Headers()[0]
	if h.Get("X-Tenant") != "retail" || h.Get("Content-Type") != "application/grpc-web-text" {
		t.Fatalf("headers = %v", h)
	}
}

func TestRunStream(t *testing.T) {
	srv := gateway(t)
	var out bytes.Buffer
	err := run(context.Background(), []string{"--endpoint", srv.URL, "stream", "--max", "2"}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != "tick 1\ntick 2\n" {
		t.Fatalf("output = %q", out.String())
	}
}

func TestRunUsage(t *testing.T) {
	gateway(t)
	tests := [][]string{
		{},
		{"login", "alice"},
		{"open-account"},
		{"transfer"},
		{"--transport", "zap", "stream"},
	}
	for _, args := range tests {
		if err := run(context.Background(), args, &bytes.Buffer{}); err == nil {
			t.Errorf("run(%q): expected error", args)
		}
	}
}
