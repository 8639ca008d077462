// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bankrpc_test

import (
	"errors"
	"testing"

	"github.com/luxfi/bankrpc"
	"github.com/luxfi/bankrpc/pb"
)

func TestTableLookup(t *testing.T) {
	d, err := pb.Methods.Lookup(pb.CustomerService, "Login")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if d != pb.CustomerLogin {
		t.Fatalf("got %s, want CustomerLogin", d)
	}
	if d.Path() != "/proto.Customer/Login" {
		t.Fatalf("Path = %q", d.Path())
	}
	if d.Kind != bankrpc.Unary {
		t.Fatalf("Kind = %s", d.Kind)
	}

	s := pb.Methods.MustLookup(pb.AccountService, "TestStreaming")
	if s.Kind != bankrpc.ServerStreaming {
		t.Fatalf("TestStreaming kind = %s", s.Kind)
	}
}

func TestTableUnknownMethod(t *testing.T) {
	_, err := pb.Methods.Lookup(pb.AccountService, "CloseAccount")
	if !errors.Is(err, bankrpc.ErrUnknownMethod) {
		t.Fatalf("got %v, want ErrUnknownMethod", err)
	}
}

func TestTableMethodsOrder(t *testing.T) {
	ms := pb.Methods.Methods()
	if len(ms) != 3 {
		t.Fatalf("len = %d, want 3", len(ms))
	}
	if ms[0] != pb.AccountOpenAccount || ms[1] != pb.AccountTestStreaming || ms[2] != pb.CustomerLogin {
		t.Fatalf("unexpected order: %v", ms)
	}
	ms[0] = nil
	if pb.Methods.Methods()[0] == nil {
		t.Fatal("Methods must return a copy")
	}
}

func TestNewTablePanics(t *testing.T) {
	newResp := func() bankrpc.Message { return new(pb.LoginResponse) }
	tests := map[string][]*bankrpc.MethodDescriptor{
		"duplicate": {
			{Service: "s", Method: "m", Kind: bankrpc.Unary, NewResponse: newResp},
			{Service: "s", Method: "m", Kind: bankrpc.ServerStreaming, NewResponse: newResp},
		},
		"no method":   {{Service: "s", Kind: bankrpc.Unary, NewResponse: newResp}},
		"no response": {{Service: "s", Method: "m", Kind: bankrpc.Unary}},
		"no kind":     {{Service: "s", Method: "m", NewResponse: newResp}},
	}
	for name, descs := range tests {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("expected panic")
				}
			}()
			bankrpc.NewTable(descs...)
		})
	}
}

func TestDescriptorCodec(t *testing.T) {
	body := pb.CustomerLogin.EncodeRequest(&pb.LoginRequest{CustomerName: "alice", Password: "secret"})
	var req pb.LoginRequest
	if err := bankrpc.Decode(body, &req); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if req.CustomerName != "alice" || req.Password != "secret" {
		t.Fatalf("got %+v", req)
	}

	resp, err := pb.CustomerLogin.DecodeResponse(bankrpc.Encode(&pb.LoginResponse{CustomerID: "c-1"}))
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if got := resp.(*pb.LoginResponse).CustomerID; got != "c-1" {
		t.Fatalf("CustomerID = %q", got)
	}

	if _, err := pb.CustomerLogin.DecodeResponse([]byte{0xff}); !bankrpc.IsDecodeError(err) {
		t.Fatalf("got %v, want DecodeError", err)
	}
}
