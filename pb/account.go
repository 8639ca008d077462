// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pb

import (
	"context"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/luxfi/bankrpc"
)

type OpenAccountRequest struct {
	AccountID string
	Name      string

	unknown []byte
}

func (*OpenAccountRequest) MessageName() string { return "proto.OpenAccountRequest" }

func (m *OpenAccountRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.AccountID)
	b = appendString(b, 2, m.Name)
	return append(b, m.unknown...)
}

func (m *OpenAccountRequest) UnmarshalWire(b []byte) error {
	var out OpenAccountRequest
	unknown, err := unmarshalFields(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, bool, error) {
		switch num {
		case 1:
			return consumeString(typ, v, &out.AccountID)
		case 2:
			return consumeString(typ, v, &out.Name)
		}
		return 0, false, nil
	})
	if err != nil {
		return err
	}
	out.unknown = unknown
	*m = out
	return nil
}

// OpenAccountResponse echoes the opened account.
type OpenAccountResponse struct {
	AccountID string
	Name      string

	unknown []byte
}

func (*OpenAccountResponse) MessageName() string { return "proto.OpenAccountResponse" }

func (m *OpenAccountResponse) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.AccountID)
	b = appendString(b, 2, m.Name)
	return append(b, m.unknown...)
}

func (m *OpenAccountResponse) UnmarshalWire(b []byte) error {
	var out OpenAccountResponse
	unknown, err := unmarshalFields(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, bool, error) {
		switch num {
		case 1:
			return consumeString(typ, v, &out.AccountID)
		case 2:
			return consumeString(typ, v, &out.Name)
		}
		return 0, false, nil
	})
	if err != nil {
		return err
	}
	out.unknown = unknown
	*m = out
	return nil
}

// TestStreamingRequest has no fields.
type TestStreamingRequest struct {
	unknown []byte
}

func (*TestStreamingRequest) MessageName() string { return "proto.TestStreamingRequest" }

func (m *TestStreamingRequest) AppendWire(b []byte) []byte {
	return append(b, m.unknown...)
}

func (m *TestStreamingRequest) UnmarshalWire(b []byte) error {
	unknown, err := unmarshalFields(b, func(protowire.Number, protowire.Type, []byte) (int, bool, error) {
		return 0, false, nil
	})
	if err != nil {
		return err
	}
	m.unknown = unknown
	return nil
}

type TestStreamingResponse struct {
	Message string

	unknown []byte
}

func (*TestStreamingResponse) MessageName() string { return "proto.TestStreamingResponse" }

func (m *TestStreamingResponse) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Message)
	return append(b, m.unknown...)
}

func (m *TestStreamingResponse) UnmarshalWire(b []byte) error {
	var out TestStreamingResponse
	unknown, err := unmarshalFields(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, bool, error) {
		if num == 1 {
			return consumeString(typ, v, &out.Message)
		}
		return 0, false, nil
	})
	if err != nil {
		return err
	}
	out.unknown = unknown
	*m = out
	return nil
}

// AccountClient is the typed client for proto.Account.
type AccountClient struct {
	c *bankrpc.Client
}

func NewAccountClient(c *bankrpc.Client) *AccountClient {
	return &AccountClient{c: c}
}

// OpenAccount calls proto.Account/OpenAccount; done fires exactly once.
func (ac *AccountClient) OpenAccount(ctx context.Context, in *OpenAccountRequest, md bankrpc.Metadata, done func(*OpenAccountResponse, error)) {
	ac.c.CallUnary(ctx, AccountOpenAccount, in, md, func(resp bankrpc.Message, err error) {
		if err != nil {
			done(nil, err)
			return
		}
		done(resp.(*OpenAccountResponse), nil)
	})
}

// OpenAccountFuture is the future form of OpenAccount.
func (ac *AccountClient) OpenAccountFuture(ctx context.Context, in *OpenAccountRequest, md bankrpc.Metadata) *bankrpc.Future {
	return ac.c.Invoke(ctx, AccountOpenAccount, in, md)
}

// TestStreaming opens the proto.Account/TestStreaming stream. Items are
// *TestStreamingResponse.
func (ac *AccountClient) TestStreaming(ctx context.Context, in *TestStreamingRequest, md bankrpc.Metadata) *bankrpc.Stream {
	return ac.c.CallStream(ctx, AccountTestStreaming, in, md)
}
