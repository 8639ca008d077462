// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pb

import (
	"context"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/luxfi/bankrpc"
)

// LoginRequest carries customer credentials.
type LoginRequest struct {
	CustomerName string
	Password     string

	unknown []byte
}

func (*LoginRequest) MessageName() string { return "proto.LoginRequest" }

func (m *LoginRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.CustomerName)
	b = appendString(b, 2, m.Password)
	return append(b, m.unknown...)
}

func (m *LoginRequest) UnmarshalWire(b []byte) error {
	var out LoginRequest
	unknown, err := unmarshalFields(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, bool, error) {
		switch num {
		case 1:
			return consumeString(typ, v, &out.CustomerName)
		case 2:
			return consumeString(typ, v, &out.Password)
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

// LoginResponse identifies the authenticated customer. Older servers omit
// the name, so CustomerName may be empty.
type LoginResponse struct {
	CustomerID   string
	CustomerName string

	unknown []byte
}

func (*LoginResponse) MessageName() string { return "proto.LoginResponse" }

func (m *LoginResponse) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.CustomerID)
	b = appendString(b, 2, m.CustomerName)
	return append(b, m.unknown...)
}

func (m *LoginResponse) UnmarshalWire(b []byte) error {
	var out LoginResponse
	unknown, err := unmarshalFields(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, bool, error) {
		switch num {
		case 1:
			return consumeString(typ, v, &out.CustomerID)
		case 2:
			return consumeString(typ, v, &out.CustomerName)
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

// CustomerClient is the typed client for proto.Customer.
type CustomerClient struct {
	c *bankrpc.Client
}

func NewCustomerClient(c *bankrpc.Client) *CustomerClient {
	return &CustomerClient{c: c}
}

// Login calls proto.Customer/Login; done fires exactly once.
func (cc *CustomerClient) Login(ctx context.Context, in *LoginRequest, md bankrpc.Metadata, done func(*LoginResponse, error)) {
	cc.c.CallUnary(ctx, CustomerLogin, in, md, func(resp bankrpc.Message, err error) {
		if err != nil {
			done(nil, err)
			return
		}
		done(resp.(*LoginResponse), nil)
	})
}

// LoginFuture is the future form of Login.
func (cc *CustomerClient) LoginFuture(ctx context.Context, in *LoginRequest, md bankrpc.Metadata) *bankrpc.Future {
	return cc.c.Invoke(ctx, CustomerLogin, in, md)
}
