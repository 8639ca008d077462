// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pb defines the Account and Customer messages, their method
// descriptors and typed clients.
package pb

import "github.com/luxfi/bankrpc"

const (
	AccountService  = "proto.Account"
	CustomerService = "proto.Customer"
)

var (
	AccountOpenAccount = &bankrpc.MethodDescriptor{
		Service:     AccountService,
		Method:      "OpenAccount",
		Kind:        bankrpc.Unary,
		NewResponse: func() bankrpc.Message { return new(OpenAccountResponse) },
	}

	AccountTestStreaming = &bankrpc.MethodDescriptor{
		Service:     AccountService,
		Method:      "TestStreaming",
		Kind:        bankrpc.ServerStreaming,
		NewResponse: func() bankrpc.Message { return new(TestStreamingResponse) },
	}

	CustomerLogin = &bankrpc.MethodDescriptor{
		Service:     CustomerService,
		Method:      "Login",
		Kind:        bankrpc.Unary,
		NewResponse: func() bankrpc.Message { return new(LoginResponse) },
	}
)

// Methods is the process-wide method table.
var Methods = bankrpc.NewTable(
	AccountOpenAccount,
	AccountTestStreaming,
	CustomerLogin,
)
