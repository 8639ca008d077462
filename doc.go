// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bankrpc provides the typed RPC client for the bank's Account and
// Customer services.
//
// # Transport Selection
//
// grpc-web over HTTP is the default transport, matching what the gateway in
// front of the services speaks. Alternatives are selected at dial time:
//
//	bankrpc.Dial(endpoint)                                   // grpc-web, binary
//	bankrpc.Dial(endpoint, bankrpc.WithTextFormat())         // grpc-web-text
//	bankrpc.Dial(endpoint, bankrpc.WithTransport("grpc"))    // native gRPC
//	bankrpc.Dial(endpoint, bankrpc.WithTransport("json"))    // JSON-RPC gateway
//
// # Usage
//
// Callback form:
//
//	client, err := bankrpc.Dial("http://localhost:8080")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	customers := pb.NewCustomerClient(client)
//	customers.Login(ctx, &pb.LoginRequest{CustomerName: "alice", Password: "secret"}, bankrpc.Metadata{},
//	    func(resp *pb.LoginResponse, err error) {
//	        // called exactly once
//	    })
//
// Future form, a wrapper over the callback form:
//
//	f := customers.LoginFuture(ctx, req, md)
//	resp, err := bankrpc.Await[*pb.LoginResponse](ctx, f)
//
// Server streaming:
//
//	s := pb.NewAccountClient(client).TestStreaming(ctx, &pb.TestStreamingRequest{}, md)
//	defer s.Cancel()
//	for msg, err := range s.All() {
//	    ...
//	}
//
// # Errors
//
// Network and status failures arrive as *TransportError, schema mismatches
// as *DecodeError. Neither is retried. Looking up a method that is not in
// the table returns ErrUnknownMethod.
//
// # Architecture
//
// The package separates concerns:
//
//   - codec.go: Message and Codec, the wire contract
//   - descriptor.go: MethodDescriptor and the method Table
//   - transport.go: Transport interface and the transport registry
//   - grpcweb.go, frame.go: grpc-web transport (default)
//   - dial_grpc.go: native gRPC transport
//   - json.go: JSON-RPC transport
//   - call.go, stream.go: the dispatcher (callbacks, futures, streams)
//   - interceptor.go: logging, timeout, rate limit and request id
//
// Message types and descriptors for the two services live in package pb;
// the login state machine in package session and the route guard in
// package guard.
package bankrpc
