// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bankrpc

import (
	"context"
	"io"
	"slices"
	"strings"
	"sync"
)

// Transport types
const (
	TransportGRPCWeb = "grpcweb" // HTTP/1.1 grpc-web, default
	TransportGRPC    = "grpc"    // native gRPC over HTTP/2
	TransportJSON    = "json"    // JSON-RPC over HTTP
)

// DefaultTransport is the default transport type (grpc-web)
const DefaultTransport = TransportGRPCWeb

// Transport performs the network exchange for one encoded request. It does
// not interpret payloads and never retries.
type Transport interface {
	io.Closer

	// Send posts body to <endpoint><path> and returns the single response
	// payload.
	Send(ctx context.Context, endpoint, path string, body []byte, md Metadata) ([]byte, error)

	// OpenStream posts body to <endpoint><path> and returns the response
	// payloads as they arrive.
	OpenStream(ctx context.Context, endpoint, path string, body []byte, md Metadata) (ChunkReader, error)
}

// ChunkReader yields response payloads of a streaming call. Next returns
// io.EOF after the last payload. Close releases the underlying resource and
// may be called more than once.
type ChunkReader interface {
	io.Closer
	Next() ([]byte, error)
}

// JoinURL composes <endpoint>/<Service>/<Method> from an endpoint and a
// descriptor path.
func JoinURL(endpoint, path string) string {
	return strings.TrimRight(endpoint, "/") + "/" + strings.TrimLeft(path, "/")
}

type transportFactory func(o *dialOptions) (Transport, error)

var (
	transportsMu sync.RWMutex
	transports   = map[string]transportFactory{
		TransportGRPCWeb: newGRPCWebTransport,
		TransportJSON:    newJSONTransport,
	}
)

// registerTransport registers a new transport (used by adapters in init)
func registerTransport(name string, factory transportFactory) {
	transportsMu.Lock()
	defer transportsMu.Unlock()
	transports[name] = factory
}

func lookupTransport(name string) (transportFactory, bool) {
	transportsMu.RLock()
	defer transportsMu.RUnlock()
	f, ok := transports[name]
	return f, ok
}

// AvailableTransports returns list of available transport types
func AvailableTransports() []string {
	transportsMu.RLock()
	defer transportsMu.RUnlock()
	result := make([]string, 0, len(transports))
	for name := range transports {
		result = append(result, name)
	}
	slices.Sort(result)
	return result
}

// HasTransport checks if a transport is available
func HasTransport(name string) bool {
	_, ok := lookupTransport(name)
	return ok
}
