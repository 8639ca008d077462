// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bankrpc

import (
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// Client is the call dispatcher. It binds method descriptors to a transport
// and delivers results by callback, future or stream. A Client is safe for
// concurrent use.
type Client struct {
	endpoint      string
	transport     Transport
	ownsTransport bool
	codec         Codec
	invoker       Invoker
	logger        *zap.Logger

	redeliveries atomic.Int64
}

// Endpoint returns the base URL calls are addressed to.
func (c *Client) Endpoint() string { return c.endpoint }

// Redeliveries counts settle attempts on calls that had already delivered a
// result. Anything other than zero is a bug in a transport or interceptor.
func (c *Client) Redeliveries() int64 { return c.redeliveries.Load() }

// Close closes the transport if the client created it.
func (c *Client) Close() error {
	if !c.ownsTransport {
		return nil
	}
	return c.transport.Close()
}

// DialOption configures client connections
type DialOption func(*dialOptions)

type dialOptions struct {
	codec        Codec
	transport    string // "grpcweb", "grpc", "json"
	impl         Transport
	logger       *zap.Logger
	interceptors []Interceptor
	httpClient   *http.Client
	timeout      time.Duration
	textFormat   bool
	grpcOptions  []grpc.DialOption
}

// WithCodec sets a custom codec
func WithCodec(c Codec) DialOption {
	return func(o *dialOptions) { o.codec = c }
}

// WithTransport explicitly sets the transport type
func WithTransport(t string) DialOption {
	return func(o *dialOptions) { o.transport = t }
}

// WithTransportImpl uses t instead of a registered transport. The client
// does not close t.
func WithTransportImpl(t Transport) DialOption {
	return func(o *dialOptions) { o.impl = t }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) DialOption {
	return func(o *dialOptions) { o.logger = l }
}

// WithInterceptors appends unary interceptors. The first one is outermost.
func WithInterceptors(i ...Interceptor) DialOption {
	return func(o *dialOptions) { o.interceptors = append(o.interceptors, i...) }
}

// WithHTTPClient sets the HTTP client used by the grpc-web and JSON
// transports.
func WithHTTPClient(hc *http.Client) DialOption {
	return func(o *dialOptions) { o.httpClient = hc }
}

// WithTimeout sets the HTTP client timeout for transports that create their
// own client. Streams are not subject to it.
func WithTimeout(d time.Duration) DialOption {
	return func(o *dialOptions) { o.timeout = d }
}

// WithTextFormat switches grpc-web to the base64 application/grpc-web-text
// encoding.
func WithTextFormat() DialOption {
	return func(o *dialOptions) { o.textFormat = true }
}

// WithGRPCDialOptions passes extra options to grpc.NewClient.
func WithGRPCDialOptions(opts ...grpc.DialOption) DialOption {
	return func(o *dialOptions) { o.grpcOptions = append(o.grpcOptions, opts...) }
}
