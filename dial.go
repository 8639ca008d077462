// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bankrpc

import (
	"fmt"

	"go.uber.org/zap"
)

// Dial returns a Client for endpoint using the default transport
// (grpc-web). No network I/O happens until the first call.
func Dial(endpoint string, opts ...DialOption) (*Client, error) {
	o := &dialOptions{
		transport: DefaultTransport,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.codec == nil {
		o.codec = Wire
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	c := &Client{
		endpoint: endpoint,
		codec:    o.codec,
		logger:   o.logger.Named("bankrpc"),
	}

	if o.impl != nil {
		c.transport = o.impl
	} else {
		factory, ok := lookupTransport(o.transport)
		if !ok {
			return nil, fmt.Errorf("unknown transport: %s", o.transport)
		}
		t, err := factory(o)
		if err != nil {
			return nil, fmt.Errorf("%s transport: %w", o.transport, err)
		}
		c.transport = t
		c.ownsTransport = true
	}

	c.invoker = Chain(o.interceptors...)(c.send)
	return c, nil
}
