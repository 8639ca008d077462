// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package registry resolves the gateway endpoint a client should use.
//
// Endpoints are either fixed or published in etcd under
//
//	/bankrpc/{service}/{endpoint}
//
// and the client picks one of them round-robin at start-up.
package registry

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrNoEndpoints is returned when a service has no published endpoint.
var ErrNoEndpoints = errors.New("registry: no endpoints available")

// Resolver lists the endpoints currently serving a service.
type Resolver interface {
	Resolve(ctx context.Context, service string) ([]string, error)
}

// Static always returns the same endpoints.
type Static []string

func (s Static) Resolve(context.Context, string) ([]string, error) {
	if len(s) == 0 {
		return nil, ErrNoEndpoints
	}
	out := make([]string, len(s))
	copy(out, s)
	return out, nil
}

// RoundRobin picks endpoints in turn. The zero value is ready to use and
// safe for concurrent use.
type RoundRobin struct {
	counter atomic.Uint64
}

// Pick resolves service and returns the next endpoint.
func (b *RoundRobin) Pick(ctx context.Context, r Resolver, service string) (string, error) {
	endpoints, err := r.Resolve(ctx, service)
	if err != nil {
		return "", err
	}
	if len(endpoints) == 0 {
		return "", ErrNoEndpoints
	}
	i := (b.counter.Add(1) - 1) % uint64(len(endpoints))
	return endpoints[i], nil
}
