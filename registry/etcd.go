// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

const keyPrefix = "/bankrpc/"

// Etcd resolves endpoints published in etcd.
type Etcd struct {
	client *clientv3.Client
}

// NewEtcd connects to the given etcd endpoints.
func NewEtcd(endpoints []string) (*Etcd, error) {
	c, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("etcd: %w", err)
	}
	return &Etcd{client: c}, nil
}

// EtcdKey is the key an endpoint of service is published under.
func EtcdKey(service, endpoint string) string {
	return keyPrefix + service + "/" + endpoint
}

// Publish announces endpoint for service under a lease of ttl seconds that
// is kept alive until ctx ends. Gateways and test fixtures use it.
func (e *Etcd) Publish(ctx context.Context, service, endpoint string, ttl int64) error {
	lease, err := e.client.Grant(ctx, ttl)
	if err != nil {
		return fmt.Errorf("etcd grant: %w", err)
	}
	if _, err := e.client.Put(ctx, EtcdKey(service, endpoint), endpoint, clientv3.WithLease(lease.ID)); err != nil {
		return fmt.Errorf("etcd put: %w", err)
	}
	ch, err := e.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return fmt.Errorf("etcd keepalive: %w", err)
	}
	go func() {
		for range ch {
		}
	}()
	return nil
}

// Resolve returns every endpoint published for service, sorted.
func (e *Etcd) Resolve(ctx context.Context, service string) ([]string, error) {
	prefix := keyPrefix + service + "/"
	resp, err := e.client.Get(ctx, prefix, clientv3.WithPrefix(), clientv3.WithKeysOnly())
	if err != nil {
		return nil, fmt.Errorf("etcd get %s: %w", prefix, err)
	}
	endpoints := make([]string, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		if ep := strings.TrimPrefix(string(kv.Key), prefix); ep != "" {
			endpoints = append(endpoints, ep)
		}
	}
	if len(endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	slices.Sort(endpoints)
	return endpoints, nil
}

// Watch emits the endpoint list of service each time it changes, until ctx
// ends.
func (e *Etcd) Watch(ctx context.Context, service string) <-chan []string {
	ch := make(chan []string, 1)
	prefix := keyPrefix + service + "/"
	go func() {
		defer close(ch)
		for range e.client.Watch(ctx, prefix, clientv3.WithPrefix()) {
			endpoints, err := e.Resolve(ctx, service)
			if err != nil {
				endpoints = nil
			}
			select {
			case ch <- endpoints:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// Close closes the etcd client.
func (e *Etcd) Close() error {
	return e.client.Close()
}
