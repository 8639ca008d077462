// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bankrpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func init() {
	registerTransport(TransportGRPC, newGRPCTransport)
}

// rawCodec hands pre-encoded message bytes to grpc untouched. It keeps the
// "proto" name so the content-type stays application/grpc+proto.
type rawCodec struct{}

func (rawCodec) Marshal(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case *[]byte:
		return *b, nil
	}
	return nil, fmt.Errorf("raw codec: cannot marshal %T", v)
}

func (rawCodec) Unmarshal(data []byte, v any) error {
	b, ok := v.(*[]byte)
	if !ok {
		return fmt.Errorf("raw codec: cannot unmarshal into %T", v)
	}
	*b = append((*b)[:0], data...)
	return nil
}

func (rawCodec) Name() string { return "proto" }

// grpcTransport keeps one ClientConn per endpoint.
type grpcTransport struct {
	opts []grpc.DialOption

	mu    sync.Mutex
	conns map[string]*grpc.ClientConn
}

func newGRPCTransport(o *dialOptions) (Transport, error) {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	return &grpcTransport{
		opts:  append(opts, o.grpcOptions...),
		conns: make(map[string]*grpc.ClientConn),
	}, nil
}

// grpcTarget strips the scheme from an http(s) endpoint; grpc wants
// host:port.
func grpcTarget(endpoint string) string {
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" && (u.Scheme == "http" || u.Scheme == "https") {
		return u.Host
	}
	return endpoint
}

func (t *grpcTransport) conn(endpoint string) (*grpc.ClientConn, error) {
	target := grpcTarget(endpoint)
	t.mu.Lock()
	defer t.mu.Unlock()
	if cc, ok := t.conns[target]; ok {
		return cc, nil
	}
	cc, err := grpc.NewClient(target, t.opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	t.conns[target] = cc
	return cc, nil
}

func outgoing(ctx context.Context, md Metadata) context.Context {
	if md.Len() == 0 {
		return ctx
	}
	kv := make([]string, 0, md.Len()*2)
	md.Range(func(k, v string) bool {
		kv = append(kv, k, v)
		return true
	})
	return metadata.AppendToOutgoingContext(ctx, kv...)
}

func (t *grpcTransport) Send(ctx context.Context, endpoint, path string, body []byte, md Metadata) ([]byte, error) {
	cc, err := t.conn(endpoint)
	if err != nil {
		return nil, &TransportError{Path: path, Code: codes.Unavailable, Err: err}
	}
	var resp []byte
	if err := cc.Invoke(outgoing(ctx, md), path, body, &resp, grpc.ForceCodec(rawCodec{})); err != nil {
		return nil, grpcError(path, err)
	}
	return resp, nil
}

var serverStreamDesc = &grpc.StreamDesc{ServerStreams: true}

func (t *grpcTransport) OpenStream(ctx context.Context, endpoint, path string, body []byte, md Metadata) (ChunkReader, error) {
	cc, err := t.conn(endpoint)
	if err != nil {
		return nil, &TransportError{Path: path, Code: codes.Unavailable, Err: err}
	}
	ctx, cancel := context.WithCancel(ctx)
	cs, err := cc.NewStream(outgoing(ctx, md), serverStreamDesc, path, grpc.ForceCodec(rawCodec{}))
	if err != nil {
		cancel()
		return nil, grpcError(path, err)
	}
	if err := cs.SendMsg(body); err != nil {
		cancel()
		return nil, grpcError(path, err)
	}
	if err := cs.CloseSend(); err != nil {
		cancel()
		return nil, grpcError(path, err)
	}
	return &grpcChunkReader{path: path, cs: cs, cancel: cancel}, nil
}

func (t *grpcTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var errs []error
	for target, cc := range t.conns {
		errs = append(errs, cc.Close())
		delete(t.conns, target)
	}
	return errors.Join(errs...)
}

type grpcChunkReader struct {
	path   string
	cs     grpc.ClientStream
	cancel context.CancelFunc
}

func (r *grpcChunkReader) Next() ([]byte, error) {
	var chunk []byte
	if err := r.cs.RecvMsg(&chunk); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, grpcError(r.path, err)
	}
	return chunk, nil
}

// Close cancels the stream context, which is how grpc releases a client
// stream before the server finishes it.
func (r *grpcChunkReader) Close() error {
	r.cancel()
	return nil
}

func grpcError(path string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return &TransportError{Path: path, Code: codes.Unknown, Err: err}
	}
	return &TransportError{Path: path, Code: st.Code(), Message: st.Message(), Err: err}
}
