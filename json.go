// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bankrpc

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	rpc "github.com/gorilla/rpc/v2/json2"
	"google.golang.org/grpc/codes"
)

// JSONPayload is the params and result shape of the JSON-RPC transport: the
// wire-encoded message carried as base64.
type JSONPayload struct {
	Payload []byte `json:"payload"`
}

// jsonTransport tunnels encoded messages through a JSON-RPC 2.0 gateway.
// The JSON-RPC method for /proto.Customer/Login is "Customer.Login".
type jsonTransport struct {
	client *http.Client
}

func newJSONTransport(o *dialOptions) (Transport, error) {
	hc := o.httpClient
	if hc == nil {
		hc = newHTTPClient(o.timeout)
	}
	return &jsonTransport{client: hc}, nil
}

// JSONMethod maps a descriptor path to its JSON-RPC method name.
func JSONMethod(path string) string {
	service, method, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if i := strings.LastIndexByte(service, '.'); i >= 0 {
		service = service[i+1:]
	}
	return service + "." + method
}

func (t *jsonTransport) Send(ctx context.Context, endpoint, path string, body []byte, md Metadata) ([]byte, error) {
	requestBodyBytes, err := rpc.EncodeClientRequest(JSONMethod(path), &JSONPayload{Payload: body})
	if err != nil {
		return nil, &TransportError{Path: path, Code: codes.Internal, Message: "failed to encode client params", Err: err}
	}

	request, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		endpoint,
		bytes.NewBuffer(requestBodyBytes),
	)
	if err != nil {
		return nil, &TransportError{Path: path, Code: codes.Internal, Message: "failed to create request", Err: err}
	}
	md.Range(func(k, v string) bool {
		request.Header.Add(k, v)
		return true
	})
	request.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(request)
	if err != nil {
		return nil, readError(ctx, path, err)
	}
	defer CleanlyCloseBody(resp.Body)

	// Return an error for any non successful status code
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			Path:       path,
			Code:       httpStatusCode(resp.StatusCode),
			HTTPStatus: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
		}
	}

	var reply JSONPayload
	if err := rpc.DecodeClientResponse(resp.Body, &reply); err != nil {
		var rpcErr *rpc.Error
		if errors.As(err, &rpcErr) {
			return nil, &TransportError{Path: path, Code: jsonErrorCode(rpcErr.Code), Message: rpcErr.Message, Err: err}
		}
		return nil, &TransportError{Path: path, Code: codes.Internal, Message: "failed to decode client response", Err: err}
	}
	return reply.Payload, nil
}

// OpenStream is not available over JSON-RPC.
func (t *jsonTransport) OpenStream(_ context.Context, _, path string, _ []byte, _ Metadata) (ChunkReader, error) {
	return nil, &TransportError{Path: path, Code: codes.Unimplemented, Message: "streaming is not supported over JSON-RPC"}
}

func (t *jsonTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

func jsonErrorCode(code rpc.ErrorCode) codes.Code {
	switch code {
	case rpc.E_NO_METHOD:
		return codes.Unimplemented
	case rpc.E_BAD_PARAMS, rpc.E_INVALID_REQ:
		return codes.InvalidArgument
	case rpc.E_PARSE, rpc.E_INTERNAL:
		return codes.Internal
	default:
		return codes.Unknown
	}
}
