// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bankrpc

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

var (
	// ErrUnknownMethod is returned when a descriptor lookup misses. It is a
	// programming error, not a runtime condition.
	ErrUnknownMethod = errors.New("bankrpc: unknown method")

	// ErrStreamCancelled is returned by Stream.Recv once the stream has been
	// cancelled.
	ErrStreamCancelled = errors.New("bankrpc: stream cancelled")

	// ErrWrongCallKind is returned when a unary descriptor is used for a
	// streaming call or vice versa.
	ErrWrongCallKind = errors.New("bankrpc: wrong call kind for method")

	// ErrAlreadySettled reports a second delivery attempt on a settled call.
	ErrAlreadySettled = errors.New("bankrpc: call already settled")
)

// TransportError is a connection, timeout or status failure. It never
// implies whether the server processed the request.
type TransportError struct {
	Path       string
	Code       codes.Code
	HTTPStatus int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("transport %s: %s (http %d): %s", e.Path, e.Code, e.HTTPStatus, msg)
	}
	return fmt.Sprintf("transport %s: %s: %s", e.Path, e.Code, msg)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError reports response bytes that did not match the expected schema.
type DecodeError struct {
	Message string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Message, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsTransportError reports whether err is, or wraps, a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsDecodeError reports whether err is, or wraps, a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// httpStatusCode maps an HTTP status to the gRPC code grpc-web clients use.
func httpStatusCode(status int) codes.Code {
	switch status {
	case http.StatusBadRequest:
		return codes.Internal
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusForbidden:
		return codes.PermissionDenied
	case http.StatusNotFound:
		return codes.Unimplemented
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return codes.Unavailable
	default:
		return codes.Unknown
	}
}
