// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package session tracks the client's authentication state. The Store is
// the only writer; everything else reads Session snapshots.
package session

import (
	"errors"
	"fmt"
)

// Status is the authentication state of a Session.
type Status int

const (
	Anonymous Status = iota
	Pending
	Authenticated
	Failed
)

func (s Status) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Pending:
		return "pending"
	case Authenticated:
		return "authenticated"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Session is an immutable snapshot. CustomerID is set only when
// Authenticated, Err only when Failed. CustomerName is optional even when
// authenticated.
type Session struct {
	Status       Status
	CustomerID   string
	CustomerName string
	Err          error
}

// ErrLoginRejected is the cause when the server answers a login without a
// customer id.
var ErrLoginRejected = errors.New("login rejected by server")

// TransitionError is the error a Failed session carries. The cause is the
// transport, decode or server-reported failure beneath it.
type TransitionError struct {
	Cause error
}

func (e *TransitionError) Error() string {
	return "login failed: " + e.Cause.Error()
}

func (e *TransitionError) Unwrap() error { return e.Cause }

type eventKind int

const (
	loginSubmitted eventKind = iota
	loginSucceeded
	loginFailed
	loggedOut
)

type event struct {
	kind         eventKind
	customerID   string
	customerName string
	err          error
}

// reduce is the transition function. It is pure.
func reduce(cur Session, ev event) Session {
	switch ev.kind {
	case loginSubmitted:
		return Session{Status: Pending}
	case loginSucceeded:
		if cur.Status != Pending {
			return cur
		}
		return Session{Status: Authenticated, CustomerID: ev.customerID, CustomerName: ev.customerName}
	case loginFailed:
		if cur.Status != Pending {
			return cur
		}
		return Session{Status: Failed, Err: &TransitionError{Cause: ev.err}}
	case loggedOut:
		return Session{Status: Anonymous}
	default:
		return cur
	}
}
