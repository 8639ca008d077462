// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/luxfi/bankrpc"
	"github.com/luxfi/bankrpc/pb"
)

// Authenticator issues the Customer/Login call. *pb.CustomerClient
// implements it.
type Authenticator interface {
	Login(ctx context.Context, in *pb.LoginRequest, md bankrpc.Metadata, done func(*pb.LoginResponse, error))
}

// Store owns the current Session. Transitions are serialized; no lock is
// held while a login call is in flight.
type Store struct {
	auth   Authenticator
	logger *zap.Logger
	md     bankrpc.Metadata

	mu      sync.Mutex
	cur     Session
	attempt uint64 // bumped by every login submit and logout
	subs    map[uint64]func(Session)
	nextSub uint64

	// notifyMu keeps subscriber callbacks in transition order.
	notifyMu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithMetadata attaches md to every login call.
func WithMetadata(md bankrpc.Metadata) Option {
	return func(s *Store) { s.md = md }
}

// NewStore returns a Store in the Anonymous state.
func NewStore(auth Authenticator, opts ...Option) *Store {
	s := &Store{
		auth:   auth,
		logger: zap.NewNop(),
		subs:   make(map[uint64]func(Session)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("session")
	return s
}

// Snapshot returns the current session.
func (s *Store) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Subscribe registers fn to receive every new snapshot. Callbacks run
// outside the store lock, one at a time, in transition order, and must not
// call Login or Logout themselves. The returned function unsubscribes.
func (s *Store) Subscribe(fn func(Session)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Login moves the session to Pending and sends the credentials. The
// returned channel is closed once this attempt's result has been applied,
// or dropped because a newer Login or a Logout superseded it.
func (s *Store) Login(ctx context.Context, name, password string) <-chan struct{} {
	done := make(chan struct{})

	attempt := s.apply(event{kind: loginSubmitted}, func() { s.attempt++ })
	s.logger.Debug("login submitted", zap.Uint64("attempt", attempt), zap.String("customer", name))

	req := &pb.LoginRequest{CustomerName: name, Password: password}
	s.auth.Login(ctx, req, s.md, func(resp *pb.LoginResponse, err error) {
		defer close(done)
		ev := event{kind: loginSucceeded}
		switch {
		case err != nil:
			ev = event{kind: loginFailed, err: err}
		case resp == nil || resp.CustomerID == "":
			ev = event{kind: loginFailed, err: ErrLoginRejected}
		default:
			ev.customerID = resp.CustomerID
			ev.customerName = resp.CustomerName
		}
		if !s.applyIfCurrent(attempt, ev) {
			s.logger.Debug("discarding superseded login result", zap.Uint64("attempt", attempt))
			return
		}
		if ev.kind == loginFailed {
			s.logger.Info("login failed", zap.Uint64("attempt", attempt), zap.Error(ev.err))
		} else {
			s.logger.Info("login succeeded", zap.Uint64("attempt", attempt), zap.String("customer_id", ev.customerID))
		}
	})
	return done
}

// Logout returns the session to Anonymous from any state. An in-flight
// login result is discarded when it arrives.
func (s *Store) Logout() {
	s.apply(event{kind: loggedOut}, func() { s.attempt++ })
	s.logger.Debug("logged out")
}

// apply runs one transition. bump, if non-nil, runs under the same lock.
// It returns the attempt number after the transition.
func (s *Store) apply(ev event, bump func()) uint64 {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if bump != nil {
		bump()
	}
	s.cur = reduce(s.cur, ev)
	snap, attempt, subs := s.cur, s.attempt, s.subscribers()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return attempt
}

func (s *Store) applyIfCurrent(attempt uint64, ev event) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if attempt != s.attempt {
		s.mu.Unlock()
		return false
	}
	s.cur = reduce(s.cur, ev)
	snap, subs := s.cur, s.subscribers()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return true
}

// subscribers must be called with mu held.
func (s *Store) subscribers() []func(Session) {
	out := make([]func(Session), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}
