// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package guard decides whether a route may be entered for a given session.
package guard

import (
	"fmt"
	"maps"
	"sync"

	"github.com/luxfi/bankrpc/session"
)

// Route is supplied by the navigation layer and never modified here.
type Route struct {
	Name         string
	Params       map[string]string
	RequiresAuth bool
}

// Decision is the outcome of Decide.
type Decision int

const (
	Allow Decision = iota
	RedirectToLogin
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect-to-login"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// Decide is a pure function of its inputs: protected routes require an
// Authenticated session, everything else is allowed.
func Decide(route Route, s session.Session) Decision {
	if route.RequiresAuth && s.Status != session.Authenticated {
		return RedirectToLogin
	}
	return Allow
}

// LoginRouteName is the route redirects lead to.
const LoginRouteName = "login"

// LoginRoute builds the redirect target for a denied route. The denied
// route's name is kept in the "next" param.
func LoginRoute(from Route) Route {
	params := map[string]string{}
	if from.Name != "" && from.Name != LoginRouteName {
		params["next"] = from.Name
	}
	return Route{Name: LoginRouteName, Params: params}
}

// Source is the part of session.Store a Navigator needs.
type Source interface {
	Snapshot() session.Session
	Subscribe(fn func(session.Session)) (cancel func())
}

// Navigator re-evaluates the current route whenever the session changes
// and reports the login route to OnRedirect when access is lost.
type Navigator struct {
	src        Source
	onRedirect func(Route)

	mu      sync.Mutex
	current Route
	stop    func()
}

// NewNavigator starts watching src. onRedirect may be nil.
func NewNavigator(src Source, onRedirect func(Route)) *Navigator {
	n := &Navigator{src: src, onRedirect: onRedirect}
	n.stop = src.Subscribe(n.reevaluate)
	return n
}

// Navigate decides route against the current session. On Allow it becomes
// the current route; on RedirectToLogin the login route does.
func (n *Navigator) Navigate(route Route) (Decision, Route) {
	d := Decide(route, n.src.Snapshot())
	target := route
	if d == RedirectToLogin {
		target = LoginRoute(route)
	}
	n.mu.Lock()
	n.current = cloneRoute(target)
	n.mu.Unlock()
	return d, target
}

// Current returns the route the navigator is on.
func (n *Navigator) Current() Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return cloneRoute(n.current)
}

// Close stops watching the session.
func (n *Navigator) Close() { n.stop() }

func (n *Navigator) reevaluate(s session.Session) {
	n.mu.Lock()
	cur := n.current
	if Decide(cur, s) == Allow {
		n.mu.Unlock()
		return
	}
	target := LoginRoute(cur)
	n.current = target
	n.mu.Unlock()

	if n.onRedirect != nil {
		n.onRedirect(cloneRoute(target))
	}
}

func cloneRoute(r Route) Route {
	r.Params = maps.Clone(r.Params)
	return r
}
