// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bankrpc

import "fmt"

// CallKind distinguishes unary from server-streaming methods.
type CallKind uint8

const (
	Unary CallKind = iota + 1
	ServerStreaming
)

func (k CallKind) String() string {
	switch k {
	case Unary:
		return "unary"
	case ServerStreaming:
		return "server-streaming"
	default:
		return fmt.Sprintf("CallKind(%d)", uint8(k))
	}
}

// MethodDescriptor binds a method name to its call kind and response type.
// Descriptors are built once at start-up and shared read-only.
type MethodDescriptor struct {
	Service     string // e.g. "proto.Customer"
	Method      string // e.g. "Login"
	Kind        CallKind
	NewResponse func() Message
}

// Path returns "/<Service>/<Method>".
func (d *MethodDescriptor) Path() string {
	return "/" + d.Service + "/" + d.Method
}

func (d *MethodDescriptor) String() string { return d.Service + "/" + d.Method }

// EncodeRequest encodes req for this method.
func (d *MethodDescriptor) EncodeRequest(req Message) []byte {
	return Encode(req)
}

// DecodeResponse decodes one response payload for this method.
func (d *MethodDescriptor) DecodeResponse(data []byte) (Message, error) {
	resp := d.NewResponse()
	if err := Decode(data, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Table is an immutable method table keyed by service and method name.
type Table struct {
	byName  map[string]*MethodDescriptor
	ordered []*MethodDescriptor
}

// NewTable builds a table. It panics on a duplicate or incomplete
// descriptor, since tables are built from fixed schema at init time.
func NewTable(descs ...*MethodDescriptor) *Table {
	t := &Table{byName: make(map[string]*MethodDescriptor, len(descs))}
	for _, d := range descs {
		if d.Service == "" || d.Method == "" || d.NewResponse == nil {
			panic(fmt.Sprintf("bankrpc: incomplete descriptor %q", d.String()))
		}
		if d.Kind != Unary && d.Kind != ServerStreaming {
			panic(fmt.Sprintf("bankrpc: descriptor %s has invalid kind %s", d, d.Kind))
		}
		key := d.String()
		if _, ok := t.byName[key]; ok {
			panic(fmt.Sprintf("bankrpc: duplicate descriptor %s", key))
		}
		t.byName[key] = d
		t.ordered = append(t.ordered, d)
	}
	return t
}

// Lookup returns the descriptor for service/method or ErrUnknownMethod.
func (t *Table) Lookup(service, method string) (*MethodDescriptor, error) {
	d, ok := t.byName[service+"/"+method]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownMethod, service, method)
	}
	return d, nil
}

// MustLookup is Lookup that panics on a miss.
func (t *Table) MustLookup(service, method string) *MethodDescriptor {
	d, err := t.Lookup(service, method)
	if err != nil {
		panic(err)
	}
	return d
}

// Methods returns the descriptors in registration order.
func (t *Table) Methods() []*MethodDescriptor {
	out := make([]*MethodDescriptor, len(t.ordered))
	copy(out, t.ordered)
	return out
}
