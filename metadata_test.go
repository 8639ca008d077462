// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bankrpc

import (
	"slices"
	"testing"
)

func keys(md Metadata) []string {
	var out []string
	md.Range(func(k, _ string) bool {
		out = append(out, k)
		return true
	})
	return out
}

func TestMetadataWithCopies(t *testing.T) {
	base := NewMetadata("Authorization", "Bearer x")
	next := base.With("x-trace", "1")

	if base.Len() != 1 {
		t.Fatalf("base changed: len %d", base.Len())
	}
	if next.Len() != 2 {
		t.Fatalf("next len %d, want 2", next.Len())
	}
	if v, ok := next.Get("AUTHORIZATION"); !ok || v != "Bearer x" {
		t.Fatalf("Get authorization = %q, %v", v, ok)
	}

	replaced := next.With("Authorization", "Bearer y")
	if got := keys(replaced); !slices.Equal(got, []string{"authorization", "x-trace"}) {
		t.Fatalf("order after replace: %v", got)
	}
	if v, _ := next.Get("authorization"); v != "Bearer x" {
		t.Fatalf("replace leaked into the receiver: %q", v)
	}
}

func TestMetadataFromMapSorted(t *testing.T) {
	md := MetadataFromMap(map[string]string{"b": "2", "a": "1", "c": "3"})
	if got := keys(md); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("keys = %v", got)
	}
}

func TestNewMetadataOddArgs(t *testing.T) {
	md := NewMetadata("a", "1", "dangling")
	if md.Len() != 1 {
		t.Fatalf("len = %d, want 1", md.Len())
	}
	if _, ok := md.Get("dangling"); ok {
		t.Fatal("dangling key should be ignored")
	}
}

func TestMetadataRangeStops(t *testing.T) {
	md := NewMetadata("a", "1", "b", "2", "c", "3")
	n := 0
	md.Range(func(string, string) bool {
		n++
		return n < 2
	})
	if n != 2 {
		t.Fatalf("visited %d pairs, want 2", n)
	}
}

func TestJoinURL(t *testing.T) {
	tests := []struct{ endpoint, path, want string }{
		{"http://localhost:8080", "/proto.Customer/Login", "http://localhost:8080/proto.Customer/Login"},
		{"http://localhost:8080/", "/proto.Customer/Login", "http://localhost:8080/proto.Customer/Login"},
		{"https://gw.example/api/", "proto.Account/OpenAccount", "https://gw.example/api/proto.Account/OpenAccount"},
	}
	for _, tt := range tests {
		if got := JoinURL(tt.endpoint, tt.path); got != tt.want {
			t.Errorf("JoinURL(%q, %q) = %q, want %q", tt.endpoint, tt.path, got, tt.want)
		}
	}
}

func TestAvailableTransports(t *testing.T) {
	got := AvailableTransports()
	for _, name := range []string{TransportGRPC, TransportGRPCWeb, TransportJSON} {
		if !slices.Contains(got, name) || !HasTransport(name) {
			t.Errorf("transport %q not registered: %v", name, got)
		}
	}
	if HasTransport("zap") {
		t.Error("unexpected transport zap")
	}
}
