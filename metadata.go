// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bankrpc

import (
	"slices"
	"strings"
)

// Metadata is an ordered set of header name/value pairs attached to a call.
// Values are never modified in place; With returns a copy.
type Metadata struct {
	pairs []pair
}

type pair struct {
	key, value string
}

// NewMetadata builds metadata from alternating key/value strings. A trailing
// key without a value is ignored.
func NewMetadata(kv ...string) Metadata {
	var md Metadata
	for i := 0; i+1 < len(kv); i += 2 {
		md = md.With(kv[i], kv[i+1])
	}
	return md
}

// MetadataFromMap copies m. Map iteration order is not stable, so keys are
// sorted to keep header order deterministic.
func MetadataFromMap(m map[string]string) Metadata {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var md Metadata
	for _, k := range keys {
		md = md.With(k, m[k])
	}
	return md
}

// With returns a copy of md with key set to value. An existing key keeps its
// position.
func (md Metadata) With(key, value string) Metadata {
	key = strings.ToLower(key)
	pairs := make([]pair, len(md.pairs), len(md.pairs)+1)
	copy(pairs, md.pairs)
	for i := range pairs {
		if pairs[i].key == key {
			pairs[i].value = value
			return Metadata{pairs: pairs}
		}
	}
	return Metadata{pairs: append(pairs, pair{key, value})}
}

// Get returns the value for key.
func (md Metadata) Get(key string) (string, bool) {
	key = strings.ToLower(key)
	for _, p := range md.pairs {
		if p.key == key {
			return p.value, true
		}
	}
	return "", false
}

func (md Metadata) Len() int { return len(md.pairs) }

// Range calls fn for each pair in order until fn returns false.
func (md Metadata) Range(fn func(key, value string) bool) {
	for _, p := range md.pairs {
		if !fn(p.key, p.value) {
			return
		}
	}
}
