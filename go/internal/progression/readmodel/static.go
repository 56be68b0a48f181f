package readmodel

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Static serves results from memory. It backs local runs without upstream
// services and the package tests of callers.
type Static struct {
	mu      sync.Mutex
	results map[string]Result
	calls   []string
}

func NewStatic() *Static {
	return &Static{results: make(map[string]Result)}
}

func staticKey(kind QueryKind, key string) string {
	return string(kind) + ":" + key
}

// Put stores v as the found value for (kind, key). v is marshalled unless
// it is already raw JSON.
func (s *Static) Put(kind QueryKind, key string, v any) *Static {
	raw, ok := v.(json.RawMessage)
	if !ok {
		b, err := json.Marshal(v)
		if err != nil {
			panic(fmt.Sprintf("static gateway: marshal %s: %v", staticKey(kind, key), err))
		}
		raw = b
	}
	return s.PutResult(kind, key, FoundResult(raw))
}

// PutResult stores an explicit result, e.g. a failure.
func (s *Static) PutResult(kind QueryKind, key string, r Result) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[staticKey(kind, key)] = r
	return s
}

func (s *Static) Fetch(ctx context.Context, kind QueryKind, key string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, staticKey(kind, key))
	if err := ctx.Err(); err != nil {
		return FailedResult(err)
	}
	if r, ok := s.results[staticKey(kind, key)]; ok {
		return r
	}
	return NotFoundResult()
}

// Calls returns the queries made so far as "kind:key".
func (s *Static) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}
