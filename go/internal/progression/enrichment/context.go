package enrichment

import (
	"encoding/json"
	"fmt"

	"github.com/mcdev12/progression/go/internal/progression/outcome"
	"github.com/mcdev12/progression/go/internal/progression/readmodel"
)

// Entry is one resolved requirement.
type Entry struct {
	Requirement Requirement
	Status      readmodel.Status
	Value       json.RawMessage
	Err         error
}

// Context holds everything resolved for one reaction. It is built fresh per
// reaction and read-only once handed to a rule.
type Context struct {
	entries map[string]Entry
	order   []string
}

func NewContext() *Context {
	return &Context{entries: make(map[string]Entry)}
}

func (c *Context) put(e Entry) {
	name := e.Requirement.ResultName()
	if _, ok := c.entries[name]; !ok {
		c.order = append(c.order, name)
	}
	c.entries[name] = e
}

// Set records an entry directly. Used by tests and dry-run tooling.
func (c *Context) Set(req Requirement, res readmodel.Result) *Context {
	c.put(Entry{Requirement: req, Status: res.Status, Value: res.Value, Err: res.Err})
	return c
}

func (c *Context) Get(name string) (Entry, bool) {
	e, ok := c.entries[name]
	return e, ok
}

// Found reports whether name resolved to a value.
func (c *Context) Found(name string) bool {
	e, ok := c.entries[name]
	return ok && e.Status == readmodel.Found
}

// Names returns result names in resolution order.
func (c *Context) Names() []string {
	return append([]string(nil), c.order...)
}

// Len returns the number of resolved entries.
func (c *Context) Len() int {
	return len(c.order)
}

// Decode unmarshals the named value into T. ok is false when the value was
// not found; a value that does not decode is reported as unavailable
// enrichment.
func Decode[T any](c *Context, name string) (value T, ok bool, err error) {
	e, exists := c.entries[name]
	if !exists || e.Status != readmodel.Found {
		return value, false, nil
	}
	if err := json.Unmarshal(e.Value, &value); err != nil {
		return value, false, &outcome.EnrichmentError{
			Requirement: name,
			Status:      "MALFORMED",
			Err:         fmt.Errorf("decode %s: %w", name, err),
		}
	}
	return value, true, nil
}

// Lookup is Decode by query kind and key under the default name.
func Lookup[T any](c *Context, kind readmodel.QueryKind, key string) (T, bool, error) {
	return Decode[T](c, NameOf(kind, key))
}

// MustLookup is Lookup for required values: not found becomes an
// EnrichmentError. The resolver guarantees required values are present, so
// this only fires when a rule reads something it did not declare.
func MustLookup[T any](c *Context, kind readmodel.QueryKind, key string) (T, error) {
	v, ok, err := Lookup[T](c, kind, key)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, &outcome.EnrichmentError{Requirement: NameOf(kind, key), Status: string(readmodel.NotFound)}
	}
	return v, nil
}
