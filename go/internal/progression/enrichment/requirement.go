package enrichment

import (
	"github.com/mcdev12/progression/go/internal/progression/readmodel"
)

// Requirement declares one read-model query a rule needs before deciding.
type Requirement struct {
	// Name is the key the result is stored under. Empty means "<kind>:<key>".
	Name     string
	Kind     readmodel.QueryKind
	Key      string
	Optional bool
}

// Required declares a query whose absence aborts the reaction.
func Required(kind readmodel.QueryKind, key string) Requirement {
	return Requirement{Kind: kind, Key: key}
}

// Optional declares a query whose absence the rule handles itself. A failed
// query still aborts the reaction.
func Optional(kind readmodel.QueryKind, key string) Requirement {
	return Requirement{Kind: kind, Key: key, Optional: true}
}

// ResultName returns the name the result is stored under.
func (r Requirement) ResultName() string {
	if r.Name != "" {
		return r.Name
	}
	return NameOf(r.Kind, r.Key)
}

// NameOf is the default result name for a query.
func NameOf(kind readmodel.QueryKind, key string) string {
	return string(kind) + ":" + key
}

// Stage yields the requirements of one resolution step. It sees every value
// resolved by earlier stages.
type Stage func(c *Context) ([]Requirement, error)

// Spec is the ordered list of stages a rule declares.
type Spec struct {
	Stages []Stage
}

// Fixed is a stage that does not depend on earlier results.
func Fixed(reqs ...Requirement) Stage {
	return func(*Context) ([]Requirement, error) {
		return reqs, nil
	}
}

// Needs builds a single-stage spec.
func Needs(reqs ...Requirement) Spec {
	return Spec{Stages: []Stage{Fixed(reqs...)}}
}

// Then appends a dependent stage.
func (s Spec) Then(stage Stage) Spec {
	stages := make([]Stage, 0, len(s.Stages)+1)
	stages = append(stages, s.Stages...)
	return Spec{Stages: append(stages, stage)}
}

// None is the spec of a rule that needs nothing.
func None() Spec {
	return Spec{}
}
