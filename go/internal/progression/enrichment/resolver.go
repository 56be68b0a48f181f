// Package enrichment resolves the read-model data a rule declares before
// the rule is allowed to decide.
package enrichment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/progression/go/internal/progression/outcome"
	"github.com/mcdev12/progression/go/internal/progression/readmodel"
	"github.com/mcdev12/progression/go/internal/progression/telemetry"
)

const defaultParallelism = 4

// Resolver runs a Spec against a Gateway.
type Resolver struct {
	gateway     readmodel.Gateway
	parallelism int
}

func NewResolver(gw readmodel.Gateway, parallelism int) *Resolver {
	if parallelism <= 0 {
		parallelism = defaultParallelism
	}
	return &Resolver{gateway: gw, parallelism: parallelism}
}

// Resolve runs the stages in order. Requirements within a stage are fetched
// concurrently; a stage only starts once the previous one finished. The
// first query that fails, or a required one that is not found, cancels the
// rest and is returned as an EnrichmentError. Optional only excuses NotFound.
func (r *Resolver) Resolve(ctx context.Context, spec Spec) (*Context, error) {
	ec := NewContext()
	for i, stage := range spec.Stages {
		reqs, err := stage(ec)
		if err != nil {
			return nil, fmt.Errorf("enrichment stage %d: %w", i, err)
		}
		if err := r.resolveStage(ctx, ec, pending(ec, reqs)); err != nil {
			return nil, err
		}
	}
	log.Debug().
		Int("stages", len(spec.Stages)).
		Int("results", ec.Len()).
		Msg("Enrichment resolved")
	return ec, nil
}

// pending drops requirements already resolved or repeated within the stage.
func pending(ec *Context, reqs []Requirement) []Requirement {
	seen := make(map[string]bool, len(reqs))
	out := make([]Requirement, 0, len(reqs))
	for _, req := range reqs {
		name := req.ResultName()
		if seen[name] {
			continue
		}
		seen[name] = true
		if _, done := ec.Get(name); done {
			continue
		}
		out = append(out, req)
	}
	return out
}

func (r *Resolver) resolveStage(ctx context.Context, ec *Context, reqs []Requirement) error {
	if len(reqs) == 0 {
		return nil
	}

	results := make([]readmodel.Result, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)

	for i, req := range reqs {
		g.Go(func() error {
			res := r.fetch(gctx, req)
			results[i] = res
			if !acceptable(req, res) {
				return &outcome.EnrichmentError{
					Requirement: req.ResultName(),
					Status:      string(res.Status),
					Err:         res.Err,
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return &outcome.EnrichmentError{Requirement: reqs[0].ResultName(), Status: string(readmodel.Failed), Err: err}
	}

	for i, req := range reqs {
		res := results[i]
		if res.Status == readmodel.NotFound {
			log.Debug().
				Str("requirement", req.ResultName()).
				Msg("Optional enrichment not found")
		}
		ec.put(Entry{Requirement: req, Status: res.Status, Value: res.Value, Err: res.Err})
	}
	return nil
}

// acceptable reports whether res lets the reaction go on deciding.
func acceptable(req Requirement, res readmodel.Result) bool {
	switch res.Status {
	case readmodel.Found:
		return true
	case readmodel.NotFound:
		return req.Optional
	default:
		return false
	}
}

func (r *Resolver) fetch(ctx context.Context, req Requirement) readmodel.Result {
	ctx, span := telemetry.StartSpan(ctx, "enrich "+string(req.Kind),
		attribute.String("requirement", req.ResultName()),
		attribute.Bool("optional", req.Optional),
	)
	defer span.End()

	if err := ctx.Err(); err != nil {
		return readmodel.FailedResult(err)
	}
	res := r.gateway.Fetch(ctx, req.Kind, req.Key)
	span.SetAttributes(attribute.String("status", string(res.Status)))
	if res.Status == readmodel.Failed {
		telemetry.RecordError(span, res.Err)
	}
	return res
}
