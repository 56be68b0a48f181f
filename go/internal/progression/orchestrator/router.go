package orchestrator

import (
	"github.com/mcdev12/progression/go/internal/progression/enrichment"
	"github.com/mcdev12/progression/go/internal/progression/events"
	"github.com/mcdev12/progression/go/internal/progression/outcome"
	"github.com/mcdev12/progression/go/internal/progression/plan"
	"github.com/mcdev12/progression/go/internal/progression/rules"
)

// bound is a handler closed over its event, ready to resolve and decide.
type bound struct {
	spec   enrichment.Spec
	decide func(*enrichment.Context) (plan.Plan, error)
}

func bind[E events.Event](e E, h rules.Handler[E]) (bound, error) {
	if h == nil {
		return bound{}, outcome.Decisionf("no rule bound for %s", e.Kind())
	}
	return bound{
		spec: h.Requirements(e),
		decide: func(ec *enrichment.Context) (plan.Plan, error) {
			return h.Decide(e, ec)
		},
	}, nil
}

// router picks the handler for an event. Adding an event kind without a
// Visit method here fails to compile.
type router struct {
	rules rules.Set
	out   bound
}

func route(set rules.Set, e events.Event) (bound, error) {
	r := &router{rules: set}
	if err := events.Visit(e, r); err != nil {
		return bound{}, err
	}
	return r.out, nil
}

func (r *router) keep(b bound, err error) error {
	r.out = b
	return err
}

func (r *router) VisitDefenceOrganisationDisassociated(e events.DefenceOrganisationDisassociated) error {
	return r.keep(bind(e, r.rules.DefenceOrganisationDisassociated))
}

func (r *router) VisitDefenceOrganisationAssociated(e events.DefenceOrganisationAssociated) error {
	return r.keep(bind(e, r.rules.DefenceOrganisationAssociated))
}

func (r *router) VisitOffencesUpdated(e events.OffencesUpdated) error {
	return r.keep(bind(e, r.rules.OffencesUpdated))
}

func (r *router) VisitHearingResulted(e events.HearingResulted) error {
	return r.keep(bind(e, r.rules.HearingResulted))
}

func (r *router) VisitCourtApplicationCreated(e events.CourtApplicationCreated) error {
	return r.keep(bind(e, r.rules.CourtApplicationCreated))
}

func (r *router) VisitCourtApplicationUpdated(e events.CourtApplicationUpdated) error {
	return r.keep(bind(e, r.rules.CourtApplicationUpdated))
}

func (r *router) VisitDefendantUpdated(e events.DefendantUpdated) error {
	return r.keep(bind(e, r.rules.DefendantUpdated))
}

func (r *router) VisitDocumentGenerated(e events.DocumentGenerated) error {
	return r.keep(bind(e, r.rules.DocumentGenerated))
}

func (r *router) VisitFormFinalised(e events.FormFinalised) error {
	return r.keep(bind(e, r.rules.FormFinalised))
}

func (r *router) VisitCaseReferredToCourt(e events.CaseReferredToCourt) error {
	return r.keep(bind(e, r.rules.CaseReferredToCourt))
}
