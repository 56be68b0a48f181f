// Package rules holds one handler per inbound event kind. A handler
// declares the read-model data it needs and then decides, from the event
// and that data alone, which messages to emit and in what order.
package rules

import (
	"github.com/mcdev12/progression/go/internal/progression/enrichment"
	"github.com/mcdev12/progression/go/internal/progression/events"
	"github.com/mcdev12/progression/go/internal/progression/plan"
)

// Handler reacts to events of type E. Decide must be deterministic: the same
// event and context always yield the same plan.
type Handler[E events.Event] interface {
	Requirements(e E) enrichment.Spec
	Decide(e E, ec *enrichment.Context) (plan.Plan, error)
}

// Set binds a handler to every event kind.
type Set struct {
	DefenceOrganisationDisassociated Handler[events.DefenceOrganisationDisassociated]
	DefenceOrganisationAssociated    Handler[events.DefenceOrganisationAssociated]
	OffencesUpdated                  Handler[events.OffencesUpdated]
	HearingResulted                  Handler[events.HearingResulted]
	CourtApplicationCreated          Handler[events.CourtApplicationCreated]
	CourtApplicationUpdated          Handler[events.CourtApplicationUpdated]
	DefendantUpdated                 Handler[events.DefendantUpdated]
	DocumentGenerated                Handler[events.DocumentGenerated]
	FormFinalised                    Handler[events.FormFinalised]
	CaseReferredToCourt              Handler[events.CaseReferredToCourt]
}

// Default returns the production rule set.
func Default() Set {
	return Set{
		DefenceOrganisationDisassociated: DisassociateDefenceOrganisation{},
		DefenceOrganisationAssociated:    AssociateDefenceOrganisation{},
		OffencesUpdated:                  UpdateOffences{},
		HearingResulted:                  ResultHearing{},
		CourtApplicationCreated:          CreateCourtApplication{},
		CourtApplicationUpdated:          UpdateCourtApplication{},
		DefendantUpdated:                 UpdateDefendant{},
		DocumentGenerated:                AddGeneratedDocument{},
		FormFinalised:                    FinaliseForm{},
		CaseReferredToCourt:              ReferCaseToCourt{},
	}
}

func newBuilder(e events.Event) *plan.Builder {
	return plan.NewBuilder(e.ID(), string(e.Kind()), e.Correlation())
}
