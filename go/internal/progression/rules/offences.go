package rules

import (
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/progression/go/internal/models"
	"github.com/mcdev12/progression/go/internal/progression/enrichment"
	"github.com/mcdev12/progression/go/internal/progression/events"
	"github.com/mcdev12/progression/go/internal/progression/matching"
	"github.com/mcdev12/progression/go/internal/progression/plan"
	"github.com/mcdev12/progression/go/internal/progression/readmodel"
)

type offencesChanged struct {
	HearingID       string                  `json:"hearingId"`
	DefendantID     string                  `json:"defendantId"`
	UpdatedOffences []events.UpdatedOffence `json:"updatedOffences"`
}

type offencesForCase struct {
	ProsecutionCaseID string                  `json:"prosecutionCaseId"`
	DefendantID       string                  `json:"defendantId"`
	UpdatedOffences   []events.UpdatedOffence `json:"updatedOffences"`
}

// UpdateOffences propagates offence changes to the hearing and, when the
// offences belong to exactly one case on the hearing, to that case.
type UpdateOffences struct{}

func (UpdateOffences) Requirements(e events.OffencesUpdated) enrichment.Spec {
	return enrichment.Needs(enrichment.Required(readmodel.Hearing, e.Payload.HearingID))
}

func (UpdateOffences) Decide(e events.OffencesUpdated, ec *enrichment.Context) (plan.Plan, error) {
	p := e.Payload
	b := newBuilder(e)

	hearing, err := enrichment.MustLookup[models.Hearing](ec, readmodel.Hearing, p.HearingID)
	if err != nil {
		return plan.Plan{}, err
	}
	idx := matching.FromHearing(hearing)
	if !idx.FindDefendant(p.DefendantID).Matched() {
		return b.NoAction("defendant is not on the hearing"), nil
	}

	var (
		matched []events.UpdatedOffence
		caseIDs []string
	)
	for _, o := range p.UpdatedOffences {
		ids := idx.CasesContainingOffence(p.DefendantID, o.OffenceID)
		if len(ids) == 0 {
			continue
		}
		matched = append(matched, o)
		caseIDs = append(caseIDs, ids...)
	}
	if len(matched) == 0 {
		return b.NoAction("no updated offence is on the hearing"), nil
	}

	b.Public(EvtDefendantOffencesChanged, offencesChanged{
		HearingID:       p.HearingID,
		DefendantID:     p.DefendantID,
		UpdatedOffences: matched,
	})
	b.Command(CmdUpdateOffencesForHearing, plan.TargetHearing, offencesChanged{
		HearingID:       p.HearingID,
		DefendantID:     p.DefendantID,
		UpdatedOffences: matched,
	})

	caseIDs = matching.DedupIDs(caseIDs)
	if len(caseIDs) == 1 {
		b.Command(CmdUpdateOffencesForProsecutionCase, plan.TargetProgression, offencesForCase{
			ProsecutionCaseID: caseIDs[0],
			DefendantID:       p.DefendantID,
			UpdatedOffences:   matched,
		})
	} else {
		log.Warn().
			Str("event_id", e.ID().String()).
			Str("hearing_id", p.HearingID).
			Strs("case_ids", caseIDs).
			Msg("Offences match more than one case, case update suppressed")
	}
	return b.Build("no updated offence is on the hearing")
}
