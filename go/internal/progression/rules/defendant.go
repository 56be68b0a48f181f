package rules

import (
	"github.com/mcdev12/progression/go/internal/models"
	"github.com/mcdev12/progression/go/internal/progression/enrichment"
	"github.com/mcdev12/progression/go/internal/progression/events"
	"github.com/mcdev12/progression/go/internal/progression/matching"
	"github.com/mcdev12/progression/go/internal/progression/outcome"
	"github.com/mcdev12/progression/go/internal/progression/plan"
	"github.com/mcdev12/progression/go/internal/progression/readmodel"
)

type defendantForHearing struct {
	HearingID string           `json:"hearingId"`
	Defendant models.Defendant `json:"defendant"`
}

// UpdateDefendant pushes defendant changes to every hearing of the case that
// lists the defendant.
type UpdateDefendant struct{}

func (UpdateDefendant) Requirements(e events.DefendantUpdated) enrichment.Spec {
	caseID := e.Payload.Defendant.ProsecutionCaseID
	return enrichment.Needs(enrichment.Required(readmodel.ProsecutionCase, caseID)).
		Then(func(ec *enrichment.Context) ([]enrichment.Requirement, error) {
			pc, err := enrichment.MustLookup[models.ProsecutionCase](ec, readmodel.ProsecutionCase, caseID)
			if err != nil {
				return nil, err
			}
			ids := matching.DedupIDs(pc.HearingIDs)
			reqs := make([]enrichment.Requirement, 0, len(ids))
			for _, id := range ids {
				reqs = append(reqs, enrichment.Optional(readmodel.Hearing, id))
			}
			return reqs, nil
		})
}

func (UpdateDefendant) Decide(e events.DefendantUpdated, ec *enrichment.Context) (plan.Plan, error) {
	d := e.Payload.Defendant
	b := newBuilder(e)

	pc, err := enrichment.MustLookup[models.ProsecutionCase](ec, readmodel.ProsecutionCase, d.ProsecutionCaseID)
	if err != nil {
		return plan.Plan{}, err
	}
	key := matching.MatchKey{CaseID: d.ProsecutionCaseID, DefendantID: d.ID}
	if !matching.NewIndex([]models.ProsecutionCase{pc}).Resolve(key).Matched() {
		return plan.Plan{}, outcome.Decisionf("defendant %s is not on case %s", d.ID, d.ProsecutionCaseID)
	}

	for _, id := range matching.DedupIDs(pc.HearingIDs) {
		h, ok, err := enrichment.Lookup[models.Hearing](ec, readmodel.Hearing, id)
		if err != nil {
			return plan.Plan{}, err
		}
		if !ok || !matching.FromHearing(h).Resolve(key).Matched() {
			continue
		}
		b.Command(CmdUpdateDefendantForHearing, plan.TargetHearing, defendantForHearing{
			HearingID: id,
			Defendant: d,
		})
	}
	return b.Build("defendant is not on any hearing")
}
