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

type applicationCaseLink struct {
	ApplicationID     string `json:"applicationId"`
	ProsecutionCaseID string `json:"prosecutionCaseId"`
	CaseURN           string `json:"caseUrn,omitempty"`
}

type courtHearingListing struct {
	ApplicationID         string                 `json:"applicationId"`
	HearingTypeID         string                 `json:"hearingTypeId"`
	CourtCentre           models.CourtCentre     `json:"courtCentre"`
	EarliestStartDateTime string                 `json:"earliestStartDateTime,omitempty"`
	WeekCommencingDate    *models.WeekCommencing `json:"weekCommencingDate,omitempty"`
	EstimatedMinutes      int                    `json:"estimatedMinutes,omitempty"`
}

type courtApplicationMessage struct {
	CourtApplication models.CourtApplication `json:"courtApplication"`
}

type courtApplicationForHearing struct {
	HearingID        string                  `json:"hearingId"`
	CourtApplication models.CourtApplication `json:"courtApplication"`
}

// CreateCourtApplication links a new application to its cases, lists its
// first hearing when one is requested and announces it.
type CreateCourtApplication struct{}

func (CreateCourtApplication) Requirements(e events.CourtApplicationCreated) enrichment.Spec {
	var reqs []enrichment.Requirement
	for _, id := range matching.DedupIDs(e.Payload.CourtApplication.LinkedCaseIDs()) {
		reqs = append(reqs, enrichment.Required(readmodel.ProsecutionCase, id))
	}
	if ch := e.Payload.CourtHearing; ch != nil {
		reqs = append(reqs, enrichment.Required(readmodel.OrganisationUnit, ch.CourtCentreID))
	}
	return enrichment.Needs(reqs...)
}

func (CreateCourtApplication) Decide(e events.CourtApplicationCreated, ec *enrichment.Context) (plan.Plan, error) {
	app := e.Payload.CourtApplication
	b := newBuilder(e)

	caseIDs := matching.DedupIDs(app.LinkedCaseIDs())
	cases := make([]models.ProsecutionCase, 0, len(caseIDs))
	for _, id := range caseIDs {
		pc, err := enrichment.MustLookup[models.ProsecutionCase](ec, readmodel.ProsecutionCase, id)
		if err != nil {
			return plan.Plan{}, err
		}
		cases = append(cases, pc)
	}

	idx := matching.NewIndex(cases)
	if app.Subject != nil {
		for _, dc := range app.Subject.DefendantCases {
			path := idx.Resolve(matching.MatchKey{CaseID: dc.CaseID, DefendantID: dc.DefendantID})
			if !path.Matched() {
				return plan.Plan{}, outcome.Decisionf("application %s subject %s not found on case %s (unmatched at %s)",
					app.ID, dc.DefendantID, dc.CaseID, path.UnmatchedAt)
			}
		}
	}

	for _, id := range caseIDs {
		pc, _ := idx.Case(id)
		link := applicationCaseLink{ApplicationID: app.ID, ProsecutionCaseID: id}
		if pc != nil {
			link.CaseURN = pc.CaseURN
		}
		b.Command(CmdLinkApplicationToCase, plan.TargetProgression, link)
	}

	if ch := e.Payload.CourtHearing; ch != nil {
		unit, err := enrichment.MustLookup[models.OrganisationUnit](ec, readmodel.OrganisationUnit, ch.CourtCentreID)
		if err != nil {
			return plan.Plan{}, err
		}
		listing := courtHearingListing{
			ApplicationID:    app.ID,
			HearingTypeID:    ch.HearingTypeID,
			CourtCentre:      unit.CourtCentre(),
			EstimatedMinutes: ch.EstimatedMinutes,
		}
		if ch.EarliestStartDateTime != "" {
			listing.EarliestStartDateTime = ch.EarliestStartDateTime
		} else {
			listing.WeekCommencingDate = ch.WeekCommencingDate
		}
		b.Command(CmdListCourtHearing, plan.TargetListing, listing)
	}

	b.Public(EvtCourtApplicationCreated, courtApplicationMessage{CourtApplication: app})
	return b.Build("")
}

// UpdateCourtApplication pushes the updated application to every hearing it
// is listed on.
type UpdateCourtApplication struct{}

func (UpdateCourtApplication) Requirements(e events.CourtApplicationUpdated) enrichment.Spec {
	return enrichment.Needs(enrichment.Optional(readmodel.HearingsForApplication, e.Payload.CourtApplication.ID))
}

func (UpdateCourtApplication) Decide(e events.CourtApplicationUpdated, ec *enrichment.Context) (plan.Plan, error) {
	app := e.Payload.CourtApplication
	b := newBuilder(e)

	hearings, ok, err := enrichment.Lookup[models.ApplicationHearings](ec, readmodel.HearingsForApplication, app.ID)
	if err != nil {
		return plan.Plan{}, err
	}
	if !ok {
		return b.NoAction("application is not listed on any hearing"), nil
	}

	ids := make([]string, 0, len(hearings.Hearings))
	for _, h := range hearings.Hearings {
		ids = append(ids, h.ID)
	}
	for _, id := range matching.DedupIDs(ids) {
		b.Command(CmdUpdateCourtApplicationForHearing, plan.TargetHearing, courtApplicationForHearing{
			HearingID:        id,
			CourtApplication: app,
		})
	}
	return b.Build("application is not listed on any hearing")
}
