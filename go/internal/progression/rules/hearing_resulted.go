package rules

import (
	"strings"

	"github.com/mcdev12/progression/go/internal/models"
	"github.com/mcdev12/progression/go/internal/progression/enrichment"
	"github.com/mcdev12/progression/go/internal/progression/events"
	"github.com/mcdev12/progression/go/internal/progression/matching"
	"github.com/mcdev12/progression/go/internal/progression/outcome"
	"github.com/mcdev12/progression/go/internal/progression/plan"
	"github.com/mcdev12/progression/go/internal/progression/readmodel"
)

type hearingResults struct {
	Hearing    models.Hearing `json:"hearing"`
	SharedTime string         `json:"sharedTime"`
}

type caseStatusUpdate struct {
	ProsecutionCaseID string            `json:"prosecutionCaseId"`
	CaseStatus        models.CaseStatus `json:"caseStatus"`
}

type nextHearingListing struct {
	OriginatingHearingID string                 `json:"originatingHearingId"`
	HearingTypeID        string                 `json:"hearingTypeId,omitempty"`
	CourtCentre          models.CourtCentre     `json:"courtCentre"`
	ListedStartDateTime  string                 `json:"listedStartDateTime,omitempty"`
	WeekCommencingDate   *models.WeekCommencing `json:"weekCommencingDate,omitempty"`
	EstimatedMinutes     int                    `json:"estimatedMinutes,omitempty"`
	ProsecutionCaseIDs   []string               `json:"prosecutionCaseIds"`
	OffenceIDs           []string               `json:"offenceIds"`
}

// nextHearingRequest is one distinct next hearing asked for by the results,
// with the offences that asked for it.
type nextHearingRequest struct {
	key     string
	hearing models.NextHearing
	caseIDs []string
	offIDs  []string
}

func nextHearingKey(nh models.NextHearing) string {
	parts := []string{nh.HearingTypeID, nh.CourtCentreID, nh.ListedStartDateTime}
	if nh.WeekCommencingDate != nil {
		parts = append(parts, nh.WeekCommencingDate.StartDate)
	}
	return strings.Join(parts, "|")
}

// collectNextHearings walks the resulted hearing in aggregate order and groups
// next-hearing requests in the order they are first seen.
func collectNextHearings(h models.Hearing) []*nextHearingRequest {
	var (
		out   []*nextHearingRequest
		byKey = make(map[string]*nextHearingRequest)
	)
	for _, pc := range h.ProsecutionCases {
		for _, d := range pc.Defendants {
			for _, o := range d.Offences {
				for _, r := range o.JudicialResults {
					if r.NextHearing == nil {
						continue
					}
					key := nextHearingKey(*r.NextHearing)
					req, ok := byKey[key]
					if !ok {
						req = &nextHearingRequest{key: key, hearing: *r.NextHearing}
						byKey[key] = req
						out = append(out, req)
					}
					req.caseIDs = append(req.caseIDs, pc.ID)
					req.offIDs = append(req.offIDs, o.ID)
				}
			}
		}
	}
	return out
}

func courtCentresForNextHearings(h models.Hearing) []string {
	var ids []string
	for _, req := range collectNextHearings(h) {
		ids = append(ids, req.hearing.CourtCentreID)
	}
	return matching.DedupIDs(ids)
}

// concluded reports whether every offence on the case has a final result.
// A case without offences is not concluded.
func concluded(pc models.ProsecutionCase) bool {
	seen := false
	for _, d := range pc.Defendants {
		for _, o := range d.Offences {
			seen = true
			if !o.HasFinalResult() {
				return false
			}
		}
	}
	return seen
}

// ResultHearing records shared results, closes concluded cases and asks
// listing for the next hearings the results request.
type ResultHearing struct{}

func (ResultHearing) Requirements(e events.HearingResulted) enrichment.Spec {
	var reqs []enrichment.Requirement
	for _, id := range courtCentresForNextHearings(e.Payload.Hearing) {
		reqs = append(reqs, enrichment.Required(readmodel.OrganisationUnit, id))
	}
	return enrichment.Needs(reqs...)
}

func (ResultHearing) Decide(e events.HearingResulted, ec *enrichment.Context) (plan.Plan, error) {
	h := e.Payload.Hearing
	b := newBuilder(e).Command(CmdRecordHearingResults, plan.TargetProgression, hearingResults{
		Hearing:    h,
		SharedTime: e.Payload.SharedTime,
	})

	idx := matching.FromHearing(h)
	for _, caseID := range idx.CaseIDs() {
		pc, _ := idx.Case(caseID)
		if concluded(*pc) {
			b.Command(CmdUpdateCaseStatus, plan.TargetProgression, caseStatusUpdate{
				ProsecutionCaseID: caseID,
				CaseStatus:        models.CaseStatusInactive,
			})
		}
	}

	for _, req := range collectNextHearings(h) {
		nh := req.hearing
		if nh.CourtCentreID == "" {
			return plan.Plan{}, outcome.Decisionf("next hearing %q has no court centre", req.key)
		}
		if nh.ListedStartDateTime == "" && nh.WeekCommencingDate == nil {
			return plan.Plan{}, outcome.Decisionf("next hearing %q has neither a start time nor a week commencing", req.key)
		}
		unit, err := enrichment.MustLookup[models.OrganisationUnit](ec, readmodel.OrganisationUnit, nh.CourtCentreID)
		if err != nil {
			return plan.Plan{}, err
		}

		listing := nextHearingListing{
			OriginatingHearingID: h.ID,
			HearingTypeID:        nh.HearingTypeID,
			CourtCentre:          unit.CourtCentre(),
			EstimatedMinutes:     nh.EstimatedMinutes,
			ProsecutionCaseIDs:   matching.DedupIDs(req.caseIDs),
			OffenceIDs:           matching.DedupIDs(req.offIDs),
		}
		if nh.ListedStartDateTime != "" {
			listing.ListedStartDateTime = nh.ListedStartDateTime
		} else {
			listing.WeekCommencingDate = nh.WeekCommencingDate
		}
		b.Command(CmdListNextHearing, plan.TargetListing, listing)
	}
	return b.Build("hearing has no results")
}
