package rules

import (
	"github.com/mcdev12/progression/go/internal/models"
	"github.com/mcdev12/progression/go/internal/progression/enrichment"
	"github.com/mcdev12/progression/go/internal/progression/events"
	"github.com/mcdev12/progression/go/internal/progression/plan"
	"github.com/mcdev12/progression/go/internal/progression/readmodel"
)

type referralReason struct {
	ID               string `json:"id"`
	Description      string `json:"description"`
	WelshDescription string `json:"welshDescription,omitempty"`
}

type caseReferral struct {
	ProsecutionCaseID string             `json:"prosecutionCaseId"`
	ReferralReason    referralReason     `json:"referralReason"`
	CourtCentre       models.CourtCentre `json:"courtCentre"`
	HearingTypeID     string             `json:"hearingTypeId,omitempty"`
	ListingDate       string             `json:"listingDate,omitempty"`
	DefendantIDs      []string           `json:"defendantIds,omitempty"`
	ReferredAt        string             `json:"referredAt,omitempty"`
}

// ReferCaseToCourt moves a single justice procedure case into court with the
// referral reason and court centre resolved from reference data.
type ReferCaseToCourt struct{}

func (ReferCaseToCourt) Requirements(e events.CaseReferredToCourt) enrichment.Spec {
	return enrichment.Needs(
		enrichment.Required(readmodel.ReferralReason, e.Payload.ReferralReasonID),
		enrichment.Required(readmodel.OrganisationUnit, e.Payload.CourtCentreID),
	)
}

func (ReferCaseToCourt) Decide(e events.CaseReferredToCourt, ec *enrichment.Context) (plan.Plan, error) {
	p := e.Payload
	reason, err := enrichment.MustLookup[models.ReferralReason](ec, readmodel.ReferralReason, p.ReferralReasonID)
	if err != nil {
		return plan.Plan{}, err
	}
	unit, err := enrichment.MustLookup[models.OrganisationUnit](ec, readmodel.OrganisationUnit, p.CourtCentreID)
	if err != nil {
		return plan.Plan{}, err
	}

	return newBuilder(e).Command(CmdReferCaseToCourt, plan.TargetProgression, caseReferral{
		ProsecutionCaseID: p.ProsecutionCaseID,
		ReferralReason: referralReason{
			ID:               reason.ID,
			Description:      reason.Reason,
			WelshDescription: reason.WelshReason,
		},
		CourtCentre:   unit.CourtCentre(),
		HearingTypeID: p.HearingTypeID,
		ListingDate:   p.ListingDate,
		DefendantIDs:  p.DefendantIDs,
		ReferredAt:    p.ReferredAt,
	}).Build("")
}
