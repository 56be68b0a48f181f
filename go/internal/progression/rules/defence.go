package rules

import (
	"github.com/mcdev12/progression/go/internal/models"
	"github.com/mcdev12/progression/go/internal/progression/enrichment"
	"github.com/mcdev12/progression/go/internal/progression/events"
	"github.com/mcdev12/progression/go/internal/progression/matching"
	"github.com/mcdev12/progression/go/internal/progression/plan"
	"github.com/mcdev12/progression/go/internal/progression/readmodel"
)

type defenceOrganisationForCase struct {
	DefendantID        string `json:"defendantId"`
	OrganisationID     string `json:"organisationId"`
	OrganisationName   string `json:"organisationName,omitempty"`
	CaseID             string `json:"caseId"`
	RepresentationType string `json:"representationType,omitempty"`
	LAAContractNumber  string `json:"laaContractNumber,omitempty"`
}

type defenceOrganisationForApplication struct {
	DefendantID        string `json:"defendantId"`
	OrganisationID     string `json:"organisationId"`
	OrganisationName   string `json:"organisationName,omitempty"`
	ApplicationID      string `json:"applicationId"`
	RepresentationType string `json:"representationType,omitempty"`
	LAAContractNumber  string `json:"laaContractNumber,omitempty"`
}

// activeApplicationIDs returns the active applications on a case, deduplicated
// in response order. A case the query knows nothing about has none.
func activeApplicationIDs(ec *enrichment.Context, caseID string) ([]string, error) {
	apps, ok, err := enrichment.Lookup[models.ActiveApplications](ec, readmodel.ActiveApplicationsForCase, caseID)
	if err != nil || !ok {
		return nil, err
	}
	ids := make([]string, 0, len(apps.LinkedApplications))
	for _, a := range apps.LinkedApplications {
		ids = append(ids, a.ApplicationID)
	}
	return matching.DedupIDs(ids), nil
}

// DisassociateDefenceOrganisation removes the organisation from the case and
// from every application active on it.
type DisassociateDefenceOrganisation struct{}

func (DisassociateDefenceOrganisation) Requirements(e events.DefenceOrganisationDisassociated) enrichment.Spec {
	return enrichment.Needs(enrichment.Optional(readmodel.ActiveApplicationsForCase, e.Payload.CaseID))
}

func (DisassociateDefenceOrganisation) Decide(e events.DefenceOrganisationDisassociated, ec *enrichment.Context) (plan.Plan, error) {
	p := e.Payload
	b := newBuilder(e).Command(CmdDisassociateDefenceOrganisation, plan.TargetProgression, defenceOrganisationForCase{
		DefendantID:    p.DefendantID,
		OrganisationID: p.OrganisationID,
		CaseID:         p.CaseID,
	})

	appIDs, err := activeApplicationIDs(ec, p.CaseID)
	if err != nil {
		return plan.Plan{}, err
	}
	for _, id := range appIDs {
		b.Command(CmdDisassociateDefenceOrganisationForApplication, plan.TargetProgression, defenceOrganisationForApplication{
			DefendantID:    p.DefendantID,
			OrganisationID: p.OrganisationID,
			ApplicationID:  id,
		})
	}
	return b.Build("nothing to disassociate")
}

// AssociateDefenceOrganisation records the organisation on the case and on
// every application active on it.
type AssociateDefenceOrganisation struct{}

func (AssociateDefenceOrganisation) Requirements(e events.DefenceOrganisationAssociated) enrichment.Spec {
	return enrichment.Needs(enrichment.Optional(readmodel.ActiveApplicationsForCase, e.Payload.CaseID))
}

func (AssociateDefenceOrganisation) Decide(e events.DefenceOrganisationAssociated, ec *enrichment.Context) (plan.Plan, error) {
	p := e.Payload
	b := newBuilder(e).Command(CmdAssociateDefenceOrganisation, plan.TargetProgression, defenceOrganisationForCase{
		DefendantID:        p.DefendantID,
		OrganisationID:     p.OrganisationID,
		OrganisationName:   p.OrganisationName,
		CaseID:             p.CaseID,
		RepresentationType: p.RepresentationType,
		LAAContractNumber:  p.LAAContractNumber,
	})

	appIDs, err := activeApplicationIDs(ec, p.CaseID)
	if err != nil {
		return plan.Plan{}, err
	}
	for _, id := range appIDs {
		b.Command(CmdAssociateDefenceOrganisationForApplication, plan.TargetProgression, defenceOrganisationForApplication{
			DefendantID:        p.DefendantID,
			OrganisationID:     p.OrganisationID,
			OrganisationName:   p.OrganisationName,
			ApplicationID:      id,
			RepresentationType: p.RepresentationType,
			LAAContractNumber:  p.LAAContractNumber,
		})
	}
	return b.Build("nothing to associate")
}
