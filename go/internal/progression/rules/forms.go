package rules

import (
	"github.com/mcdev12/progression/go/clients/usersgroups"
	"github.com/mcdev12/progression/go/internal/models"
	"github.com/mcdev12/progression/go/internal/progression/enrichment"
	"github.com/mcdev12/progression/go/internal/progression/events"
	"github.com/mcdev12/progression/go/internal/progression/matching"
	"github.com/mcdev12/progression/go/internal/progression/plan"
	"github.com/mcdev12/progression/go/internal/progression/readmodel"
)

// formTemplates maps a court form type to its document template.
var formTemplates = map[string]string{
	"PET":  "PetFinalisedForm",
	"BCM":  "BcmFinalisedForm",
	"PTPH": "PtphFinalisedForm",
}

type generateDocument struct {
	TemplateIdentifier  string         `json:"templateIdentifier"`
	ConversionFormat    string         `json:"conversionFormat"`
	OriginatingSource   string         `json:"originatingSource"`
	SourceCorrelationID string         `json:"sourceCorrelationId"`
	Payload             formDocContext `json:"payload"`
}

type formDocContext struct {
	CourtFormID   string `json:"courtFormId"`
	CaseID        string `json:"caseId"`
	CaseURN       string `json:"caseUrn,omitempty"`
	DefendantID   string `json:"defendantId"`
	DefendantName string `json:"defendantName,omitempty"`
	FormType      string `json:"formType"`
	FinalisedBy   string `json:"finalisedBy,omitempty"`
}

type formFinalised struct {
	CourtFormID  string   `json:"courtFormId"`
	CaseID       string   `json:"caseId"`
	FormType     string   `json:"formType"`
	DefendantIDs []string `json:"defendantIds"`
	FinalisedAt  string   `json:"finalisedAt,omitempty"`
}

type prosecutorFormNotification struct {
	CourtFormID string `json:"courtFormId"`
	CaseID      string `json:"caseId"`
	CaseURN     string `json:"caseUrn,omitempty"`
	FormType    string `json:"formType"`
	FinalisedBy string `json:"finalisedBy,omitempty"`
}

// FinaliseForm generates one document per defendant on a finalised form and
// tells the prosecutor when the defence finalised it.
type FinaliseForm struct{}

func (FinaliseForm) Requirements(e events.FormFinalised) enrichment.Spec {
	p := e.Payload
	return enrichment.Needs(
		enrichment.Required(readmodel.ProsecutionCase, p.CaseID),
		enrichment.Optional(readmodel.User, p.UserID),
		enrichment.Optional(readmodel.GroupsForUser, p.UserID),
	)
}

func (FinaliseForm) Decide(e events.FormFinalised, ec *enrichment.Context) (plan.Plan, error) {
	p := e.Payload
	b := newBuilder(e)

	pc, err := enrichment.MustLookup[models.ProsecutionCase](ec, readmodel.ProsecutionCase, p.CaseID)
	if err != nil {
		return plan.Plan{}, err
	}
	user, _, err := enrichment.Lookup[models.User](ec, readmodel.User, p.UserID)
	if err != nil {
		return plan.Plan{}, err
	}
	groups, _, err := enrichment.Lookup[models.UserGroups](ec, readmodel.GroupsForUser, p.UserID)
	if err != nil {
		return plan.Plan{}, err
	}

	template, ok := formTemplates[p.FormType]
	if !ok {
		template = p.FormType + "FinalisedForm"
	}

	idx := matching.NewIndex([]models.ProsecutionCase{pc})
	var matched []string
	for _, id := range matching.DedupIDs(p.DefendantIDs) {
		path := idx.Resolve(matching.MatchKey{CaseID: p.CaseID, DefendantID: id})
		if !path.Matched() {
			continue
		}
		matched = append(matched, id)
		b.Command(CmdGenerateDocument, plan.TargetSystemDocGenerator, generateDocument{
			TemplateIdentifier:  template,
			ConversionFormat:    "pdf",
			OriginatingSource:   OriginatingSourceProgression,
			SourceCorrelationID: p.CourtFormID,
			Payload: formDocContext{
				CourtFormID:   p.CourtFormID,
				CaseID:        p.CaseID,
				CaseURN:       pc.CaseURN,
				DefendantID:   id,
				DefendantName: path.Defendant.DisplayName(),
				FormType:      p.FormType,
				FinalisedBy:   user.FullName(),
			},
		})
	}
	if len(matched) == 0 {
		return b.NoAction("no form defendant is on the case"), nil
	}

	b.Public(EvtFormFinalised, formFinalised{
		CourtFormID:  p.CourtFormID,
		CaseID:       p.CaseID,
		FormType:     p.FormType,
		DefendantIDs: matched,
		FinalisedAt:  p.FinalisedAt,
	})
	if groups.Has(usersgroups.DefenceUsersGroup) {
		b.Command(CmdNotifyProsecutorFormFinalised, plan.TargetNotification, prosecutorFormNotification{
			CourtFormID: p.CourtFormID,
			CaseID:      p.CaseID,
			CaseURN:     pc.CaseURN,
			FormType:    p.FormType,
			FinalisedBy: user.FullName(),
		})
	}
	return b.Build("")
}
