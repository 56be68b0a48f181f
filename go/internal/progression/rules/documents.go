package rules

import (
	"github.com/mcdev12/progression/go/internal/models"
	"github.com/mcdev12/progression/go/internal/progression/enrichment"
	"github.com/mcdev12/progression/go/internal/progression/events"
	"github.com/mcdev12/progression/go/internal/progression/plan"
	"github.com/mcdev12/progression/go/internal/progression/readmodel"
)

type courtDocument struct {
	MaterialID         string `json:"materialId"`
	DocumentTypeID     string `json:"documentTypeId"`
	DocumentCategory   string `json:"documentCategory,omitempty"`
	TemplateIdentifier string `json:"templateIdentifier"`
	Name               string `json:"name,omitempty"`
	ProsecutionCaseID  string `json:"prosecutionCaseId,omitempty"`
	ApplicationID      string `json:"applicationId,omitempty"`
	SourceCorrelation  string `json:"sourceCorrelationId"`
}

type documentAvailable struct {
	ProsecutionCaseID  string `json:"prosecutionCaseId"`
	MaterialID         string `json:"materialId"`
	DocumentTypeID     string `json:"documentTypeId"`
	TemplateIdentifier string `json:"templateIdentifier"`
}

// AddGeneratedDocument files documents this context asked the generator
// for, and tells the parties when the document type says so.
type AddGeneratedDocument struct{}

func (AddGeneratedDocument) Requirements(e events.DocumentGenerated) enrichment.Spec {
	if e.Payload.OriginatingSource != OriginatingSourceProgression {
		return enrichment.None()
	}
	return enrichment.Needs(enrichment.Required(readmodel.DocumentType, e.Payload.TemplateIdentifier))
}

func (AddGeneratedDocument) Decide(e events.DocumentGenerated, ec *enrichment.Context) (plan.Plan, error) {
	p := e.Payload
	b := newBuilder(e)
	if p.OriginatingSource != OriginatingSourceProgression {
		return b.NoAction("document was requested by " + p.OriginatingSource), nil
	}

	docType, err := enrichment.MustLookup[models.DocumentType](ec, readmodel.DocumentType, p.TemplateIdentifier)
	if err != nil {
		return plan.Plan{}, err
	}

	b.Command(CmdAddCourtDocument, plan.TargetProgression, courtDocument{
		MaterialID:         p.DocumentFileServiceID,
		DocumentTypeID:     docType.ID,
		DocumentCategory:   docType.Category,
		TemplateIdentifier: p.TemplateIdentifier,
		Name:               p.DocumentName,
		ProsecutionCaseID:  p.CaseID,
		ApplicationID:      p.ApplicationID,
		SourceCorrelation:  p.SourceCorrelationID,
	})
	if docType.NotifyParties && p.CaseID != "" {
		b.Command(CmdSendDocumentAvailableNotification, plan.TargetNotification, documentAvailable{
			ProsecutionCaseID:  p.CaseID,
			MaterialID:         p.DocumentFileServiceID,
			DocumentTypeID:     docType.ID,
			TemplateIdentifier: p.TemplateIdentifier,
		})
	}
	return b.Build("")
}
