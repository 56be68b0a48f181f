package events

import "github.com/google/uuid"

// Kind names an inbound event variant.
type Kind string

const (
	KindDefenceOrganisationDisassociated Kind = "public.defence.defence-organisation-disassociated"
	KindDefenceOrganisationAssociated    Kind = "public.defence.defence-organisation-associated"
	KindOffencesUpdated                  Kind = "progression.event.defendant-offences-updated"
	KindHearingResulted                  Kind = "public.hearing.resulted"
	KindCourtApplicationCreated          Kind = "progression.event.court-application-created"
	KindCourtApplicationUpdated          Kind = "progression.event.court-application-updated"
	KindDefendantUpdated                 Kind = "progression.event.prosecution-case-defendant-updated"
	KindDocumentGenerated                Kind = "public.systemdocgenerator.document-generated"
	KindFormFinalised                    Kind = "progression.event.form-finalised"
	KindCaseReferredToCourt              Kind = "public.sjp.case-referred-to-court"
)

// AllKinds lists every kind the orchestrator reacts to, in registration order.
func AllKinds() []Kind {
	return []Kind{
		KindDefenceOrganisationDisassociated,
		KindDefenceOrganisationAssociated,
		KindOffencesUpdated,
		KindHearingResulted,
		KindCourtApplicationCreated,
		KindCourtApplicationUpdated,
		KindDefendantUpdated,
		KindDocumentGenerated,
		KindFormFinalised,
		KindCaseReferredToCourt,
	}
}

func (k Kind) String() string {
	return string(k)
}

// Event is a decoded inbound event. The set of implementations is closed:
// only this package can add one, and each must be handled by a Visitor.
type Event interface {
	Kind() Kind
	ID() uuid.UUID
	Correlation() map[string]string
	accept(v Visitor) error
}

// Visitor has one method per event kind. Implementations get a compile error
// when a kind is added and not handled.
type Visitor interface {
	VisitDefenceOrganisationDisassociated(DefenceOrganisationDisassociated) error
	VisitDefenceOrganisationAssociated(DefenceOrganisationAssociated) error
	VisitOffencesUpdated(OffencesUpdated) error
	VisitHearingResulted(HearingResulted) error
	VisitCourtApplicationCreated(CourtApplicationCreated) error
	VisitCourtApplicationUpdated(CourtApplicationUpdated) error
	VisitDefendantUpdated(DefendantUpdated) error
	VisitDocumentGenerated(DocumentGenerated) error
	VisitFormFinalised(FormFinalised) error
	VisitCaseReferredToCourt(CaseReferredToCourt) error
}

// Visit dispatches e to the matching Visitor method.
func Visit(e Event, v Visitor) error {
	return e.accept(v)
}

type DefenceOrganisationDisassociated struct {
	Meta
	Payload DefenceOrganisationDisassociatedPayload
}

func (DefenceOrganisationDisassociated) Kind() Kind {
	return KindDefenceOrganisationDisassociated
}

func (e DefenceOrganisationDisassociated) accept(v Visitor) error {
	return v.VisitDefenceOrganisationDisassociated(e)
}

type DefenceOrganisationAssociated struct {
	Meta
	Payload DefenceOrganisationAssociatedPayload
}

func (DefenceOrganisationAssociated) Kind() Kind {
	return KindDefenceOrganisationAssociated
}

func (e DefenceOrganisationAssociated) accept(v Visitor) error {
	return v.VisitDefenceOrganisationAssociated(e)
}

type OffencesUpdated struct {
	Meta
	Payload OffencesUpdatedPayload
}

func (OffencesUpdated) Kind() Kind {
	return KindOffencesUpdated
}

func (e OffencesUpdated) accept(v Visitor) error {
	return v.VisitOffencesUpdated(e)
}

type HearingResulted struct {
	Meta
	Payload HearingResultedPayload
}

func (HearingResulted) Kind() Kind {
	return KindHearingResulted
}

func (e HearingResulted) accept(v Visitor) error {
	return v.VisitHearingResulted(e)
}

type CourtApplicationCreated struct {
	Meta
	Payload CourtApplicationCreatedPayload
}

func (CourtApplicationCreated) Kind() Kind {
	return KindCourtApplicationCreated
}

func (e CourtApplicationCreated) accept(v Visitor) error {
	return v.VisitCourtApplicationCreated(e)
}

type CourtApplicationUpdated struct {
	Meta
	Payload CourtApplicationUpdatedPayload
}

func (CourtApplicationUpdated) Kind() Kind {
	return KindCourtApplicationUpdated
}

func (e CourtApplicationUpdated) accept(v Visitor) error {
	return v.VisitCourtApplicationUpdated(e)
}

type DefendantUpdated struct {
	Meta
	Payload DefendantUpdatedPayload
}

func (DefendantUpdated) Kind() Kind {
	return KindDefendantUpdated
}

func (e DefendantUpdated) accept(v Visitor) error {
	return v.VisitDefendantUpdated(e)
}

type DocumentGenerated struct {
	Meta
	Payload DocumentGeneratedPayload
}

func (DocumentGenerated) Kind() Kind {
	return KindDocumentGenerated
}

func (e DocumentGenerated) accept(v Visitor) error {
	return v.VisitDocumentGenerated(e)
}

type FormFinalised struct {
	Meta
	Payload FormFinalisedPayload
}

func (FormFinalised) Kind() Kind {
	return KindFormFinalised
}

func (e FormFinalised) accept(v Visitor) error {
	return v.VisitFormFinalised(e)
}

type CaseReferredToCourt struct {
	Meta
	Payload CaseReferredToCourtPayload
}

func (CaseReferredToCourt) Kind() Kind {
	return KindCaseReferredToCourt
}

func (e CaseReferredToCourt) accept(v Visitor) error {
	return v.VisitCaseReferredToCourt(e)
}
