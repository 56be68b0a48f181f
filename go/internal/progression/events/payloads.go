package events

import (
	"github.com/mcdev12/progression/go/internal/models"
)

// Inbound payload types. Required identifiers carry validate tags; nested
// aggregates are checked by Validate where tags cannot express the rule.

// DefenceOrganisationDisassociatedPayload is published by the defence context
// when an organisation stops representing a defendant.
type DefenceOrganisationDisassociatedPayload struct {
	DefendantID       string `json:"defendantId" validate:"required,uuid"`
	OrganisationID    string `json:"organisationId" validate:"required,uuid"`
	CaseID            string `json:"caseId" validate:"required,uuid"`
	DisassociatedDate string `json:"disassociatedDate,omitempty"`
}

// DefenceOrganisationAssociatedPayload is published by the defence context
// when an organisation starts representing a defendant.
type DefenceOrganisationAssociatedPayload struct {
	DefendantID        string `json:"defendantId" validate:"required,uuid"`
	OrganisationID     string `json:"organisationId" validate:"required,uuid"`
	OrganisationName   string `json:"organisationName,omitempty"`
	CaseID             string `json:"caseId" validate:"required,uuid"`
	RepresentationType string `json:"representationType" validate:"required,oneof=PRIVATE REPRESENTATION_ORDER"`
	LAAContractNumber  string `json:"laaContractNumber,omitempty"`
}

// UpdatedOffence is one offence in an offences-updated event.
type UpdatedOffence struct {
	OffenceID   string `json:"offenceId" validate:"required,uuid"`
	OffenceCode string `json:"offenceCode,omitempty"`
	Wording     string `json:"wording,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
	Count       int    `json:"count,omitempty"`
}

// OffencesUpdatedPayload carries offence changes for a defendant on a hearing.
type OffencesUpdatedPayload struct {
	HearingID       string           `json:"hearingId" validate:"required,uuid"`
	DefendantID     string           `json:"defendantId" validate:"required,uuid"`
	UpdatedOffences []UpdatedOffence `json:"updatedOffences" validate:"required,min=1,dive"`
}

// HearingResultedPayload is published by the hearing context when results
// are shared.
type HearingResultedPayload struct {
	Hearing    models.Hearing `json:"hearing"`
	SharedTime string         `json:"sharedTime" validate:"required"`
}

func (p HearingResultedPayload) Validate() error {
	if p.Hearing.ID == "" {
		return errMissing("hearing.id")
	}
	return nil
}

// CourtHearingRequest asks listing for a first hearing of an application.
// EarliestStartDateTime takes precedence over WeekCommencingDate.
type CourtHearingRequest struct {
	CourtCentreID         string                 `json:"courtCentreId" validate:"required,uuid"`
	HearingTypeID         string                 `json:"hearingTypeId" validate:"required"`
	EarliestStartDateTime string                 `json:"earliestStartDateTime,omitempty"`
	WeekCommencingDate    *models.WeekCommencing `json:"weekCommencingDate,omitempty"`
	EstimatedMinutes      int                    `json:"estimatedMinutes,omitempty"`
}

// CourtApplicationCreatedPayload announces a new court application.
type CourtApplicationCreatedPayload struct {
	CourtApplication models.CourtApplication `json:"courtApplication"`
	CourtHearing     *CourtHearingRequest    `json:"courtHearing,omitempty" validate:"omitempty"`
}

func (p CourtApplicationCreatedPayload) Validate() error {
	if p.CourtApplication.ID == "" {
		return errMissing("courtApplication.id")
	}
	if p.CourtHearing != nil && p.CourtHearing.EarliestStartDateTime == "" && p.CourtHearing.WeekCommencingDate == nil {
		return errMissing("courtHearing.earliestStartDateTime|weekCommencingDate")
	}
	return nil
}

// CourtApplicationUpdatedPayload carries the updated application.
type CourtApplicationUpdatedPayload struct {
	CourtApplication models.CourtApplication `json:"courtApplication"`
}

func (p CourtApplicationUpdatedPayload) Validate() error {
	if p.CourtApplication.ID == "" {
		return errMissing("courtApplication.id")
	}
	return nil
}

// DefendantUpdatedPayload carries the updated defendant of a case.
type DefendantUpdatedPayload struct {
	Defendant models.Defendant `json:"defendant"`
}

func (p DefendantUpdatedPayload) Validate() error {
	if p.Defendant.ID == "" {
		return errMissing("defendant.id")
	}
	if p.Defendant.ProsecutionCaseID == "" {
		return errMissing("defendant.prosecutionCaseId")
	}
	return nil
}

// DocumentGeneratedPayload is published by the document generator once a
// requested document is available in file storage.
type DocumentGeneratedPayload struct {
	OriginatingSource     string `json:"originatingSource" validate:"required"`
	TemplateIdentifier    string `json:"templateIdentifier" validate:"required"`
	SourceCorrelationID   string `json:"sourceCorrelationId" validate:"required"`
	DocumentFileServiceID string `json:"documentFileServiceId" validate:"required,uuid"`
	DocumentName          string `json:"documentName,omitempty"`
	RequestedTime         string `json:"requestedTime,omitempty"`
	CaseID                string `json:"caseId,omitempty" validate:"omitempty,uuid"`
	ApplicationID         string `json:"applicationId,omitempty" validate:"omitempty,uuid"`
}

func (p DocumentGeneratedPayload) Validate() error {
	if p.CaseID == "" && p.ApplicationID == "" {
		return errMissing("caseId|applicationId")
	}
	return nil
}

// FormFinalisedPayload is raised when a court form is finalised.
type FormFinalisedPayload struct {
	CourtFormID  string   `json:"courtFormId" validate:"required,uuid"`
	CaseID       string   `json:"caseId" validate:"required,uuid"`
	FormType     string   `json:"formType" validate:"required,oneof=PET BCM PTPH"`
	UserID       string   `json:"userId" validate:"required,uuid"`
	DefendantIDs []string `json:"defendantIds" validate:"required,min=1,dive,uuid"`
	FinalisedAt  string   `json:"finalisedAt,omitempty"`
}

// CaseReferredToCourtPayload is published by the single justice procedure
// context when a case must be heard in court.
type CaseReferredToCourtPayload struct {
	ProsecutionCaseID string   `json:"prosecutionCaseId" validate:"required,uuid"`
	ReferralReasonID  string   `json:"referralReasonId" validate:"required,uuid"`
	CourtCentreID     string   `json:"courtCentreId" validate:"required,uuid"`
	HearingTypeID     string   `json:"hearingTypeId,omitempty"`
	ListingDate       string   `json:"listingDate,omitempty"`
	DefendantIDs      []string `json:"defendantIds,omitempty" validate:"omitempty,dive,uuid"`
	ReferredAt        string   `json:"referredAt,omitempty"`
}
