package models

// CaseStatus is the lifecycle status of a prosecution case.
type CaseStatus string

const (
	CaseStatusActive    CaseStatus = "ACTIVE"
	CaseStatusInactive  CaseStatus = "INACTIVE"
	CaseStatusReferred  CaseStatus = "SJP_REFERRAL"
	CaseStatusCompleted CaseStatus = "CLOSED"
)

// ResultCategory classifies a judicial result.
type ResultCategory string

const (
	ResultCategoryFinal        ResultCategory = "FINAL"
	ResultCategoryIntermediary ResultCategory = "INTERMEDIARY"
	ResultCategoryAncillary    ResultCategory = "ANCILLARY"
)

// ProsecutionCase is the case aggregate as returned by the case store.
// Every collection may be missing; consumers must not assume presence.
type ProsecutionCase struct {
	ID         string      `json:"id"`
	CaseURN    string      `json:"caseUrn,omitempty"`
	Status     CaseStatus  `json:"caseStatus,omitempty"`
	Defendants []Defendant `json:"defendants,omitempty"`
	HearingIDs []string    `json:"hearingIds,omitempty"`
}

// Defendant on a prosecution case.
type Defendant struct {
	ID                   string                `json:"id"`
	MasterDefendantID    string                `json:"masterDefendantId,omitempty"`
	ProsecutionCaseID    string                `json:"prosecutionCaseId,omitempty"`
	PersonDefendant      *PersonDefendant      `json:"personDefendant,omitempty"`
	LegalEntityDefendant *LegalEntityDefendant `json:"legalEntityDefendant,omitempty"`
	Offences             []Offence             `json:"offences,omitempty"`
}

// PersonDefendant holds personal details of an individual defendant.
type PersonDefendant struct {
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
}

// LegalEntityDefendant holds details of an organisation defendant.
type LegalEntityDefendant struct {
	Name string `json:"name,omitempty"`
}

// DisplayName returns the name used on generated documents.
func (d Defendant) DisplayName() string {
	switch {
	case d.PersonDefendant != nil:
		p := d.PersonDefendant
		if p.FirstName == "" {
			return p.LastName
		}
		if p.LastName == "" {
			return p.FirstName
		}
		return p.FirstName + " " + p.LastName
	case d.LegalEntityDefendant != nil:
		return d.LegalEntityDefendant.Name
	default:
		return ""
	}
}

// Offence charged against a defendant.
type Offence struct {
	ID              string           `json:"id"`
	OffenceCode     string           `json:"offenceCode,omitempty"`
	Wording         string           `json:"wording,omitempty"`
	StartDate       string           `json:"startDate,omitempty"`
	EndDate         string           `json:"endDate,omitempty"`
	Count           int              `json:"count,omitempty"`
	JudicialResults []JudicialResult `json:"judicialResults,omitempty"`
}

// HasFinalResult reports whether any judicial result on the offence is final.
func (o Offence) HasFinalResult() bool {
	for _, r := range o.JudicialResults {
		if r.Category == ResultCategoryFinal {
			return true
		}
	}
	return false
}

// JudicialResult recorded against an offence at a hearing.
type JudicialResult struct {
	ID          string         `json:"judicialResultId"`
	Label       string         `json:"label,omitempty"`
	Category    ResultCategory `json:"category,omitempty"`
	NextHearing *NextHearing   `json:"nextHearing,omitempty"`
}

// NextHearing describes a follow-up hearing requested by a result.
// ListedStartDateTime and WeekCommencingDate are alternatives.
type NextHearing struct {
	HearingTypeID       string          `json:"hearingTypeId,omitempty"`
	CourtCentreID       string          `json:"courtCentreId,omitempty"`
	ListedStartDateTime string          `json:"listedStartDateTime,omitempty"`
	WeekCommencingDate  *WeekCommencing `json:"weekCommencingDate,omitempty"`
	EstimatedMinutes    int             `json:"estimatedMinutes,omitempty"`
}

// WeekCommencing is a hearing window rather than a fixed start.
type WeekCommencing struct {
	StartDate     string `json:"startDate"`
	DurationWeeks int    `json:"duration,omitempty"`
}
