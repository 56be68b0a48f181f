package models

// Hearing as returned by the hearing store.
type Hearing struct {
	ID                string             `json:"id"`
	Type              *HearingType       `json:"type,omitempty"`
	CourtCentre       *CourtCentre       `json:"courtCentre,omitempty"`
	HearingDays       []HearingDay       `json:"hearingDays,omitempty"`
	ProsecutionCases  []ProsecutionCase  `json:"prosecutionCases,omitempty"`
	CourtApplications []CourtApplication `json:"courtApplications,omitempty"`
}

type HearingType struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
}

type CourtCentre struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	OUCode string `json:"ouCode,omitempty"`
}

type HearingDay struct {
	SittingDay      string `json:"sittingDay"`
	ListedDuration  int    `json:"listedDurationMinutes,omitempty"`
	CourtRoomID     string `json:"courtRoomId,omitempty"`
	IsCancelled     bool   `json:"isCancelled,omitempty"`
	ListingSequence int    `json:"listingSequence,omitempty"`
}

// HearingSummary is the short form used by list queries.
type HearingSummary struct {
	ID          string `json:"id"`
	HearingDate string `json:"hearingDate,omitempty"`
}

// ApplicationHearings is the response of the hearings-for-application query.
type ApplicationHearings struct {
	Hearings []HearingSummary `json:"hearings"`
}
