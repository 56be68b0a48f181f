package models

// LinkType states how a court application relates to existing cases.
type LinkType string

const (
	LinkTypeStandalone LinkType = "STANDALONE"
	LinkTypeLinked     LinkType = "LINKED"
)

// ApplicationStatus of a court application.
type ApplicationStatus string

const (
	ApplicationStatusDraft     ApplicationStatus = "DRAFT"
	ApplicationStatusListed    ApplicationStatus = "LISTED"
	ApplicationStatusFinalised ApplicationStatus = "FINALISED"
)

// CourtApplication aggregate.
type CourtApplication struct {
	ID                    string                 `json:"id"`
	ApplicationReference  string                 `json:"applicationReference,omitempty"`
	Type                  *ApplicationType       `json:"type,omitempty"`
	Status                ApplicationStatus      `json:"applicationStatus,omitempty"`
	Subject               *ApplicationSubject    `json:"subject,omitempty"`
	CourtApplicationCases []CourtApplicationCase `json:"courtApplicationCases,omitempty"`
	ParentApplicationID   string                 `json:"parentApplicationId,omitempty"`
}

type ApplicationType struct {
	Code     string   `json:"code"`
	Title    string   `json:"title,omitempty"`
	LinkType LinkType `json:"linkType,omitempty"`
}

// ApplicationSubject identifies who the application is about.
type ApplicationSubject struct {
	ID                string          `json:"id,omitempty"`
	MasterDefendantID string          `json:"masterDefendantId,omitempty"`
	DefendantCases    []DefendantCase `json:"defendantCase,omitempty"`
}

// DefendantCase pairs a case with a defendant on it.
type DefendantCase struct {
	CaseID      string `json:"caseId"`
	DefendantID string `json:"defendantId"`
}

// CourtApplicationCase links an application to a prosecution case.
type CourtApplicationCase struct {
	ProsecutionCaseID string    `json:"prosecutionCaseId"`
	CaseURN           string    `json:"caseUrn,omitempty"`
	IsSJP             bool      `json:"isSJP,omitempty"`
	Offences          []Offence `json:"offences,omitempty"`
}

// LinkedCaseIDs returns the prosecution case ids in declared order.
func (a CourtApplication) LinkedCaseIDs() []string {
	ids := make([]string, 0, len(a.CourtApplicationCases))
	for _, c := range a.CourtApplicationCases {
		ids = append(ids, c.ProsecutionCaseID)
	}
	return ids
}

// ApplicationSummary is one entry of the active-applications query.
type ApplicationSummary struct {
	ApplicationID string            `json:"applicationId"`
	Status        ApplicationStatus `json:"applicationStatus,omitempty"`
}

// ActiveApplications is the response of the active-applications-on-case query.
type ActiveApplications struct {
	LinkedApplications []ApplicationSummary `json:"linkedApplications"`
}
