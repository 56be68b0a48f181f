package models

// ReferralReason from reference data.
type ReferralReason struct {
	ID          string `json:"id"`
	Code        string `json:"code,omitempty"`
	Reason      string `json:"reason"`
	WelshReason string `json:"welshReason,omitempty"`
}

// OrganisationUnit is a court centre in reference data.
type OrganisationUnit struct {
	ID      string `json:"id"`
	OUCode  string `json:"oucode,omitempty"`
	Name    string `json:"oucodeL3Name"`
	LJA     string `json:"lja,omitempty"`
	Region  string `json:"region,omitempty"`
	IsWelsh bool   `json:"isWelsh,omitempty"`
}

// CourtCentre converts the unit to the shape embedded in hearings.
func (u OrganisationUnit) CourtCentre() CourtCentre {
	return CourtCentre{ID: u.ID, Name: u.Name, OUCode: u.OUCode}
}

// DocumentType from reference data, keyed by template identifier.
type DocumentType struct {
	ID                 string `json:"id"`
	TemplateIdentifier string `json:"templateIdentifier"`
	Category           string `json:"documentCategory,omitempty"`
	Section            string `json:"section,omitempty"`
	NotifyParties      bool   `json:"notifyParties,omitempty"`
}

// User from the users and groups context.
type User struct {
	UserID    string `json:"userId"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

type Group struct {
	GroupID   string `json:"groupId"`
	GroupName string `json:"groupName"`
}

// UserGroups is the response of the groups-for-user query.
type UserGroups struct {
	Groups []Group `json:"groups"`
}

// Has reports whether the user belongs to the named group.
func (g UserGroups) Has(name string) bool {
	for _, grp := range g.Groups {
		if grp.GroupName == name {
			return true
		}
	}
	return false
}
