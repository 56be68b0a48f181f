package referencedata

const (
	ReferralReasonsEndpoint   = "/referencedata-query-api/query/api/rest/referencedata/referral-reasons"
	OrganisationUnitsEndpoint = "/referencedata-query-api/query/api/rest/referencedata/organisation-units"
	DocumentTypesEndpoint     = "/referencedata-query-api/query/api/rest/referencedata/document-types-access"

	// Header carrying the calling user, required by the query API.
	UserIDHeader = "CJSCPPUID"
)
