package usersgroups

const (
	UsersEndpoint = "/usersgroups-query-api/query/api/rest/usersgroups/users"
	GroupsSuffix  = "/groups"

	UserIDHeader = "CJSCPPUID"

	DefenceUsersGroup = "Defence Users"
)
