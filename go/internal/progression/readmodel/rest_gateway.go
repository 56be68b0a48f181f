package readmodel

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mcdev12/progression/go/clients"
	"github.com/mcdev12/progression/go/clients/referencedata"
	"github.com/mcdev12/progression/go/clients/usersgroups"
)

// RESTKinds lists the kinds RESTGateway serves.
func RESTKinds() []QueryKind {
	return []QueryKind{ReferralReason, OrganisationUnit, DocumentType, User, GroupsForUser}
}

// RESTGateway serves reference data and users/groups over their REST query
// APIs. A 404 from either API is NotFound.
type RESTGateway struct {
	referenceData *referencedata.Client
	usersGroups   *usersgroups.Client
}

func NewRESTGateway(rd *referencedata.Client, ug *usersgroups.Client) *RESTGateway {
	return &RESTGateway{referenceData: rd, usersGroups: ug}
}

func (g *RESTGateway) Fetch(ctx context.Context, kind QueryKind, key string) Result {
	var (
		body json.RawMessage
		err  error
	)
	switch kind {
	case ReferralReason:
		body, err = g.referenceData.ReferralReason(ctx, key)
	case OrganisationUnit:
		body, err = g.referenceData.OrganisationUnit(ctx, key)
	case DocumentType:
		body, err = g.referenceData.DocumentType(ctx, key)
	case User:
		body, err = g.usersGroups.User(ctx, key)
	case GroupsForUser:
		body, err = g.usersGroups.GroupsForUser(ctx, key)
	default:
		return FailedResult(fmt.Errorf("rest gateway does not serve %s", kind))
	}
	if err != nil {
		if clients.IsNotFound(err) {
			return NotFoundResult()
		}
		return FailedResult(err)
	}
	if !json.Valid(body) {
		return FailedResult(fmt.Errorf("%s %s: response is not JSON", kind, key))
	}
	return FoundResult(body)
}
