// Package readmodel fetches the aggregates and reference data that rules
// need to decide. Every query returns a Result and never panics or blocks
// past its context.
package readmodel

import (
	"context"
	"encoding/json"
)

// QueryKind names a read-model query.
type QueryKind string

const (
	ProsecutionCase           QueryKind = "prosecutionCase"
	Hearing                   QueryKind = "hearing"
	HearingsForApplication    QueryKind = "hearingsForApplication"
	ActiveApplicationsForCase QueryKind = "activeApplicationsForCase"
	ReferralReason            QueryKind = "referralReason"
	OrganisationUnit          QueryKind = "organisationUnit"
	DocumentType              QueryKind = "documentType"
	User                      QueryKind = "user"
	GroupsForUser             QueryKind = "groupsForUser"
)

// AllQueryKinds lists every query kind.
func AllQueryKinds() []QueryKind {
	return []QueryKind{
		ProsecutionCase,
		Hearing,
		HearingsForApplication,
		ActiveApplicationsForCase,
		ReferralReason,
		OrganisationUnit,
		DocumentType,
		User,
		GroupsForUser,
	}
}

// Status of a query result.
type Status string

const (
	Found    Status = "FOUND"
	NotFound Status = "NOT_FOUND"
	Failed   Status = "FAILED"
)

// Result of one query. Value is set only when Status is Found; Err only
// when Status is Failed.
type Result struct {
	Status Status
	Value  json.RawMessage
	Err    error
}

func FoundResult(v json.RawMessage) Result {
	return Result{Status: Found, Value: v}
}

func NotFoundResult() Result {
	return Result{Status: NotFound}
}

func FailedResult(err error) Result {
	return Result{Status: Failed, Err: err}
}

// Gateway answers read-model queries.
type Gateway interface {
	Fetch(ctx context.Context, kind QueryKind, key string) Result
}

// GatewayFunc adapts a function to Gateway.
type GatewayFunc func(ctx context.Context, kind QueryKind, key string) Result

func (f GatewayFunc) Fetch(ctx context.Context, kind QueryKind, key string) Result {
	return f(ctx, kind, key)
}
