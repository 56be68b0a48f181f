package readmodel

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Procedures of the case and hearing query services.
const (
	GetProsecutionCaseProcedure           = "/progression.query.v1.CaseQueryService/GetProsecutionCase"
	GetActiveApplicationsForCaseProcedure = "/progression.query.v1.CaseQueryService/GetActiveApplicationsForCase"
	GetHearingProcedure                   = "/hearing.query.v1.HearingQueryService/GetHearing"
	GetHearingsForApplicationProcedure    = "/hearing.query.v1.HearingQueryService/GetHearingsForApplication"
)

var connectProcedures = map[QueryKind]struct {
	procedure string
	keyField  string
}{
	ProsecutionCase:           {GetProsecutionCaseProcedure, "caseId"},
	ActiveApplicationsForCase: {GetActiveApplicationsForCaseProcedure, "caseId"},
	Hearing:                   {GetHearingProcedure, "hearingId"},
	HearingsForApplication:    {GetHearingsForApplicationProcedure, "applicationId"},
}

// ConnectKinds lists the kinds ConnectGateway serves.
func ConnectKinds() []QueryKind {
	return []QueryKind{ProsecutionCase, ActiveApplicationsForCase, Hearing, HearingsForApplication}
}

// ConnectGateway queries the case and hearing stores over connect unary
// calls carrying google.protobuf.Struct messages.
type ConnectGateway struct {
	clients map[QueryKind]*connect.Client[structpb.Struct, structpb.Struct]
	keys    map[QueryKind]string
}

func NewConnectGateway(httpClient connect.HTTPClient, caseStoreURL, hearingStoreURL string, opts ...connect.ClientOption) *ConnectGateway {
	g := &ConnectGateway{
		clients: make(map[QueryKind]*connect.Client[structpb.Struct, structpb.Struct]),
		keys:    make(map[QueryKind]string),
	}
	for kind, p := range connectProcedures {
		base := caseStoreURL
		if strings.HasPrefix(p.procedure, "/hearing.") {
			base = hearingStoreURL
		}
		g.clients[kind] = connect.NewClient[structpb.Struct, structpb.Struct](
			httpClient,
			strings.TrimRight(base, "/")+p.procedure,
			opts...,
		)
		g.keys[kind] = p.keyField
	}
	return g
}

func (g *ConnectGateway) Fetch(ctx context.Context, kind QueryKind, key string) Result {
	client, ok := g.clients[kind]
	if !ok {
		return FailedResult(fmt.Errorf("connect gateway does not serve %s", kind))
	}
	req, err := structpb.NewStruct(map[string]any{g.keys[kind]: key})
	if err != nil {
		return FailedResult(fmt.Errorf("build %s request: %w", kind, err))
	}

	resp, err := client.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		if connect.CodeOf(err) == connect.CodeNotFound {
			return NotFoundResult()
		}
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return FailedResult(fmt.Errorf("query %s %s: %w", kind, key, err))
	}

	raw, err := protojson.Marshal(resp.Msg)
	if err != nil {
		return FailedResult(fmt.Errorf("encode %s response: %w", kind, err))
	}
	return FoundResult(raw)
}
