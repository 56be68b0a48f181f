package readmodel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mcdev12/progression/go/clients/referencedata"
	"github.com/mcdev12/progression/go/clients/usersgroups"
)

func TestConnectGateway(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle(GetProsecutionCaseProcedure, connect.NewUnaryHandler(
		GetProsecutionCaseProcedure,
		func(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
			id := req.Msg.GetFields()["caseId"].GetStringValue()
			if id != "case-1" {
				return nil, connect.NewError(connect.CodeNotFound, errors.New("no such case"))
			}
			out, err := structpb.NewStruct(map[string]any{"id": id, "caseUrn": "TFL1234"})
			if err != nil {
				return nil, err
			}
			return connect.NewResponse(out), nil
		},
	))
	mux.Handle(GetHearingProcedure, connect.NewUnaryHandler(
		GetHearingProcedure,
		func(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
			return nil, connect.NewError(connect.CodeUnavailable, errors.New("hearing store down"))
		},
	))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	gw := NewConnectGateway(srv.Client(), srv.URL, srv.URL)
	ctx := context.Background()

	res := gw.Fetch(ctx, ProsecutionCase, "case-1")
	require.Equal(t, Found, res.Status, "err: %v", res.Err)
	var got map[string]string
	require.NoError(t, json.Unmarshal(res.Value, &got))
	assert.Equal(t, "TFL1234", got["caseUrn"])

	assert.Equal(t, NotFound, gw.Fetch(ctx, ProsecutionCase, "case-2").Status)

	failed := gw.Fetch(ctx, Hearing, "h-1")
	assert.Equal(t, Failed, failed.Status)
	assert.Error(t, failed.Err)

	assert.Equal(t, Failed, gw.Fetch(ctx, DocumentType, "x").Status)
}

func TestRESTGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case referencedata.ReferralReasonsEndpoint + "/rr-1":
			_, _ = w.Write([]byte(`{"id":"rr-1","reason":"Case unsuitable for SJP"}`))
		case usersgroups.UsersEndpoint + "/u-1" + usersgroups.GroupsSuffix:
			_, _ = w.Write([]byte(`not json`))
		case referencedata.OrganisationUnitsEndpoint + "/ou-1":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	gw := NewRESTGateway(
		referencedata.NewClientWithHTTP(srv.URL, "sys", srv.Client()),
		usersgroups.NewClientWithHTTP(srv.URL, "sys", srv.Client()),
	)
	ctx := context.Background()

	assert.Equal(t, Found, gw.Fetch(ctx, ReferralReason, "rr-1").Status)
	assert.Equal(t, NotFound, gw.Fetch(ctx, ReferralReason, "rr-2").Status)
	assert.Equal(t, Failed, gw.Fetch(ctx, OrganisationUnit, "ou-1").Status)
	assert.Equal(t, Failed, gw.Fetch(ctx, GroupsForUser, "u-1").Status)
	assert.Equal(t, Failed, gw.Fetch(ctx, Hearing, "h-1").Status)
}

func TestRouter(t *testing.T) {
	slow := GatewayFunc(func(ctx context.Context, kind QueryKind, key string) Result {
		select {
		case <-ctx.Done():
			return FailedResult(ctx.Err())
		case <-time.After(time.Second):
			return FoundResult(json.RawMessage(`{}`))
		}
	})
	static := NewStatic().Put(User, "u-1", map[string]string{"userId": "u-1"})

	r := NewRouter(time.Second).
		Route(static, User).
		Route(slow, Hearing).
		Timeout(Hearing, 10*time.Millisecond)

	ctx := context.Background()
	assert.Equal(t, Found, r.Fetch(ctx, User, "u-1").Status)
	assert.Equal(t, NotFound, r.Fetch(ctx, User, "u-2").Status)

	res := r.Fetch(ctx, Hearing, "h-1")
	assert.Equal(t, Failed, res.Status)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)

	assert.Equal(t, Failed, r.Fetch(ctx, DocumentType, "t").Status)
	assert.Equal(t, []string{"user:u-1", "user:u-2"}, static.Calls())
}
