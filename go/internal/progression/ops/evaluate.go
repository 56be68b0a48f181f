package ops

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mcdev12/progression/go/internal/progression/events"
	"github.com/mcdev12/progression/go/internal/progression/orchestrator"
	"github.com/mcdev12/progression/go/internal/progression/plan"
)

// EvaluateProcedure is the dry-run RPC. The request is an inbound event
// envelope; the response is the plan it would produce.
const EvaluateProcedure = "/progression.orchestrator.v1.ReactionService/Evaluate"

type Evaluator interface {
	Evaluate(ctx context.Context, env events.Envelope) orchestrator.Result
}

type evaluation struct {
	EventID   string    `json:"eventId"`
	EventType string    `json:"eventType"`
	Outcome   string    `json:"outcome"`
	Reason    string    `json:"reason,omitempty"`
	Error     string    `json:"error,omitempty"`
	Plan      plan.Plan `json:"plan"`
}

// NewEvaluateHandler returns the path and handler for the dry-run RPC.
func NewEvaluateHandler(ev Evaluator, opts ...connect.HandlerOption) (string, http.Handler) {
	return EvaluateProcedure, connect.NewUnaryHandler(
		EvaluateProcedure,
		func(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
			env, err := envelopeFrom(req.Msg)
			if err != nil {
				return nil, connect.NewError(connect.CodeInvalidArgument, err)
			}

			res := ev.Evaluate(ctx, env)
			out := evaluation{
				EventID:   res.EventID.String(),
				EventType: res.EventType,
				Outcome:   string(res.Outcome),
				Reason:    res.Plan.Reason,
				Plan:      res.Plan,
			}
			if res.Err != nil {
				out.Error = res.Err.Error()
			}

			msg, err := toStruct(out)
			if err != nil {
				return nil, connect.NewError(connect.CodeInternal, err)
			}
			return connect.NewResponse(msg), nil
		},
		opts...,
	)
}

func envelopeFrom(msg *structpb.Struct) (events.Envelope, error) {
	raw, err := protojson.Marshal(msg)
	if err != nil {
		return events.Envelope{}, fmt.Errorf("encode request: %w", err)
	}
	var env events.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return events.Envelope{}, fmt.Errorf("request is not an event envelope: %w", err)
	}
	if env.EventID == uuid.Nil {
		return events.Envelope{}, errors.New("eventId is required")
	}
	if env.EventType == "" {
		return events.Envelope{}, errors.New("eventType is required")
	}
	return env, nil
}

func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return out, nil
}
