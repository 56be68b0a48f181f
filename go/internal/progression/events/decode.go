package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mcdev12/progression/go/internal/progression/outcome"
)

// ErrUnknownEvent is returned by Decode for event names nobody reacts to.
var ErrUnknownEvent = errors.New("unknown event type")

// validatable is implemented by payloads with rules that tags cannot express.
type validatable interface {
	Validate() error
}

type decoder func(meta Meta, raw json.RawMessage) (Event, error)

var (
	validate = newValidator()
	registry = map[Kind]decoder{
		KindDefenceOrganisationDisassociated: decodeAs(func(m Meta, p DefenceOrganisationDisassociatedPayload) Event {
			return DefenceOrganisationDisassociated{Meta: m, Payload: p}
		}),
		KindDefenceOrganisationAssociated: decodeAs(func(m Meta, p DefenceOrganisationAssociatedPayload) Event {
			return DefenceOrganisationAssociated{Meta: m, Payload: p}
		}),
		KindOffencesUpdated: decodeAs(func(m Meta, p OffencesUpdatedPayload) Event {
			return OffencesUpdated{Meta: m, Payload: p}
		}),
		KindHearingResulted: decodeAs(func(m Meta, p HearingResultedPayload) Event {
			return HearingResulted{Meta: m, Payload: p}
		}),
		KindCourtApplicationCreated: decodeAs(func(m Meta, p CourtApplicationCreatedPayload) Event {
			return CourtApplicationCreated{Meta: m, Payload: p}
		}),
		KindCourtApplicationUpdated: decodeAs(func(m Meta, p CourtApplicationUpdatedPayload) Event {
			return CourtApplicationUpdated{Meta: m, Payload: p}
		}),
		KindDefendantUpdated: decodeAs(func(m Meta, p DefendantUpdatedPayload) Event {
			return DefendantUpdated{Meta: m, Payload: p}
		}),
		KindDocumentGenerated: decodeAs(func(m Meta, p DocumentGeneratedPayload) Event {
			return DocumentGenerated{Meta: m, Payload: p}
		}),
		KindFormFinalised: decodeAs(func(m Meta, p FormFinalisedPayload) Event {
			return FormFinalised{Meta: m, Payload: p}
		}),
		KindCaseReferredToCourt: decodeAs(func(m Meta, p CaseReferredToCourtPayload) Event {
			return CaseReferredToCourt{Meta: m, Payload: p}
		}),
	}
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Known reports whether name is a registered event kind.
func Known(name string) bool {
	_, ok := registry[Kind(name)]
	return ok
}

// Decode turns an envelope into its typed event. Unregistered names return
// ErrUnknownEvent; a missing event id and malformed or invalid payloads
// return a DecisionError.
func Decode(env Envelope) (Event, error) {
	dec, ok := registry[Kind(env.EventType)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.EventType)
	}
	// outbound message ids derive from the event id
	if env.EventID == uuid.Nil {
		return nil, outcome.Decisionf("%s: missing eventId", env.EventType)
	}
	meta := Meta{
		EventID:  env.EventID,
		Name:     env.EventType,
		Metadata: env.Metadata,
	}
	return dec(meta, env.Payload)
}

func decodeAs[P any](build func(Meta, P) Event) decoder {
	return func(meta Meta, raw json.RawMessage) (Event, error) {
		if len(raw) == 0 {
			return nil, outcome.Decisionf("%s: empty payload", meta.Name)
		}
		var p P
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, &outcome.DecisionError{Reason: meta.Name + ": malformed payload", Err: err}
		}
		if err := validate.Struct(p); err != nil {
			return nil, &outcome.DecisionError{Reason: meta.Name + ": invalid payload", Err: fieldErrors(err)}
		}
		if v, ok := any(p).(validatable); ok {
			if err := v.Validate(); err != nil {
				return nil, &outcome.DecisionError{Reason: meta.Name + ": invalid payload", Err: err}
			}
		}
		return build(meta, p), nil
	}
}

// fieldErrors flattens validator errors into "field: tag" pairs keyed by
// JSON name so logs point at the wire field.
func fieldErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
	}
	return errors.New(strings.Join(parts, "; "))
}

func errMissing(field string) error {
	return fmt.Errorf("%s: required", field)
}
