package orchestrator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/progression/go/internal/progression/events"
	"github.com/mcdev12/progression/go/internal/progression/outcome"
	"github.com/mcdev12/progression/go/internal/progression/rules"
)

func oneOfEach() []events.Event {
	m := events.Meta{EventID: uuid.New()}
	return []events.Event{
		events.DefenceOrganisationDisassociated{Meta: m},
		events.DefenceOrganisationAssociated{Meta: m},
		events.OffencesUpdated{Meta: m},
		events.HearingResulted{Meta: m},
		events.CourtApplicationCreated{Meta: m},
		events.CourtApplicationUpdated{Meta: m},
		events.DefendantUpdated{Meta: m},
		events.DocumentGenerated{Meta: m},
		events.FormFinalised{Meta: m},
		events.CaseReferredToCourt{Meta: m},
	}
}

func TestRoute_EveryKindHasARule(t *testing.T) {
	seen := map[events.Kind]bool{}
	for _, e := range oneOfEach() {
		b, err := route(rules.Default(), e)
		require.NoError(t, err, e.Kind())
		assert.NotNil(t, b.decide, e.Kind())
		seen[e.Kind()] = true
	}
	for _, k := range events.AllKinds() {
		assert.True(t, seen[k], "kind %s not routed", k)
	}
}

func TestRoute_UnboundKindIsDecisionFailure(t *testing.T) {
	for _, e := range oneOfEach() {
		_, err := route(rules.Set{}, e)
		require.Error(t, err)
		assert.Equal(t, outcome.DecisionFailed, outcome.Classify(err), e.Kind())
	}
}
