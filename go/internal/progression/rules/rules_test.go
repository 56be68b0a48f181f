package rules

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/progression/go/internal/models"
	"github.com/mcdev12/progression/go/internal/progression/enrichment"
	"github.com/mcdev12/progression/go/internal/progression/events"
	"github.com/mcdev12/progression/go/internal/progression/outcome"
	"github.com/mcdev12/progression/go/internal/progression/plan"
	"github.com/mcdev12/progression/go/internal/progression/readmodel"
)

var eventID = uuid.MustParse("3f0e8a52-0d5c-4b0e-9a39-8f1f7d3c2b10")

func meta(kind events.Kind) events.Meta {
	return events.Meta{
		EventID:  eventID,
		Name:     string(kind),
		Metadata: map[string]string{events.MetaCorrelationID: "corr-1"},
	}
}

// react resolves the handler's requirements against gw and decides.
func react[E events.Event](t *testing.T, h Handler[E], e E, gw readmodel.Gateway) (plan.Plan, error) {
	t.Helper()
	ec, err := enrichment.NewResolver(gw, 4).Resolve(context.Background(), h.Requirements(e))
	if err != nil {
		return plan.Plan{}, err
	}
	return h.Decide(e, ec)
}

func payloadOf(t *testing.T, m plan.Message) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(m.Payload, &out))
	return out
}

func offence(id string, results ...models.JudicialResult) models.Offence {
	return models.Offence{ID: id, JudicialResults: results}
}

func caseWith(id string, defendants ...models.Defendant) models.ProsecutionCase {
	return models.ProsecutionCase{ID: id, Defendants: defendants}
}

func defendantWith(id string, offences ...models.Offence) models.Defendant {
	return models.Defendant{ID: id, Offences: offences}
}

// Disassociation

func disassociated() events.DefenceOrganisationDisassociated {
	return events.DefenceOrganisationDisassociated{
		Meta: meta(events.KindDefenceOrganisationDisassociated),
		Payload: events.DefenceOrganisationDisassociatedPayload{
			DefendantID:    "d1",
			OrganisationID: "org1",
			CaseID:         "c1",
		},
	}
}

func TestDisassociate_WithoutLinkedApplications(t *testing.T) {
	p, err := react(t, DisassociateDefenceOrganisation{}, disassociated(), readmodel.NewStatic())
	require.NoError(t, err)

	require.Equal(t, []string{CmdDisassociateDefenceOrganisation}, p.Names())
	m := p.Messages[0]
	assert.Equal(t, plan.Command, m.Kind)
	assert.Equal(t, plan.TargetProgression, m.Target)
	assert.Equal(t, map[string]any{"defendantId": "d1", "organisationId": "org1", "caseId": "c1"}, payloadOf(t, m))
	assert.Equal(t, "corr-1", m.Correlation[events.MetaCorrelationID])
	assert.Equal(t, eventID.String(), m.Correlation[events.MetaCausationID])
}

func TestDisassociate_WithLinkedApplications(t *testing.T) {
	gw := readmodel.NewStatic().Put(readmodel.ActiveApplicationsForCase, "c1", models.ActiveApplications{
		LinkedApplications: []models.ApplicationSummary{
			{ApplicationID: "a1"}, {ApplicationID: "a2"}, {ApplicationID: "a1"},
		},
	})

	p, err := react(t, DisassociateDefenceOrganisation{}, disassociated(), gw)
	require.NoError(t, err)

	require.Equal(t, []string{
		CmdDisassociateDefenceOrganisation,
		CmdDisassociateDefenceOrganisationForApplication,
		CmdDisassociateDefenceOrganisationForApplication,
	}, p.Names())
	assert.Equal(t, "a1", payloadOf(t, p.Messages[1])["applicationId"])
	assert.Equal(t, "a2", payloadOf(t, p.Messages[2])["applicationId"])
}

func TestDisassociate_ApplicationQueryFailureIsUnavailable(t *testing.T) {
	gw := readmodel.NewStatic().PutResult(readmodel.ActiveApplicationsForCase, "c1", readmodel.FailedResult(context.DeadlineExceeded))

	p, err := react(t, DisassociateDefenceOrganisation{}, disassociated(), gw)
	require.Error(t, err)
	assert.Equal(t, outcome.EnrichmentUnavailable, outcome.Classify(err))
	assert.Empty(t, p.Messages)
}

func TestDisassociate_NoApplicationsKnown(t *testing.T) {
	p, err := react(t, DisassociateDefenceOrganisation{}, disassociated(), readmodel.NewStatic())
	require.NoError(t, err)
	assert.Equal(t, []string{CmdDisassociateDefenceOrganisation}, p.Names())
}

func TestOptionalFailuresAreUnavailable(t *testing.T) {
	failed := readmodel.FailedResult(assert.AnError)

	t.Run("application hearings", func(t *testing.T) {
		gw := readmodel.NewStatic().PutResult(readmodel.HearingsForApplication, "app1", failed)
		_, err := react(t, UpdateCourtApplication{}, applicationUpdated(), gw)
		assert.Equal(t, outcome.EnrichmentUnavailable, outcome.Classify(err))
	})

	t.Run("case hearing", func(t *testing.T) {
		gw := readmodel.NewStatic().
			Put(readmodel.ProsecutionCase, "c1", models.ProsecutionCase{
				ID:         "c1",
				Defendants: []models.Defendant{{ID: "d1"}},
				HearingIDs: []string{"h1"},
			}).
			PutResult(readmodel.Hearing, "h1", failed)
		_, err := react(t, UpdateDefendant{}, defendantUpdated("d1"), gw)
		assert.Equal(t, outcome.EnrichmentUnavailable, outcome.Classify(err))
	})

	t.Run("finalising user groups", func(t *testing.T) {
		gw := readmodel.NewStatic().
			Put(readmodel.ProsecutionCase, "c1", caseWith("c1", models.Defendant{ID: "d1"})).
			PutResult(readmodel.GroupsForUser, "u1", failed)
		_, err := react(t, FinaliseForm{}, formFinalisedEvent("d1"), gw)
		assert.Equal(t, outcome.EnrichmentUnavailable, outcome.Classify(err))
	})
}

func TestAssociate_CarriesRepresentation(t *testing.T) {
	e := events.DefenceOrganisationAssociated{
		Meta: meta(events.KindDefenceOrganisationAssociated),
		Payload: events.DefenceOrganisationAssociatedPayload{
			DefendantID:        "d1",
			OrganisationID:     "org1",
			OrganisationName:   "Smith & Co",
			CaseID:             "c1",
			RepresentationType: "REPRESENTATION_ORDER",
			LAAContractNumber:  "LAA-1",
		},
	}
	gw := readmodel.NewStatic().Put(readmodel.ActiveApplicationsForCase, "c1", models.ActiveApplications{
		LinkedApplications: []models.ApplicationSummary{{ApplicationID: "a1"}},
	})

	p, err := react(t, AssociateDefenceOrganisation{}, e, gw)
	require.NoError(t, err)

	require.Equal(t, []string{CmdAssociateDefenceOrganisation, CmdAssociateDefenceOrganisationForApplication}, p.Names())
	for _, m := range p.Messages {
		body := payloadOf(t, m)
		assert.Equal(t, "REPRESENTATION_ORDER", body["representationType"])
		assert.Equal(t, "LAA-1", body["laaContractNumber"])
	}
}

// Offences

func offencesUpdated(offenceIDs ...string) events.OffencesUpdated {
	var updated []events.UpdatedOffence
	for _, id := range offenceIDs {
		updated = append(updated, events.UpdatedOffence{OffenceID: id, Wording: "amended"})
	}
	return events.OffencesUpdated{
		Meta: meta(events.KindOffencesUpdated),
		Payload: events.OffencesUpdatedPayload{
			HearingID:       "h1",
			DefendantID:     "d1",
			UpdatedOffences: updated,
		},
	}
}

func TestUpdateOffences_SingleCase(t *testing.T) {
	gw := readmodel.NewStatic().Put(readmodel.Hearing, "h1", models.Hearing{
		ID:               "h1",
		ProsecutionCases: []models.ProsecutionCase{caseWith("c1", defendantWith("d1", offence("o1"), offence("o2")))},
	})

	p, err := react(t, UpdateOffences{}, offencesUpdated("o1", "o9"), gw)
	require.NoError(t, err)

	require.Equal(t, []string{
		EvtDefendantOffencesChanged,
		CmdUpdateOffencesForHearing,
		CmdUpdateOffencesForProsecutionCase,
	}, p.Names())
	assert.Equal(t, plan.PublicEvent, p.Messages[0].Kind)
	assert.Equal(t, "c1", payloadOf(t, p.Messages[2])["prosecutionCaseId"])

	updated := payloadOf(t, p.Messages[1])["updatedOffences"].([]any)
	assert.Len(t, updated, 1, "offences not on the hearing are dropped")
}

func TestUpdateOffences_AmbiguousCaseSuppressesCaseUpdate(t *testing.T) {
	gw := readmodel.NewStatic().Put(readmodel.Hearing, "h1", models.Hearing{
		ID: "h1",
		ProsecutionCases: []models.ProsecutionCase{
			caseWith("c1", defendantWith("d1", offence("o1"))),
			caseWith("c2", defendantWith("d1", offence("o1"))),
		},
	})

	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	p, err := react(t, UpdateOffences{}, offencesUpdated("o1"), gw)
	require.NoError(t, err)
	assert.False(t, p.Suppressed)
	assert.Equal(t, []string{EvtDefendantOffencesChanged, CmdUpdateOffencesForHearing}, p.Names())
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"case_ids":["c1","c2"]`)
}

func TestUpdateOffences_NoMatchIsNoAction(t *testing.T) {
	gw := readmodel.NewStatic().Put(readmodel.Hearing, "h1", models.Hearing{ID: "h1"})

	p, err := react(t, UpdateOffences{}, offencesUpdated("o1"), gw)
	require.NoError(t, err)
	assert.True(t, p.Suppressed)
	assert.Empty(t, p.Messages)
	assert.Equal(t, "defendant is not on the hearing", p.Reason)

	gw.Put(readmodel.Hearing, "h1", models.Hearing{
		ID:               "h1",
		ProsecutionCases: []models.ProsecutionCase{caseWith("c1", defendantWith("d1", offence("o2")))},
	})
	p, err = react(t, UpdateOffences{}, offencesUpdated("o1"), gw)
	require.NoError(t, err)
	assert.True(t, p.Suppressed)
	assert.Equal(t, "no updated offence is on the hearing", p.Reason)
}

func TestUpdateOffences_MissingHearingIsEnrichmentUnavailable(t *testing.T) {
	_, err := react(t, UpdateOffences{}, offencesUpdated("o1"), readmodel.NewStatic())
	require.Error(t, err)
	assert.Equal(t, outcome.EnrichmentUnavailable, outcome.Classify(err))
}

// Hearing results

func TestResultHearing(t *testing.T) {
	final := models.JudicialResult{ID: "r1", Category: models.ResultCategoryFinal}
	adjourn := models.JudicialResult{
		ID:       "r2",
		Category: models.ResultCategoryIntermediary,
		NextHearing: &models.NextHearing{
			HearingTypeID:       "ht1",
			CourtCentreID:       "ou1",
			ListedStartDateTime: "2026-05-01T10:00:00Z",
			WeekCommencingDate:  &models.WeekCommencing{StartDate: "2026-04-27"},
		},
	}
	weekly := models.JudicialResult{
		ID:       "r3",
		Category: models.ResultCategoryIntermediary,
		NextHearing: &models.NextHearing{
			HearingTypeID:      "ht2",
			CourtCentreID:      "ou2",
			WeekCommencingDate: &models.WeekCommencing{StartDate: "2026-06-01", DurationWeeks: 1},
		},
	}

	e := events.HearingResulted{
		Meta: meta(events.KindHearingResulted),
		Payload: events.HearingResultedPayload{
			SharedTime: "2026-03-01T16:00:00Z",
			Hearing: models.Hearing{
				ID: "h1",
				ProsecutionCases: []models.ProsecutionCase{
					caseWith("c1", defendantWith("d1", offence("o1", final), offence("o2", final))),
					caseWith("c2", defendantWith("d2", offence("o3", adjourn), offence("o4", weekly), offence("o5", adjourn))),
					caseWith("c3"),
				},
			},
		},
	}
	gw := readmodel.NewStatic().
		Put(readmodel.OrganisationUnit, "ou1", models.OrganisationUnit{ID: "ou1", OUCode: "B01", Name: "Lavender Hill"}).
		Put(readmodel.OrganisationUnit, "ou2", models.OrganisationUnit{ID: "ou2", Name: "Westminster"})

	p, err := react(t, ResultHearing{}, e, gw)
	require.NoError(t, err)

	require.Equal(t, []string{
		CmdRecordHearingResults,
		CmdUpdateCaseStatus,
		CmdListNextHearing,
		CmdListNextHearing,
	}, p.Names())
	assert.Equal(t, "c1", payloadOf(t, p.Messages[1])["prosecutionCaseId"])
	assert.Equal(t, "INACTIVE", payloadOf(t, p.Messages[1])["caseStatus"])

	first := payloadOf(t, p.Messages[2])
	assert.Equal(t, "2026-05-01T10:00:00Z", first["listedStartDateTime"])
	assert.NotContains(t, first, "weekCommencingDate")
	assert.Equal(t, []any{"o3", "o5"}, first["offenceIds"])
	assert.Equal(t, "Lavender Hill", first["courtCentre"].(map[string]any)["name"])

	second := payloadOf(t, p.Messages[3])
	assert.NotContains(t, second, "listedStartDateTime")
	assert.Equal(t, "2026-06-01", second["weekCommencingDate"].(map[string]any)["startDate"])
}

func TestResultHearing_UnknownCourtCentre(t *testing.T) {
	e := events.HearingResulted{
		Meta: meta(events.KindHearingResulted),
		Payload: events.HearingResultedPayload{
			Hearing: models.Hearing{ID: "h1", ProsecutionCases: []models.ProsecutionCase{
				caseWith("c1", defendantWith("d1", offence("o1", models.JudicialResult{
					NextHearing: &models.NextHearing{CourtCentreID: "ou9", ListedStartDateTime: "2026-05-01T10:00:00Z"},
				}))),
			}},
		},
	}
	_, err := react(t, ResultHearing{}, e, readmodel.NewStatic())
	require.Error(t, err)
	assert.Equal(t, outcome.EnrichmentUnavailable, outcome.Classify(err))
}

func TestResultHearing_NextHearingWithoutDate(t *testing.T) {
	e := events.HearingResulted{
		Meta: meta(events.KindHearingResulted),
		Payload: events.HearingResultedPayload{
			Hearing: models.Hearing{ID: "h1", ProsecutionCases: []models.ProsecutionCase{
				caseWith("c1", defendantWith("d1", offence("o1", models.JudicialResult{
					NextHearing: &models.NextHearing{CourtCentreID: "ou1"},
				}))),
			}},
		},
	}
	gw := readmodel.NewStatic().Put(readmodel.OrganisationUnit, "ou1", models.OrganisationUnit{ID: "ou1"})
	_, err := react(t, ResultHearing{}, e, gw)
	require.Error(t, err)
	assert.Equal(t, outcome.DecisionFailed, outcome.Classify(err))
}

// Court applications

func applicationCreated(subjectCase string, hearing *events.CourtHearingRequest) events.CourtApplicationCreated {
	return events.CourtApplicationCreated{
		Meta: meta(events.KindCourtApplicationCreated),
		Payload: events.CourtApplicationCreatedPayload{
			CourtApplication: models.CourtApplication{
				ID: "app1",
				Subject: &models.ApplicationSubject{
					DefendantCases: []models.DefendantCase{{CaseID: subjectCase, DefendantID: "d1"}},
				},
				CourtApplicationCases: []models.CourtApplicationCase{
					{ProsecutionCaseID: "c1"}, {ProsecutionCaseID: "c2"}, {ProsecutionCaseID: "c1"},
				},
			},
			CourtHearing: hearing,
		},
	}
}

func applicationCases() *readmodel.Static {
	return readmodel.NewStatic().
		Put(readmodel.ProsecutionCase, "c1", models.ProsecutionCase{ID: "c1", CaseURN: "URN1", Defendants: []models.Defendant{{ID: "d1"}}}).
		Put(readmodel.ProsecutionCase, "c2", models.ProsecutionCase{ID: "c2", CaseURN: "URN2"}).
		Put(readmodel.OrganisationUnit, "ou1", models.OrganisationUnit{ID: "ou1", Name: "Lavender Hill"})
}

func TestCreateCourtApplication(t *testing.T) {
	hearing := &events.CourtHearingRequest{
		CourtCentreID:         "ou1",
		HearingTypeID:         "ht1",
		EarliestStartDateTime: "2026-05-01T10:00:00Z",
		WeekCommencingDate:    &models.WeekCommencing{StartDate: "2026-04-27"},
	}

	p, err := react(t, CreateCourtApplication{}, applicationCreated("c1", hearing), applicationCases())
	require.NoError(t, err)

	require.Equal(t, []string{
		CmdLinkApplicationToCase,
		CmdLinkApplicationToCase,
		CmdListCourtHearing,
		EvtCourtApplicationCreated,
	}, p.Names())
	assert.Equal(t, "URN1", payloadOf(t, p.Messages[0])["caseUrn"])
	assert.Equal(t, "c2", payloadOf(t, p.Messages[1])["prosecutionCaseId"])

	listing := payloadOf(t, p.Messages[2])
	assert.Equal(t, "2026-05-01T10:00:00Z", listing["earliestStartDateTime"])
	assert.NotContains(t, listing, "weekCommencingDate")
	assert.Equal(t, plan.PublicEvent, p.Messages[3].Kind)
}

func TestCreateCourtApplication_WithoutHearing(t *testing.T) {
	p, err := react(t, CreateCourtApplication{}, applicationCreated("c1", nil), applicationCases())
	require.NoError(t, err)
	assert.Equal(t, []string{CmdLinkApplicationToCase, CmdLinkApplicationToCase, EvtCourtApplicationCreated}, p.Names())
}

func TestCreateCourtApplication_UnmatchedSubjectFails(t *testing.T) {
	_, err := react(t, CreateCourtApplication{}, applicationCreated("c2", nil), applicationCases())
	require.Error(t, err)
	assert.Equal(t, outcome.DecisionFailed, outcome.Classify(err))
}

func applicationUpdated() events.CourtApplicationUpdated {
	return events.CourtApplicationUpdated{
		Meta:    meta(events.KindCourtApplicationUpdated),
		Payload: events.CourtApplicationUpdatedPayload{CourtApplication: models.CourtApplication{ID: "app1"}},
	}
}

func TestUpdateCourtApplication_FansOutOncePerHearing(t *testing.T) {
	var hearings []models.HearingSummary
	for _, id := range []string{"h1", "h2", "h1", "h3", "h2"} {
		hearings = append(hearings, models.HearingSummary{ID: id})
	}
	gw := readmodel.NewStatic().Put(readmodel.HearingsForApplication, "app1", models.ApplicationHearings{Hearings: hearings})

	p, err := react(t, UpdateCourtApplication{}, applicationUpdated(), gw)
	require.NoError(t, err)

	require.Len(t, p.Messages, 3)
	var got []any
	for _, m := range p.Messages {
		assert.Equal(t, CmdUpdateCourtApplicationForHearing, m.Name)
		assert.Equal(t, plan.TargetHearing, m.Target)
		got = append(got, payloadOf(t, m)["hearingId"])
	}
	assert.Equal(t, []any{"h1", "h2", "h3"}, got)
}

func TestUpdateCourtApplication_NoHearingsIsNoAction(t *testing.T) {
	p, err := react(t, UpdateCourtApplication{}, applicationUpdated(), readmodel.NewStatic())
	require.NoError(t, err)
	assert.True(t, p.Suppressed)

	gw := readmodel.NewStatic().Put(readmodel.HearingsForApplication, "app1", models.ApplicationHearings{})
	p, err = react(t, UpdateCourtApplication{}, applicationUpdated(), gw)
	require.NoError(t, err)
	assert.True(t, p.Suppressed)
}

// Defendants

func defendantUpdated(id string) events.DefendantUpdated {
	return events.DefendantUpdated{
		Meta: meta(events.KindDefendantUpdated),
		Payload: events.DefendantUpdatedPayload{Defendant: models.Defendant{
			ID:                id,
			ProsecutionCaseID: "c1",
			PersonDefendant:   &models.PersonDefendant{FirstName: "Jo", LastName: "Bloggs"},
		}},
	}
}

func TestUpdateDefendant(t *testing.T) {
	onCase := caseWith("c1", models.Defendant{ID: "d1"})
	gw := readmodel.NewStatic().
		Put(readmodel.ProsecutionCase, "c1", models.ProsecutionCase{
			ID:         "c1",
			Defendants: []models.Defendant{{ID: "d1"}},
			HearingIDs: []string{"h1", "h2", "h3", "h1"},
		}).
		Put(readmodel.Hearing, "h1", models.Hearing{ID: "h1", ProsecutionCases: []models.ProsecutionCase{onCase}}).
		Put(readmodel.Hearing, "h3", models.Hearing{ID: "h3", ProsecutionCases: []models.ProsecutionCase{caseWith("c1")}})

	p, err := react(t, UpdateDefendant{}, defendantUpdated("d1"), gw)
	require.NoError(t, err)

	require.Equal(t, []string{CmdUpdateDefendantForHearing}, p.Names())
	assert.Equal(t, "h1", payloadOf(t, p.Messages[0])["hearingId"])
	assert.Len(t, gw.Calls(), 4, "case plus three distinct hearings")
}

func TestUpdateDefendant_NotOnCaseFails(t *testing.T) {
	gw := readmodel.NewStatic().Put(readmodel.ProsecutionCase, "c1", models.ProsecutionCase{ID: "c1"})

	_, err := react(t, UpdateDefendant{}, defendantUpdated("d1"), gw)
	require.Error(t, err)
	assert.Equal(t, outcome.DecisionFailed, outcome.Classify(err))
}

func TestUpdateDefendant_NoHearingsIsNoAction(t *testing.T) {
	gw := readmodel.NewStatic().Put(readmodel.ProsecutionCase, "c1", caseWith("c1", models.Defendant{ID: "d1"}))

	p, err := react(t, UpdateDefendant{}, defendantUpdated("d1"), gw)
	require.NoError(t, err)
	assert.True(t, p.Suppressed)
}

// Documents

func documentGenerated(source, caseID string) events.DocumentGenerated {
	return events.DocumentGenerated{
		Meta: meta(events.KindDocumentGenerated),
		Payload: events.DocumentGeneratedPayload{
			OriginatingSource:     source,
			TemplateIdentifier:    "NPE",
			SourceCorrelationID:   "corr-doc",
			DocumentFileServiceID: "file-1",
			CaseID:                caseID,
			ApplicationID:         "app1",
		},
	}
}

func TestAddGeneratedDocument_OtherSourceIgnored(t *testing.T) {
	gw := readmodel.NewStatic()
	p, err := react(t, AddGeneratedDocument{}, documentGenerated("SJP", "c1"), gw)
	require.NoError(t, err)
	assert.True(t, p.Suppressed)
	assert.Empty(t, gw.Calls())
}

func TestAddGeneratedDocument_NotifiesCaseParties(t *testing.T) {
	gw := readmodel.NewStatic().Put(readmodel.DocumentType, "NPE", models.DocumentType{ID: "dt1", TemplateIdentifier: "NPE", NotifyParties: true})

	p, err := react(t, AddGeneratedDocument{}, documentGenerated(OriginatingSourceProgression, "c1"), gw)
	require.NoError(t, err)
	assert.Equal(t, []string{CmdAddCourtDocument, CmdSendDocumentAvailableNotification}, p.Names())
	assert.Equal(t, plan.TargetNotification, p.Messages[1].Target)

	p, err = react(t, AddGeneratedDocument{}, documentGenerated(OriginatingSourceProgression, ""), gw)
	require.NoError(t, err)
	assert.Equal(t, []string{CmdAddCourtDocument}, p.Names())
}

// Forms

func formFinalisedEvent(defendants ...string) events.FormFinalised {
	return events.FormFinalised{
		Meta: meta(events.KindFormFinalised),
		Payload: events.FormFinalisedPayload{
			CourtFormID:  "form1",
			CaseID:       "c1",
			FormType:     "PET",
			UserID:       "u1",
			DefendantIDs: defendants,
		},
	}
}

func TestFinaliseForm_DefenceUser(t *testing.T) {
	gw := readmodel.NewStatic().
		Put(readmodel.ProsecutionCase, "c1", models.ProsecutionCase{ID: "c1", CaseURN: "URN1", Defendants: []models.Defendant{
			{ID: "d1", PersonDefendant: &models.PersonDefendant{FirstName: "Jo", LastName: "Bloggs"}},
			{ID: "d2"},
		}}).
		Put(readmodel.User, "u1", models.User{UserID: "u1", FirstName: "Ada", LastName: "Lovelace"}).
		Put(readmodel.GroupsForUser, "u1", models.UserGroups{Groups: []models.Group{{GroupName: "Defence Users"}}})

	p, err := react(t, FinaliseForm{}, formFinalisedEvent("d1", "d9", "d1", "d2"), gw)
	require.NoError(t, err)

	require.Equal(t, []string{
		CmdGenerateDocument,
		CmdGenerateDocument,
		EvtFormFinalised,
		CmdNotifyProsecutorFormFinalised,
	}, p.Names())

	doc := payloadOf(t, p.Messages[0])
	assert.Equal(t, "PetFinalisedForm", doc["templateIdentifier"])
	inner := doc["payload"].(map[string]any)
	assert.Equal(t, "Jo Bloggs", inner["defendantName"])
	assert.Equal(t, "Ada Lovelace", inner["finalisedBy"])

	assert.Equal(t, []any{"d1", "d2"}, payloadOf(t, p.Messages[2])["defendantIds"])
}

func TestFinaliseForm_UnknownUserSkipsNotification(t *testing.T) {
	gw := readmodel.NewStatic().Put(readmodel.ProsecutionCase, "c1", caseWith("c1", models.Defendant{ID: "d1"}))

	p, err := react(t, FinaliseForm{}, formFinalisedEvent("d1"), gw)
	require.NoError(t, err)
	assert.Equal(t, []string{CmdGenerateDocument, EvtFormFinalised}, p.Names())
}

func TestFinaliseForm_NoMatchingDefendantIsNoAction(t *testing.T) {
	gw := readmodel.NewStatic().Put(readmodel.ProsecutionCase, "c1", caseWith("c1", models.Defendant{ID: "d1"}))

	p, err := react(t, FinaliseForm{}, formFinalisedEvent("d7"), gw)
	require.NoError(t, err)
	assert.True(t, p.Suppressed)
}

// Referral

func TestReferCaseToCourt(t *testing.T) {
	e := events.CaseReferredToCourt{
		Meta: meta(events.KindCaseReferredToCourt),
		Payload: events.CaseReferredToCourtPayload{
			ProsecutionCaseID: "c1",
			ReferralReasonID:  "rr1",
			CourtCentreID:     "ou1",
			DefendantIDs:      []string{"d1"},
		},
	}
	gw := readmodel.NewStatic().
		Put(readmodel.ReferralReason, "rr1", models.ReferralReason{ID: "rr1", Reason: "Unsuitable for SJP", WelshReason: "Anaddas"}).
		Put(readmodel.OrganisationUnit, "ou1", models.OrganisationUnit{ID: "ou1", Name: "Lavender Hill", OUCode: "B01"})

	p, err := react(t, ReferCaseToCourt{}, e, gw)
	require.NoError(t, err)
	require.Equal(t, []string{CmdReferCaseToCourt}, p.Names())

	body := payloadOf(t, p.Messages[0])
	assert.Equal(t, "Unsuitable for SJP", body["referralReason"].(map[string]any)["description"])
	assert.Equal(t, "B01", body["courtCentre"].(map[string]any)["ouCode"])

	_, err = react(t, ReferCaseToCourt{}, e, readmodel.NewStatic())
	assert.Equal(t, outcome.EnrichmentUnavailable, outcome.Classify(err))
}

func TestDefaultSetIsComplete(t *testing.T) {
	s := Default()
	assert.NotNil(t, s.DefenceOrganisationDisassociated)
	assert.NotNil(t, s.DefenceOrganisationAssociated)
	assert.NotNil(t, s.OffencesUpdated)
	assert.NotNil(t, s.HearingResulted)
	assert.NotNil(t, s.CourtApplicationCreated)
	assert.NotNil(t, s.CourtApplicationUpdated)
	assert.NotNil(t, s.DefendantUpdated)
	assert.NotNil(t, s.DocumentGenerated)
	assert.NotNil(t, s.FormFinalised)
	assert.NotNil(t, s.CaseReferredToCourt)
}
