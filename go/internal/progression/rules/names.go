package rules

// Outbound message names.
const (
	CmdDisassociateDefenceOrganisation               = "progression.command.disassociate-defence-organisation"
	CmdDisassociateDefenceOrganisationForApplication = "progression.command.disassociate-defence-organisation-for-application"
	CmdAssociateDefenceOrganisation                  = "progression.command.associate-defence-organisation"
	CmdAssociateDefenceOrganisationForApplication    = "progression.command.associate-defence-organisation-for-application"

	EvtDefendantOffencesChanged         = "public.progression.defendant-offences-changed"
	CmdUpdateOffencesForHearing         = "hearing.command.update-offences-for-hearing"
	CmdUpdateOffencesForProsecutionCase = "progression.command.update-offences-for-prosecution-case"

	CmdRecordHearingResults = "progression.command.record-hearing-results"
	CmdUpdateCaseStatus     = "progression.command.update-case-status"
	CmdListNextHearing      = "listing.command.list-next-hearing"

	CmdLinkApplicationToCase   = "progression.command.link-application-to-case"
	CmdListCourtHearing        = "listing.command.list-court-hearing"
	EvtCourtApplicationCreated = "public.progression.court-application-created"

	CmdUpdateCourtApplicationForHearing = "hearing.command.update-court-application"

	CmdUpdateDefendantForHearing = "hearing.command.update-defendant-for-hearing"

	CmdAddCourtDocument                  = "progression.command.add-court-document"
	CmdSendDocumentAvailableNotification = "notification.command.send-document-available-notification"

	CmdGenerateDocument              = "systemdocgenerator.command.generate-document"
	EvtFormFinalised                 = "public.progression.form-finalised"
	CmdNotifyProsecutorFormFinalised = "notification.command.notify-prosecutor-form-finalised"

	CmdReferCaseToCourt = "progression.command.refer-case-to-court"
)

// OriginatingSourceProgression marks documents this context asked for.
const OriginatingSourceProgression = "PROGRESSION"
