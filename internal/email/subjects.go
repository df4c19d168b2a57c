package email

const (
	subjectWelcome         = "Welcome to SalesClutch"
	subjectWorkspaceInvite = "You have been invited to %s"
	subjectDealAdvanced    = "Deal advanced: %s"
	subjectDealWon         = "Deal won: %s"
)
