package constants

const (
	// Commands.
	RaidCommandName = "raid"
	PingCommandName = "ping"

	// Raid command options.
	RaidTimeOption     = "time"
	RaidBossOption     = "boss"
	RaidLocationOption = "location"

	// Command replies.
	RaidCreatedReply  = "Raid created. React below the summary to sign up."
	RaidFailedReply   = "Failed to create the raid. Please try again."
	PingReply         = "Pong!"
	UnknownReply      = "This command is not available."
	InternalErrorText = "Internal error. Please report this to an administrator."

	// Summary embed.
	RaidEmbedTitle      = "Raid"
	RaidTimeField       = "Time"
	RaidBossField       = "Boss"
	RaidLocationField   = "Location"
	RaidSignedUpField   = "Signed up"
	RaidNoSignUpsText   = "No one signed up yet"
	DefaultEmbedColor   = 0x5865F2
	MaxEmbedFieldLength = 1024
)
