package nirvanamm

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "A mod manager for patch-based game mods"
	MsgVersionShort    = "Print version information"
	MsgListShort       = "List installed mods"
	MsgListLong        = "List shows every mod archive in the mods directory, marking the active ones."
	MsgValidateShort   = "Check a selection of mods"
	MsgOrderShort      = "Show the order in which mods would be applied"
	MsgApplyShort      = "Apply mods to the game"
	MsgResetShort      = "Restore the game files from the snapshot"
	MsgPurgeShort      = "Restore the game and delete the snapshot"
	MsgPrepareShort    = "Snapshot the unmodified game"
	MsgInspectShort    = "Show the header of a mod's patch"
	MsgConfigShort     = "Show or change the manager's configuration"
	MsgConfigShow      = "Show the current configuration"
	MsgSetRootShort    = "Point the manager at a game installation"
	MsgCompletionShort = "Generate shell completion script"

	// Status messages
	MsgApplied        = "Applied %d mod(s): %s"
	MsgNothingApplied = "No mods selected; game restored from the snapshot"
	MsgReset          = "Game files restored from the snapshot"
	MsgPurged         = "Game restored and snapshot deleted"
	MsgGameRootSet    = "Game root set to %s"

	// Spinner text
	MsgSpinApplying = "Applying mods"
	MsgSpinPrepare  = "Taking snapshot of the game"
	MsgSpinReset    = "Restoring game files"
	MsgSpinPurge    = "Purging snapshot"

	// Flag descriptions
	MsgFlagVerbose = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDataDir = "Directory holding mods and the game snapshot"
	MsgFlagFormat  = "Output format: auto, term, text or json"
	MsgFlagCodec   = "xdelta3 executable to use"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/apply-long.txt
	msgApplyLongRaw string
	MsgApplyLong    = strings.TrimSpace(msgApplyLongRaw)

	//go:embed msgs/apply-example.txt
	msgApplyExampleRaw string
	MsgApplyExample    = strings.TrimRight(msgApplyExampleRaw, "\n")

	//go:embed msgs/validate-long.txt
	msgValidateLongRaw string
	MsgValidateLong    = strings.TrimSpace(msgValidateLongRaw)

	//go:embed msgs/purge-long.txt
	msgPurgeLongRaw string
	MsgPurgeLong    = strings.TrimSpace(msgPurgeLongRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)
)
