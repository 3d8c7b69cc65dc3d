package constants

// Tool name and related constants
const (
	// ToolName is the name of this tool
	ToolName = "sdlcguard"

	// ConfigFileName is the default config file name
	ConfigFileName = ".sdlcguard.yaml"

	// EnvVarPrefix is the prefix for environment variables
	EnvVarPrefix = "SDLCGUARD"
)

// Filesystem contract
const (
	// SDLCDir holds per-project state
	SDLCDir = ".sdlc"

	// LevelFile is the level override, relative to the repository root
	LevelFile = ".sdlc/level.json"

	// ArchitectureDir holds the canonical architecture documents
	ArchitectureDir = "docs/architecture"
)

// Output format constants
const (
	OutputFormatConsole  = "console"
	OutputFormatJSON     = "json"
	OutputFormatMarkdown = "markdown"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitFailure = 1
	ExitError   = 2
)
