package main

import "time"

// CLI identity
const (
	CLIName        = "compose"
	CLIShort       = "Django-style template composition CLI"
	CLIDescription = `compose renders component-based templates.

Templates pull in other templates with {% compose %} and fill them
through {% slot %} blocks. Sources come from template directories,
a config file naming Redis and PostgreSQL backends, or stdin.`
)

// Command names
const (
	CmdNameRender   = "render"
	CmdNameValidate = "validate"
	CmdNameServe    = "serve"
	CmdNameVersion  = "version"
)

// Flag names
const (
	FlagDir      = "dir"
	FlagConfig   = "config"
	FlagData     = "data"
	FlagDataFile = "data-file"
	FlagOutput   = "output"
	FlagFormat   = "format"
	FlagListen   = "listen"
	FlagMaxDepth = "max-depth"
)

// Flag short names
const (
	FlagDirShort      = "d"
	FlagConfigShort   = "c"
	FlagDataFileShort = "f"
	FlagOutputShort   = "o"
	FlagFormatShort   = "F"
	FlagListenShort   = "l"
)

// Flag usage strings
const (
	FlagUsageDir      = "template directory (repeatable, searched in order)"
	FlagUsageConfig   = "YAML config file"
	FlagUsageData     = "inline JSON or YAML data"
	FlagUsageDataFile = "JSON or YAML data file (use \"-\" for stdin)"
	FlagUsageOutput   = "output file (default: stdout)"
	FlagUsageFormat   = "output format: text, json"
	FlagUsageListen   = "listen address, overrides the config file"
	FlagUsageMaxDepth = "maximum composition depth"
)

// Flag defaults
const (
	FlagDefaultOutput = ""
	FlagDefaultFormat = OutputFormatText
)

// Exit codes
const (
	ExitCodeSuccess         = 0
	ExitCodeError           = 1
	ExitCodeUsageError      = 2
	ExitCodeValidationError = 3
	ExitCodeInputError      = 4
)

// Output formats
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
)

const (
	InputSourceStdin  = "-"
	FilePermissions   = 0o644
	ShutdownTimeout   = 5 * time.Second
	JSONIndent        = "  "
	StdinTemplateName = "-"
)

// Error messages
const (
	ErrMsgMissingSource     = "template name or \"-\" required"
	ErrMsgNoSources         = "no template source: pass --dir or --config"
	ErrMsgNoTemplates       = "no templates to validate"
	ErrMsgInvalidData       = "invalid data: expected a JSON or YAML mapping"
	ErrMsgReadFileFailed    = "failed to read file"
	ErrMsgReadStdinFailed   = "failed to read from stdin"
	ErrMsgWriteOutputFailed = "failed to write output"
	ErrMsgRenderFailed      = "render failed"
	ErrMsgValidationFailed  = "validation failed"
	ErrMsgInvalidFormat     = "invalid output format"
	ErrMsgEngineFailed      = "failed to build engine"
	ErrMsgConfigFailed      = "failed to load config"
	ErrMsgServeFailed       = "server failed"
	ErrMsgListTemplates     = "failed to list templates"
)

// Output formatting
const (
	FmtErrorWithCause = "error: %s: %v\n"
	FmtValidOK        = "ok    %s\n"
	FmtValidFail      = "fail  %s: %v\n"
	FmtServing        = "serving templates on %s\n"
	FmtVersion        = "%s %s (%s)\n"
)

const (
	VersionUnknown       = "unknown"
	buildSettingRevision = "vcs.revision"
)

// Log messages and fields
const (
	LogMsgServing  = "serving templates"
	LogMsgShutdown = "shutting down"
	LogFieldListen = "listen"
	LogFieldDirs   = "dirs"
)
