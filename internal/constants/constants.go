package constants

// ProgramName is written to the !_TAG_PROGRAM_NAME header line unless the
// config overrides it.
const ProgramName = "typo"

// MacroRulesKeyword names the macro that defines other macros.
const MacroRulesKeyword = "macro_rules"

// StdinToken as the input argument reads source from standard input.
const StdinToken = "-"

// StdinName is the file name recorded for source read from standard input.
const StdinName = "<stdin>"

// DefaultCrateName is used when neither a crate_name attribute nor the
// input file name yields one.
const DefaultCrateName = "main"

// ConfigFile is the config file looked up in the working directory when
// --config and TYPO_CONFIG are both unset.
const ConfigFile = "typo.toml"
