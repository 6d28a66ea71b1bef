package cli

import (
	"os"

	"golang.org/x/term"
)

// Globals holds global flags available to all commands
type Globals struct {
	ConfigFile  string `help:"Config file path" name:"config-file" type:"path" env:"TASQ_CONFIG_FILE" hidden:""`
	BaseURL     string `help:"Task service API base URL" name:"base-url" env:"TASQ_BASE_URL"`
	Store       string `help:"Credential store backend" default:"" enum:"auto,sqlite,keyring,file,memory,none," env:"TASQ_STORE" predictor:"store"`
	StorePath   string `help:"Directory holding the credential store" name:"store-path" type:"path" env:"TASQ_STORE_PATH"`
	Output      string `help:"Output format" default:"auto" enum:"json,plain,rich,auto" short:"o" env:"TASQ_OUTPUT"`
	LogLevel    string `help:"Log level (trace, debug, info, warn, error)" name:"log-level" env:"TASQ_LOG_LEVEL" predictor:"level"`
	Verbose     bool   `help:"Verbose output (debug logging)" short:"v" env:"TASQ_VERBOSE"`
	ResultsOnly bool   `help:"Strip JSON envelope, return data array only" env:"TASQ_RESULTS_ONLY"`
	NoInput     bool   `help:"Disable interactive prompts (fail instead)" env:"TASQ_NO_INPUT"`
	Force       bool   `help:"Skip confirmation prompts for destructive operations" env:"TASQ_FORCE"`
}

// ResolvedOutput returns the effective output mode.
// "auto" uses the configured default, then detects TTY: rich on a terminal, plain otherwise.
func (g *Globals) ResolvedOutput(configured string) string {
	if g.Output != "auto" && g.Output != "" {
		return g.Output
	}
	if configured != "" {
		return configured
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		return "rich"
	}

	return "plain"
}

// resolve returns the flag value when set, otherwise the configured one
func resolve(flag, configured string) string {
	if flag != "" {
		return flag
	}
	return configured
}
