package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/willabides/kongplete"

	"github.com/semmy-space/tasq/internal/config"
	"github.com/semmy-space/tasq/internal/logging"
	"github.com/semmy-space/tasq/internal/output"
)

// FormatterProvider wraps the formatter and the process streams for Kong binding
type FormatterProvider struct {
	Formatter output.Formatter
	In        io.Reader
	Out       io.Writer
	Err       io.Writer
}

// CLI is the root command structure
type CLI struct {
	Globals

	Key         KeyCmd                        `cmd:"" help:"API key commands"`
	Task        TaskCmd                       `cmd:"" help:"Task commands"`
	Ls          LsCmd                         `cmd:"" help:"List tasks (shortcut for task list)"`
	Config      ConfigCmd                     `cmd:"" help:"Configuration commands"`
	Setup       SetupCmd                      `cmd:"" help:"Interactive first-run setup"`
	Schema      SchemaCmd                     `cmd:"" help:"Print the command tree as JSON" hidden:""`
	Completions kongplete.InstallCompletions `cmd:"" help:"Install shell completions"`
	Version     VersionCmd                    `cmd:"" help:"Show version information"`

	stdin          io.Reader
	stdout, stderr io.Writer
	provider       *ServiceProvider
}

// AfterApply runs once flags are parsed. It loads config, creates the
// logger, formatter and service provider, and binds them for commands.
func (c *CLI) AfterApply(ctx *kong.Context) error {
	if c.stdin == nil {
		c.stdin = os.Stdin
	}
	if c.stdout == nil {
		c.stdout = os.Stdout
	}
	if c.stderr == nil {
		c.stderr = os.Stderr
	}

	path := c.ConfigFile
	if path == "" {
		path = config.ConfigPath()
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return output.NewCLIError(output.ExitConfigError, err.Error()).
			WithHint(fmt.Sprintf("Fix or remove %s", path))
	}

	level := resolve(c.LogLevel, cfg.LogLevel)
	if c.Verbose {
		level = "debug"
	}
	logger := logging.New(level, cfg.LogFormat, c.stderr)

	mode := c.ResolvedOutput(cfg.DefaultOutput)
	var formatter output.Formatter
	if mode == "json" && c.ResultsOnly {
		formatter = output.NewJSON(true, c.stdout, c.stderr)
	} else {
		formatter = output.NewWriter(mode, c.stdout, c.stderr)
	}

	c.provider = NewServiceProvider(cfg, &c.Globals, logger)

	ctx.Bind(cfg)
	ctx.Bind(&FormatterProvider{Formatter: formatter, In: c.stdin, Out: c.stdout, Err: c.stderr})
	ctx.Bind(&c.Globals)
	ctx.Bind(c.provider)

	return nil
}

// KeyCmd holds API key subcommands
type KeyCmd struct {
	Set      KeySetCmd      `cmd:"" help:"Store an API key"`
	Show     KeyShowCmd     `cmd:"" help:"Show the stored API key (masked)"`
	Status   KeyStatusCmd   `cmd:"" help:"Show API key and credential store status"`
	Validate KeyValidateCmd `cmd:"" help:"Check the API key against the task service"`
	Clear    KeyClearCmd    `cmd:"" help:"Remove the stored API key"`
}

// TaskCmd holds task subcommands
type TaskCmd struct {
	Create TaskCreateCmd `cmd:"" help:"Submit a new task"`
	Get    TaskGetCmd    `cmd:"" help:"Get task details"`
	List   TaskListCmd   `cmd:"" help:"List tasks"`
	Poll   TaskPollCmd   `cmd:"" help:"Wait for a task to finish"`
	Result TaskResultCmd `cmd:"" help:"Fetch or open a task result document"`
	Stats  TaskStatsCmd  `cmd:"" help:"Show task statistics"`
}

// ConfigCmd holds configuration subcommands
type ConfigCmd struct {
	Get   ConfigGetCmd        `cmd:"" help:"Get a configuration value"`
	Set   ConfigSetCmd        `cmd:"" help:"Set a configuration value"`
	Unset ConfigUnsetCmd      `cmd:"" help:"Remove a configuration value"`
	List  ConfigListConfigCmd `cmd:"" name:"list" help:"List all configuration values"`
	Path  ConfigPathCmd       `cmd:"" help:"Show config file path"`
}

// VersionCmd shows version information
type VersionCmd struct{}

func (cmd *VersionCmd) Run(ctx *kong.Context, fp *FormatterProvider) error {
	fmt.Fprintf(fp.Out, "tasq version %s\n", ctx.Model.Vars()["version"])
	return nil
}
