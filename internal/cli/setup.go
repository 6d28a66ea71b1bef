package cli

import (
	"bufio"
	"context"
	"fmt"

	"github.com/semmy-space/tasq/internal/config"
	"github.com/semmy-space/tasq/internal/output"
)

// SetupCmd implements the interactive setup wizard
type SetupCmd struct{}

// Run executes the setup wizard
func (cmd *SetupCmd) Run(ctx context.Context, cfg *config.Config, sp *ServiceProvider, fp *FormatterProvider, globals *Globals) error {
	if globals.NoInput {
		return output.NewCLIError(output.ExitUsage, "Setup is interactive and cannot run with --no-input").
			WithHint("Use: tasq config set base_url URL && tasq key set KEY")
	}

	reader := bufio.NewReader(fp.In)

	fmt.Fprintf(fp.Err, "\n")
	fmt.Fprintf(fp.Err, "  tasq setup\n")
	fmt.Fprintf(fp.Err, "  ==========\n\n")

	// Step 1: service endpoint
	fmt.Fprintf(fp.Err, "  Step 1: Task service endpoint\n\n")
	baseURL := prompt(fp, reader, fmt.Sprintf("  Base URL [%s]: ", cfg.BaseURL))
	if baseURL == "" {
		baseURL = cfg.BaseURL
	}
	if baseURL == "" {
		return output.NewCLIError(output.ExitUsage, "Base URL is required")
	}
	if err := cfg.Set("base_url", baseURL); err != nil {
		return output.NewCLIError(output.ExitUsage, err.Error())
	}

	// Step 2: credential store
	fmt.Fprintf(fp.Err, "\n  Step 2: Where should the API key be kept?\n\n")
	fmt.Fprintf(fp.Err, "    sqlite   local database (default)\n")
	fmt.Fprintf(fp.Err, "    keyring  OS keychain\n")
	fmt.Fprintf(fp.Err, "    file     encrypted file\n")
	fmt.Fprintf(fp.Err, "    none     do not persist\n\n")

	current := sp.StoreKind()
	kind := prompt(fp, reader, fmt.Sprintf("  Store [%s]: ", current))
	if kind != "" && kind != current {
		if err := cfg.Set("store", kind); err != nil {
			return output.NewCLIError(output.ExitUsage, err.Error())
		}
		globals.Store = kind
	}

	// Step 3: API key
	fmt.Fprintf(fp.Err, "\n  Step 3: API key\n\n")
	key, err := readSecret(fp, reader, "  API key: ")
	if err != nil {
		return err
	}
	if key == "" {
		return output.NewCLIError(output.ExitUsage, "API key is required")
	}

	creds, err := sp.Credentials(ctx)
	if err != nil {
		return mapError(err)
	}
	creds.Set(ctx, key)
	if err := creds.Wait(ctx); err != nil {
		return mapError(err)
	}

	client, err := sp.Client(ctx)
	if err != nil {
		return mapError(err)
	}
	valid := client.ValidateKey(ctx)

	fmt.Fprintf(fp.Err, "\n  Setup complete!\n\n")
	fmt.Fprintf(fp.Err, "    Base URL:    %s\n", baseURL)
	fmt.Fprintf(fp.Err, "    Credentials: %s\n", storageNote(sp))
	fmt.Fprintf(fp.Err, "    Key valid:   %s\n", formatBool(valid))
	fmt.Fprintf(fp.Err, "    Config:      %s\n\n", cfg.Path())
	fmt.Fprintf(fp.Err, "  Try it out:\n\n")
	fmt.Fprintf(fp.Err, "    tasq task list\n")
	fmt.Fprintf(fp.Err, "    tasq task create https://example.com/audio.mp3 --target whisper:srt --wait\n\n")

	return nil
}

// formatBool formats a boolean as Yes/No
func formatBool(value bool) string {
	if value {
		return "Yes"
	}
	return "No"
}
