package cli

import (
	"bufio"
	"context"
	"fmt"

	"github.com/semmy-space/tasq/internal/api"
	"github.com/semmy-space/tasq/internal/output"
	"github.com/semmy-space/tasq/internal/store"
)

// KeySetCmd implements the key set command
type KeySetCmd struct {
	Key      string `arg:"" optional:"" help:"API key (prompted for when omitted)"`
	Validate bool   `help:"Check the key against the task service before saving"`
}

// Run executes the set command
func (cmd *KeySetCmd) Run(ctx context.Context, sp *ServiceProvider, fp *FormatterProvider, globals *Globals) error {
	key := cmd.Key
	if key == "" {
		if globals.NoInput {
			return output.NewCLIError(output.ExitUsage, "API key argument is required with --no-input")
		}
		var err error
		key, err = readSecret(fp, bufio.NewReader(fp.In), "API key: ")
		if err != nil {
			return err
		}
	}
	if key == "" {
		return output.NewCLIError(output.ExitUsage, "API key must not be empty")
	}

	creds, err := sp.Credentials(ctx)
	if err != nil {
		return mapError(err)
	}

	// Resolve the client first so a config error leaves the stored key untouched
	var client *api.Client
	if cmd.Validate {
		if client, err = sp.Client(ctx); err != nil {
			return mapError(err)
		}
	}

	previous, hadPrevious := creds.Get()
	creds.Set(ctx, key)

	if client != nil {
		if !client.ValidateKey(ctx) {
			if hadPrevious {
				creds.Set(ctx, previous)
			} else {
				creds.Clear(ctx)
			}
			return output.NewCLIError(output.ExitAuth, "API key was rejected by the task service")
		}
	}

	if err := creds.Wait(ctx); err != nil {
		return mapError(err)
	}

	fmt.Fprintf(fp.Err, "API key saved\n")
	fmt.Fprintf(fp.Err, "%s\n", storageNote(sp))
	return nil
}

// storageNote describes where the key ended up
func storageNote(sp *ServiceProvider) string {
	switch sp.StoreState() {
	case store.StateAvailable:
		return fmt.Sprintf("Stored in %s credential store", sp.StoreKind())
	case store.StateUnsupported:
		return "Local storage unavailable, the key is kept for this session only"
	default:
		return "Local storage failed to open, the key is kept for this session only"
	}
}

// KeyShowCmd implements the key show command
type KeyShowCmd struct {
	Reveal bool `help:"Print the full key instead of a masked one"`
}

// Run executes the show command
func (cmd *KeyShowCmd) Run(ctx context.Context, sp *ServiceProvider, fp *FormatterProvider) error {
	creds, err := sp.Credentials(ctx)
	if err != nil {
		return mapError(err)
	}

	key, ok := creds.Get()
	if !ok {
		return output.NewCLIError(output.ExitAuth, "No API key set").
			WithHint("Run: tasq key set")
	}
	if !cmd.Reveal {
		key = maskSecret(key)
	}

	fmt.Fprintln(fp.Out, key)
	return nil
}

// KeyStatusCmd implements the key status command
type KeyStatusCmd struct{}

// KeyStatus is the output of key status
type KeyStatus struct {
	Key        string `json:"key"`
	State      string `json:"state"`
	Store      string `json:"store"`
	StoreState string `json:"store_state"`
}

// Run executes the status command
func (cmd *KeyStatusCmd) Run(ctx context.Context, sp *ServiceProvider, fp *FormatterProvider) error {
	creds, err := sp.Credentials(ctx)
	if err != nil {
		return mapError(err)
	}

	key, _ := creds.Get()
	return fp.Formatter.Print(KeyStatus{
		Key:        maskSecret(key),
		State:      creds.State().String(),
		Store:      sp.StoreKind(),
		StoreState: sp.StoreState().String(),
	})
}

// KeyValidateCmd implements the key validate command
type KeyValidateCmd struct{}

// Run executes the validate command
func (cmd *KeyValidateCmd) Run(ctx context.Context, sp *ServiceProvider, fp *FormatterProvider) error {
	client, err := sp.Client(ctx)
	if err != nil {
		return mapError(err)
	}
	creds, err := sp.Credentials(ctx)
	if err != nil {
		return mapError(err)
	}
	if !creds.Has() {
		return output.NewCLIError(output.ExitAuth, "No API key set").
			WithHint("Run: tasq key set")
	}

	if !client.ValidateKey(ctx) {
		return output.NewCLIError(output.ExitAuth, "API key was rejected by the task service").
			WithHint("Run: tasq key set")
	}

	fmt.Fprintf(fp.Err, "API key is valid\n")
	return nil
}

// KeyClearCmd implements the key clear command
type KeyClearCmd struct{}

// Run executes the clear command
func (cmd *KeyClearCmd) Run(ctx context.Context, sp *ServiceProvider, fp *FormatterProvider, globals *Globals) error {
	creds, err := sp.Credentials(ctx)
	if err != nil {
		return mapError(err)
	}
	if !creds.Has() {
		fmt.Fprintf(fp.Err, "No API key set\n")
		return nil
	}

	if err := confirm(fp, globals, "Remove the stored API key?"); err != nil {
		return err
	}

	creds.Clear(ctx)
	fmt.Fprintf(fp.Err, "API key removed\n")
	return nil
}
