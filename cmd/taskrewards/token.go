package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/nhle/task-rewards/internal/credential"
)

// runToken stores or removes the remote write credential in the OS
// keyring. The environment variable still takes precedence at runtime.
func runToken(verb string, out io.Writer) error {
	switch verb {
	case "clear":
		if err := credential.Delete(credential.RemoteTokenKey); err != nil {
			return fmt.Errorf("removing token: %w", err)
		}
		fmt.Fprintln(out, "Remote token removed.")
		return nil

	case "set":
		var token string
		err := huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title("Remote write token").
				Description("Stored in the system keyring, never in the config file").
				EchoMode(huh.EchoModePassword).
				Value(&token).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("token is required")
					}
					return nil
				}),
		)).Run()
		if err != nil {
			return err
		}
		if err := credential.Set(credential.RemoteTokenKey, strings.TrimSpace(token)); err != nil {
			return fmt.Errorf("saving token: %w", err)
		}
		fmt.Fprintln(out, "Remote token saved.")
		return nil
	}
	return fmt.Errorf("unknown token command %q", verb)
}
