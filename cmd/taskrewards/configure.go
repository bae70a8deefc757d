package main

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/nhle/task-rewards/internal/model"
)

// remoteForm holds the editable remote settings as text.
type remoteForm struct {
	DocumentURL   string
	ContentsURL   string
	Branch        string
	CommitMessage string
	Timeout       string
	PollInterval  string
}

func newRemoteForm(cfg model.RemoteConfig) remoteForm {
	return remoteForm{
		DocumentURL:   cfg.DocumentURL,
		ContentsURL:   cfg.ContentsURL,
		Branch:        cfg.Branch,
		CommitMessage: cfg.CommitMessage,
		Timeout:       cfg.Timeout.String(),
		PollInterval:  cfg.PollInterval.String(),
	}
}

// apply copies the form values into cfg. The form must already be valid.
func (f remoteForm) apply(cfg *model.RemoteConfig) error {
	timeout, err := time.ParseDuration(strings.TrimSpace(f.Timeout))
	if err != nil {
		return fmt.Errorf("timeout: %w", err)
	}
	poll, err := time.ParseDuration(strings.TrimSpace(f.PollInterval))
	if err != nil {
		return fmt.Errorf("poll interval: %w", err)
	}
	cfg.DocumentURL = strings.TrimSpace(f.DocumentURL)
	cfg.ContentsURL = strings.TrimSpace(f.ContentsURL)
	cfg.Branch = strings.TrimSpace(f.Branch)
	cfg.CommitMessage = strings.TrimSpace(f.CommitMessage)
	cfg.Timeout = timeout
	cfg.PollInterval = poll
	return nil
}

func (f *remoteForm) build() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Document URL").
				Description("Where the shared document is read from").
				Placeholder("https://raw.example.com/org/repo/main/data.json").
				Value(&f.DocumentURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Contents URL").
				Description("Contents API endpoint for writes. Leave empty for a read-only client").
				Value(&f.ContentsURL).
				Validate(validateOptionalURL),
			huh.NewInput().
				Title("Branch").
				Description("Optional branch sent with writes").
				Value(&f.Branch),
			huh.NewInput().
				Title("Commit message").
				Value(&f.CommitMessage).
				Validate(validateRequired("Commit message")),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Request timeout").
				Placeholder("10s").
				Value(&f.Timeout).
				Validate(validateDuration),
			huh.NewInput().
				Title("Inbox poll interval").
				Placeholder("30s").
				Value(&f.PollInterval).
				Validate(validateDuration),
		),
	)
}

// runConfigure edits the remote settings of the config file at path.
// The write token is managed by "taskrewards token" and never stored here.
func runConfigure(path string, out io.Writer) error {
	cfg, err := model.LoadConfig(path)
	if err != nil {
		return err
	}

	form := newRemoteForm(cfg.Remote)
	if err := form.build().Run(); err != nil {
		return err
	}
	if err := form.apply(&cfg.Remote); err != nil {
		return err
	}
	if err := model.SaveConfig(path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved %s.\n", path)
	return nil
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("URL must include scheme and host (e.g., https://example.com)")
	}
	return nil
}

func validateOptionalURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return validateURL(s)
}

func validateDuration(s string) error {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("use a duration such as 30s or 2m")
	}
	if d <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	return nil
}
