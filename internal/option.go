package internal

import (
	"log/slog"

	"github.com/starford/notepad/internal/notepad"
	"github.com/starford/notepad/internal/noteservice"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	logger  *slog.Logger
	opener  notepad.Opener
	prompt  noteservice.Prompter
	report  noteservice.Reporter
	version string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger overrides the default JSON logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *application) {
		a.logger = l
	}
}

// WithOpener sets how notes are displayed on open.
func WithOpener(o notepad.Opener) Option {
	return func(a *application) {
		a.opener = o
	}
}

// WithPrompter sets the interactive input used by note commands.
func WithPrompter(p noteservice.Prompter) Option {
	return func(a *application) {
		a.prompt = p
	}
}

// WithReporter sets where user-facing command messages go.
func WithReporter(r noteservice.Reporter) Option {
	return func(a *application) {
		a.report = r
	}
}

// WithVersion sets the version reported to MCP clients.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}
