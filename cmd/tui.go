package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/nowplaying/internal/auth"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/ui"
)

// TUI launches the interactive now-playing view.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	logPath, err := shared.ExpandPath(config.Log.File)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, f, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer f.Close()
	shared.SetLogLevel(fileLogger, shared.ParseLevel(config.Log.Level))
	r.SetLogger(fileLogger)

	if r.prompter == nil {
		p := auth.NewLoopbackPrompter(config, shared.WithLogger(fileLogger, "component", "prompter"))
		p.Out = f
		r.prompter = p
	}

	poller, err := r.poller(ctx, cmd, 0)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, r.manager, poller)
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
