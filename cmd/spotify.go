package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/tasks"
)

type currentOutput struct {
	Phase      string             `json:"phase"`
	Message    string             `json:"message"`
	NowPlaying *models.NowPlaying `json:"now_playing"`
	At         time.Time          `json:"at"`
}

func newCurrentOutput(u tasks.Update) currentOutput {
	return currentOutput{Phase: u.Phase.String(), Message: u.Message, NowPlaying: u.NowPlaying, At: u.At}
}

// updateError maps the phases a one-shot command cannot recover from to errors.
func updateError(u tasks.Update) error {
	switch u.Phase {
	case tasks.PhaseLoginRequired:
		return fmt.Errorf("%w: run 'nowplaying login'", shared.ErrNotAuthenticated)
	case tasks.PhaseError:
		return u.Err
	default:
		return nil
	}
}

// Current performs one ensure-then-fetch cycle and prints the result.
func (r *Runner) Current(ctx context.Context, cmd *cli.Command) error {
	poller, err := r.poller(ctx, cmd, 0)
	if err != nil {
		return err
	}

	u, err := poller.Once(ctx)
	if err != nil {
		return err
	}
	if err := updateError(u); err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(newCurrentOutput(u), cmd.Bool("pretty"))
	}
	return r.printUpdate(u)
}

func (r *Runner) printUpdate(u tasks.Update) error {
	if u.Phase != tasks.PhasePlaying {
		return r.writePlain("%s\n", u.Message)
	}

	np := u.NowPlaying
	state := "▶"
	if !np.IsPlaying {
		state = "❚❚"
	}
	r.writePlain("%s %s\n", state, np.AlbumName)
	r.writePlain("  %s\n", np.ArtistName)
	if np.ArtworkURL != "" {
		r.writePlain("  %s\n", np.ArtworkURL)
	}
	return nil
}

// Watch polls until interrupted, printing each update. It returns when a login is required.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	interval := cmd.Duration("interval")
	poller, err := r.poller(ctx, cmd, interval)
	if err != nil {
		return err
	}
	if interval <= 0 {
		interval = r.config.Poll.Interval()
	}

	asJSON := cmd.Bool("json")
	updates := make(chan tasks.Update)

	ctx, cancel := context.WithCancel(ctx)
	handle := poller.Start(ctx, func(u tasks.Update) {
		select {
		case updates <- u:
		case <-ctx.Done():
		}
	})
	defer func() {
		cancel()
		handle.Stop()
	}()

	r.logger.Info("watching playback", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			return nil
		case u := <-updates:
			var werr error
			if asJSON {
				werr = r.writeJSON(newCurrentOutput(u), false)
			} else {
				werr = r.writePlain("[%s] %s\n", u.At.Local().Format("15:04:05"), u.Message)
			}
			if werr != nil {
				return werr
			}
			if u.Phase == tasks.PhaseLoginRequired {
				return updateError(u)
			}
		}
	}
}
