package tasks

import (
	"fmt"
	"time"

	"github.com/desertthunder/nowplaying/internal/models"
)

// Update is one poll result delivered to the consumer.
type Update struct {
	Phase      Phase
	Tick       int                // Sequence number of the tick that produced this update, starting at 1
	Message    string             // Human-readable message for display
	NowPlaying *models.NowPlaying // Set only for [PhasePlaying]
	Err        error              // Set only for [PhaseError]
	At         time.Time
}

// Phase classifies an [Update].
type Phase int

const (
	PhasePlaying       Phase = iota // A track (or other item) is loaded
	PhaseIdle                       // Nothing is playing
	PhaseLoginRequired              // No usable credential; polling is paused
	PhaseError                      // The refresh or fetch failed; the next tick retries
)

func (p Phase) String() string {
	switch p {
	case PhasePlaying:
		return "playing"
	case PhaseIdle:
		return "idle"
	case PhaseLoginRequired:
		return "login_required"
	case PhaseError:
		return "error"
	default:
		return ""
	}
}

func playingUpdate(tick int, at time.Time, np *models.NowPlaying) Update {
	verb := "Paused"
	if np.IsPlaying {
		verb = "Playing"
	}
	return Update{
		Phase:      PhasePlaying,
		Tick:       tick,
		Message:    fmt.Sprintf("%s: %s - %s", verb, np.ArtistName, np.AlbumName),
		NowPlaying: np,
		At:         at,
	}
}

func idleUpdate(tick int, at time.Time) Update {
	return Update{Phase: PhaseIdle, Tick: tick, Message: "Nothing playing", At: at}
}

func loginRequiredUpdate(tick int, at time.Time) Update {
	return Update{Phase: PhaseLoginRequired, Tick: tick, Message: "Not logged in. Log in to start polling.", At: at}
}

func errorUpdate(tick int, at time.Time, err error) Update {
	return Update{Phase: PhaseError, Tick: tick, Message: fmt.Sprintf("Update failed: %v", err), Err: err, At: at}
}
