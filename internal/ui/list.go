package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/nowplaying/internal/models"
)

var _ list.Item = historyItem{}

// historyItem wraps a [models.NowPlaying] seen during this session to implement [list.Item].
type historyItem struct {
	np   models.NowPlaying
	seen string
}

func (i historyItem) FilterValue() string { return i.np.ArtistName + " " + i.np.AlbumName }
func (i historyItem) Title() string       { return i.np.AlbumName }
func (i historyItem) Description() string {
	return fmt.Sprintf("%s • %s", i.np.ArtistName, i.seen)
}
