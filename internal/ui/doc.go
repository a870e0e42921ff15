// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [NowPlayingView] : The current album and artist, refreshed by a [tasks.Poller]
//  2. [HistoryView] : Albums seen during this session, filterable with charmbracelet/bubbles/list
//
// The [Model] implements bubbletea's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Poll updates flow through a channel from the poller goroutine; login and logout run as commands so the
// view keeps rendering while the browser flow is open.
//
// Keys: r refreshes now, l logs in, o logs out, h shows history, q quits.
package ui
