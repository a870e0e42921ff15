package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/nowplaying/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
	err  error
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPollUpdate MsgKind = iota
	MsgPollClosed
	MsgLoginDone
	MsgLogoutDone
	MsgRefreshDone
)

// pollUpdateMsg is the constructor for [MsgPollUpdate]
func pollUpdateMsg(u tasks.Update) Msg {
	return Msg{kind: MsgPollUpdate, data: u}
}

func pollClosedMsg() Msg {
	return Msg{kind: MsgPollClosed}
}

func loginDoneMsg(err error) Msg {
	return Msg{kind: MsgLoginDone, err: err}
}

func logoutDoneMsg(err error) Msg {
	return Msg{kind: MsgLogoutDone, err: err}
}

func refreshDoneMsg(err error) Msg {
	return Msg{kind: MsgRefreshDone, err: err}
}
