/*
   AdvUID - NFC tag UID emulation controller
   Copyright (c) 2023, Alexander Vollschwitz

   This file is part of AdvUID.

   AdvUID is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   AdvUID is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with AdvUID. If not, see <http://www.gnu.org/licenses/>.
*/

package tui

import (
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/xelalexv/advuid/pkg/machine"
	"github.com/xelalexv/advuid/pkg/notify"
	"github.com/xelalexv/advuid/pkg/repo"
)

//
const (
	RefreshInterval = 100 * time.Millisecond
	SearchLimit     = 8
	PickerHeight    = 12

	inputTimeout = 2 * time.Second
	loadTimeout  = 45 * time.Second
)

// DumpTypes are the file types offered by the file picker.
var DumpTypes = []string{".nfc", ".gz", ".zip", ".7z"}

// writeClipboard is replaced in tests
var writeClipboard = clipboard.WriteAll

type overlay int

const (
	overlayNone overlay = iota
	overlayPicker
	overlaySearch
)

// Model is the bubbletea model of the terminal UI. It renders snapshots of
// the machine, and translates terminal keys into machine input.
type Model struct {
	ctl     Controller
	library Library
	signals <-chan notify.Signal

	snap      machine.Snapshot
	signal    notify.Signal
	signalled bool
	status    string
	failed    bool
	width     int
	height    int

	overlay    overlay
	filepicker filepicker.Model
	input      textinput.Model
	searched   string
	hits       []repo.Hit
	hitIndex   int

	keys KeyMap
	help help.Model
}

type tickMsg time.Time

type inputDoneMsg struct {
	key machine.Key
	err error
}

type loadDoneMsg struct {
	name string
	err  error
}

// NewModel creates the UI model for ctl.
func NewModel(ctl Controller, cfg Config) Model {

	fp := filepicker.New()
	fp.AllowedTypes = DumpTypes
	fp.DirAllowed = true
	fp.FileAllowed = true
	fp.ShowHidden = false
	fp.ShowSize = true
	fp.ShowPermissions = false
	fp.Height = PickerHeight
	fp.CurrentDirectory = "."
	if cfg.Dir != "" {
		fp.CurrentDirectory = cfg.Dir
	} else if cfg.Library != nil && cfg.Library.Repository() != "" {
		fp.CurrentDirectory = cfg.Library.Repository()
	}

	in := textinput.New()
	in.Placeholder = "tech, UID, or file name"
	in.CharLimit = 64
	in.Prompt = "Search: "

	h := help.New()
	h.ShowAll = false

	return Model{
		ctl:        ctl,
		library:    cfg.Library,
		signals:    cfg.Signals,
		snap:       ctl.Snapshot(),
		filepicker: fp,
		input:      in,
		keys:       DefaultKeyMap(),
		help:       h,
	}
}

//
func (m Model) Init() tea.Cmd {
	return tick()
}

//
func tick() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refresh takes a new snapshot, and picks up the most recent feedback signal.
func (m *Model) refresh() {

	m.snap = m.ctl.Snapshot()

	for m.signals != nil {
		select {
		case s, ok := <-m.signals:
			if !ok {
				m.signals = nil
				return
			}
			m.signal = s
			m.signalled = true
		default:
			return
		}
	}
}

// finished reports whether the loop behind the UI has ended.
func (m *Model) finished() bool {
	if m.snap.Exited {
		return true
	}
	select {
	case <-m.ctl.Done():
		return true
	default:
		return false
	}
}

//
func (m *Model) setStatus(s string) {
	m.status = s
	m.failed = false
}

//
func (m *Model) setError(err error) {
	m.status = err.Error()
	m.failed = true
}

// onLoadItem reports whether the load item of the menu is selected.
func (m *Model) onLoadItem() bool {
	return m.snap.State == machine.Menu &&
		m.snap.MenuIndex == machine.MenuCount()-1
}

// displayedUID is the UID currently on screen.
func (m *Model) displayedUID() string {
	if m.snap.State == machine.EditUID {
		return m.snap.Edit
	}
	if m.snap.UID != nil {
		return m.snap.UID.UID()
	}
	return ""
}
