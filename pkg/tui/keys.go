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
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap maps terminal keys to the six input keys of the machine, plus a few
// commands handled by the UI itself.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Ok     key.Binding
	Back   key.Binding
	Cancel key.Binding
	Search key.Binding
	Copy   key.Binding
	Help   key.Binding
	Quit   key.Binding
}

//
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		Ok:     key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "ok")),
		Back:   key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Search: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search library")),
		Copy:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy UID")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

//
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Ok, k.Back, k.Copy, k.Help, k.Quit}
}

//
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Ok, k.Back, k.Search, k.Copy},
		{k.Help, k.Quit},
	}
}
