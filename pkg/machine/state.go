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

package machine

import (
	"fmt"
	"strings"

	"github.com/xelalexv/advuid/pkg/profile"
)

// State is the screen the operator is on.
type State int

//
const (
	Menu State = iota
	LoadFile
	EditUID
	Settings
	Running
	Auto
	Fuzzer
)

//
func (s State) String() string {
	switch s {
	case Menu:
		return "menu"
	case LoadFile:
		return "load"
	case EditUID:
		return "edit"
	case Settings:
		return "settings"
	case Running:
		return "running"
	case Auto:
		return "auto"
	case Fuzzer:
		return "fuzzer"
	}
	return "unknown"
}

// Key is an input symbol.
type Key int

//
const (
	Up Key = iota
	Down
	Left
	Right
	Ok
	Back
)

var keyNames = []string{"up", "down", "left", "right", "ok", "back"}

//
func (k Key) String() string {
	if k >= 0 && int(k) < len(keyNames) {
		return keyNames[k]
	}
	return "unknown"
}

// ParseKey returns the key with the given name, case insensitive.
func ParseKey(name string) (Key, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for ix, k := range keyNames {
		if n == k {
			return Key(ix), nil
		}
	}
	return Up, fmt.Errorf("unknown key: '%s'", name)
}

// Setting is an item of the settings screen.
type Setting int

//
const (
	SettingStep Setting = iota
	SettingOffset
	SettingLength
	SettingAutoDelay
	SettingFuzzDelay
	settingCount
)

var settingNames = []string{
	"Increment Step",
	"Offset Position",
	"Increment Length",
	"Auto Delay (ms)",
	"Fuzzer Delay (ms)",
}

//
func (s Setting) String() string {
	if s >= 0 && s < settingCount {
		return settingNames[s]
	}
	return "unknown"
}

// SettingCount is the number of items on the settings screen.
func SettingCount() int {
	return int(settingCount)
}

// VisibleRows is the number of list rows shown at a time on menu and settings
// screens.
const VisibleRows = 4

// LoadItem is the label of the last menu item.
const LoadItem = "Load NFC File"

// MenuItems returns the labels of the menu, one per technology followed by
// the load item.
func MenuItems() []string {
	var ret []string
	for _, p := range profile.All() {
		ret = append(ret, p.Name)
	}
	return append(ret, LoadItem)
}

// MenuCount is the number of menu items.
func MenuCount() int {
	return profile.Count() + 1
}

// loadIndex is the menu index of the load item.
func loadIndex() int {
	return profile.Count()
}

// next moves a list selection down, wrapping around, and scrolls the window
// so that the selection stays visible.
func next(index, scroll, count int) (int, int) {
	index = (index + 1) % count
	if index >= scroll+VisibleRows {
		scroll = index - VisibleRows + 1
	} else if index < scroll {
		scroll = index
	}
	return index, scroll
}

// prev moves a list selection up, wrapping around.
func prev(index, scroll, count int) (int, int) {
	index = (index - 1 + count) % count
	if index < scroll {
		scroll = index
	} else if index >= scroll+VisibleRows {
		scroll = index - VisibleRows + 1
	}
	return index, scroll
}
