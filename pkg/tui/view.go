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
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/xelalexv/advuid/pkg/emulation"
	"github.com/xelalexv/advuid/pkg/machine"
)

// Title is shown at the top of every screen.
const Title = "Advanced UID Tool"

// maxNameLen is the longest file name shown unabridged
const maxNameLen = 30

//
func (m Model) View() string {

	var b strings.Builder

	b.WriteString(titleStyle.Render(" " + Title + " "))
	b.WriteString("  ")
	b.WriteString(hintStyle.Render(m.snap.Profile.Name))
	b.WriteString("\n\n")

	var lines []string
	switch m.overlay {
	case overlayPicker:
		lines = m.pickerLines()
	case overlaySearch:
		lines = m.searchLines()
	default:
		lines = m.screenLines()
	}

	b.WriteString(panelStyle.Render(strings.Join(lines, "\n")))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

// screenLines renders the current machine state.
func (m Model) screenLines() []string {

	switch m.snap.State {
	case machine.Menu:
		return m.menuLines()
	case machine.LoadFile:
		return []string{"Loading NFC file...", "Please wait..."}
	case machine.EditUID:
		return m.editLines()
	case machine.Settings:
		return m.settingsLines()
	case machine.Running, machine.Auto, machine.Fuzzer:
		return m.runLines()
	}

	return []string{"Unknown screen"}
}

//
func (m Model) menuLines() []string {
	lines := []string{headerStyle.Render("Select option:")}
	lines = append(lines, listLines(machine.MenuItems(),
		m.snap.MenuIndex, m.snap.MenuScroll)...)
	return append(lines, "", hintStyle.Render("OK: Select  Back: Exit"))
}

//
func (m Model) editLines() []string {

	var title string
	if m.snap.FileLoaded() {
		title = fmt.Sprintf("Edit UID (From: %s)", shortName(m.snap.Loaded))
	} else {
		title = fmt.Sprintf("Edit UID (%s)", m.snap.Profile.Name)
	}

	return []string{
		headerStyle.Render(title),
		fmt.Sprintf("Length: %d bytes", m.snap.Profile.ByteLen),
		"UID: " + m.snap.Edit,
		strings.Repeat(" ", len("UID: ")+m.snap.Cursor) + "^",
		hintStyle.Render("Up/Dn: Edit  OK: Next"),
	}
}

//
func (m Model) settingsLines() []string {

	items := make([]string, machine.SettingCount())
	for ix := range items {
		s := machine.Setting(ix)
		items[ix] = fmt.Sprintf("%s: %d", s, m.settingValue(s))
	}

	lines := []string{headerStyle.Render("Settings:")}
	lines = append(lines, listLines(items,
		m.snap.SettingsIndex, m.snap.SettingsScroll)...)
	return append(lines, "", hintStyle.Render("Left/Right: Change  OK: Run"))
}

//
func (m Model) settingValue(s machine.Setting) int {

	u := m.snap.UID
	if u == nil {
		return 0
	}

	switch s {
	case machine.SettingStep:
		return u.Step()
	case machine.SettingOffset:
		return u.Offset()
	case machine.SettingLength:
		return u.Length()
	case machine.SettingAutoDelay:
		return u.AutoDelay()
	case machine.SettingFuzzDelay:
		return u.FuzzDelay()
	}
	return 0
}

// runLines renders the manual, auto, and fuzzer screens.
func (m Model) runLines() []string {

	u := m.snap.UID
	if u == nil {
		return []string{errorStyle.Render("No UID bound")}
	}

	var origin string
	if m.snap.FileLoaded() {
		origin = fmt.Sprintf("File: %s", shortName(m.snap.Loaded))
	} else {
		origin = fmt.Sprintf("Tech: %s", m.snap.Profile.Name)
	}

	var counter, running, ready, hint string

	switch m.snap.State {

	case machine.Running:
		counter = fmt.Sprintf("Count: %d (Step:%d)", u.Current(), u.Step())
		running, ready = "EMULATING (Manual)", "Ready (Manual Mode)"
		hint = "Left: Auto  Right: Fuzz"

	case machine.Auto:
		counter = fmt.Sprintf("Count: %d (%dms)", u.Current(), u.AutoDelay())
		running, ready = "AUTO EMULATING...", "Ready (Auto Mode)"
		hint = "Left: Man  Right: Fuzz"

	case machine.Fuzzer:
		mode := "Predefined"
		if m.snap.Fuzz.Random {
			mode = "Random"
		}
		counter = fmt.Sprintf("Mode: %s (%dms)", mode, u.FuzzDelay())
		running, ready = "FUZZER EMULATING...", "Ready (Fuzzer Mode)"
		hint = "Left: Auto  Right: Man"
	}

	lines := []string{headerStyle.Render(origin), "UID: " + u.UID(), counter}

	if m.snap.Active && m.snap.Mode == runMode(m.snap.State) {
		lines = append(lines, activeStyle.Render(running))
		if m.snap.Emulating == "" {
			lines = append(lines, errorStyle.Render("Listener: none"))
		}
		lines = append(lines, hintStyle.Render("OK: Stop  "+hint))
	} else {
		lines = append(lines, ready, hintStyle.Render("OK: Start  "+hint))
	}

	return lines
}

// runMode is the session mode started from run screen s.
func runMode(s machine.State) emulation.Mode {
	switch s {
	case machine.Running:
		return emulation.Manual
	case machine.Auto:
		return emulation.Auto
	case machine.Fuzzer:
		return emulation.Fuzzer
	}
	return emulation.Idle
}

//
func (m Model) pickerLines() []string {
	return []string{
		headerStyle.Render(machine.LoadItem),
		m.filepicker.View(),
		hintStyle.Render("enter: Load  esc: Cancel"),
	}
}

//
func (m Model) searchLines() []string {

	lines := []string{headerStyle.Render("Dump Library"), m.input.View(), ""}

	for ix, h := range m.hits {
		l := fmt.Sprintf("%-28s %-16s %s", shortName(h.Path), h.UID, h.DeviceType)
		if ix == m.hitIndex {
			lines = append(lines, selectedStyle.Render("> "+l))
		} else {
			lines = append(lines, bodyStyle.Render("  "+l))
		}
	}

	hint := "enter: Search  esc: Cancel"
	if len(m.hits) > 0 && strings.TrimSpace(m.input.Value()) == m.searched {
		hint = "Up/Dn: Select  enter: Load  esc: Cancel"
	}

	return append(lines, "", hintStyle.Render(hint))
}

//
func (m Model) statusLine() string {

	var b strings.Builder

	if m.signalled {
		b.WriteString(signalStyle(m.signal).Render("●"))
		b.WriteString(" ")
	}

	if m.snap.Active {
		b.WriteString(activeStyle.Render(fmt.Sprintf("[%s]", m.snap.Mode)))
		b.WriteString(" ")
	}

	if m.failed {
		b.WriteString(errorStyle.Render(m.status))
	} else {
		b.WriteString(bodyStyle.Render(m.status))
	}

	return lipgloss.NewStyle().MarginTop(1).Render(b.String())
}

// listLines renders the visible window of a scrolling list, with arrows
// indicating more items above or below.
func listLines(items []string, index, scroll int) []string {

	var lines []string

	end := scroll + machine.VisibleRows
	if end > len(items) {
		end = len(items)
	}

	for ix := scroll; ix < end; ix++ {
		marker := " "
		switch {
		case ix == scroll && scroll > 0:
			marker = "^"
		case ix == end-1 && end < len(items):
			marker = "v"
		}
		if ix == index {
			lines = append(lines, selectedStyle.Render("> "+items[ix])+" "+marker)
		} else {
			lines = append(lines, bodyStyle.Render("  "+items[ix])+" "+marker)
		}
	}

	return lines
}

// shortName abridges long file names to what fits on a line.
func shortName(name string) string {
	if len(name) > maxNameLen {
		return name[:27] + "..."
	}
	return name
}
