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
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/advuid/pkg/dump"
	"github.com/xelalexv/advuid/pkg/machine"
	"github.com/xelalexv/advuid/pkg/repo"
)

//
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if msg.Width > 24 {
			m.input.Width = msg.Width - 24
		}
		return m, nil

	case tickMsg:
		m.refresh()
		if m.finished() {
			return m, tea.Quit
		}
		return m, tick()

	case inputDoneMsg:
		if msg.err != nil {
			log.Errorf("sending key %s failed: %v", msg.key, msg.err)
			m.setError(fmt.Errorf("key %s: %v", msg.key, msg.err))
		}
		m.refresh()
		return m, nil

	case loadDoneMsg:
		if msg.err != nil {
			m.setError(fmt.Errorf("loading %s failed: %v", msg.name, msg.err))
		} else {
			m.setStatus(fmt.Sprintf("Loaded %s", msg.name))
		}
		m.refresh()
		return m, nil
	}

	switch m.overlay {
	case overlayPicker:
		return m.updatePicker(msg)
	case overlaySearch:
		return m.updateSearch(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(msg)
	}

	return m, nil
}

//
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {

	switch {

	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		m.copyUID()
		return m, nil

	case key.Matches(msg, m.keys.Search):
		if m.snap.State != machine.Menu {
			return m, nil
		}
		if m.library == nil {
			m.setError(fmt.Errorf("no dump library configured"))
			return m, nil
		}
		return m.openSearch()

	case key.Matches(msg, m.keys.Ok) && m.onLoadItem():
		return m.openPicker()
	}

	if k, ok := m.machineKey(msg); ok {
		return m, m.send(k)
	}

	return m, nil
}

// machineKey translates a terminal key into machine input.
func (m *Model) machineKey(msg tea.KeyMsg) (machine.Key, bool) {

	bindings := []struct {
		b key.Binding
		k machine.Key
	}{
		{m.keys.Up, machine.Up},
		{m.keys.Down, machine.Down},
		{m.keys.Left, machine.Left},
		{m.keys.Right, machine.Right},
		{m.keys.Ok, machine.Ok},
		{m.keys.Back, machine.Back},
	}

	for _, b := range bindings {
		if key.Matches(msg, b.b) {
			return b.k, true
		}
	}

	return machine.Up, false
}

// send queues k with the loop.
func (m Model) send(k machine.Key) tea.Cmd {
	ctl := m.ctl
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), inputTimeout)
		defer cancel()
		return inputDoneMsg{key: k, err: ctl.Input(ctx, k)}
	}
}

// load hands src to the loop, and waits for the import to finish.
func (m Model) load(src dump.Source) tea.Cmd {
	ctl := m.ctl
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		return loadDoneMsg{name: src.Name(), err: ctl.Load(ctx, src)}
	}
}

//
func (m *Model) copyUID() {

	u := m.displayedUID()
	if u == "" {
		return
	}

	if err := writeClipboard(u); err != nil {
		m.setError(fmt.Errorf("cannot copy to clipboard: %v", err))
		return
	}

	m.setStatus(fmt.Sprintf("Copied %s", u))
}

//
func (m Model) openPicker() (tea.Model, tea.Cmd) {
	m.overlay = overlayPicker
	m.setStatus("Select dump file")
	return m, m.filepicker.Init()
}

//
func (m Model) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {

	if km, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(km, m.keys.Cancel) || key.Matches(km, m.keys.Quit) {
			m.overlay = overlayNone
			m.setStatus("Load canceled")
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.filepicker, cmd = m.filepicker.Update(msg)

	if ok, path := m.filepicker.DidSelectFile(msg); ok {
		m.overlay = overlayNone
		src, err := repo.NewFileSource(path)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Loading %s", src.Name()))
		return m, m.load(src)
	}

	if ok, path := m.filepicker.DidSelectDisabledFile(msg); ok {
		m.overlay = overlayNone
		m.setError(fmt.Errorf("not a dump file: %s (allowed: %s)",
			filepath.Base(path), strings.Join(DumpTypes, " ")))
		return m, nil
	}

	return m, cmd
}

//
func (m Model) openSearch() (tea.Model, tea.Cmd) {
	m.overlay = overlaySearch
	m.input.SetValue("")
	m.searched = ""
	m.hits = nil
	m.hitIndex = 0
	m.setStatus("Search dump library")
	return m, m.input.Focus()
}

//
func (m Model) closeSearch(status string) Model {
	m.overlay = overlayNone
	m.input.Blur()
	m.setStatus(status)
	return m
}

// updateSearch runs a search on the first enter, and loads the selected hit
// on the second. Editing the term starts over.
func (m Model) updateSearch(msg tea.Msg) (tea.Model, tea.Cmd) {

	if km, ok := msg.(tea.KeyMsg); ok {

		switch km.Type {

		case tea.KeyEsc:
			return m.closeSearch("Search canceled"), nil

		case tea.KeyUp:
			if len(m.hits) > 0 {
				m.hitIndex = (m.hitIndex - 1 + len(m.hits)) % len(m.hits)
			}
			return m, nil

		case tea.KeyDown:
			if len(m.hits) > 0 {
				m.hitIndex = (m.hitIndex + 1) % len(m.hits)
			}
			return m, nil

		case tea.KeyEnter:
			term := strings.TrimSpace(m.input.Value())
			if term != m.searched || len(m.hits) == 0 {
				m.search(term)
				return m, nil
			}
			hit := m.hits[m.hitIndex]
			src, err := repo.Resolve(hit.Ref, m.library.Repository())
			if err != nil {
				m.setError(err)
				return m, nil
			}
			m = m.closeSearch(fmt.Sprintf("Loading %s", hit.Path))
			return m, m.load(src)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

//
func (m *Model) search(term string) {

	m.searched = term
	m.hits = nil
	m.hitIndex = 0

	if term == "" {
		return
	}

	res, err := m.library.Search(term, SearchLimit)
	if err != nil {
		m.setError(fmt.Errorf("search failed: %v", err))
		return
	}

	m.hits = res.Hits
	switch {
	case len(m.hits) == 0:
		m.setStatus("No matches")
	case !res.Complete:
		m.setStatus(fmt.Sprintf("%d of %d matches", len(m.hits), res.Total))
	default:
		m.setStatus(fmt.Sprintf("%d matches", len(m.hits)))
	}
}
