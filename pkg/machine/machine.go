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
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/advuid/pkg/dump"
	"github.com/xelalexv/advuid/pkg/emulation"
	"github.com/xelalexv/advuid/pkg/fuzz"
	"github.com/xelalexv/advuid/pkg/notify"
	"github.com/xelalexv/advuid/pkg/profile"
	"github.com/xelalexv/advuid/pkg/uid"
)

// ErrNoPicker is returned when the load item is selected but no picker is
// configured.
var ErrNoPicker = errors.New("no dump picker configured")

// Picker selects the dump to load when the operator chooses the load item.
type Picker interface {
	Pick() (dump.Source, error)
}

// PickerFunc adapts a function to a Picker.
type PickerFunc func() (dump.Source, error)

//
func (f PickerFunc) Pick() (dump.Source, error) {
	return f()
}

// Snapshot is a copy of everything a renderer needs to draw the current
// screen.
type Snapshot struct {
	State   State
	Profile profile.Profile
	UID     *uid.State
	Mode    emulation.Mode
	Active  bool
	// Emulating is the UID of the live listener, empty if there is none
	Emulating string

	MenuIndex      int
	MenuScroll     int
	SettingsIndex  int
	SettingsScroll int

	Edit   string
	Cursor int

	Fuzz   fuzz.Cursor
	Loaded string
	Exited bool
}

// FileLoaded reports whether the current identity came from a dump.
func (s *Snapshot) FileLoaded() bool {
	return s.Loaded != ""
}

// NewMachine creates a state machine driving the given coordinator. It starts
// on the menu, with the first technology selected and bound.
func NewMachine(c *emulation.Coordinator, sink notify.Sink, p Picker) *Machine {

	if sink == nil {
		sink = notify.Discard
	}

	m := &Machine{
		coord:    c,
		notifier: sink,
		picker:   p,
		rng:      fuzz.NewSource(),
		state:    Menu,
	}

	m.selectTech(profile.MifareClassic)
	return m
}

// Machine is the application state. It is owned by the control loop, and
// none of its methods are safe for concurrent use.
type Machine struct {
	coord    *emulation.Coordinator
	notifier notify.Sink
	picker   Picker
	rng      fuzz.Source
	//
	state   State
	prof    profile.Profile
	loaded  *dump.Result
	fuzzer  fuzz.Cursor
	edit    *uid.Buffer
	cursor  int
	exited  bool
	//
	menuIndex      int
	menuScroll     int
	settingsIndex  int
	settingsScroll int
}

// Handle processes one input key.
func (m *Machine) Handle(k Key) {

	log.WithFields(log.Fields{"state": m.state, "key": k}).Debug("input")

	switch m.state {
	case Menu:
		m.handleMenu(k)
	case LoadFile:
		// transient, input is dropped
	case EditUID:
		m.handleEdit(k)
	case Settings:
		m.handleSettings(k)
	case Running:
		m.handleRunning(k)
	case Auto:
		m.handleAuto(k)
	case Fuzzer:
		m.handleFuzzer(k)
	}
}

// Tick processes a timer firing for the given mode. Ticks for a mode other
// than the active session's are stale and dropped.
func (m *Machine) Tick(mode emulation.Mode) {

	if !m.coord.IsActive() || m.coord.Mode() != mode {
		log.WithField("mode", mode).Debug("dropping stale tick")
		return
	}

	switch mode {
	case emulation.Auto:
		m.increment()
	case emulation.Fuzzer:
		m.fuzzNext()
	}
}

// Load imports the dump provided by src and makes it the current identity.
// It is refused while a session is active.
func (m *Machine) Load(src dump.Source) error {

	if m.coord.IsActive() {
		return emulation.ErrSessionActive
	}

	m.state = LoadFile

	if err := m.load(src); err != nil {
		log.WithField("dump", src.Name()).Errorf("cannot load dump: %v", err)
		m.notifier.Notify(notify.Error)
		m.state = Menu
		return err
	}

	m.notifier.Notify(notify.Success)
	m.state = EditUID
	m.cursor = 0
	return nil
}

//
func (m *Machine) load(src dump.Source) error {

	res, err := dump.Import(src)
	if err != nil {
		return err
	}

	s, err := res.NewState()
	if err != nil {
		return err
	}

	if err := m.bind(res.Profile(), s); err != nil {
		return err
	}

	m.loaded = res
	return nil
}

//
func (m *Machine) pick() {

	if m.picker == nil {
		log.Warn(ErrNoPicker)
		m.notifier.Notify(notify.Error)
		return
	}

	m.state = LoadFile

	src, err := m.picker.Pick()
	if err != nil {
		log.Errorf("cannot pick dump: %v", err)
		m.notifier.Notify(notify.Error)
		m.state = Menu
		return
	}

	m.Load(src)
}

// selectTech makes a fresh identity from the given profile the current one.
func (m *Machine) selectTech(t profile.Tech) {
	p := profile.For(t)
	if err := m.bind(p, p.NewState()); err != nil {
		log.Errorf("cannot select technology %s: %v", t, err)
		return
	}
	m.loaded = nil
}

//
func (m *Machine) bind(p profile.Profile, s *uid.State) error {

	if err := m.coord.Bind(p, s); err != nil {
		return err
	}

	m.prof = p
	m.fuzzer.Reset()
	m.syncEdit()

	log.WithFields(log.Fields{"tech": p.Tech, "uid": s.UID()}).Info("identity selected")
	return nil
}

// syncEdit copies the committed UID into the edit buffer.
func (m *Machine) syncEdit() {
	m.coord.View(func(s *uid.State) {
		if b, err := uid.NewBuffer(s.UID(), s.ByteLen()); err == nil {
			m.edit = b
		}
	})
	if m.cursor >= m.edit.Len() {
		m.cursor = m.edit.Len() - 1
	}
}

// increment advances the UID by one step and pulses.
func (m *Machine) increment() {
	m.mutate("increment", func(s *uid.State) bool {
		return s.Increment() == nil
	})
}

// fuzzNext replaces the UID with the next fuzzing candidate and pulses.
func (m *Machine) fuzzNext() {
	m.mutate("fuzz", func(s *uid.State) bool {
		next := m.fuzzer.Next(m.rng, s.ByteLen(), m.prof.Prefix)
		return s.SetUID(next) == nil
	})
}

// mutate applies fn through the coordinator, and pulses if fn changed the UID.
func (m *Machine) mutate(op string, fn func(s *uid.State) bool) {

	modified, err := m.coord.Apply(context.Background(), fn)
	if err != nil {
		log.WithField("op", op).Errorf("UID mutation failed: %v", err)
		return
	}

	if !modified {
		log.WithField("op", op).Debug("UID not modified")
		return
	}

	m.notifier.Notify(notify.Pulse)
}

// start starts a session in the given mode.
func (m *Machine) start(mode emulation.Mode) {
	if err := m.coord.Start(mode); err != nil {
		log.WithField("mode", mode).Errorf("cannot start emulation: %v", err)
	}
}

//
func (m *Machine) stop() {
	if err := m.coord.Stop(); err != nil {
		log.Errorf("cannot stop emulation: %v", err)
	}
}

// toggle stops an active session, or starts one in the given mode.
func (m *Machine) toggle(mode emulation.Mode) {
	if m.coord.IsActive() {
		m.stop()
	} else {
		m.start(mode)
	}
}

// Shutdown stops any active session.
func (m *Machine) Shutdown() {
	m.stop()
}

// Exited reports whether the operator left the application.
func (m *Machine) Exited() bool {
	return m.exited
}

//
func (m *Machine) State() State {
	return m.state
}

// Snapshot returns a copy of the current application state.
func (m *Machine) Snapshot() Snapshot {

	ret := Snapshot{
		State:          m.state,
		Profile:        m.prof,
		Mode:           m.coord.Mode(),
		Active:         m.coord.IsActive(),
		MenuIndex:      m.menuIndex,
		MenuScroll:     m.menuScroll,
		SettingsIndex:  m.settingsIndex,
		SettingsScroll: m.settingsScroll,
		Edit:           m.edit.String(),
		Cursor:         m.cursor,
		Fuzz:           m.fuzzer,
		Exited:         m.exited,
	}

	m.coord.View(func(s *uid.State) {
		ret.UID = s.Clone()
	})

	if p, err := m.coord.Emulating(); err == nil {
		ret.Emulating = strings.ToUpper(hex.EncodeToString(p.UID))
	}

	if m.loaded != nil {
		ret.Loaded = m.loaded.Name
	}

	return ret
}

//
func (m *Machine) String() string {
	return fmt.Sprintf("%s, %s", m.state, m.prof.Name)
}
