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
	"errors"
	"testing"
	"time"

	"github.com/xelalexv/advuid/pkg/dump"
	"github.com/xelalexv/advuid/pkg/emulation"
	"github.com/xelalexv/advuid/pkg/listener"
	"github.com/xelalexv/advuid/pkg/notify"
	"github.com/xelalexv/advuid/pkg/profile"
	"github.com/xelalexv/advuid/pkg/uid"
)

const ntag215Dump = `Filetype: Flipper NFC device
Version: 4
Device type: NTAG215
UID: 04 AA BB CC DD EE FF
ATQA: 00 44
SAK: 00
`

func newTestMachine(p Picker) (*Machine, *listener.Simulator, *notify.Channel) {
	sim := listener.NewSimulator()
	sink := notify.NewChannel(64)
	coord := emulation.NewCoordinator(sim, sink)
	return NewMachine(coord, sink, p), sim, sink
}

func press(m *Machine, keys ...Key) {
	for _, k := range keys {
		m.Handle(k)
	}
}

func drain(sink *notify.Channel) []notify.Signal {
	var ret []notify.Signal
	for {
		select {
		case s := <-sink.C():
			ret = append(ret, s)
		default:
			return ret
		}
	}
}

func expectState(t *testing.T, m *Machine, s State) {
	t.Helper()
	if m.State() != s {
		t.Fatalf("expected state %s, got %s", s, m.State())
	}
}

func TestMenuScrolling(t *testing.T) {

	m, _, _ := newTestMachine(nil)

	press(m, Down, Down, Down, Down)
	if m.menuIndex != 4 || m.menuScroll != 1 {
		t.Fatalf("unexpected menu position: %d/%d", m.menuIndex, m.menuScroll)
	}

	press(m, Down, Down, Down)
	if m.menuIndex != 7 || m.menuScroll != 4 {
		t.Fatalf("unexpected menu position: %d/%d", m.menuIndex, m.menuScroll)
	}

	press(m, Down)
	if m.menuIndex != 0 || m.menuScroll != 0 {
		t.Fatalf("selection not visible after wrap: %d/%d",
			m.menuIndex, m.menuScroll)
	}

	press(m, Up)
	if m.menuIndex != 7 || m.menuScroll != 4 {
		t.Fatalf("selection not visible after wrap: %d/%d",
			m.menuIndex, m.menuScroll)
	}

	press(m, Up, Up, Up, Up)
	if m.menuIndex != 3 || m.menuScroll != 3 {
		t.Fatalf("unexpected menu position: %d/%d", m.menuIndex, m.menuScroll)
	}
}

func TestMenuSelectsTechnology(t *testing.T) {

	m, _, _ := newTestMachine(nil)

	press(m, Down, Down, Ok)
	expectState(t, m, EditUID)

	s := m.Snapshot()
	if s.Profile.Tech != profile.NTAG213 || s.UID.UID() != "04E10CDA993C80" {
		t.Fatalf("unexpected identity: %s %s", s.Profile.Tech, s.UID.UID())
	}
	if s.Cursor != 0 || s.Edit != "04E10CDA993C80" || s.FileLoaded() {
		t.Fatalf("unexpected edit state: %+v", s)
	}
}

func TestMenuBackExits(t *testing.T) {
	m, _, _ := newTestMachine(nil)
	press(m, Back)
	if !m.Exited() {
		t.Fatalf("back on menu must exit")
	}
}

func TestEditUID(t *testing.T) {

	m, _, _ := newTestMachine(nil)
	press(m, Ok)

	press(m, Left, Up)
	if m.edit.String() != "EEADBEEF" || m.cursor != 0 {
		t.Fatalf("unexpected edit buffer: %s @ %d", m.edit, m.cursor)
	}

	press(m, Down, Down)
	for ix := 0; ix < 10; ix++ {
		press(m, Right)
	}
	if m.cursor != 7 {
		t.Fatalf("cursor moved past the end: %d", m.cursor)
	}

	if s := m.Snapshot(); s.UID.UID() != "DEADBEEF" {
		t.Fatalf("edit must not touch state before commit: %s", s.UID.UID())
	}

	press(m, Ok)
	expectState(t, m, Settings)

	s := m.Snapshot()
	if s.UID.UID() != "CEADBEEF" || s.UID.Current() != 0xBEEF {
		t.Fatalf("unexpected committed state: %s", s.UID)
	}
}

func TestEditBack(t *testing.T) {
	m, _, _ := newTestMachine(nil)
	press(m, Ok, Up, Back)
	expectState(t, m, Menu)
	if s := m.Snapshot(); s.UID.UID() != "DEADBEEF" {
		t.Fatalf("back must discard edits: %s", s.UID.UID())
	}
}

func TestSettings(t *testing.T) {

	m, _, _ := newTestMachine(nil)
	press(m, Ok, Ok)
	expectState(t, m, Settings)

	// step
	press(m, Right, Right, Left, Left, Left)
	if s := m.Snapshot(); s.UID.Step() != 1 {
		t.Fatalf("unexpected step: %d", s.UID.Step())
	}
	press(m, Right)

	// offset, already at the end of the UID
	press(m, Down, Right)
	if s := m.Snapshot(); s.UID.Offset() != 4 {
		t.Fatalf("unexpected offset: %d", s.UID.Offset())
	}
	press(m, Left)

	// length, growing past the end is refused
	press(m, Down, Right)
	if s := m.Snapshot(); s.UID.Length() != 4 {
		t.Fatalf("unexpected length: %d", s.UID.Length())
	}
	press(m, Left)
	if s := m.Snapshot(); s.UID.Length() != 2 || s.UID.Current() != 0xDB {
		t.Fatalf("unexpected window: %s", s.UID)
	}
	press(m, Left)
	if s := m.Snapshot(); s.UID.Length() != 2 {
		t.Fatalf("length below minimum: %d", s.UID.Length())
	}

	// auto delay
	press(m, Down)
	for ix := 0; ix < 20; ix++ {
		press(m, Left)
	}
	if s := m.Snapshot(); s.UID.AutoDelay() != 100 {
		t.Fatalf("unexpected auto delay: %d", s.UID.AutoDelay())
	}

	// fuzzer delay, wraps into the next scroll position
	press(m, Down, Right)
	s := m.Snapshot()
	if s.UID.FuzzDelay() != 600 {
		t.Fatalf("unexpected fuzzer delay: %d", s.UID.FuzzDelay())
	}
	if s.SettingsIndex != 4 || s.SettingsScroll != 1 {
		t.Fatalf("unexpected settings position: %d/%d",
			s.SettingsIndex, s.SettingsScroll)
	}

	press(m, Down)
	if m.settingsIndex != 0 || m.settingsScroll != 0 {
		t.Fatalf("unexpected settings position after wrap: %d/%d",
			m.settingsIndex, m.settingsScroll)
	}

	press(m, Ok)
	expectState(t, m, Running)
	if s := m.Snapshot(); s.Active || s.Mode != emulation.Idle {
		t.Fatalf("no session expected on entering running")
	}
}

func TestRunningManual(t *testing.T) {

	m, sim, sink := newTestMachine(nil)
	press(m, Ok, Ok, Ok)
	expectState(t, m, Running)
	drain(sink)

	press(m, Ok)
	if s := m.Snapshot(); !s.Active || s.Mode != emulation.Manual ||
		s.Emulating != "DEADBEEF" {
		t.Fatalf("manual session not running: %+v", s)
	}

	press(m, Left, Right)
	expectState(t, m, Running)

	press(m, Up)
	if s := m.Snapshot(); s.Emulating != "DEADBEF0" || s.UID.UID() != "DEADBEF0" {
		t.Fatalf("listener not swapped: %s", s.Emulating)
	}
	if sim.Live() != 1 {
		t.Fatalf("unexpected live listeners: %d", sim.Live())
	}

	press(m, Back)
	expectState(t, m, Settings)
	if m.coord.IsActive() || sim.Live() != 0 {
		t.Fatalf("back must stop the session")
	}

	sig := drain(sink)
	want := []notify.Signal{notify.Success, notify.Pulse, notify.Error}
	if len(sig) != len(want) {
		t.Fatalf("unexpected notifications: %v", sig)
	}
	for ix := range want {
		if sig[ix] != want[ix] {
			t.Fatalf("unexpected notifications: %v", sig)
		}
	}
}

func TestIncrementWithoutSession(t *testing.T) {

	m, sim, sink := newTestMachine(nil)
	press(m, Ok, Ok, Ok)
	drain(sink)

	press(m, Up, Up)
	if s := m.Snapshot(); s.UID.UID() != "DEADBEF1" || !s.UID.Changed() {
		t.Fatalf("unexpected state: %s", s.UID)
	}
	if sim.Created() != 0 {
		t.Fatalf("no listener expected without session")
	}
	if sig := drain(sink); len(sig) != 2 || sig[0] != notify.Pulse {
		t.Fatalf("expected pulses, got %v", sig)
	}
}

func TestModeSwitching(t *testing.T) {

	m, _, _ := newTestMachine(nil)
	press(m, Ok, Ok, Ok)

	press(m, Left)
	expectState(t, m, Auto)
	press(m, Right)
	expectState(t, m, Fuzzer)
	press(m, Right)
	expectState(t, m, Running)
	press(m, Right, Left)
	expectState(t, m, Auto)
	press(m, Left)
	expectState(t, m, Running)

	press(m, Left, Ok)
	if m.coord.Mode() != emulation.Auto {
		t.Fatalf("auto session expected, got %s", m.coord.Mode())
	}
	press(m, Left, Right)
	expectState(t, m, Auto)

	press(m, Ok)
	if m.coord.IsActive() {
		t.Fatalf("ok must toggle the session off")
	}
	press(m, Back)
	expectState(t, m, Settings)
}

func TestFuzzer(t *testing.T) {

	m, sim, sink := newTestMachine(nil)
	press(m, Down, Down, Ok, Ok, Ok, Right)
	expectState(t, m, Fuzzer)

	m.fuzzer.Index = 3
	m.fuzzer.Random = true
	press(m, Ok)
	if s := m.Snapshot(); s.Fuzz.Index != 0 || s.Fuzz.Random {
		t.Fatalf("starting must reset the cursor: %+v", s.Fuzz)
	}
	drain(sink)

	press(m, Up)
	s := m.Snapshot()
	if s.UID.UID() != "04DEADBEEFCAFE" || s.Emulating != "04DEADBEEFCAFE" {
		t.Fatalf("unexpected fuzzed UID: %s / %s", s.UID.UID(), s.Emulating)
	}
	if s.UID.Current() != 0xCAFE {
		t.Fatalf("window value not recomputed: %X", s.UID.Current())
	}
	if s.Fuzz.Index != 1 || sim.Live() != 1 {
		t.Fatalf("unexpected cursor or listeners: %+v, %d", s.Fuzz, sim.Live())
	}

	press(m, Down)
	if !m.fuzzer.Random {
		t.Fatalf("down must toggle random mode")
	}
	press(m, Down)
	if m.fuzzer.Random || m.fuzzer.Index != 0 {
		t.Fatalf("leaving random mode must reset the index: %+v", m.fuzzer)
	}

	if sig := drain(sink); len(sig) != 3 {
		t.Fatalf("expected three pulses, got %v", sig)
	}

	press(m, Back)
	expectState(t, m, Settings)
	if sim.Live() != 0 {
		t.Fatalf("listener leaked")
	}
}

func TestSettingsBackResyncsEdit(t *testing.T) {

	m, _, _ := newTestMachine(nil)
	press(m, Ok, Ok, Ok, Up, Up, Back, Back)
	expectState(t, m, EditUID)

	if m.edit.String() != "DEADBEF1" {
		t.Fatalf("edit buffer not re-synced: %s", m.edit)
	}

	press(m, Ok)
	if s := m.Snapshot(); s.UID.UID() != "DEADBEF1" {
		t.Fatalf("commit reverted increments: %s", s.UID.UID())
	}
}

func TestStaleTickDropped(t *testing.T) {

	m, _, _ := newTestMachine(nil)
	press(m, Ok, Ok, Ok, Ok)

	m.Tick(emulation.Auto)
	m.Tick(emulation.Fuzzer)
	if s := m.Snapshot(); s.UID.UID() != "DEADBEEF" {
		t.Fatalf("stale tick changed UID: %s", s.UID.UID())
	}

	m.Tick(emulation.Manual)
	press(m, Back)
	m.Tick(emulation.Auto)
	if s := m.Snapshot(); s.UID.UID() != "DEADBEEF" {
		t.Fatalf("stale tick changed UID: %s", s.UID.UID())
	}
}

func TestLoadFromPicker(t *testing.T) {

	picker := PickerFunc(func() (dump.Source, error) {
		return dump.NewMemorySource("/dumps/amiibo.nfc", []byte(ntag215Dump)), nil
	})

	m, _, sink := newTestMachine(picker)
	press(m, Up, Ok)
	expectState(t, m, EditUID)

	s := m.Snapshot()
	if s.Profile.Tech != profile.NTAG215 || s.UID.UID() != "04AABBCCDDEEFF" {
		t.Fatalf("unexpected identity: %s %s", s.Profile.Tech, s.UID.UID())
	}
	if s.Loaded != "amiibo.nfc" || s.UID.Offset() != 10 || s.Cursor != 0 {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
	if sig := drain(sink); len(sig) != 1 || sig[0] != notify.Success {
		t.Fatalf("expected success notification, got %v", sig)
	}

	// selecting a technology clears the loaded dump
	press(m, Back, Down, Ok)
	if s := m.Snapshot(); s.FileLoaded() || s.Profile.Tech != profile.MifareClassic {
		t.Fatalf("loaded dump not cleared: %+v", s)
	}
}

func TestLoadFailures(t *testing.T) {

	m, _, sink := newTestMachine(nil)
	press(m, Up, Ok)
	expectState(t, m, Menu)
	if sig := drain(sink); len(sig) != 1 || sig[0] != notify.Error {
		t.Fatalf("expected error notification, got %v", sig)
	}

	bad := dump.NewMemorySource("empty.nfc", []byte("Device type: NTAG215\n"))
	if err := m.Load(bad); !errors.Is(err, dump.ErrNoUID) {
		t.Fatalf("expected ErrNoUID, got %v", err)
	}
	expectState(t, m, Menu)
	if s := m.Snapshot(); s.UID.UID() != "DEADBEEF" {
		t.Fatalf("failed load changed identity: %s", s.UID.UID())
	}

	m.picker = PickerFunc(func() (dump.Source, error) {
		return nil, errors.New("cancelled")
	})
	press(m, Ok)
	expectState(t, m, Menu)
}

func TestLoadRefusedWhileActive(t *testing.T) {

	m, _, _ := newTestMachine(nil)
	press(m, Ok, Ok, Ok, Ok)

	src := dump.NewMemorySource("amiibo.nfc", []byte(ntag215Dump))
	if err := m.Load(src); !errors.Is(err, emulation.ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive, got %v", err)
	}
	expectState(t, m, Running)
	m.Shutdown()
}

func TestParseKey(t *testing.T) {
	for ix, n := range []string{"up", "Down", " LEFT ", "right", "ok", "back"} {
		k, err := ParseKey(n)
		if err != nil || k != Key(ix) {
			t.Fatalf("unexpected key for %q: %s, %v", n, k, err)
		}
	}
	if _, err := ParseKey("select"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestLoopAutoMode(t *testing.T) {

	m, sim, _ := newTestMachine(nil)
	l := NewLoop(m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errs := make(chan error, 1)
	go func() { errs <- l.Run(ctx) }()

	// classic, commit, auto delay down to 100ms
	keys := []Key{Ok, Ok, Down, Down, Down}
	for ix := 0; ix < 9; ix++ {
		keys = append(keys, Left)
	}
	keys = append(keys, Ok, Left, Ok)

	for _, k := range keys {
		if err := l.Input(ctx, k); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	waitFor(t, "auto session", func() bool {
		s := l.Snapshot()
		return s.Active && s.Mode == emulation.Auto
	})
	waitFor(t, "auto increments", func() bool {
		s := l.Snapshot()
		return s.UID.Current() >= 0xBEF1
	})

	if s := l.Snapshot(); s.Emulating != "" && s.Emulating != s.UID.UID() {
		t.Fatalf("listener emulates %s, state holds %s", s.Emulating, s.UID.UID())
	}

	l.Input(ctx, Back)
	waitFor(t, "settings", func() bool { return l.Snapshot().State == Settings })

	stopped := l.Snapshot().UID.UID()
	time.Sleep(300 * time.Millisecond)
	if s := l.Snapshot(); s.UID.UID() != stopped {
		t.Fatalf("UID changed after stop: %s -> %s", stopped, s.UID.UID())
	}

	cancel()
	if err := <-errs; !errors.Is(err, context.Canceled) {
		t.Fatalf("unexpected loop result: %v", err)
	}
	if sim.Live() != 0 {
		t.Fatalf("listener leaked")
	}
}

func TestLoopLoadAndExit(t *testing.T) {

	m, sim, _ := newTestMachine(nil)
	l := NewLoop(m)
	ctx := context.Background()

	errs := make(chan error, 1)
	go func() { errs <- l.Run(ctx) }()

	src := dump.NewMemorySource("amiibo.nfc", []byte(ntag215Dump))
	if err := l.Load(ctx, src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s := l.Snapshot(); s.State != EditUID || s.Loaded != "amiibo.nfc" {
		t.Fatalf("unexpected snapshot after load: %+v", s)
	}

	for _, k := range []Key{Ok, Ok, Ok, Back, Back, Back, Back} {
		l.Input(ctx, k)
	}
	waitFor(t, "exit", func() bool { return l.Snapshot().Exited })

	if err := <-errs; err != nil {
		t.Fatalf("unexpected loop result: %v", err)
	}
	if sim.Live() != 0 {
		t.Fatalf("listener leaked")
	}
	if err := l.Load(ctx, src); !errors.Is(err, ErrLoopClosed) {
		t.Fatalf("expected ErrLoopClosed, got %v", err)
	}
}

func TestLoadVisibleInSnapshot(t *testing.T) {

	m, _, _ := newTestMachine(nil)
	l := NewLoop(m)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go l.Run(ctx)

	dumps := []struct{ name, data string }{
		{"amiibo.nfc", ntag215Dump},
		{"office.nfc", "Device type: Mifare Classic\nUID: DE AD C0 DE\n"},
	}

	for ix := 0; ix < 200; ix++ {
		d := dumps[ix%len(dumps)]
		src := dump.NewMemorySource(d.name, []byte(d.data))
		if err := l.Load(ctx, src); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s := l.Snapshot(); s.Loaded != d.name {
			t.Fatalf("round %d: snapshot shows %q after loading %s", ix, s.Loaded, d.name)
		}
	}
}

func TestFailedMutationDoesNotPulse(t *testing.T) {

	m, _, sink := newTestMachine(nil)
	press(m, Ok, Ok, Ok)
	drain(sink)

	m.mutate("set", func(s *uid.State) bool {
		return s.SetUID("XYZ") == nil
	})
	if sig := drain(sink); len(sig) != 0 {
		t.Fatalf("no pulse expected for failed mutation, got %v", sig)
	}

	m.mutate("set", func(s *uid.State) bool {
		return s.SetUID("CAFEBABE") == nil
	})
	if sig := drain(sink); len(sig) != 1 || sig[0] != notify.Pulse {
		t.Fatalf("expected one pulse, got %v", sig)
	}
}
