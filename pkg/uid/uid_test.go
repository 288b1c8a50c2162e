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

package uid

import (
	"errors"
	"testing"
)

func TestBufferNormalizesAndValidates(t *testing.T) {
	b, err := NewBuffer("deadbeef", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.String() != "DEADBEEF" {
		t.Fatalf("unexpected digits: %q", b.String())
	}
	if b.Len() != 8 || b.ByteLen() != 4 {
		t.Fatalf("unexpected length: %d digits, %d bytes", b.Len(), b.ByteLen())
	}

	if _, err := NewBuffer("DEADBEE", 4); err == nil {
		t.Fatalf("expected error for odd digit count")
	}
	if _, err := NewBuffer("DEADBEEG", 4); err == nil {
		t.Fatalf("expected error for invalid digit")
	}
	if _, err := NewBuffer("DEADBE", 3); err == nil {
		t.Fatalf("expected error for unsupported byte length")
	}
}

func TestBufferBytes(t *testing.T) {
	b, _ := NewBuffer("04123456789ABC", 7)
	got := b.Bytes()
	want := []byte{0x04, 0x12, 0x34, 0x56, 0x78, 0x9A, 0xBC}
	if len(got) != len(want) {
		t.Fatalf("unexpected byte count: %d", len(got))
	}
	for ix := range want {
		if got[ix] != want[ix] {
			t.Fatalf("byte %d: got 0x%02X, want 0x%02X", ix, got[ix], want[ix])
		}
	}
}

func TestWriteWindowPadsAndTruncates(t *testing.T) {
	b, _ := NewBuffer("DEADBEEF", 4)

	if w, err := b.WriteWindow(4, 4, 0x1); err != nil || w != "0001" {
		t.Fatalf("unexpected write: %q, %v", w, err)
	}
	if b.String() != "DEAD0001" {
		t.Fatalf("unexpected digits after padded write: %q", b.String())
	}

	if w, _ := b.WriteWindow(0, 2, 0x1FF); w != "FF" {
		t.Fatalf("expected truncation to low digits, got %q", w)
	}
	if b.String() != "FFAD0001" {
		t.Fatalf("unexpected digits after truncated write: %q", b.String())
	}

	if _, err := b.WriteWindow(6, 4, 1); !errors.Is(err, ErrWindowOutOfBounds) {
		t.Fatalf("expected out of bounds error, got %v", err)
	}
}

func TestNibbleRollover(t *testing.T) {
	b, _ := NewBuffer("09AF0000", 4)

	b.NibbleUp(1)
	b.NibbleUp(3)
	if b.String() != "0AA00000" {
		t.Fatalf("unexpected digits after nibble up: %q", b.String())
	}

	b.NibbleDown(0)
	b.NibbleDown(1)
	if b.String() != "F9A00000" {
		t.Fatalf("unexpected digits after nibble down: %q", b.String())
	}

	if b.NibbleUp(8) || b.NibbleDown(-1) {
		t.Fatalf("nibble edit outside of buffer must be refused")
	}
}

func TestIncrementIsModular(t *testing.T) {
	s, err := NewState("DEADFFFE", 4, 4, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Current() != 0xFFFE {
		t.Fatalf("unexpected current value: 0x%X", s.Current())
	}

	s.AdjustStep(2) // step 3
	if err := s.Increment(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.UID() != "DEAD0001" || s.Current() != 1 {
		t.Fatalf("unexpected wrap: %s, %d", s.UID(), s.Current())
	}
	if !s.Changed() {
		t.Fatalf("increment must mark state changed")
	}
}

func TestDoubleIncrementEqualsCombinedStep(t *testing.T) {
	a, _ := NewState("DEADBEEF", 4, 4, 4)
	b, _ := NewState("DEADBEEF", 4, 4, 4)

	a.AdjustStep(2)
	a.Increment()
	a.Increment()

	b.AdjustStep(5)
	b.Increment()

	if a.UID() != b.UID() || a.Current() != b.Current() {
		t.Fatalf("two steps of 3 (%s) differ from one step of 6 (%s)",
			a.UID(), b.UID())
	}
}

func TestSettingsKeepWindowInside(t *testing.T) {
	s, _ := NewState("DEADBEEF", 4, 4, 4)

	for ix := 0; ix < 10; ix++ {
		s.AdjustOffset(1)
	}
	if s.Offset() != 4 {
		t.Fatalf("offset must stop at digits-length, got %d", s.Offset())
	}

	s.AdjustLength(2)
	if s.Length() != 4 {
		t.Fatalf("length must not grow past the end, got %d", s.Length())
	}

	s.AdjustOffset(-4)
	s.AdjustLength(2)
	s.AdjustLength(2)
	s.AdjustLength(2)
	if s.Length() != 8 || s.Offset()+s.Length() > s.DigitCount() {
		t.Fatalf("unexpected window: %d+%d", s.Offset(), s.Length())
	}
	if s.Current() != 0xDEADBEEF {
		t.Fatalf("window value not recomputed: 0x%X", s.Current())
	}

	for ix := 0; ix < 10; ix++ {
		s.AdjustLength(-2)
	}
	if s.Length() != MinLength {
		t.Fatalf("length must stop at %d, got %d", MinLength, s.Length())
	}
}

func TestSettingsClampStepAndDelays(t *testing.T) {
	s, _ := NewState("DEADBEEF", 4, 4, 4)

	s.AdjustStep(-5)
	if s.Step() != MinStep {
		t.Fatalf("unexpected step: %d", s.Step())
	}
	s.AdjustStep(1000)
	if s.Step() != MaxStep {
		t.Fatalf("unexpected step: %d", s.Step())
	}

	s.AdjustAutoDelay(-5000)
	if s.AutoDelay() != MinDelay {
		t.Fatalf("unexpected auto delay: %d", s.AutoDelay())
	}
	s.AdjustFuzzDelay(20000)
	if s.FuzzDelay() != MaxDelay {
		t.Fatalf("unexpected fuzz delay: %d", s.FuzzDelay())
	}
}

func TestNewStateClampsWindow(t *testing.T) {
	s, err := NewState("DEADBEEF", 4, 12, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Offset()+s.Length() > s.DigitCount() {
		t.Fatalf("window not clamped: %d+%d", s.Offset(), s.Length())
	}
}

func TestSetUIDTracksChange(t *testing.T) {
	s, _ := NewState("DEADBEEF", 4, 4, 4)

	if err := s.SetUID("deadbeef"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Changed() {
		t.Fatalf("setting identical digits must not mark a change")
	}

	if err := s.SetUID("CAFEBABE"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Changed() || s.Current() != 0xBABE {
		t.Fatalf("unexpected state after set: %s", s)
	}

	if err := s.SetUID("04123456789ABC"); err == nil {
		t.Fatalf("expected error for different byte length")
	}
}
