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
	"fmt"
	"time"
)

// settings bounds
const (
	MinStep = 1
	MaxStep = 256

	MinLength  = 2
	MaxLength  = 8
	LengthStep = 2

	MinDelay  = 100
	MaxDelay  = 10000
	DelayStep = 100

	DefaultStep      = 1
	DefaultLength    = 4
	DefaultAutoDelay = 1000
	DefaultFuzzDelay = 500
)

// State is the mutable UID of the emulated tag, together with the increment
// window and timer settings. It is not safe for concurrent use; callers
// serialize access.
type State struct {
	buf       *Buffer
	offset    int
	length    int
	current   uint64
	step      int
	autoDelay int
	fuzzDelay int
	changed   bool
}

// NewState creates a state for the given UID and increment window, with all
// other settings at their defaults. A window that does not fit is clamped.
func NewState(hex string, byteLen, offset, length int) (*State, error) {

	buf, err := NewBuffer(hex, byteLen)
	if err != nil {
		return nil, err
	}

	s := &State{
		buf:       buf,
		step:      DefaultStep,
		autoDelay: DefaultAutoDelay,
		fuzzDelay: DefaultFuzzDelay,
	}
	s.offset, s.length = clampWindow(offset, length, buf.Len())
	s.Recompute()

	return s, nil
}

//
func (s *State) UID() string {
	return s.buf.String()
}

//
func (s *State) Bytes() []byte {
	return s.buf.Bytes()
}

//
func (s *State) ByteLen() int {
	return s.buf.ByteLen()
}

//
func (s *State) DigitCount() int {
	return s.buf.Len()
}

//
func (s *State) Offset() int {
	return s.offset
}

//
func (s *State) Length() int {
	return s.length
}

//
func (s *State) Window() string {
	w, _ := s.buf.Window(s.offset, s.length)
	return w
}

//
func (s *State) Current() uint64 {
	return s.current
}

// Max is the largest value the increment window can hold.
func (s *State) Max() uint64 {
	return 1<<(4*uint(s.length)) - 1
}

//
func (s *State) Step() int {
	return s.step
}

// AutoDelay returns the auto increment period in milliseconds.
func (s *State) AutoDelay() int {
	return s.autoDelay
}

// FuzzDelay returns the fuzzer period in milliseconds.
func (s *State) FuzzDelay() int {
	return s.fuzzDelay
}

//
func (s *State) AutoPeriod() time.Duration {
	return time.Duration(s.autoDelay) * time.Millisecond
}

//
func (s *State) FuzzPeriod() time.Duration {
	return time.Duration(s.fuzzDelay) * time.Millisecond
}

// Changed reports whether the UID was modified since the last successful
// (re)start of an emulation session.
func (s *State) Changed() bool {
	return s.changed
}

//
func (s *State) ClearChanged() {
	s.changed = false
}

// SetUID replaces the digits while keeping the byte length, and recomputes
// the current window value.
func (s *State) SetUID(hex string) error {

	prev := s.buf.String()
	if err := s.buf.Set(hex, s.buf.ByteLen()); err != nil {
		return err
	}

	if s.buf.String() != prev {
		s.changed = true
	}

	s.Recompute()
	return nil
}

// Recompute decodes the current value from the increment window.
func (s *State) Recompute() {
	if v, err := s.buf.Value(s.offset, s.length); err == nil {
		s.current = v
	} else {
		s.current = 0
	}
}

// Increment adds the step to the current value, modulo the window capacity,
// and writes the result back into the window.
func (s *State) Increment() error {

	next := (s.current + uint64(s.step)) & s.Max()
	if _, err := s.buf.WriteWindow(s.offset, s.length, next); err != nil {
		return err
	}

	s.current = next
	s.changed = true
	return nil
}

// AdjustStep changes the increment step by delta, within [MinStep, MaxStep].
func (s *State) AdjustStep(delta int) {
	s.step = clamp(s.step+delta, MinStep, MaxStep)
}

// AdjustOffset moves the increment window by delta digits, keeping it inside
// the UID.
func (s *State) AdjustOffset(delta int) {
	s.offset = clamp(s.offset+delta, 0, s.buf.Len()-s.length)
	s.Recompute()
}

// AdjustLength grows or shrinks the increment window by one byte. Growing is
// refused when the window would no longer fit.
func (s *State) AdjustLength(delta int) {

	switch {
	case delta < 0 && s.length > MinLength:
		s.length -= LengthStep

	case delta > 0 && s.length < MaxLength &&
		s.offset+s.length+LengthStep <= s.buf.Len():
		s.length += LengthStep

	default:
		return
	}

	s.Recompute()
}

//
func (s *State) AdjustAutoDelay(delta int) {
	s.autoDelay = clamp(s.autoDelay+delta, MinDelay, MaxDelay)
}

//
func (s *State) AdjustFuzzDelay(delta int) {
	s.fuzzDelay = clamp(s.fuzzDelay+delta, MinDelay, MaxDelay)
}

// Clone returns an independent copy of this state.
func (s *State) Clone() *State {
	c := *s
	c.buf = s.buf.Clone()
	return &c
}

//
func (s *State) String() string {
	return fmt.Sprintf("UID %s, window %d+%d, value %d, step %d",
		s.buf.String(), s.offset, s.length, s.current, s.step)
}

//
func clampWindow(offset, length, digits int) (int, int) {
	length = clamp(length, MinLength, MaxLength)
	if length > digits {
		length = digits
	}
	length -= length % LengthStep
	return clamp(offset, 0, digits-length), length
}

//
func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
