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
	"github.com/xelalexv/advuid/pkg/emulation"
	"github.com/xelalexv/advuid/pkg/notify"
)

//
func (m *Machine) handleRunning(k Key) {

	switch k {

	case Ok:
		m.toggle(emulation.Manual)

	case Left:
		if !m.coord.IsActive() {
			m.state = Auto
		}

	case Right:
		if !m.coord.IsActive() {
			m.state = Fuzzer
		}

	case Up:
		m.increment()

	case Back:
		m.stop()
		m.state = Settings
	}
}

//
func (m *Machine) handleAuto(k Key) {

	switch k {

	case Ok:
		m.toggle(emulation.Auto)

	case Left:
		if !m.coord.IsActive() {
			m.state = Running
		}

	case Right:
		if !m.coord.IsActive() {
			m.state = Fuzzer
		}

	case Back:
		m.stop()
		m.state = Settings
	}
}

//
func (m *Machine) handleFuzzer(k Key) {

	switch k {

	case Ok:
		if !m.coord.IsActive() {
			m.fuzzer.Reset()
		}
		m.toggle(emulation.Fuzzer)

	case Left:
		if !m.coord.IsActive() {
			m.state = Auto
		}

	case Right:
		if !m.coord.IsActive() {
			m.state = Running
		}

	case Up:
		m.fuzzNext()

	case Down:
		m.fuzzer.ToggleRandom()
		m.notifier.Notify(notify.Pulse)

	case Back:
		m.stop()
		m.state = Settings
	}
}
