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
	"github.com/xelalexv/advuid/pkg/profile"
)

//
func (m *Machine) handleMenu(k Key) {

	switch k {

	case Up:
		m.menuIndex, m.menuScroll = prev(m.menuIndex, m.menuScroll, MenuCount())

	case Down:
		m.menuIndex, m.menuScroll = next(m.menuIndex, m.menuScroll, MenuCount())

	case Ok:
		if m.menuIndex == loadIndex() {
			m.pick()
			return
		}
		m.selectTech(profile.Tech(m.menuIndex))
		m.cursor = 0
		m.state = EditUID

	case Back:
		m.exited = true
	}
}
