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

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/advuid/pkg/uid"
)

//
func (m *Machine) handleSettings(k Key) {

	switch k {

	case Up:
		m.settingsIndex, m.settingsScroll =
			prev(m.settingsIndex, m.settingsScroll, SettingCount())

	case Down:
		m.settingsIndex, m.settingsScroll =
			next(m.settingsIndex, m.settingsScroll, SettingCount())

	case Left:
		m.adjust(Setting(m.settingsIndex), -1)

	case Right:
		m.adjust(Setting(m.settingsIndex), 1)

	case Ok:
		m.state = Running

	case Back:
		m.syncEdit()
		m.state = EditUID
	}
}

// adjust moves setting s one notch in direction dir.
func (m *Machine) adjust(s Setting, dir int) {

	_, err := m.coord.Apply(context.Background(), func(st *uid.State) bool {
		switch s {
		case SettingStep:
			st.AdjustStep(dir)
		case SettingOffset:
			st.AdjustOffset(dir)
		case SettingLength:
			st.AdjustLength(dir * uid.LengthStep)
		case SettingAutoDelay:
			st.AdjustAutoDelay(dir * uid.DelayStep)
		case SettingFuzzDelay:
			st.AdjustFuzzDelay(dir * uid.DelayStep)
		}
		return false
	})

	if err != nil {
		log.WithField("setting", s).Errorf("cannot adjust setting: %v", err)
	}
}
