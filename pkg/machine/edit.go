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
func (m *Machine) handleEdit(k Key) {

	switch k {

	case Up:
		m.edit.NibbleUp(m.cursor)

	case Down:
		m.edit.NibbleDown(m.cursor)

	case Left:
		if m.cursor > 0 {
			m.cursor--
		}

	case Right:
		if m.cursor < m.edit.Len()-1 {
			m.cursor++
		}

	case Ok:
		edited := m.edit.String()
		if _, err := m.coord.Apply(context.Background(), func(s *uid.State) bool {
			return s.SetUID(edited) == nil
		}); err != nil {
			log.Errorf("cannot commit UID: %v", err)
			return
		}
		log.WithField("uid", edited).Debug("UID committed")
		m.state = Settings

	case Back:
		m.state = Menu
	}
}
