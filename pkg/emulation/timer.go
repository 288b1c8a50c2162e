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

package emulation

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// timer is a periodic trigger owned by the coordinator. It is only armed and
// disarmed while holding the coordinator lock.
type timer struct {
	name string
	stop chan struct{}
	done chan struct{}
}

// arm starts calling fire every period, replacing a previous arming.
func (t *timer) arm(period time.Duration, fire func()) {

	t.disarm()

	stop := make(chan struct{})
	done := make(chan struct{})
	t.stop, t.done = stop, done

	log.WithFields(log.Fields{"timer": t.name, "period": period}).Debug("timer armed")

	go func() {
		defer close(done)
		tick := time.NewTicker(period)
		defer tick.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tick.C:
				fire()
			}
		}
	}()
}

// disarm stops the timer and waits for its routine to end. A timer that is
// not armed is left alone.
func (t *timer) disarm() {
	if t.stop == nil {
		return
	}
	close(t.stop)
	<-t.done
	t.stop, t.done = nil, nil
	log.WithField("timer", t.name).Debug("timer disarmed")
}

//
func (t *timer) armed() bool {
	return t.stop != nil
}
