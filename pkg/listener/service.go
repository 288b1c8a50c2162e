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

package listener

import (
	"fmt"

	"github.com/xelalexv/advuid/pkg/profile"
)

// Handle refers to a listener created by a Service.
type Handle int

// None is the zero handle, never returned by a successful Create.
const None Handle = 0

// Service emulates passive tags. A listener is created for a payload, then
// started, and finally stopped and destroyed. Listeners are independent of
// each other, but callers only ever keep one alive.
type Service interface {
	Create(p profile.Payload) (Handle, error)
	Start(h Handle) error
	Stop(h Handle) error
	Destroy(h Handle) error
}

// Versioned is implemented by services that can report the version of the
// backend they talk to.
type Versioned interface {
	Version() (string, error)
}

// Closer is implemented by services holding resources such as a serial port.
type Closer interface {
	Close() error
}

// New creates a listener service by backend name. Supported backends are
// `sim` and `serial`.
func New(backend, port string, baud int) (Service, error) {
	switch backend {
	case "", "sim":
		return NewSimulator(), nil
	case "serial":
		return OpenAdapter(port, baud)
	}
	return nil, fmt.Errorf("unknown listener backend: %s", backend)
}
