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
	"io"
	"sync"

	"github.com/jacobsa/go-serial/serial"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/advuid/pkg/profile"
)

/*
	The adapter is an external board doing the actual tag emulation. It is
	driven over a serial line with request/reply frames:

		request:	[sync][cmd][length][data ...][checksum]
		reply:		[sync][cmd][status][length][data ...][checksum]

	The checksum is the XOR of all preceding bytes of the frame, sync
	included. Status 0 means success, anything else is an adapter error code.

	commands:

		'v'	version, no data; reply data is the firmware version string
		'c'	create, data is the payload; reply data is one handle byte
		's'	start, data is the handle byte
		'p'	stop, data is the handle byte
		'd'	destroy, data is the handle byte
*/

// DefaultBaudRate is the serial speed the adapter firmware uses out of the
// box.
const DefaultBaudRate = 115200

//
const (
	frameSync byte = 0xA5

	cmdVersion byte = 'v'
	cmdCreate  byte = 'c'
	cmdStart   byte = 's'
	cmdStop    byte = 'p'
	cmdDestroy byte = 'd'
)

// OpenAdapter opens the serial port the adapter is connected to.
func OpenAdapter(port string, baud int) (*Adapter, error) {

	if port == "" {
		return nil, fmt.Errorf("no serial port for adapter")
	}

	opts := serial.OpenOptions{
		PortName:              port,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       0,
		InterCharacterTimeout: 500,
	}

	rwc, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("cannot open adapter port %s: %w", port, err)
	}

	log.WithFields(log.Fields{"port": port, "baud": baud}).Info("adapter connected")
	return NewAdapter(rwc), nil
}

// NewAdapter creates an adapter client on top of an already opened
// connection.
func NewAdapter(rwc io.ReadWriteCloser) *Adapter {
	return &Adapter{conn: rwc}
}

// Adapter is a Service backed by an emulation adapter.
type Adapter struct {
	mu   sync.Mutex
	conn io.ReadWriteCloser
}

//
func (a *Adapter) Create(p profile.Payload) (Handle, error) {

	data, err := a.call(cmdCreate, p.Bytes())
	if err != nil {
		return None, err
	}
	if len(data) != 1 || data[0] == 0 {
		return None, fmt.Errorf("adapter returned invalid handle: % X", data)
	}

	return Handle(data[0]), nil
}

//
func (a *Adapter) Start(h Handle) error {
	_, err := a.call(cmdStart, []byte{byte(h)})
	return err
}

//
func (a *Adapter) Stop(h Handle) error {
	_, err := a.call(cmdStop, []byte{byte(h)})
	return err
}

//
func (a *Adapter) Destroy(h Handle) error {
	_, err := a.call(cmdDestroy, []byte{byte(h)})
	return err
}

//
func (a *Adapter) Version() (string, error) {
	data, err := a.call(cmdVersion, nil)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

//
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conn.Close()
}

// call sends one request and waits for the matching reply.
func (a *Adapter) call(cmd byte, data []byte) ([]byte, error) {

	if len(data) > 255 {
		return nil, fmt.Errorf("request data too long: %d bytes", len(data))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	logger := log.WithField("cmd", string(cmd))
	logger.Trace("adapter request")

	req := append([]byte{frameSync, cmd, byte(len(data))}, data...)
	req = append(req, checksum(req))

	if _, err := a.conn.Write(req); err != nil {
		return nil, fmt.Errorf("error sending '%c' to adapter: %w", cmd, err)
	}

	hd := make([]byte, 4)
	if _, err := io.ReadFull(a.conn, hd); err != nil {
		return nil, fmt.Errorf("error receiving '%c' reply: %w", cmd, err)
	}
	if hd[0] != frameSync || hd[1] != cmd {
		return nil, fmt.Errorf("unexpected reply header: % X", hd)
	}

	rest := make([]byte, int(hd[3])+1)
	if _, err := io.ReadFull(a.conn, rest); err != nil {
		return nil, fmt.Errorf("error receiving '%c' reply: %w", cmd, err)
	}

	frame := append(hd, rest...)
	if sum := checksum(frame[:len(frame)-1]); sum != frame[len(frame)-1] {
		return nil, fmt.Errorf("reply checksum mismatch: %02X != %02X",
			sum, frame[len(frame)-1])
	}

	if hd[2] != 0 {
		logger.WithField("status", hd[2]).Debug("adapter refused request")
		return nil, fmt.Errorf("adapter error %d on '%c'", hd[2], cmd)
	}

	return rest[:len(rest)-1], nil
}

//
func checksum(b []byte) byte {
	var ret byte
	for _, c := range b {
		ret ^= c
	}
	return ret
}
