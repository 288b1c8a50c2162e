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

package capture

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xelalexv/advuid/pkg/dump"
	"github.com/xelalexv/advuid/pkg/profile"
	"github.com/xelalexv/advuid/pkg/uid"
)

// pseudo APDU for reading the UID of the card in the field
var getUID = []byte{0xFF, 0xCA, 0x00, 0x00, 0x00}

//
var (
	ErrNoReader = errors.New("no PC/SC reader found")
	ErrNoCard   = errors.New("no card presented")
)

// Transmitter sends an APDU to a card and returns the response.
type Transmitter interface {
	Transmit(cmd []byte) ([]byte, error)
}

// ReadUID requests the UID from the card behind t.
func ReadUID(t Transmitter) ([]byte, error) {

	rsp, err := t.Transmit(getUID)
	if err != nil {
		return nil, fmt.Errorf("transmitting get UID: %w", err)
	}

	if len(rsp) < 2 {
		return nil, fmt.Errorf("short APDU response: %d bytes", len(rsp))
	}

	if sw1, sw2 := rsp[len(rsp)-2], rsp[len(rsp)-1]; sw1 != 0x90 || sw2 != 0x00 {
		return nil, fmt.Errorf("get UID failed: SW=%02X%02X", sw1, sw2)
	}

	id := rsp[:len(rsp)-2]
	if len(id) < uid.MinBytes || len(id) > uid.MaxBytes {
		return nil, fmt.Errorf("unsupported UID length: %d bytes", len(id))
	}

	ret := make([]byte, len(id))
	copy(ret, id)
	return ret, nil
}

// Capture is a UID read from a physical tag.
type Capture struct {
	Reader string
	UID    []byte
	ATR    []byte
	Tech   profile.Tech
}

// NewCapture creates a capture, guessing the technology from ATR and UID
// length.
func NewCapture(reader string, id, atr []byte) *Capture {
	return &Capture{Reader: reader, UID: id, ATR: atr, Tech: GuessTech(id, atr)}
}

//
func (c *Capture) HexUID() string {
	return strings.ToUpper(hex.EncodeToString(c.UID))
}

// device type names as found in dumps
var deviceNames = map[profile.Tech]string{
	profile.MifareClassic:    "MIFARE Classic 1K",
	profile.MifareUltralight: "MIFARE Ultralight",
	profile.NTAG213:          "NTAG213",
	profile.NTAG215:          "NTAG215",
	profile.NTAG216:          "NTAG216",
	profile.FeliCa:           "FeliCa",
	profile.ISO15693:         "ISO15693",
}

// Render writes the capture as a dump that the importer understands.
func (c *Capture) Render(w io.Writer) error {

	p := profile.For(c.Tech)

	var sp []string
	for _, b := range c.UID {
		sp = append(sp, fmt.Sprintf("%02X", b))
	}

	_, err := fmt.Fprintf(w, `Filetype: Flipper NFC device
Version: 4
# captured with AdvUID from %s
Device type: %s
UID: %s
ATQA: %02X %02X
SAK: %02X
`, c.Reader, deviceNames[c.Tech], strings.Join(sp, " "),
		byte(p.ATQA>>8), byte(p.ATQA), p.SAK)

	return err
}

// Source returns the rendered capture as a dump source.
func (c *Capture) Source() dump.Source {
	var buf bytes.Buffer
	c.Render(&buf)
	return dump.NewMemorySource(fmt.Sprintf("%s.nfc", c.HexUID()), buf.Bytes())
}

//
func (c *Capture) String() string {
	return fmt.Sprintf("%s (%s) on %s", c.HexUID(), c.Tech, c.Reader)
}

// PC/SC part 3 ATR of contactless storage cards:
//
//	3B 8F 80 01 80 4F 0C A0 00 00 03 06 {standard} {name hi} {name lo} ...
var rid = []byte{0xA0, 0x00, 0x00, 0x03, 0x06}

//
const (
	standardISO14443A3 = 0x03
	standardISO15693   = 0x0B
	standardFeliCa     = 0x11
)

// GuessTech derives the technology of a captured tag. The ATR wins if it
// names the card, the UID length decides otherwise.
func GuessTech(id, atr []byte) profile.Tech {

	if ix := bytes.Index(atr, rid); ix > -1 && ix+len(rid)+2 < len(atr) {
		std := atr[ix+len(rid)]
		name := uint16(atr[ix+len(rid)+1])<<8 | uint16(atr[ix+len(rid)+2])
		switch {
		case std == standardISO15693:
			return profile.ISO15693
		case std == standardFeliCa:
			return profile.FeliCa
		case std == standardISO14443A3 && name == 0x0001:
			return profile.MifareClassic
		case std == standardISO14443A3 && name == 0x0003:
			return profile.MifareUltralight
		}
	}

	switch len(id) {
	case 7:
		return profile.MifareUltralight
	case 8:
		return profile.ISO15693
	}
	return profile.MifareClassic
}
