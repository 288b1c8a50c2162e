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

package dump

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/advuid/pkg/profile"
	"github.com/xelalexv/advuid/pkg/uid"
)

//
const (
	uidMarker    = "UID:"
	deviceMarker = "Device type:"
	maxUIDDigits = 2 * uid.MaxBytes
)

// ErrNoUID is returned when a dump does not contain a usable UID line.
var ErrNoUID = errors.New("no UID found")

// device type names as written by the dump producer, checked in this order
var deviceTypes = []struct {
	marker string
	tech   profile.Tech
}{
	{"MIFARE Classic", profile.MifareClassic},
	{"MIFARE Ultralight", profile.MifareUltralight},
	{"NTAG213", profile.NTAG213},
	{"NTAG215", profile.NTAG215},
	{"NTAG216", profile.NTAG216},
}

// Result is the identity recovered from a dump.
type Result struct {
	// Name is the display name of the dump, i.e. its file name
	Name string
	Tech profile.Tech
	UID  string
	// DeviceType is the raw device type from the dump, may be empty
	DeviceType string
}

//
func (r *Result) ByteLen() int {
	return len(r.UID) / 2
}

//
func (r *Result) Profile() profile.Profile {
	return profile.For(r.Tech)
}

// NewState creates the UID state for an imported dump. The increment window
// covers the last two bytes of the UID.
func (r *Result) NewState() (*uid.State, error) {
	offset := 4
	if r.ByteLen() > 2 {
		offset = len(r.UID) - 4
	}
	return uid.NewState(r.UID, r.ByteLen(), offset, uid.DefaultLength)
}

//
func (r *Result) String() string {
	return fmt.Sprintf("%s: %s, UID %s", r.Name, r.Tech, r.UID)
}

// Import recovers UID and technology from a dump. The source is read twice,
// first for the UID, then for the device type.
func Import(src Source) (*Result, error) {

	logger := log.WithField("dump", src.Name())
	logger.Debug("importing dump")

	digits, err := scan(src, findUID)
	if err != nil {
		return nil, err
	}
	if digits == "" {
		logger.Warn("no UID in dump")
		return nil, ErrNoUID
	}

	device, err := scan(src, findDeviceType)
	if err != nil {
		return nil, err
	}

	ret := &Result{
		Name:       displayName(src.Name()),
		Tech:       techForDevice(device),
		UID:        digits,
		DeviceType: device,
	}

	// 7 byte UIDs are not Mifare Classic, so assume Ultralight family
	if ret.Tech == profile.MifareClassic && ret.ByteLen() == 7 {
		ret.Tech = profile.MifareUltralight
	}

	logger.WithFields(log.Fields{
		"tech": ret.Tech,
		"uid":  ret.UID}).Info("dump imported")

	return ret, nil
}

// scan feeds the lines of src to match until it returns done.
func scan(src Source, match func(line string) (string, bool)) (string, error) {

	in, err := src.Open()
	if err != nil {
		return "", fmt.Errorf("cannot open dump '%s': %w", src.Name(), err)
	}
	defer in.Close()

	sc := bufio.NewScanner(io.LimitReader(in, MaxDumpSize))
	for sc.Scan() {
		if v, done := match(sc.Text()); done {
			return v, nil
		}
	}

	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("error reading dump '%s': %w", src.Name(), err)
	}

	return "", nil
}

// findUID picks the first UID line with 4 to 8 bytes of hex digits. All other
// characters on the line are ignored.
func findUID(line string) (string, bool) {

	if !strings.HasPrefix(line, uidMarker) {
		return "", false
	}

	var sb strings.Builder
	for ix := len(uidMarker); ix < len(line) && sb.Len() < maxUIDDigits; ix++ {
		if c := line[ix]; uid.IsHexDigit(c) {
			sb.WriteByte(upper(c))
		}
	}

	digits := sb.String()
	if n := len(digits) / 2; n < uid.MinBytes || n > uid.MaxBytes {
		log.WithField("line", line).Debug("ignoring UID line")
		return "", false
	}

	return digits[:2*(len(digits)/2)], true
}

// findDeviceType stops at the first device type line, whether or not the
// type is known.
func findDeviceType(line string) (string, bool) {
	ix := strings.Index(line, deviceMarker)
	if ix < 0 {
		return "", false
	}
	return strings.TrimSpace(line[ix+len(deviceMarker):]), true
}

//
func techForDevice(device string) profile.Tech {
	for _, d := range deviceTypes {
		if strings.Contains(device, d.marker) {
			return d.tech
		}
	}
	return profile.MifareClassic
}

//
func displayName(name string) string {
	n, _ := SplitNameCompressor(name)
	return n
}

//
func upper(c byte) byte {
	if 'a' <= c && c <= 'f' {
		return c - 'a' + 'A'
	}
	return c
}
