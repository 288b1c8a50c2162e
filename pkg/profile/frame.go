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

package profile

import (
	"encoding/hex"
	"fmt"
)

// FrameKind selects the protocol record type a listener has to populate.
type FrameKind byte

//
const (
	FrameClassic    FrameKind = 1
	FrameUltralight FrameKind = 2
	FrameISO14443A  FrameKind = 3
)

//
func (k FrameKind) String() string {
	switch k {
	case FrameClassic:
		return "mf-classic"
	case FrameUltralight:
		return "mf-ultralight"
	case FrameISO14443A:
		return "iso14443-3a"
	}
	return fmt.Sprintf("frame-%d", byte(k))
}

// sub types
const (
	Classic1K byte = 1

	UltralightUL11    byte = 1
	UltralightNTAG213 byte = 2
	UltralightNTAG215 byte = 3
	UltralightNTAG216 byte = 4
)

// Frame builds the payload handed to a listener. There is one implementation
// per technology family.
type Frame interface {
	Kind() FrameKind
	Build(uid []byte, p Profile) Payload
}

// Payload is what a listener needs to emulate a passive tag: the raw UID plus
// the anti-collision constants of the profile.
type Payload struct {
	Kind    FrameKind `json:"kind"`
	SubType byte      `json:"subType"`
	UID     []byte    `json:"uid"`
	ATQA    [2]byte   `json:"atqa"`
	SAK     byte      `json:"sak"`
}

// Bytes lays out the payload as
//
//	[kind][sub type][uid length][uid ...][atqa 0][atqa 1][sak]
func (p Payload) Bytes() []byte {
	ret := make([]byte, 0, 6+len(p.UID))
	ret = append(ret, byte(p.Kind), p.SubType, byte(len(p.UID)))
	ret = append(ret, p.UID...)
	return append(ret, p.ATQA[0], p.ATQA[1], p.SAK)
}

//
func (p Payload) String() string {
	return fmt.Sprintf("%s/%d UID=%s ATQA=%02X%02X SAK=%02X",
		p.Kind, p.SubType, hex.EncodeToString(p.UID), p.ATQA[1], p.ATQA[0], p.SAK)
}

//
func iso14443a(kind FrameKind, sub byte, uid []byte, p Profile) Payload {
	u := make([]byte, len(uid))
	copy(u, uid)
	return Payload{
		Kind:    kind,
		SubType: sub,
		UID:     u,
		ATQA:    [2]byte{byte(p.ATQA & 0xFF), byte(p.ATQA >> 8)},
		SAK:     p.SAK,
	}
}

//
type classicFrame struct {
	typ byte
}

func (f classicFrame) Kind() FrameKind { return FrameClassic }

func (f classicFrame) Build(uid []byte, p Profile) Payload {
	return iso14443a(FrameClassic, f.typ, uid, p)
}

//
type ultralightFrame struct {
	typ byte
}

func (f ultralightFrame) Kind() FrameKind { return FrameUltralight }

func (f ultralightFrame) Build(uid []byte, p Profile) Payload {
	return iso14443a(FrameUltralight, f.typ, uid, p)
}

// iso14443aFrame is the plain ISO14443-3A record used for technologies
// without a dedicated listener.
type iso14443aFrame struct{}

func (f iso14443aFrame) Kind() FrameKind { return FrameISO14443A }

func (f iso14443aFrame) Build(uid []byte, p Profile) Payload {
	return iso14443a(FrameISO14443A, 0, uid, p)
}
