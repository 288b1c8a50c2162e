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
	"bytes"
	"testing"
)

func TestProfilesInitializeConsistentState(t *testing.T) {
	for _, p := range All() {
		s := p.NewState()
		if s.DigitCount() != 2*p.ByteLen {
			t.Fatalf("%s: unexpected digit count %d", p.Name, s.DigitCount())
		}
		if s.UID() != p.DefaultUID {
			t.Fatalf("%s: unexpected UID %s", p.Name, s.UID())
		}
		if s.Offset() != p.Offset || s.Length() != p.Length {
			t.Fatalf("%s: unexpected window %d+%d", p.Name, s.Offset(), s.Length())
		}
		if s.Offset()+s.Length() > s.DigitCount() {
			t.Fatalf("%s: window outside UID", p.Name)
		}
		if s.Step() != 1 || s.AutoDelay() != 1000 || s.FuzzDelay() != 500 {
			t.Fatalf("%s: unexpected defaults: %s", p.Name, s)
		}
	}
}

func TestProfileTable(t *testing.T) {
	if Count() != 7 {
		t.Fatalf("unexpected profile count: %d", Count())
	}

	p := For(FeliCa)
	if p.ByteLen != 8 || p.ATQA != 0x0344 || p.SAK != 0x20 {
		t.Fatalf("unexpected FeliCa profile: %+v", p)
	}
	if For(Tech(99)).Tech != MifareClassic {
		t.Fatalf("unknown technology must fall back to Mifare Classic")
	}
	if For(ISO15693).Prefix != "E0" || For(NTAG215).Prefix != "04" ||
		For(MifareClassic).Prefix != "" {
		t.Fatalf("unexpected random UID prefixes")
	}
}

func TestParseTech(t *testing.T) {
	for _, name := range []string{"ntag213", "NTAG213", " ntag213 "} {
		if tech, err := ParseTech(name); err != nil || tech != NTAG213 {
			t.Fatalf("%q: got %v, %v", name, tech, err)
		}
	}
	if tech, err := ParseTech("mifare classic 1k"); err != nil || tech != MifareClassic {
		t.Fatalf("display name not accepted: %v, %v", tech, err)
	}
	if _, err := ParseTech("mifare desfire"); err == nil {
		t.Fatalf("expected error for unknown technology")
	}
}

func TestFrameSelection(t *testing.T) {
	cases := map[Tech]FrameKind{
		MifareClassic:    FrameClassic,
		MifareUltralight: FrameUltralight,
		NTAG213:          FrameUltralight,
		NTAG215:          FrameUltralight,
		NTAG216:          FrameUltralight,
		FeliCa:           FrameISO14443A,
		ISO15693:         FrameISO14443A,
	}
	for tech, kind := range cases {
		if got := For(tech).Frame().Kind(); got != kind {
			t.Fatalf("%s: got frame %s, want %s", tech, got, kind)
		}
	}
}

func TestPayloadLayout(t *testing.T) {
	p := For(NTAG215)
	pl := p.Build([]byte{0x04, 0xE1, 0x0C, 0xDA, 0x99, 0x3C, 0x81})

	if pl.Kind != FrameUltralight || pl.SubType != UltralightNTAG215 {
		t.Fatalf("unexpected payload kind: %s", pl)
	}

	want := []byte{2, 3, 7, 0x04, 0xE1, 0x0C, 0xDA, 0x99, 0x3C, 0x81, 0x44, 0x00, 0x00}
	if got := pl.Bytes(); !bytes.Equal(got, want) {
		t.Fatalf("unexpected payload bytes: % X", got)
	}

	fe := For(FeliCa).Build([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	if fe.ATQA != [2]byte{0x44, 0x03} || fe.SAK != 0x20 {
		t.Fatalf("unexpected FeliCa anti-collision bytes: %s", fe)
	}
}

func TestPayloadCopiesUID(t *testing.T) {
	raw := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	pl := For(MifareClassic).Build(raw)
	raw[0] = 0x00
	if pl.UID[0] != 0xDE {
		t.Fatalf("payload must not alias the caller's UID bytes")
	}
}
