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

package fuzz

// curated UIDs by byte length, tried in order before going random
var lists = map[int][]string{
	4: {
		"DEADBEEF", "CAFEBABE", "FEEDFACE", "BAADF00D",
		"12345678", "ABCDEF00", "00000000", "FFFFFFFF",
	},
	7: {
		"04DEADBEEFCAFE", "04123456789ABC", "04ABCDEF012345",
		"04FEEDFACEBEEF", "04CAFEBABEF00D", "04BAADF00DCAFE",
	},
	8: {
		"DEADBEEFCAFEBABE", "FEEDFACEDEADBEEF", "BAADF00DCAFEBABE",
		"1234567890ABCDEF", "ABCDEF0123456789", "0123456789ABCDEF",
	},
}

// List returns the curated UIDs for the given byte length, or nil if there
// are none.
func List(byteLen int) []string {
	l, ok := lists[byteLen]
	if !ok {
		return nil
	}
	ret := make([]string, len(l))
	copy(ret, l)
	return ret
}
