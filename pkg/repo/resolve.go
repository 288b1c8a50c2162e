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

package repo

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xelalexv/advuid/pkg/dump"
)

//
const (
	SchemeRepo  = "repo://"
	SchemeHTTP  = "http://"
	SchemeHTTPS = "https://"
)

// Resolve returns the dump source a reference points to. References are
// either repo://{path relative to repository}, an http(s) URL, or a local
// file path.
func Resolve(ref, repository string) (dump.Source, error) {

	switch {

	case strings.HasPrefix(ref, SchemeRepo):
		if repository == "" {
			return nil, fmt.Errorf("no dump repository configured")
		}
		p, err := inRepo(strings.TrimPrefix(ref, SchemeRepo), repository)
		if err != nil {
			return nil, err
		}
		return NewFileSource(p)

	case strings.HasPrefix(ref, SchemeHTTP), strings.HasPrefix(ref, SchemeHTTPS):
		return NewHTTPSource(ref)

	case ref == "":
		return nil, fmt.Errorf("empty dump reference")
	}

	return NewFileSource(ref)
}

// inRepo joins rel to the repository root, refusing paths that would leave
// the repository.
func inRepo(rel, repository string) (string, error) {

	root, err := filepath.Abs(repository)
	if err != nil {
		return "", err
	}

	p := filepath.Join(root, filepath.FromSlash(rel))
	if p != root && !strings.HasPrefix(p, root+string(filepath.Separator)) {
		return "", fmt.Errorf("reference outside of repository: %s", rel)
	}

	return p, nil
}

// IsDump reports whether a file name looks like a dump, compressed or not.
// Archives are assumed to contain a dump.
func IsDump(file string) bool {
	name, comp := dump.SplitNameCompressor(file)
	if comp == "zip" || comp == "7z" {
		return true
	}
	return strings.EqualFold(filepath.Ext(name), ".nfc")
}
