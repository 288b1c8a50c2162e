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

package control

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xelalexv/advuid/pkg/emulation"
	"github.com/xelalexv/advuid/pkg/listener"
	"github.com/xelalexv/advuid/pkg/machine"
	"github.com/xelalexv/advuid/pkg/notify"
	"github.com/xelalexv/advuid/pkg/repo"
)

const ntag215Dump = `Filetype: Flipper NFC device
Device type: NTAG215
UID: 04 AA BB CC DD EE FF
`

type fixture struct {
	t    *testing.T
	srv  *httptest.Server
	loop *machine.Loop
	repo string
}

func newFixture(t *testing.T) *fixture {

	repository := t.TempDir()
	if err := os.WriteFile(filepath.Join(repository, "amiibo.nfc"),
		[]byte(ntag215Dump), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sim := listener.NewSimulator()
	coord := emulation.NewCoordinator(sim, notify.Discard)
	loop := machine.NewLoop(machine.NewMachine(coord, notify.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool)
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	srv := httptest.NewServer(
		NewAPIServer("", loop, sim, nil, repository).Handler())

	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})

	return &fixture{t: t, srv: srv, loop: loop, repo: repository}
}

func (f *fixture) call(method, path string, body io.Reader, json bool) (int, string) {

	req, err := http.NewRequest(method, f.srv.URL+path, body)
	if err != nil {
		f.t.Fatalf("unexpected error: %v", err)
	}
	if json {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		f.t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		f.t.Fatalf("unexpected error: %v", err)
	}

	return resp.StatusCode, string(data)
}

func (f *fixture) status() *Status {
	code, body := f.call("GET", "/status", nil, true)
	if code != http.StatusOK {
		f.t.Fatalf("unexpected status code: %d", code)
	}
	ret := &Status{}
	if err := json.Unmarshal([]byte(body), ret); err != nil {
		f.t.Fatalf("unexpected error: %v", err)
	}
	return ret
}

func (f *fixture) waitForState(state string) *Status {
	f.t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		st := f.status()
		if st.State == state {
			return st
		}
		if time.Now().After(deadline) {
			f.t.Fatalf("timed out waiting for state %s, at %s", state, st.State)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStatus(t *testing.T) {

	f := newFixture(t)

	st := f.status()
	if st.State != "menu" || st.Tech != "classic" || st.UID != "DEADBEEF" ||
		st.Window != "BEEF" || st.Current != 0xBEEF || st.Max != 0xFFFF {
		t.Fatalf("unexpected status: %+v", st)
	}

	code, body := f.call("GET", "/status", nil, false)
	if code != http.StatusOK || !strings.Contains(body, "UID:        DEADBEEF") {
		t.Fatalf("unexpected text status: %d\n%s", code, body)
	}
}

func TestKeys(t *testing.T) {

	f := newFixture(t)

	if code, _ := f.call("PUT", "/key/ok", nil, false); code != http.StatusOK {
		t.Fatalf("unexpected status code: %d", code)
	}
	f.waitForState("edit")

	if code, _ := f.call("PUT", "/key/ok?repeat=2", nil, false); code != http.StatusOK {
		t.Fatalf("unexpected status code: %d", code)
	}
	f.waitForState("running")

	f.call("PUT", "/key/ok", nil, false)
	deadline := time.Now().Add(3 * time.Second)
	for st := f.status(); !st.Active; st = f.status() {
		if time.Now().After(deadline) {
			t.Fatalf("emulation not started")
		}
		time.Sleep(10 * time.Millisecond)
	}

	st := f.status()
	if st.Mode != "manual" || st.Emulating != "DEADBEEF" {
		t.Fatalf("unexpected status: %+v", st)
	}

	for _, path := range []string{"/key/select", "/key/up?repeat=0",
		"/key/up?repeat=x"} {
		if code, _ := f.call("PUT", path, nil, false); code != http.StatusUnprocessableEntity {
			t.Fatalf("%s: unexpected status code: %d", path, code)
		}
	}

	if code, _ := f.call("GET", "/key/up", nil, false); code != http.StatusMethodNotAllowed {
		t.Fatalf("unexpected status code: %d", code)
	}
}

func TestLoad(t *testing.T) {

	f := newFixture(t)

	code, body := f.call("PUT", "/load?ref=repo://amiibo.nfc", nil, false)
	if code != http.StatusOK {
		t.Fatalf("unexpected status code: %d, %s", code, body)
	}

	st := f.status()
	if st.State != "edit" || st.Tech != "ntag215" || st.UID != "04AABBCCDDEEFF" ||
		st.Loaded != "amiibo.nfc" {
		t.Fatalf("unexpected status: %+v", st)
	}

	code, body = f.call("PUT", "/load?name=upload.nfc",
		strings.NewReader("Device type: NTAG213\nUID: 04 01 02 03 04 05 06\n"), false)
	if code != http.StatusOK {
		t.Fatalf("unexpected status code: %d, %s", code, body)
	}
	if st := f.status(); st.Tech != "ntag213" || st.Loaded != "upload.nfc" {
		t.Fatalf("unexpected status: %+v", st)
	}

	for _, tc := range []struct {
		path string
		body string
		code int
	}{
		{"/load?ref=repo://../etc/passwd", "", http.StatusNotAcceptable},
		{"/load?ref=repo://missing.nfc", "", http.StatusNotAcceptable},
		{"/load", "", http.StatusUnprocessableEntity},
		{"/load", "no UID in here", http.StatusUnprocessableEntity},
	} {
		if code, body := f.call("PUT", tc.path, strings.NewReader(tc.body),
			false); code != tc.code {
			t.Fatalf("%s: unexpected status code: %d, %s", tc.path, code, body)
		}
	}

	if st := f.status(); st.State != "menu" || st.Tech != "ntag213" {
		t.Fatalf("failed load must return to menu keeping identity: %+v", st)
	}
}

func TestLoadWhileEmulating(t *testing.T) {

	f := newFixture(t)

	f.call("PUT", "/key/ok?repeat=4", nil, false)
	deadline := time.Now().Add(3 * time.Second)
	for st := f.status(); !st.Active; st = f.status() {
		if time.Now().After(deadline) {
			t.Fatalf("emulation not started")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if code, _ := f.call("PUT", "/load?ref=repo://amiibo.nfc", nil,
		false); code != http.StatusConflict {
		t.Fatalf("unexpected status code: %d", code)
	}
}

func TestProfiles(t *testing.T) {

	f := newFixture(t)

	code, body := f.call("GET", "/profiles", nil, true)
	if code != http.StatusOK {
		t.Fatalf("unexpected status code: %d", code)
	}

	var list []Profile
	if err := json.Unmarshal([]byte(body), &list); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 7 {
		t.Fatalf("unexpected number of profiles: %d", len(list))
	}
	if p := list[3]; p.Key != "ntag215" || p.ATQA != "0044" || p.Frame != "mf-ultralight" {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if p := list[5]; p.SAK != "20" || p.Frame != "iso14443-3a" || p.Bytes != 8 {
		t.Fatalf("unexpected profile: %+v", p)
	}
}

func TestSearchWithoutIndex(t *testing.T) {
	f := newFixture(t)
	if code, _ := f.call("GET", "/search?term=x", nil, false); code != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status code: %d", code)
	}
}

func TestWriteSearchResult(t *testing.T) {

	hit := repo.Hit{Path: "amiibo/link.nfc", Ref: "repo://amiibo/link.nfc",
		UID: "04112233445566", Tech: "ntag216", DeviceType: "NTAG216"}

	var sb strings.Builder
	WriteSearchResult(&sb, &repo.SearchResult{
		Hits: []repo.Hit{hit}, Total: 1, Complete: true})
	out := sb.String()
	if !strings.Contains(out, "load with: repo://amiibo/link.nfc") ||
		!strings.Contains(out, "1 matching dumps") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	sb.Reset()
	WriteSearchResult(&sb, &repo.SearchResult{
		Hits: []repo.Hit{hit}, Total: 5, Complete: false})
	if out := sb.String(); !strings.Contains(out, "showing 1 of 5 matching dumps") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	sb.Reset()
	WriteSearchResult(&sb, &repo.SearchResult{})
	if out := sb.String(); out != "no matching dumps\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestVersion(t *testing.T) {

	f := newFixture(t)

	code, body := f.call("GET", "/version", nil, true)
	if code != http.StatusOK {
		t.Fatalf("unexpected status code: %d", code)
	}

	v := &Version{}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Listener != "simulator" || v.Daemon == "" {
		t.Fatalf("unexpected version: %+v", v)
	}
}
