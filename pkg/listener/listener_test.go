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
	"bytes"
	"io"
	"net"
	"testing"

	"github.com/xelalexv/advuid/pkg/profile"
)

func TestSimulatorLifecycle(t *testing.T) {
	s := NewSimulator()
	pl := profile.For(profile.MifareClassic).Build([]byte{0xDE, 0xAD, 0xBE, 0xEF})

	h, err := s.Create(pl)
	if err != nil || h == None {
		t.Fatalf("unexpected create result: %v, %v", h, err)
	}
	if err := s.Start(h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Running()) != 1 {
		t.Fatalf("expected one running listener")
	}
	if err := s.Destroy(h); err == nil {
		t.Fatalf("destroying a running listener must fail")
	}
	s.Stop(h)
	if err := s.Destroy(h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Live() != 0 || len(s.History()) != 1 {
		t.Fatalf("unexpected simulator state: live=%d history=%d",
			s.Live(), len(s.History()))
	}
	if err := s.Start(h); err == nil {
		t.Fatalf("starting a destroyed listener must fail")
	}
}

func TestSimulatorFailCreates(t *testing.T) {
	s := NewSimulator()
	s.FailCreates(1)
	if _, err := s.Create(profile.Payload{}); err == nil {
		t.Fatalf("expected create failure")
	}
	if _, err := s.Create(profile.Payload{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewBackend(t *testing.T) {
	if svc, err := New("sim", "", 0); err != nil || svc == nil {
		t.Fatalf("unexpected result for sim backend: %v", err)
	}
	if _, err := New("serial", "", 0); err == nil {
		t.Fatalf("serial backend without port must fail")
	}
	if _, err := New("radio", "", 0); err == nil {
		t.Fatalf("unknown backend must fail")
	}
}

// fakeBoard answers adapter requests on the far end of a pipe.
func fakeBoard(t *testing.T, conn net.Conn, requests chan<- []byte) {
	defer conn.Close()
	for {
		hd := make([]byte, 3)
		if _, err := io.ReadFull(conn, hd); err != nil {
			return
		}
		rest := make([]byte, int(hd[2])+1)
		if _, err := io.ReadFull(conn, rest); err != nil {
			return
		}
		req := append(hd, rest...)
		requests <- req

		var status byte
		var data []byte
		switch hd[1] {
		case cmdVersion:
			data = []byte("1.2")
		case cmdCreate:
			data = []byte{7}
		case cmdDestroy:
			status = 3
		}

		reply := append([]byte{frameSync, hd[1], status, byte(len(data))}, data...)
		reply = append(reply, checksum(reply))
		if _, err := conn.Write(reply); err != nil {
			return
		}
	}
}

func TestAdapterRoundTrip(t *testing.T) {
	host, board := net.Pipe()
	requests := make(chan []byte, 10)
	go fakeBoard(t, board, requests)

	a := NewAdapter(host)
	defer a.Close()

	if v, err := a.Version(); err != nil || v != "1.2" {
		t.Fatalf("unexpected version: %q, %v", v, err)
	}
	<-requests

	pl := profile.For(profile.MifareClassic).Build([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	h, err := a.Create(pl)
	if err != nil || h != 7 {
		t.Fatalf("unexpected create result: %v, %v", h, err)
	}

	req := <-requests
	if req[0] != frameSync || req[1] != cmdCreate || int(req[2]) != len(pl.Bytes()) {
		t.Fatalf("unexpected create request header: % X", req[:3])
	}
	if !bytes.Equal(req[3:len(req)-1], pl.Bytes()) {
		t.Fatalf("unexpected create request data: % X", req[3:len(req)-1])
	}
	if checksum(req[:len(req)-1]) != req[len(req)-1] {
		t.Fatalf("bad request checksum")
	}

	if err := a.Start(h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req := <-requests; req[1] != cmdStart || req[3] != 7 {
		t.Fatalf("unexpected start request: % X", req)
	}

	if err := a.Destroy(h); err == nil {
		t.Fatalf("expected adapter error on destroy")
	}
	<-requests
}
