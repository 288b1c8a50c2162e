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
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/advuid/pkg/profile"
)

// NewSimulator creates an in-process listener service that only keeps track
// of its listeners. It is used for dry runs and testing.
func NewSimulator() *Simulator {
	return &Simulator{listeners: make(map[Handle]*simListener)}
}

//
type simListener struct {
	payload profile.Payload
	running bool
}

// Simulator is a Service without radio.
type Simulator struct {
	mu        sync.Mutex
	listeners map[Handle]*simListener
	next      Handle
	created   int
	failNext  int
	history   []profile.Payload
}

// FailCreates makes the next n calls to Create fail.
func (s *Simulator) FailCreates(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
}

//
func (s *Simulator) Create(p profile.Payload) (Handle, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNext > 0 {
		s.failNext--
		return None, fmt.Errorf("simulated create failure")
	}

	s.next++
	s.created++
	s.listeners[s.next] = &simListener{payload: p}

	log.WithFields(log.Fields{
		"handle": s.next, "payload": p}).Debug("simulated listener created")

	return s.next, nil
}

//
func (s *Simulator) Start(h Handle) error {
	return s.update(h, func(l *simListener) {
		l.running = true
		s.history = append(s.history, l.payload)
		log.WithFields(log.Fields{
			"handle": h, "payload": l.payload}).Info("emulating")
	})
}

//
func (s *Simulator) Stop(h Handle) error {
	return s.update(h, func(l *simListener) {
		l.running = false
	})
}

//
func (s *Simulator) Destroy(h Handle) error {

	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listeners[h]
	if !ok {
		return fmt.Errorf("unknown listener: %d", h)
	}
	if l.running {
		return fmt.Errorf("listener %d still running", h)
	}

	delete(s.listeners, h)
	return nil
}

//
func (s *Simulator) update(h Handle, fn func(l *simListener)) error {

	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listeners[h]
	if !ok {
		return fmt.Errorf("unknown listener: %d", h)
	}

	fn(l)
	return nil
}

// Running returns the payloads of all running listeners.
func (s *Simulator) Running() []profile.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ret []profile.Payload
	for _, l := range s.listeners {
		if l.running {
			ret = append(ret, l.payload)
		}
	}
	return ret
}

// Live returns the number of listeners created but not yet destroyed.
func (s *Simulator) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// Created returns the number of successful creates so far.
func (s *Simulator) Created() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.created
}

// History returns the payloads of all listeners started so far, in order.
func (s *Simulator) History() []profile.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make([]profile.Payload, len(s.history))
	copy(ret, s.history)
	return ret
}

//
func (s *Simulator) Version() (string, error) {
	return "simulator", nil
}
