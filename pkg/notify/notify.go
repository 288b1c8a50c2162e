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

package notify

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Signal is a fire-and-forget notification towards the operator.
type Signal int

//
const (
	// Success is signalled when a session starts or a dump was loaded
	Success Signal = iota
	// Error is signalled when a session stops or an operation failed
	Error
	// Pulse is signalled on every programmatic UID change
	Pulse
)

//
func (s Signal) String() string {
	switch s {
	case Success:
		return "success"
	case Error:
		return "error"
	case Pulse:
		return "pulse"
	}
	return "unknown"
}

// Sink receives notifications. Implementations must not block.
type Sink interface {
	Notify(s Signal)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(s Signal)

//
func (f SinkFunc) Notify(s Signal) {
	f(s)
}

// Discard drops all notifications.
var Discard Sink = SinkFunc(func(Signal) {})

// Log writes notifications to the log.
var Log Sink = SinkFunc(func(s Signal) {
	if s == Pulse {
		log.WithField("signal", s).Trace("notification")
	} else {
		log.WithField("signal", s).Debug("notification")
	}
})

// NewFanout creates a sink that forwards notifications to all subscribers.
func NewFanout(sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks}
}

// Fanout distributes notifications to several sinks.
type Fanout struct {
	mu    sync.RWMutex
	sinks []Sink
}

//
func (f *Fanout) Add(s Sink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinks = append(f.sinks, s)
}

//
func (f *Fanout) Notify(s Signal) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, sink := range f.sinks {
		sink.Notify(s)
	}
}

// NewChannel creates a sink that delivers notifications into a buffered
// channel. When the buffer is full, notifications are dropped.
func NewChannel(size int) *Channel {
	return &Channel{c: make(chan Signal, size)}
}

//
type Channel struct {
	c chan Signal
}

//
func (c *Channel) Notify(s Signal) {
	select {
	case c.c <- s:
	default:
	}
}

//
func (c *Channel) C() <-chan Signal {
	return c.c
}
