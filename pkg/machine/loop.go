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

package machine

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/advuid/pkg/dump"
	"github.com/xelalexv/advuid/pkg/emulation"
)

// ErrLoopClosed is returned for requests to a loop that has ended.
var ErrLoopClosed = errors.New("control loop closed")

// inputQueue is how many keys may be pending
const inputQueue = 8

//
type loadRequest struct {
	src   dump.Source
	reply chan error
}

// NewLoop creates the control loop for m. It registers with the coordinator
// for timer ticks.
func NewLoop(m *Machine) *Loop {

	l := &Loop{
		machine:  m,
		input:    make(chan Key, inputQueue),
		loads:    make(chan loadRequest),
		autoTick: make(chan struct{}, 1),
		fuzzTick: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	m.coord.OnTick(l.tick)
	l.snapshot = m.Snapshot()
	return l
}

// Loop serializes all requests against the machine: input keys, dump loads,
// and timer ticks. After each request, a new snapshot is published.
type Loop struct {
	machine  *Machine
	input    chan Key
	loads    chan loadRequest
	autoTick chan struct{}
	fuzzTick chan struct{}
	done     chan struct{}
	//
	mu       sync.RWMutex
	snapshot Snapshot
}

// tick is called from the coordinator's timers. A tick is only queued if no
// other tick of the same mode is pending.
func (l *Loop) tick(m emulation.Mode) {

	var ch chan struct{}

	switch m {
	case emulation.Auto:
		ch = l.autoTick
	case emulation.Fuzzer:
		ch = l.fuzzTick
	default:
		return
	}

	select {
	case ch <- struct{}{}:
	default:
		log.WithField("mode", m).Trace("tick coalesced")
	}
}

// Run processes requests until the operator exits or ctx is done. Any active
// session is stopped before Run returns.
func (l *Loop) Run(ctx context.Context) error {

	defer close(l.done)

	log.Info("control loop started")

	for !l.machine.Exited() {

		select {
		case <-ctx.Done():
			l.shutdown()
			return ctx.Err()

		case k := <-l.input:
			l.machine.Handle(k)

		case r := <-l.loads:
			// callers read the snapshot as soon as they have the reply
			err := l.machine.Load(r.src)
			l.publish()
			r.reply <- err
			continue

		case <-l.autoTick:
			l.machine.Tick(emulation.Auto)

		case <-l.fuzzTick:
			l.machine.Tick(emulation.Fuzzer)
		}

		l.publish()
	}

	l.shutdown()
	return nil
}

//
func (l *Loop) shutdown() {
	l.machine.Shutdown()
	l.publish()
	log.Info("control loop stopped")
}

//
func (l *Loop) publish() {
	s := l.machine.Snapshot()
	l.mu.Lock()
	l.snapshot = s
	l.mu.Unlock()
}

// Input queues a key for processing.
func (l *Loop) Input(ctx context.Context, k Key) error {
	select {
	case l.input <- k:
		return nil
	case <-l.done:
		return ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Load imports a dump through the loop, and waits for the result. When it
// returns, Snapshot already reflects the load.
func (l *Loop) Load(ctx context.Context, src dump.Source) error {

	req := loadRequest{src: src, reply: make(chan error, 1)}

	select {
	case l.loads <- req:
	case <-l.done:
		return ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the most recently published state. The UID state it holds
// must not be modified.
func (l *Loop) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot
}

// Done is closed when the loop has ended.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
