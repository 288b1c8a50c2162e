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

package emulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/advuid/pkg/listener"
	"github.com/xelalexv/advuid/pkg/notify"
	"github.com/xelalexv/advuid/pkg/profile"
	"github.com/xelalexv/advuid/pkg/uid"
)

// PollInterval is how often the session worker checks for a stop request.
const PollInterval = 50 * time.Millisecond

//
var (
	ErrSessionActive    = errors.New("emulation session already active")
	ErrSessionNotActive = errors.New("no active emulation session")
	ErrListenerCreate   = errors.New("listener creation failed")
	ErrNotBound         = errors.New("no UID state bound")
)

// Mode is the run mode of an emulation session.
type Mode int

//
const (
	Idle Mode = iota
	Manual
	Auto
	Fuzzer
)

//
func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Manual:
		return "manual"
	case Auto:
		return "auto"
	case Fuzzer:
		return "fuzzer"
	}
	return "unknown"
}

// TickFunc is called whenever the timer of an auto or fuzzer session fires.
// It must not block, and must not call back into the coordinator.
type TickFunc func(m Mode)

// NewCoordinator creates a coordinator emulating through svc.
func NewCoordinator(svc listener.Service, sink notify.Sink) *Coordinator {
	if sink == nil {
		sink = notify.Discard
	}
	return &Coordinator{
		service:   svc,
		notifier:  sink,
		lock:      make(chan bool, 1),
		autoTimer: &timer{name: "auto"},
		fuzzTimer: &timer{name: "fuzzer"},
	}
}

// Coordinator owns the lifecycle of the emulation session. UID state,
// changed flag and listener handle form one critical section, guarded by the
// coordinator lock.
type Coordinator struct {
	service  listener.Service
	notifier notify.Sink
	tick     TickFunc
	//
	lock chan bool
	//
	prof     profile.Profile
	state    *uid.State
	handle   listener.Handle
	payload  profile.Payload
	mode     Mode
	active   bool
	session  *session
	sessions int
	//
	autoTimer *timer
	fuzzTimer *timer
}

//
type session struct {
	id   int
	stop chan struct{}
	done chan struct{}
}

// stopping reports whether a stop of this session has been requested.
func (s *session) stopping() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// OnTick sets the function called by the mode timers. It takes effect with
// the next session start.
func (c *Coordinator) OnTick(fn TickFunc) {
	c.mustLock()
	defer c.Unlock()
	c.tick = fn
}

// Lock acquires the critical section. Returns false if the context is done
// before the lock could be acquired.
func (c *Coordinator) Lock(ctx context.Context) bool {
	select {
	case c.lock <- true:
		log.Trace("coordinator locked")
		return true
	case <-ctx.Done():
		log.Debug("coordinator lock timed out")
		return false
	}
}

//
func (c *Coordinator) Unlock() {
	select {
	case <-c.lock:
		log.Trace("coordinator unlocked")
	default:
		log.Debug("coordinator was already unlocked")
	}
}

//
func (c *Coordinator) mustLock() {
	c.Lock(context.Background())
}

// Bind sets profile and UID state for subsequent sessions. Not allowed while
// a session is active.
func (c *Coordinator) Bind(p profile.Profile, s *uid.State) error {

	c.mustLock()
	defer c.Unlock()

	if c.active {
		return ErrSessionActive
	}

	c.prof = p
	c.state = s

	log.WithFields(log.Fields{"tech": p.Tech, "uid": s.UID()}).Debug("bound UID state")
	return nil
}

// Start starts a session in the given mode. It is an error to start while a
// session is active.
func (c *Coordinator) Start(m Mode) error {

	c.mustLock()
	defer c.Unlock()

	if c.active {
		return ErrSessionActive
	}
	if c.state == nil {
		return ErrNotBound
	}

	h, err := c.createListener()
	if err != nil {
		c.notifier.Notify(notify.Error)
		return err
	}

	c.handle = h
	c.state.ClearChanged()
	c.active = true
	c.mode = m
	c.sessions++
	c.session = &session{
		id:   c.sessions,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go c.work(c.session)

	switch m {
	case Auto:
		c.autoTimer.arm(c.state.AutoPeriod(), fire(c.tick, Auto))
	case Fuzzer:
		c.fuzzTimer.arm(c.state.FuzzPeriod(), fire(c.tick, Fuzzer))
	}

	log.WithFields(log.Fields{
		"session": c.session.id,
		"mode":    m,
		"tech":    c.prof.Tech,
		"uid":     c.state.UID()}).Info("emulation started")

	c.notifier.Notify(notify.Success)
	return nil
}

// Stop ends the active session. The listener is torn down inside the
// critical section, so a session started right after never shares it. Stop
// then waits for the worker to exit. Stopping without an active session does
// nothing.
func (c *Coordinator) Stop() error {

	c.mustLock()

	if !c.active {
		c.Unlock()
		return nil
	}

	c.active = false
	c.mode = Idle
	c.autoTimer.disarm()
	c.fuzzTimer.disarm()
	c.releaseListener()
	sess := c.session
	c.session = nil

	c.Unlock()

	close(sess.stop)
	<-sess.done

	log.WithField("session", sess.id).Info("emulation stopped")
	c.notifier.Notify(notify.Error)
	return nil
}

// Apply runs fn on the UID state inside the critical section. If a session
// is active and the state changed, the listener is swapped for one emulating
// the new UID. fn reports whether it modified the state.
func (c *Coordinator) Apply(ctx context.Context, fn func(s *uid.State) bool) (bool, error) {

	if !c.Lock(ctx) {
		return false, fmt.Errorf("could not lock coordinator: %w", ctx.Err())
	}
	defer c.Unlock()

	if c.state == nil {
		return false, ErrNotBound
	}

	modified := fn(c.state)
	c.swap()

	return modified, nil
}

// View runs fn on the UID state inside the critical section. fn must not
// modify the state.
func (c *Coordinator) View(fn func(s *uid.State)) error {

	c.mustLock()
	defer c.Unlock()

	if c.state == nil {
		return ErrNotBound
	}

	fn(c.state)
	return nil
}

// swap is the hot-swap restart. Caller holds the lock. If creating the new
// listener fails, the session continues without listener, and the next
// change tries again.
func (c *Coordinator) swap() {

	if !c.active || !c.state.Changed() {
		return
	}

	logger := log.WithFields(log.Fields{
		"session": c.session.id, "uid": c.state.UID()})

	c.releaseListener()

	h, err := c.createListener()
	if err != nil {
		logger.Warnf("hot-swap failed, emulation paused: %v", err)
		c.notifier.Notify(notify.Error)
		return
	}

	c.handle = h
	c.state.ClearChanged()
	logger.WithField("handle", h).Debug("listener swapped")
}

// createListener builds the payload from the current state, and creates and
// starts a listener for it. Caller holds the lock.
func (c *Coordinator) createListener() (listener.Handle, error) {

	p := c.prof.Build(c.state.Bytes())

	h, err := c.service.Create(p)
	if err != nil {
		return listener.None, fmt.Errorf("%w: %v", ErrListenerCreate, err)
	}

	if err := c.service.Start(h); err != nil {
		if e := c.service.Destroy(h); e != nil {
			log.Errorf("cannot destroy listener %d: %v", h, e)
		}
		return listener.None, fmt.Errorf("%w: start: %v", ErrListenerCreate, err)
	}

	c.payload = p
	return h, nil
}

// releaseListener stops and destroys the current listener, if any. Caller
// holds the lock.
func (c *Coordinator) releaseListener() {

	if c.handle == listener.None {
		return
	}

	logger := log.WithField("handle", c.handle)

	if err := c.service.Stop(c.handle); err != nil {
		logger.Errorf("error stopping listener: %v", err)
	}
	if err := c.service.Destroy(c.handle); err != nil {
		logger.Errorf("error destroying listener: %v", err)
	}

	c.handle = listener.None
	c.payload = profile.Payload{}
}

// work is the session worker. It lives as long as the session, and exits
// within one poll interval of the stop request.
func (c *Coordinator) work(sess *session) {

	defer close(sess.done)

	logger := log.WithField("session", sess.id)
	logger.Debug("emulation worker started")

	poll := time.NewTicker(PollInterval)
	defer poll.Stop()

	for range poll.C {
		if sess.stopping() {
			break
		}
	}

	logger.Debug("emulation worker exiting")
}

// fire binds the tick function in effect when the timer is armed.
func fire(fn TickFunc, m Mode) func() {
	return func() {
		if fn != nil {
			fn(m)
		}
	}
}

// IsActive reports whether a session is running.
func (c *Coordinator) IsActive() bool {
	c.mustLock()
	defer c.Unlock()
	return c.active
}

// Mode returns the mode of the active session, or Idle.
func (c *Coordinator) Mode() Mode {
	c.mustLock()
	defer c.Unlock()
	return c.mode
}

// Emulating returns the payload of the live listener. The session may be
// active without a listener after a failed hot-swap.
func (c *Coordinator) Emulating() (profile.Payload, error) {

	c.mustLock()
	defer c.Unlock()

	if !c.active {
		return profile.Payload{}, ErrSessionNotActive
	}
	if c.handle == listener.None {
		return profile.Payload{}, ErrListenerCreate
	}

	return c.payload, nil
}
