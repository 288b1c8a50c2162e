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

package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/advuid/pkg/control"
	"github.com/xelalexv/advuid/pkg/dump"
	"github.com/xelalexv/advuid/pkg/emulation"
	"github.com/xelalexv/advuid/pkg/listener"
	"github.com/xelalexv/advuid/pkg/machine"
	"github.com/xelalexv/advuid/pkg/notify"
	"github.com/xelalexv/advuid/pkg/repo"
	"github.com/xelalexv/advuid/pkg/tui"
	"github.com/xelalexv/advuid/pkg/util"
)

//
func NewServe() *Serve {

	s := &Serve{}
	s.Runner = *NewRunner(
		`serve [-a|--address {address}] [-b|--backend sim|serial] [-p|--port {device}]
      [--baud {rate}] [-r|--repo {dir}] [--index {dir}] [--pick {ref}] [-t|--tui]`,
		"start the AdvUID daemon",
		`
Use the serve command to start the daemon. It runs the emulation state machine,
drives the emulation adapter through the selected listener backend, and offers
the control API. With --tui, the terminal UI is shown as well.`,
		"", `- The sim backend does not need any hardware. It is useful for trying out
  the daemon, and for testing clients of the control API.

- If a repository is given, its dumps are indexed for searching, and can be
  referenced as repo://{path}. The index is kept up to date while the daemon
  is running.

`+runnerHelpEpilogue, s.Run)

	s.addDaemonSettings(false)
	return s
}

//
func NewTUI() *Serve {

	s := &Serve{}
	s.Runner = *NewRunner(
		`tui [-b|--backend sim|serial] [-p|--port {device}] [--baud {rate}]
      [-r|--repo {dir}] [--index {dir}] [-a|--address {address}] [--log-file {file}]`,
		"run the emulation controller in the terminal UI",
		`
Use the tui command to run the emulation state machine interactively. The
control API is only started when an address is given. Log output is discarded
unless a log file is set.`,
		"", runnerHelpEpilogue, s.Run)

	s.addDaemonSettings(true)
	return s
}

//
type Serve struct {
	Runner
	//
	Backend    string
	Port       string
	Baud       int
	Repository string
	IndexDir   string
	Pick       string
	TUI        bool
	//
	interactive bool
}

//
func (s *Serve) addDaemonSettings(interactive bool) {

	s.interactive = interactive

	if interactive {
		s.AddSetting(&s.Address, "address", "a", "", nil,
			"listen address and port of the API server; off if not set", false)
	} else {
		s.AddBaseSettings()
		s.AddSetting(&s.TUI, "tui", "t", "", false, "show terminal UI", false)
		s.AddSetting(&s.Pick, "pick", "", "", nil,
			"dump to load when the menu's load item is selected", false)
	}

	s.AddSetting(&s.Backend, "backend", "b", "", "sim",
		"listener backend, sim or serial", false)
	s.AddSetting(&s.Port, "port", "p", "", "/dev/ttyUSB0",
		"serial port of the emulation adapter", false)
	s.AddSetting(&s.Baud, "baud", "", "", listener.DefaultBaudRate,
		"baud rate of the emulation adapter", false)
	s.AddSetting(&s.Repository, "repo", "r", "", nil,
		"dump repository directory", false)
	s.AddSetting(&s.IndexDir, "index", "", "", nil,
		"search index directory; defaults to user cache dir", false)
}

//
func (s *Serve) Run() error {

	if err := s.ParseSettings(); err != nil {
		return err
	}

	showUI := s.TUI || s.interactive
	if showUI && !s.LogsToFile() {
		log.SetOutput(io.Discard)
	}

	log.WithFields(log.Fields{
		"version": util.AdvUIDVersion,
		"backend": s.Backend}).Info("AdvUID starting")

	svc, err := listener.New(s.Backend, s.Port, s.Baud)
	if err != nil {
		return err
	}
	if c, ok := svc.(listener.Closer); ok {
		defer c.Close()
	}

	signals := notify.NewChannel(16)
	sink := notify.NewFanout(notify.Log)
	if showUI {
		sink.Add(signals)
	}

	coord := emulation.NewCoordinator(svc, sink)
	loop := machine.NewLoop(machine.NewMachine(coord, sink, s.picker()))

	index, err := s.startIndex()
	if err != nil {
		return err
	}
	if index != nil {
		defer index.Stop()
	}

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, 3)

	// whichever part ends first takes the others down
	start := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer cancel()
			if err := fn(); err != nil && !errors.Is(err, context.Canceled) {
				errs <- fmt.Errorf("%s: %v", name, err)
			}
		}()
	}

	start("control loop", func() error {
		return loop.Run(ctx)
	})

	if s.Address != "" {
		api := control.NewAPIServer(s.Address, loop, svc, index, s.Repository)
		start("API server", func() error {
			return api.Serve(ctx)
		})
	}

	if showUI {
		cfg := tui.Config{Dir: s.Repository, Signals: signals.C()}
		if index != nil {
			cfg.Library = index
		}
		start("terminal UI", func() error {
			return tui.Run(loop, cfg)
		})
	}

	wg.Wait()
	close(errs)

	log.Info("AdvUID stopped")
	return <-errs
}

// picker returns the picker for the menu's load item, nil if none is set.
func (s *Serve) picker() machine.Picker {
	if s.Pick == "" {
		return nil
	}
	ref, repository := s.Pick, s.Repository
	return machine.PickerFunc(func() (dump.Source, error) {
		return repo.Resolve(ref, repository)
	})
}

// startIndex opens and starts the dump index, if a repository is set.
func (s *Serve) startIndex() (*repo.Index, error) {

	if s.Repository == "" {
		return nil, nil
	}

	dir := s.IndexDir
	if dir == "" {
		cache, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("no index directory given, and no cache dir: %v", err)
		}
		dir = filepath.Join(cache, "advuid", "index")
	}

	if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
		return nil, fmt.Errorf("cannot create index parent directory: %v", err)
	}

	index, err := repo.NewIndex(dir, s.Repository)
	if err != nil {
		return nil, fmt.Errorf("cannot open search index: %v", err)
	}

	if err := index.Start(); err != nil {
		index.Stop()
		return nil, fmt.Errorf("cannot start search index: %v", err)
	}

	return index, nil
}
