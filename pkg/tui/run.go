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

package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/advuid/pkg/dump"
	"github.com/xelalexv/advuid/pkg/machine"
	"github.com/xelalexv/advuid/pkg/notify"
	"github.com/xelalexv/advuid/pkg/repo"
)

// Controller is what the terminal UI drives. It is implemented by
// machine.Loop.
type Controller interface {
	Input(ctx context.Context, k machine.Key) error
	Load(ctx context.Context, src dump.Source) error
	Snapshot() machine.Snapshot
	Done() <-chan struct{}
}

// Library is a searchable dump collection. It is implemented by repo.Index.
type Library interface {
	Search(term string, max int) (*repo.SearchResult, error)
	Repository() string
}

// Config holds what the UI needs besides the controller. All fields are
// optional.
type Config struct {
	Library Library
	// Dir is where the file picker starts
	Dir string
	// Signals shows the feedback signals of the machine in the status bar
	Signals <-chan notify.Signal
}

// Run shows the UI until the operator quits or the controller's loop ends.
func Run(ctl Controller, cfg Config) error {

	log.Debug("starting terminal UI")

	program := tea.NewProgram(NewModel(ctl, cfg), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("terminal UI failed: %v", err)
	}

	log.Debug("terminal UI closed")
	return nil
}
