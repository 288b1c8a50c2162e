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

package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/ebfe/scard"
	log "github.com/sirupsen/logrus"
)

// statusWait is how long a single wait for a reader state change may take
const statusWait = 500 * time.Millisecond

// OpenScanner establishes a PC/SC context.
func OpenScanner() (*Scanner, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("failed to establish PC/SC context: %w", err)
	}
	return &Scanner{ctx: ctx}, nil
}

// Scanner reads UIDs from tags presented to a PC/SC reader.
type Scanner struct {
	ctx *scard.Context
}

// Readers lists the names of all connected readers.
func (s *Scanner) Readers() ([]string, error) {
	readers, err := s.ctx.ListReaders()
	if err != nil {
		return nil, fmt.Errorf("failed to list readers: %w", err)
	}
	return readers, nil
}

// Capture waits until a tag is presented to reader, and reads its UID. An
// empty reader name selects the first reader found.
func (s *Scanner) Capture(ctx context.Context, reader string) (*Capture, error) {

	if reader == "" {
		readers, err := s.Readers()
		if err != nil {
			return nil, err
		}
		if len(readers) == 0 {
			return nil, ErrNoReader
		}
		reader = readers[0]
	}

	logger := log.WithField("reader", reader)
	logger.Info("waiting for tag")

	if err := s.waitForCard(ctx, reader); err != nil {
		return nil, err
	}

	card, err := s.ctx.Connect(reader, scard.ShareShared, scard.ProtocolAny)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to card: %w", err)
	}
	defer card.Disconnect(scard.LeaveCard)

	var atr []byte
	if status, err := card.Status(); err == nil {
		atr = status.Atr
	} else {
		logger.Warnf("cannot get card status: %v", err)
	}

	id, err := ReadUID(card)
	if err != nil {
		return nil, err
	}

	ret := NewCapture(reader, id, atr)
	logger.WithFields(log.Fields{
		"uid": ret.HexUID(), "tech": ret.Tech}).Info("tag captured")

	return ret, nil
}

//
func (s *Scanner) waitForCard(ctx context.Context, reader string) error {

	rs := []scard.ReaderState{{Reader: reader, CurrentState: scard.StateUnaware}}

	for {
		select {
		case <-ctx.Done():
			return ErrNoCard
		default:
		}

		if err := s.ctx.GetStatusChange(rs, statusWait); err != nil {
			if err != scard.ErrTimeout {
				log.Debugf("status change: %v", err)
				time.Sleep(statusWait)
			}
			continue
		}

		st := rs[0].EventState
		rs[0].CurrentState = st

		if st&scard.StatePresent != 0 {
			return nil
		}
	}
}

//
func (s *Scanner) Close() error {
	return s.ctx.Release()
}
