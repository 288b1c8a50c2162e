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
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/atotto/clipboard"

	"github.com/xelalexv/advuid/pkg/capture"
)

//
func NewCapture() *Capture {

	c := &Capture{}
	c.Runner = *NewRunner(
		`capture [-r|--reader {name}] [-w|--wait {duration}] [-c|--copy] [-o|--out {file}]
      [-l|--load [-a|--address {address}] [-y|--yes]]`,
		"read UID of a physical tag from a PC/SC reader",
		`
Use the capture command to read the UID of a tag presented to a PC/SC reader.
The captured UID can be copied to the clipboard, written to a dump file, or
loaded into the daemon right away.`,
		`  advuid capture --copy
  advuid capture -o keyfob.nfc
  advuid capture --load -y`,
		`- The technology is guessed from the ATR the reader reports, and from the
  UID length. FeliCa and ISO15693 tags are only recognized by readers that
  report them in a PC/SC part 3 ATR.

`+runnerHelpEpilogue, c.Run)

	c.AddBaseSettings()
	c.AddSetting(&c.Reader, "reader", "r", "", nil,
		"reader name; defaults to first reader found", false)
	c.AddSetting(&c.Wait, "wait", "w", "", 30*time.Second,
		"how long to wait for a tag", false)
	c.AddSetting(&c.Copy, "copy", "c", "", false, "copy UID to clipboard", false)
	c.AddSetting(&c.Out, "out", "o", "", nil, "write captured tag to dump file", false)
	c.AddSetting(&c.Load, "load", "l", "", false, "load captured tag into daemon", false)
	c.AddSetting(&c.Yes, "yes", "y", "", false, "skip confirmation", false)

	return c
}

//
type Capture struct {
	Runner
	//
	Reader string
	Wait   time.Duration
	Copy   bool
	Out    string
	Load   bool
	Yes    bool
}

//
func (c *Capture) Run() error {

	if err := c.ParseSettings(); err != nil {
		return err
	}

	scanner, err := capture.OpenScanner()
	if err != nil {
		return err
	}
	defer scanner.Close()

	ctx, cancel := context.WithTimeout(context.Background(), c.Wait)
	defer cancel()

	fmt.Println("\npresent tag to reader...")
	capt, err := scanner.Capture(ctx, c.Reader)
	if err != nil {
		return err
	}

	fmt.Printf("\ncaptured %s\n", capt)

	if c.Copy {
		if err := clipboard.WriteAll(capt.HexUID()); err != nil {
			return fmt.Errorf("cannot copy to clipboard: %v", err)
		}
		fmt.Println("UID copied to clipboard")
	}

	if c.Out != "" {
		if err := writeCapture(capt, c.Out); err != nil {
			return err
		}
		fmt.Printf("dump written to %s\n", c.Out)
	}

	if c.Load {
		if !c.Yes && !GetUserConfirmation(fmt.Sprintf(
			"\nload %s into daemon at %s?", capt.HexUID(), c.Address)) {
			return nil
		}
		return c.loadCapture(capt)
	}

	fmt.Println()
	return nil
}

//
func writeCapture(capt *capture.Capture, file string) error {

	f, err := os.Create(file)
	if err != nil {
		return err
	}

	if err := capt.Render(f); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

//
func (c *Capture) loadCapture(capt *capture.Capture) error {

	var buf bytes.Buffer
	if err := capt.Render(&buf); err != nil {
		return err
	}

	resp, err := c.apiCall("PUT",
		fmt.Sprintf("/load?name=%s", url.QueryEscape(capt.Source().Name())),
		false, &buf)
	if err != nil {
		return err
	}
	defer resp.Close()

	msg, err := io.ReadAll(resp)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n\n", msg)
	return nil
}
