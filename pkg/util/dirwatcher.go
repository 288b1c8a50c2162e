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

package util

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

/*
	NewDirWatcher creates a new recursive file system watcher that will watch
	for changes in the directory tree rooted in dir. When new directories are
	added to that tree, they will be included in the watch. Only events for
	files accepted by filter are passed on. A nil filter accepts all files.
	The watcher will not start until the Start method has been called.
*/
func NewDirWatcher(dir string, filter func(path string) bool) (*DirWatcher, error) {

	ret := &DirWatcher{
		filter:  filter,
		release: make(chan bool),
	}

	var err error
	if ret.watcher, err = fsnotify.NewWatcher(); err != nil {
		return nil, err
	}

	if err := filepath.Walk(dir, ret.addDirWalking); err != nil {
		log.Errorf("error walking directory '%s': %v", dir, err)
		ret.watcher.Close()
		return nil, err
	}

	return ret, nil
}

//
type DirWatcher struct {
	watcher *fsnotify.Watcher
	filter  func(path string) bool
	release chan bool
	//
	mu      sync.Mutex
	running bool
}

/*
	Start starts this directory watcher. Whenever there is a change to an
	accepted file in the directory tree, the handler function will be called.

	After each change, a timer is set to expire after backoff time. If there
	were no further changes by the time the timer expires, the flush function
	will be called. Handler and flush are called from the same go routine, so
	the client does not have to be thread safe.
*/
func (dw *DirWatcher) Start(backoff time.Duration,
	handler func(fsnotify.Event) error, flush func() error) error {

	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.watcher == nil {
		return fmt.Errorf("directory watcher not initialized or stopped")
	}

	if dw.running {
		return fmt.Errorf("directory watcher already started")
	}

	dw.running = true
	go dw.watch(dw.watcher, backoff, handler, flush)

	return nil
}

//
func (dw *DirWatcher) watch(w *fsnotify.Watcher, backoff time.Duration,
	handler func(fsnotify.Event) error, flush func() error) {

	timer := time.NewTimer(backoff)
	timer.Stop()
	pending := false

	for {
		select {

		case evt, ok := <-w.Events:

			if !ok {
				log.Debug("directory watcher routine exiting")
				timer.Stop()
				dw.release <- true
				return
			}

			if !dw.handleEvent(evt) {
				continue
			}

			if err := handler(evt); err != nil {
				log.Errorf("error in watch event handler: %v", err)
			}
			timer.Stop()
			timer.Reset(backoff)
			pending = true

		case err, ok := <-w.Errors:
			if ok {
				log.Errorf("directory watcher error: %v", err)
			}

		case <-timer.C:
			if pending {
				pending = false
				if err := flush(); err != nil {
					log.Errorf("error flushing: %v", err)
				}
			}
		}
	}
}

/*
	Stop signals this directory watcher to stop, and waits until it has stopped.
	A stopped directory watcher cannot be started again.
*/
func (dw *DirWatcher) Stop() {

	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.watcher == nil {
		return
	}

	log.Info("closing directory watcher")
	if err := dw.watcher.Close(); err != nil {
		log.Errorf("could not close file watcher: %v", err)
	}
	if dw.running {
		<-dw.release
		dw.running = false
	}
	dw.watcher = nil
}

// handleEvent extends the watch to new directories, and reports whether the
// event is to be passed on.
func (dw *DirWatcher) handleEvent(evt fsnotify.Event) bool {

	log.WithFields(
		log.Fields{"path": evt.Name, "op": evt.Op}).Trace("handling event")

	if evt.Op&fsnotify.Create != 0 {
		if info, err := os.Lstat(evt.Name); err == nil && info.IsDir() {
			dw.addDir(evt.Name, info)
			return false
		}
	}

	return dw.filter == nil || dw.filter(evt.Name)
}

//
func (dw *DirWatcher) addDirWalking(
	path string, info os.FileInfo, err error) error {
	if err != nil {
		return err
	}
	return dw.addDir(path, info)
}

//
func (dw *DirWatcher) addDir(path string, info os.FileInfo) error {

	if !info.Mode().IsDir() {
		return nil
	}

	if err := dw.watcher.Add(path); err != nil {
		log.Errorf("error adding watch for directory '%s': %v", path, err)
		return err
	}

	log.WithField("path", path).Debug("starting directory watch")
	return nil
}
