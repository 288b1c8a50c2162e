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

package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/advuid/pkg/dump"
	"github.com/xelalexv/advuid/pkg/util"
)

//
const replaceChars = "`~!@#$%^&*_-+=()[]{}|;:',.<>?"

var nameCleaner *strings.Replacer

//
func init() {
	rep := make([]string, 2*len(replaceChars))
	for ix, c := range replaceChars {
		rep[ix*2] = string(c)
		rep[ix*2+1] = " "
	}
	nameCleaner = strings.NewReplacer(rep...)
}

// NewIndex opens the search index at base for the dump repository at repo,
// creating it if it does not exist yet.
func NewIndex(base, repo string) (*Index, error) {

	var err error
	i := &Index{backoff: 5 * time.Second}

	if i.base, err = filepath.Abs(base); err != nil {
		return nil, err
	}
	if i.repo, err = filepath.Abs(repo); err != nil {
		return nil, err
	}

	logger := log.WithFields(log.Fields{"base": i.base, "repo": i.repo})

	if _, err := os.Stat(i.base); err != nil {
		if os.IsNotExist(err) {
			logger.Info("creating new index")
			i.index, err = bleve.New(i.base, bleve.NewIndexMapping())
		}

		if err != nil {
			logger.Errorf("cannot create index: %v", err)
			return nil, err
		}

		logger.Info("new index created")
		i.empty = true

	} else {
		logger.Info("opening index")
		if i.index, err = bleve.Open(i.base); err != nil {
			logger.Errorf("cannot open index: %v", err)
			return nil, err
		}
		logger.Info("index opened")
	}

	i.batch = i.index.NewBatch()
	return i, nil
}

// Entry is the indexed document for a dump. The document ID is the path of
// the dump relative to the repository.
type Entry struct {
	Name       string
	UID        string
	Tech       string
	DeviceType string
}

// Index is a full text index over the dumps in a repository. Names, UIDs and
// device types are searchable.
type Index struct {
	base    string
	repo    string
	backoff time.Duration
	stopped bool
	//
	index   bleve.Index
	empty   bool
	watcher *util.DirWatcher
	//
	batch      *bleve.Batch
	batchCount int
}

// Repository returns the absolute path of the indexed repository.
func (i *Index) Repository() string {
	return i.repo
}

// Start brings the index up to date with the repository, and keeps it
// current by watching the repository for changes.
func (i *Index) Start() error {

	start := time.Now()
	log.Info("pruning index")
	if err := i.prune(); err != nil {
		return fmt.Errorf("error pruning index: %v", err)
	}
	log.WithField("duration", time.Since(start)).Info("index pruning finished")

	start = time.Now()
	log.Info("updating index")
	if err := i.update(); err != nil {
		return fmt.Errorf("error updating index: %v", err)
	}
	log.WithField("duration", time.Since(start)).Info("index update finished")

	if err := i.batched(true); err != nil {
		return err
	}

	if err := i.startWatching(); err != nil {
		return fmt.Errorf("error starting repo watcher: %v", err)
	}

	log.Info("index ready")
	return nil
}

//
func (i *Index) Stop() {

	i.stopped = true

	if i.watcher != nil {
		i.watcher.Stop()
	}

	if i.index != nil {
		i.index.Close()
	}
}

// prune removes entries whose dumps are gone.
func (i *Index) prune() error {

	if i.empty {
		return nil
	}

	ix, err := i.index.Advanced()
	if err != nil {
		return err
	}

	rd, err := ix.Reader()
	if err != nil {
		return err
	}
	defer rd.Close()

	docs, err := rd.DocIDReaderAll()
	if err != nil {
		return err
	}
	defer docs.Close()

	for {
		d, err := docs.Next()
		if err != nil {
			return err
		}
		if d == nil {
			return nil
		}
		id, err := rd.ExternalID(d)
		if err != nil {
			return err
		}
		if _, err := os.Stat(filepath.Join(i.repo, id)); os.IsNotExist(err) {
			i.removeEntry(id)
		}
	}
}

// update adds all dumps modified since the index was last written.
func (i *Index) update() error {

	var lastMod time.Time
	if !i.empty {
		if store, err := os.Stat(filepath.Join(i.base, "store")); err == nil {
			lastMod = store.ModTime()
			log.Debugf("last index mod time: %v", lastMod)
		}
	}

	i.empty = false

	return filepath.Walk(i.repo,

		func(path string, info os.FileInfo, err error) error {

			if i.stopped {
				return fmt.Errorf("forced exit")
			}

			if err != nil {
				log.WithField("path", path).Warnf("cannot walk: %v", err)
				return nil
			}

			if !info.IsDir() && IsDump(path) && info.ModTime().After(lastMod) {
				i.addEntry(i.makeRelative(path))
			}

			return nil
		})
}

//
func (i *Index) startWatching() error {
	log.Info("starting index repo watcher")
	var err error
	if i.watcher, err = util.NewDirWatcher(i.repo, IsDump); err != nil {
		return err
	}
	return i.watcher.Start(i.backoff, i.watchEvent, i.flushEvent)
}

//
func (i *Index) watchEvent(evt fsnotify.Event) error {

	rel := i.makeRelative(evt.Name)
	logger := log.WithFields(log.Fields{"path": rel, "op": evt.Op})
	logger.Debug("index update")

	switch {

	case evt.Op&(fsnotify.Create|fsnotify.Write) != 0:
		if info, err := os.Stat(evt.Name); err != nil {
			logger.Errorf("cannot add entry: %v", err)
		} else if !info.IsDir() {
			i.addEntry(rel)
		}

	case evt.Op&(fsnotify.Rename|fsnotify.Remove) != 0:
		i.removeEntry(rel)

	default:
		logger.Debug("no index update required")
	}

	return nil
}

//
func (i *Index) flushEvent() error {
	return i.batched(true)
}

// addEntry imports the dump at path and indexes what was found. Files that
// cannot be imported are left out.
func (i *Index) addEntry(path string) error {

	logger := log.WithField("path", path)

	src, err := NewFileSource(filepath.Join(i.repo, path))
	if err != nil {
		logger.Debugf("skipping file: %v", err)
		return nil
	}

	res, err := dump.Import(src)
	if err != nil {
		logger.Debugf("not a usable dump: %v", err)
		return nil
	}

	logger.Debug("adding new entry to index")

	if err := i.batch.Index(path, Entry{
		Name:       nameCleaner.Replace(path),
		UID:        res.UID,
		Tech:       res.Tech.Key(),
		DeviceType: res.DeviceType,
	}); err != nil {
		logger.Errorf("failed to batch entry add: %v", err)
		return err
	}

	return i.batched(false)
}

//
func (i *Index) removeEntry(path string) error {
	log.WithField("path", path).Debug("removing deleted entry from index")
	i.batch.Delete(path)
	return i.batched(false)
}

// After Start, add and remove are only ever called from the dir watcher, so
// the batch is not accessed concurrently.
func (i *Index) batched(flush bool) error {

	if i.batchCount++; flush || i.batchCount > 100 {
		log.Debug("flushing pending index actions")
		if err := i.index.Batch(i.batch); err != nil {
			log.Errorf("failed to execute index batch: %v", err)
			return err
		}
		i.batch = i.index.NewBatch()
		i.batchCount = 0
	}

	return nil
}

//
func (i *Index) makeRelative(path string) string {
	if len(path) > len(i.repo) && strings.HasPrefix(path, i.repo) {
		return filepath.ToSlash(path[len(i.repo)+1:])
	}
	return path
}
