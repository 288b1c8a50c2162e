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

package control

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/advuid/pkg/listener"
	"github.com/xelalexv/advuid/pkg/machine"
	"github.com/xelalexv/advuid/pkg/repo"
)

// NewAPIServer creates the control API server for the given control loop.
// index may be nil, in which case searching is not available.
func NewAPIServer(addr string, l *machine.Loop, svc listener.Service,
	index *repo.Index, repository string) *APIServer {

	a := &api{
		loop:       l,
		service:    svc,
		index:      index,
		repository: repository,
	}

	return &APIServer{
		address: addr,
		api:     a,
		server: &http.Server{
			Addr:              addr,
			Handler:           a.router(),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

//
type APIServer struct {
	address string
	api     *api
	server  *http.Server
}

// Serve runs the API server until ctx is done.
func (s *APIServer) Serve(ctx context.Context) error {

	errs := make(chan error, 1)

	go func() {
		log.WithField("address", s.address).Info("API server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
		close(errs)
	}()

	select {
	case <-ctx.Done():
		log.Info("API server shutting down")
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdown)
	case err := <-errs:
		return err
	}
}

//
func (s *APIServer) Handler() http.Handler {
	return s.server.Handler
}

//
type api struct {
	loop       *machine.Loop
	service    listener.Service
	index      *repo.Index
	repository string
}

//
func (a *api) router() *mux.Router {

	r := mux.NewRouter()

	r.HandleFunc("/status", a.status).Methods("GET")
	r.HandleFunc("/key/{key}", a.key).Methods("PUT")
	r.HandleFunc("/load", a.load).Methods("PUT")
	r.HandleFunc("/profiles", a.profiles).Methods("GET")
	r.HandleFunc("/search", a.search).Methods("GET")
	r.HandleFunc("/version", a.version).Methods("GET")

	r.Use(logRequests)
	return r
}

//
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		log.WithFields(log.Fields{
			"method": req.Method,
			"path":   req.URL.Path}).Debug("API request")
		next.ServeHTTP(w, req)
	})
}

//
func getArg(req *http.Request, arg string) string {
	if v, ok := mux.Vars(req)[arg]; ok {
		return v
	}
	return req.URL.Query().Get(arg)
}

//
func getIntArg(req *http.Request, arg string, def int) (int, error) {
	if v := getArg(req, arg); v != "" {
		ret, err := strconv.Atoi(v)
		if err != nil {
			return def, fmt.Errorf("invalid value for %s: %v", arg, err)
		}
		return ret, nil
	}
	return def, nil
}

//
func isFlagSet(req *http.Request, flag string) bool {
	v := strings.ToLower(getArg(req, flag))
	return v == "true" || v == "1" || v == "yes"
}

//
func wantsJSON(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Accept"), "application/json")
}

//
func handleError(e error, statusCode int, w http.ResponseWriter) bool {
	if e == nil {
		return false
	}
	log.Errorf("%v", e)
	sendReply([]byte(e.Error()), statusCode, w)
	return true
}

//
func sendReply(body []byte, statusCode int, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		log.Errorf("problem writing response body: %v", err)
	}
}

//
func sendJSONReply(obj interface{}, statusCode int, w http.ResponseWriter) {
	body, err := json.Marshal(obj)
	if handleError(err, http.StatusInternalServerError, w) {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		log.Errorf("problem writing response body: %v", err)
	}
}

//
func sendStreamReply(r io.Reader, statusCode int, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := io.Copy(w, r); err != nil {
		log.Errorf("problem writing response body: %v", err)
	}
}
