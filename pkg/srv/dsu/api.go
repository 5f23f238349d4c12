/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

// go-dsu API
//
// # RESTful APIs to interact with go-dsu server
//
// Schemes: http
// Host: localhost:26761
// Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package dsu

import (
	"context"
	_ "embed"
	"encoding/json"
	"net/http"

	"github.com/go-openapi/loads"
	"github.com/go-openapi/runtime/middleware"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/octopoint/go-dsu/pkg/config"
	"github.com/octopoint/go-dsu/pkg/log"
	"github.com/octopoint/go-dsu/pkg/motion"
	"github.com/octopoint/go-dsu/pkg/session"
)

//go:embed swagger.json
var swaggerSpec []byte

// Controller is the part of the DSU server exposed through the API
type Controller interface {
	Status() Status
	SessionSnapshot() session.Snapshot
	PushMotion(sample motion.Sample)
}

// Resp is the body of responses that carry no data
type Resp struct {
	Code int `json:"code"`
}

type ApiServer struct {
	context.Context
	*config.Config
	*mux.Router
	doc  *loads.Document
	ctrl Controller
}

func NewApiServer(ctx context.Context, cfg *config.Config, ctrl Controller) (*ApiServer, error) {
	log.Debug("Initializing API server with address: %s", cfg.ApiAddr())

	doc, err := loads.Analyzed(swaggerSpec, "")
	if err != nil {
		return nil, err
	}

	s := &ApiServer{
		Context: ctx,
		Config:  cfg,
		doc:     doc,
		ctrl:    ctrl,
	}
	s.configureRouter()
	return s, nil
}

// Handler is the router wrapped with access logging and panic recovery
func (s *ApiServer) Handler() http.Handler {
	return handlers.LoggingHandler(log.Writer(), handlers.RecoveryHandler()(s.Router))
}

// Run serves the API until the context is done
func (s *ApiServer) Run() error {
	log.Info("Starting API server: address: %s", s.Config.ApiAddr())
	httpServer := &http.Server{
		Handler: s.Handler(),
		Addr:    s.Config.ApiAddr(),
	}
	go func() {
		<-s.Done()
		if err := httpServer.Shutdown(context.Background()); err != nil {
			log.Warning("Error while shutting down API server: %s", err)
		}
	}()
	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *ApiServer) configureRouter() {
	s.Router = mux.NewRouter()
	subRouter := s.Router.PathPrefix("/api").Subrouter()
	// swagger:operation GET /status status
	// ---
	// summary: server state, packet counter and accumulated rotation
	subRouter.HandleFunc("/status", s.handleStatus()).Methods("GET")
	// swagger:operation GET /session session
	// ---
	// summary: the client that receives motion reports
	subRouter.HandleFunc("/session", s.handleSession()).Methods("GET")
	// swagger:operation POST /motion motion
	// ---
	// summary: push a motion sample to the motion driver
	subRouter.HandleFunc("/motion", s.handleMotion()).Methods("POST")
	s.Router.HandleFunc("/swagger.json", s.handleSwagger()).Methods("GET")
	s.Router.Handle("/docs", middleware.Redoc(middleware.RedocOpts{
		Path:    "docs",
		SpecURL: "/swagger.json",
		Title:   s.doc.Spec().Info.Title,
	}, http.NotFoundHandler())).Methods("GET")
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Error while encoding response: %s", err)
	}
}

func (s *ApiServer) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Handling status request")
		writeJSON(w, http.StatusOK, s.ctrl.Status())
	}
}

func (s *ApiServer) handleSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Handling session request")
		writeJSON(w, http.StatusOK, s.ctrl.SessionSnapshot())
	}
}

func (s *ApiServer) handleMotion() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sample := &motion.Sample{}
		if err := json.NewDecoder(r.Body).Decode(sample); err != nil {
			log.Debug("Bad motion request: %s", err)
			writeJSON(w, http.StatusBadRequest, &Resp{Code: http.StatusBadRequest})
			return
		}
		log.Debug("Handling motion request: rotation: %+v left: %t right: %t",
			sample.Rotation, sample.Left, sample.Right)
		s.ctrl.PushMotion(*sample)
		writeJSON(w, http.StatusOK, &Resp{Code: http.StatusOK})
	}
}

func (s *ApiServer) handleSwagger() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(s.doc.Raw())
	}
}
