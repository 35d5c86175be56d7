// Copyright (c) 2019 Cisco and/or its affiliates.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at:
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package negotiation

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ligato/cn-infra/logging"
	"github.com/pkg/errors"
	"github.com/unrolled/render"

	"github.com/contiv/l2handler/plugins/ipam"
	"github.com/contiv/l2handler/plugins/negotiation/restapi"
	"github.com/contiv/l2handler/plugins/provisioner"
)

// maximum accepted size of a request body
const maxRequestSize = 64 * 1024

// HandlerProvider returns the handler of one REST API.
type HandlerProvider func(formatter *render.Render) http.HandlerFunc

// HTTPHandlers allows to register handlers of REST APIs.
type HTTPHandlers interface {
	RegisterHTTPHandler(path string, provider HandlerProvider, methods ...string) *mux.Route
	RegisterHandler(path string, handler http.Handler, methods ...string) *mux.Route
}

// Server routes the REST APIs of the agent.
type Server struct {
	Log logging.Logger

	router    *mux.Router
	formatter *render.Render
}

// NewServer returns a new server with no handlers registered.
func NewServer(log logging.Logger) *Server {
	return &Server{
		Log:       log,
		router:    mux.NewRouter(),
		formatter: render.New(render.Options{IndentJSON: true}),
	}
}

// RegisterHTTPHandler registers the handler returned by the provider.
func (s *Server) RegisterHTTPHandler(path string, provider HandlerProvider, methods ...string) *mux.Route {
	route := s.router.HandleFunc(path, provider(s.formatter))
	if len(methods) > 0 {
		route = route.Methods(methods...)
	}
	return route
}

// RegisterHandler registers a plain http handler.
func (s *Server) RegisterHandler(path string, handler http.Handler, methods ...string) *mux.Route {
	route := s.router.Handle(path, handler)
	if len(methods) > 0 {
		route = route.Methods(methods...)
	}
	return route
}

// ServeHTTP dispatches the request to the registered handlers.
func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.router.ServeHTTP(w, req)
}

// RegisterHandlers registers the negotiation REST APIs of the responder and the initiator.
// The initiator may be nil, in which case negotiations can be only served, not started.
func RegisterHandlers(log logging.Logger, handlers HTTPHandlers, responder *Responder, initiator *Initiator) {
	if handlers == nil {
		log.Warn("No http handler provided, skipping registration of negotiation REST handlers")
		return
	}
	h := &restHandlers{log: log, responder: responder, initiator: initiator}

	handlers.RegisterHTTPHandler(restapi.RestURLHandleNegotiation, h.handleNegotiationHandler, "POST")
	log.Infof("Negotiation REST handler registered: POST %v", restapi.RestURLHandleNegotiation)

	handlers.RegisterHTTPHandler(restapi.RestURLInventory, h.inventoryGetHandler, "GET")
	log.Infof("Inventory REST handler registered: GET %v", restapi.RestURLInventory)

	if initiator != nil {
		handlers.RegisterHTTPHandler(restapi.RestURLStartNegotiation, h.startNegotiationHandler, "POST")
		log.Infof("Negotiation REST handler registered: POST %v", restapi.RestURLStartNegotiation)
	}
}

type restHandlers struct {
	log       logging.Logger
	responder *Responder
	initiator *Initiator
}

// handleNegotiationHandler is the POST handler serving proposals of the peers.
func (h *restHandlers) handleNegotiationHandler(formatter *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		negReq := &restapi.NegotiationRequest{}
		if err := decodeBody(w, req, negReq); err != nil {
			h.log.Warnf("Malformed negotiation request: %v", err)
			formatter.JSON(w, http.StatusBadRequest, restapi.ErrorReply{Error: err.Error()})
			return
		}

		reply, err := h.responder.HandleNegotiation(req.Context(), negReq)
		if err != nil {
			writeError(formatter, w, err)
			return
		}
		formatter.JSON(w, http.StatusOK, reply)
	}
}

// startNegotiationHandler is the POST handler which starts negotiation with a peer.
func (h *restHandlers) startNegotiationHandler(formatter *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		remote := &restapi.RemoteAgent{}
		if err := decodeBody(w, req, remote); err != nil {
			formatter.JSON(w, http.StatusBadRequest, restapi.ErrorReply{Error: err.Error()})
			return
		}
		if remote.Endpoint == "" {
			formatter.JSON(w, http.StatusBadRequest, restapi.ErrorReply{Error: "missing endpoint"})
			return
		}

		reply, err := h.initiator.StartNegotiation(req.Context(), remote.Endpoint)
		if err != nil {
			writeError(formatter, w, err)
			return
		}
		formatter.JSON(w, http.StatusOK, reply)
	}
}

// inventoryGetHandler is the GET handler for the local inventory.
func (h *restHandlers) inventoryGetHandler(formatter *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		h.log.Debug("Getting inventory data")

		snapshot := h.responder.Inventory.Snapshot()
		data := restapi.InventoryData{
			CIDRs:         h.responder.Inventory.BlockStrings(),
			P2PSubnets:    snapshot.P2PSubnets.Count().String(),
			InterfaceName: snapshot.InterfaceName,
		}
		if snapshot.AdvertisedNetwork != nil {
			data.AdvertisedNetwork = snapshot.AdvertisedNetwork.String()
		}
		formatter.JSON(w, http.StatusOK, data)
	}
}

// decodeBody reads JSON body of the request into the given value.
func decodeBody(w http.ResponseWriter, req *http.Request, value interface{}) error {
	if req.Body == nil {
		return errors.New("missing request body")
	}
	decoder := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxRequestSize))
	if err := decoder.Decode(value); err != nil {
		return errors.Wrap(err, "failed to decode request body")
	}
	return nil
}

// writeError replies with the HTTP status matching the kind of the error.
func writeError(formatter *render.Render, w http.ResponseWriter, err error) {
	status, reply := errorReply(err)
	formatter.JSON(w, status, reply)
}

func errorReply(err error) (int, restapi.ErrorReply) {
	reply := restapi.ErrorReply{Error: err.Error()}

	switch cause := errors.Cause(err).(type) {
	case *ipam.InvalidBlockError, *InvalidEndpointError:
		return http.StatusBadRequest, reply
	case *provisioner.ProvisioningError:
		reply.FailedStep = string(cause.Step)
		for _, step := range cause.Applied {
			reply.AppliedSteps = append(reply.AppliedSteps, string(step))
		}
		return http.StatusInternalServerError, reply
	case *TransportError:
		if cause.NoCommonSubnet() {
			reply.Error = noCommonSubnetMsg
			return http.StatusNotFound, reply
		}
		return http.StatusBadGateway, reply
	}
	if errors.Cause(err) == ErrNoCommonSubnet {
		reply.Error = noCommonSubnetMsg
		return http.StatusNotFound, reply
	}
	return http.StatusInternalServerError, reply
}
