// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/radicle-dev/radicle-registry/api/utils"
	"github.com/radicle-dev/radicle-registry/client"
	"github.com/radicle-dev/radicle-registry/registry"
)

// Registry exposes entity reads.
type Registry struct {
	ledger client.Ledger
}

// NewRegistry creates the entity read surface.
func NewRegistry(ledger client.Ledger) *Registry {
	return &Registry{ledger: ledger}
}

func (r *Registry) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := registry.ParseAccountID(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	acc, err := r.ledger.Account(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertAccount(acc))
}

func (r *Registry) handleGetUser(w http.ResponseWriter, req *http.Request) error {
	id, err := registry.NewID(mux.Vars(req)["id"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	user, err := r.ledger.User(id)
	if err != nil {
		return err
	}
	if user == nil {
		return utils.NotFound(errors.Errorf("user %q not found", id))
	}
	return utils.WriteJSON(w, convertUser(user))
}

func (r *Registry) handleGetOrg(w http.ResponseWriter, req *http.Request) error {
	id, err := registry.NewID(mux.Vars(req)["id"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	org, err := r.ledger.Org(id)
	if err != nil {
		return err
	}
	if org == nil {
		return utils.NotFound(errors.Errorf("org %q not found", id))
	}
	return utils.WriteJSON(w, convertOrg(org))
}

func (r *Registry) handleGetProject(w http.ResponseWriter, req *http.Request) error {
	vars := mux.Vars(req)
	org, err := registry.NewID(vars["org"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "org"))
	}
	name, err := registry.NewProjectName(vars["name"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "name"))
	}
	id := registry.ProjectID{Org: org, Name: name}
	project, err := r.ledger.Project(id)
	if err != nil {
		return err
	}
	if project == nil {
		return utils.NotFound(errors.Errorf("project %q not found", id))
	}
	return utils.WriteJSON(w, convertProject(project))
}

func (r *Registry) handleGetCheckpoint(w http.ResponseWriter, req *http.Request) error {
	id, err := registry.ParseHash(mux.Vars(req)["id"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	cp, err := r.ledger.Checkpoint(id)
	if err != nil {
		return err
	}
	if cp == nil {
		return utils.NotFound(errors.Errorf("checkpoint %v not found", id))
	}
	return utils.WriteJSON(w, convertCheckpoint(cp))
}

// Mount mounts the read routes under the path prefix.
func (r *Registry) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/accounts/{address}").Methods("GET").HandlerFunc(utils.WrapHandlerFunc(r.handleGetAccount))
	sub.Path("/users/{id}").Methods("GET").HandlerFunc(utils.WrapHandlerFunc(r.handleGetUser))
	sub.Path("/orgs/{id}").Methods("GET").HandlerFunc(utils.WrapHandlerFunc(r.handleGetOrg))
	sub.Path("/orgs/{org}/projects/{name}").Methods("GET").HandlerFunc(utils.WrapHandlerFunc(r.handleGetProject))
	sub.Path("/checkpoints/{id}").Methods("GET").HandlerFunc(utils.WrapHandlerFunc(r.handleGetCheckpoint))
}
