package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/roamdb/roamdb/store"
)

// maxBodySize caps request bodies; entity documents are a few hundred bytes.
const maxBodySize = 1 << 20

// Store is the store surface the API serves. The concrete *store.Store
// satisfies it; tests may substitute their own.
type Store interface {
	AddUser(store.User) error
	GetUser(id uint32) (store.User, error)
	UpdateUser(id uint32, patch store.UserPatch) error

	AddLocation(store.Location) error
	GetLocation(id uint32) (store.Location, error)
	UpdateLocation(id uint32, patch store.LocationPatch) error

	AddVisit(store.Visit) error
	GetVisit(id uint32) (store.Visit, error)
	UpdateVisit(id uint32, patch store.VisitPatch) error

	UserVisits(id uint32, filter store.VisitFilter) (store.UserVisits, error)
	LocationAvg(id uint32, filter store.AvgFilter) (store.LocationAvg, error)
}

// --- Reads ---

func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeStatus(w, http.StatusNotFound)
		return
	}
	u, err := a.store.GetUser(id)
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	a.writeJSON(w, u)
}

func (a *API) getLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeStatus(w, http.StatusNotFound)
		return
	}
	l, err := a.store.GetLocation(id)
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	a.writeJSON(w, l)
}

func (a *API) getVisit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeStatus(w, http.StatusNotFound)
		return
	}
	v, err := a.store.GetVisit(id)
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	a.writeJSON(w, v)
}

func (a *API) getUserVisits(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeStatus(w, http.StatusNotFound)
		return
	}
	filter, err := visitFilterFromQuery(r.URL.Query())
	if err != nil {
		writeStatus(w, http.StatusBadRequest)
		return
	}
	visits, err := a.store.UserVisits(id, filter)
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	a.writeJSON(w, visits)
}

func (a *API) getLocationAvg(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeStatus(w, http.StatusNotFound)
		return
	}
	filter, err := avgFilterFromQuery(r.URL.Query())
	if err != nil {
		writeStatus(w, http.StatusBadRequest)
		return
	}
	avg, err := a.store.LocationAvg(id, filter)
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	a.writeJSON(w, avg)
}

// --- Writes ---

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	body, ok := a.readBody(w, r)
	if !ok {
		return
	}
	u, err := decodeUser(body)
	if err != nil {
		writeStatus(w, http.StatusBadRequest)
		return
	}
	if err := a.store.AddUser(u); err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	a.writeJSON(w, struct{}{})
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeStatus(w, http.StatusNotFound)
		return
	}
	body, ok := a.readBody(w, r)
	if !ok {
		return
	}
	patch, err := decodeUserPatch(body)
	if err != nil {
		writeStatus(w, http.StatusBadRequest)
		return
	}
	if err := a.store.UpdateUser(id, patch); err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	a.writeJSON(w, struct{}{})
}

func (a *API) createLocation(w http.ResponseWriter, r *http.Request) {
	body, ok := a.readBody(w, r)
	if !ok {
		return
	}
	l, err := decodeLocation(body)
	if err != nil {
		writeStatus(w, http.StatusBadRequest)
		return
	}
	if err := a.store.AddLocation(l); err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	a.writeJSON(w, struct{}{})
}

func (a *API) updateLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeStatus(w, http.StatusNotFound)
		return
	}
	body, ok := a.readBody(w, r)
	if !ok {
		return
	}
	patch, err := decodeLocationPatch(body)
	if err != nil {
		writeStatus(w, http.StatusBadRequest)
		return
	}
	if err := a.store.UpdateLocation(id, patch); err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	a.writeJSON(w, struct{}{})
}

func (a *API) createVisit(w http.ResponseWriter, r *http.Request) {
	body, ok := a.readBody(w, r)
	if !ok {
		return
	}
	v, err := decodeVisit(body)
	if err != nil {
		writeStatus(w, http.StatusBadRequest)
		return
	}
	if err := a.store.AddVisit(v); err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	a.writeJSON(w, struct{}{})
}

func (a *API) updateVisit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeStatus(w, http.StatusNotFound)
		return
	}
	body, ok := a.readBody(w, r)
	if !ok {
		return
	}
	patch, err := decodeVisitPatch(body)
	if err != nil {
		writeStatus(w, http.StatusBadRequest)
		return
	}
	if err := a.store.UpdateVisit(id, patch); err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	a.writeJSON(w, struct{}{})
}

// --- Plumbing ---

// pathID parses the {id} path segment. A non-numeric id means the path
// names no resource, which is a 404, not a 400.
func pathID(r *http.Request) (uint32, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(id), true
}

func (a *API) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeStatus(w, http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

func (a *API) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Error("encoding response", "error", err)
	}
}

func writeStatus(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
}

// writeStoreError maps store errors to status codes. Validation and
// duplicate-id failures are client errors; consistency faults and a failed
// store are server-side and logged, never presented as client mistakes.
func (a *API) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeStatus(w, http.StatusNotFound)
	case errors.Is(err, store.ErrAlreadyExists), errors.Is(err, store.ErrInvalid):
		writeStatus(w, http.StatusBadRequest)
	default:
		a.logger.Error("store failure",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeStatus(w, http.StatusInternalServerError)
	}
}
