package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/matzehuels/partscout/pkg/errors"
	"github.com/matzehuels/partscout/pkg/part"
	"github.com/matzehuels/partscout/pkg/supplier"
)

type suppliersResponse struct {
	Available []supplierInfo `json:"available"`
}

type supplierInfo struct {
	supplier.Identity
	Loaded bool `json:"loaded"`
}

func (s *Server) listSuppliers(w http.ResponseWriter, r *http.Request) {
	loaded := s.reg.Loaded()
	resp := suppliersResponse{Available: []supplierInfo{}}
	for _, id := range s.reg.Available() {
		_, ok := loaded[id.ID]
		resp.Available = append(resp.Available, supplierInfo{Identity: id, Loaded: ok})
	}
	writeJSON(w, http.StatusOK, resp)
}

type searchResponse struct {
	ID      uuid.UUID        `json:"id"`
	Term    string           `json:"term"`
	Results []supplierResult `json:"results"`
}

type supplierResult struct {
	Supplier supplier.Identity `json:"supplier"`
	Company  int               `json:"company,omitempty"`
	Total    int               `json:"total"`
	Parts    []part.Part       `json:"parts"`
	Error    *errorBody        `json:"error,omitempty"`
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	term := q.Get("q")
	if err := errors.ValidateSearchTerm(term); err != nil {
		writeError(w, err)
		return
	}

	limit := s.maxResults
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid limit %q", raw))
			return
		}
		limit = n
	}

	only, _ := strconv.ParseBool(q.Get("only"))
	route := supplier.Route{SupplierID: q.Get("supplier"), Only: only}
	if route.Only && route.SupplierID == "" {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "only requires a supplier"))
		return
	}

	handles, err := s.disp.Search(r.Context(), term, route)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.searchTimeout)
	defer cancel()

	resp := searchResponse{ID: uuid.New(), Term: term, Results: make([]supplierResult, 0, len(handles))}
	for _, h := range handles {
		sr := supplierResult{Supplier: h.Supplier, Company: h.Company.PK, Parts: []part.Part{}}
		res, err := h.Result(ctx)
		switch {
		case err == nil:
			sr.Total = res.Total
			sr.Parts = capParts(res.Parts, limit)
		case ctx.Err() != nil && !h.Ready():
			sr.Error = &errorBody{Code: errors.ErrCodeTimeout, Message: "supplier did not answer in time"}
		default:
			sr.Error = &errorBody{Code: codeOf(err), Message: errors.UserMessage(err)}
		}
		resp.Results = append(resp.Results, sr)
	}
	writeJSON(w, http.StatusOK, resp)
}

func capParts(parts []part.Part, limit int) []part.Part {
	if parts == nil {
		return []part.Part{}
	}
	if limit > 0 && len(parts) > limit {
		return parts[:limit]
	}
	return parts
}

func codeOf(err error) errors.Code {
	if code := errors.GetCode(err); code != "" {
		return code
	}
	return errors.ErrCodeInternal
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidTerm, errors.ErrCodeInvalidSupplier:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeSupplierNotFound:
		return http.StatusNotFound
	case errors.ErrCodeNotReady:
		return http.StatusServiceUnavailable
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := codeOf(err)
	writeJSON(w, statusFor(code), map[string]errorBody{
		"error": {Code: code, Message: errors.UserMessage(err)},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
