package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	domfit "github.com/kailas-cloud/bayesavg/internal/domain/fit"
	averaginguc "github.com/kailas-cloud/bayesavg/internal/usecase/averaging"
)

// CreateFit handles POST /fits.
func (s *Server) CreateFit(w http.ResponseWriter, r *http.Request) {
	var req fitRequest
	if !s.decode(w, r, &req, false) {
		return
	}

	var (
		f   domfit.Fit
		err error
	)
	if domfit.Kind(req.Kind) == domfit.KindSampled {
		params, tbl, algo, perr := sampledParts(req)
		if perr != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, perr.Error())
			return
		}
		f, err = s.fits.CreateSampled(r.Context(), req.ID, params, tbl, algo)
	} else {
		f, err = s.fits.CreateSimulated(r.Context(), req.ID, paramsFromDTO(req.Parameters), req.Estimates, req.Covariance)
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/fits/"+f.ID())
	writeJSON(w, http.StatusCreated, fitToDTO(f))
}

// ListFits handles GET /fits.
func (s *Server) ListFits(w http.ResponseWriter, r *http.Request) {
	cursor, limit, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	fits, err := s.fits.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]fitResponse, len(fits))
	for i, f := range fits {
		items[i] = fitToDTO(f)
	}
	writeJSON(w, http.StatusOK, paginate(items, func(f fitResponse) string { return f.ID }, cursor, limit))
}

// GetFit handles GET /fits/{id}.
func (s *Server) GetFit(w http.ResponseWriter, r *http.Request) {
	f, err := s.fits.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fitToDTO(f))
}

// DeleteFit handles DELETE /fits/{id}.
func (s *Server) DeleteFit(w http.ResponseWriter, r *http.Request) {
	if err := s.fits.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateEnsemble handles POST /ensembles.
func (s *Server) CreateEnsemble(w http.ResponseWriter, r *http.Request) {
	var req ensembleRequest
	if !s.decode(w, r, &req, false) {
		return
	}

	e, err := s.ensembles.Create(r.Context(), req.Name, req.Models, req.BayesFactors, req.PriorOdds)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/ensembles/"+e.Name())
	writeJSON(w, http.StatusCreated, ensembleToDTO(e))
}

// ListEnsembles handles GET /ensembles.
func (s *Server) ListEnsembles(w http.ResponseWriter, r *http.Request) {
	cursor, limit, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	list, err := s.ensembles.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]ensembleResponse, len(list))
	for i, e := range list {
		items[i] = ensembleToDTO(e)
	}
	writeJSON(w, http.StatusOK, paginate(items, func(e ensembleResponse) string { return e.Name }, cursor, limit))
}

// GetEnsemble handles GET /ensembles/{name}.
func (s *Server) GetEnsemble(w http.ResponseWriter, r *http.Request) {
	e, err := s.ensembles.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ensembleToDTO(e))
}

// DeleteEnsemble handles DELETE /ensembles/{name}.
func (s *Server) DeleteEnsemble(w http.ResponseWriter, r *http.Request) {
	if err := s.ensembles.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AverageEnsemble handles POST /ensembles/{name}/average. The body is optional.
func (s *Server) AverageEnsemble(w http.ResponseWriter, r *http.Request) {
	var req averageOptions
	if !s.decode(w, r, &req, true) {
		return
	}
	opts, err := optionsFromDTO(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	res, err := s.averaging.AverageEnsemble(r.Context(), chi.URLParam(r, "name"), opts)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultToDTO(res))
}

// Average handles POST /average over inline fits that are not stored.
func (s *Server) Average(w http.ResponseWriter, r *http.Request) {
	var req averageRequest
	if !s.decode(w, r, &req, false) {
		return
	}
	opts, err := optionsFromDTO(req.Options)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	fits := make([]domfit.Fit, len(req.Fits))
	for i, fr := range req.Fits {
		if fits[i], err = inlineFit(fr, i); err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, fmt.Sprintf("fits[%d]: %v", i, err))
			return
		}
	}

	res, err := s.averaging.WeightedPosteriors(r.Context(), averaginguc.Request{
		Fits:         fits,
		BayesFactors: req.BayesFactors,
		Options:      opts,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultToDTO(res))
}
