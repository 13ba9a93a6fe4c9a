package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bayesavg/internal/domain"
	averaginguc "github.com/kailas-cloud/bayesavg/internal/usecase/averaging"
	ensembleuc "github.com/kailas-cloud/bayesavg/internal/usecase/ensemble"
	fituc "github.com/kailas-cloud/bayesavg/internal/usecase/fit"
	healthuc "github.com/kailas-cloud/bayesavg/internal/usecase/health"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API over fits, ensembles and model averaging.
type Server struct {
	fits          *fituc.Service
	ensembles     *ensembleuc.Service
	averaging     *averaginguc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	validate      *validator.Validate
	maxBodyBytes  int64
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. maxBodyBytes <= 0 disables the body limit.
func NewServer(
	fits *fituc.Service,
	ensembles *ensembleuc.Service,
	averaging *averaginguc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
	maxBodyBytes int64,
) *Server {
	s := &Server{
		fits:         fits,
		ensembles:    ensembles,
		averaging:    averaging,
		health:       health,
		logger:       logger,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		maxBodyBytes: maxBodyBytes,
	}
	s.errorHandlers = []errorHandler{
		insufficientDrawsHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, codeAlreadyExists),
		sentinelHandler(domain.ErrUnsamplableModel, http.StatusUnprocessableEntity, codeUnsamplableModel),
		sentinelHandler(domain.ErrSimulationFailed, http.StatusUnprocessableEntity, codeSimulationFailed),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeValidationFailed),
	}
	return s
}

// Mount registers the API routes on r.
func (s *Server) Mount(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/fits", func(r chi.Router) {
		r.Post("/", s.CreateFit)
		r.Get("/", s.ListFits)
		r.Get("/{id}", s.GetFit)
		r.Delete("/{id}", s.DeleteFit)
	})
	r.Route("/ensembles", func(r chi.Router) {
		r.Post("/", s.CreateEnsemble)
		r.Get("/", s.ListEnsembles)
		r.Get("/{name}", s.GetEnsemble)
		r.Delete("/{name}", s.DeleteEnsemble)
		r.Post("/{name}/average", s.AverageEnsemble)
	})
	r.Post("/average", s.Average)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthToResponse(report))
}

// decode reads a JSON body into dst and validates it. An empty body is accepted
// only when allowEmpty is set. Returns false after writing the error response.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	body := r.Body
	if s.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	}
	err := json.NewDecoder(body).Decode(dst)
	if errors.Is(err, io.EOF) && allowEmpty {
		err = nil
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, codeBadRequest,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	if fe.Param() != "" {
		return fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
}

func pageParams(r *http.Request) (cursor string, limit int, err error) {
	q := r.URL.Query()
	cursor = q.Get("cursor")
	limit = defaultPageSize
	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 || limit > maxPageSize {
			return "", 0, fmt.Errorf("limit must be between 1 and %d", maxPageSize)
		}
	}
	return cursor, limit, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-safe message without exposing internals.
// Validation failures carry their full chain since it describes the client's input.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidInput) {
		return err.Error()
	}
	var ue *domain.UnsamplableModelError
	if errors.As(err, &ue) {
		return ue.Error()
	}
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrInsufficientDraws,
		domain.ErrSimulationFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// insufficientDrawsHandler reports which model ran short and by how much.
func insufficientDrawsHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrInsufficientDraws) {
		return false
	}
	var ide *domain.InsufficientDrawsError
	if errors.As(err, &ide) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"code":      codeInsufficientDraws,
			"message":   ide.Error(),
			"model":     ide.Model,
			"requested": ide.Requested,
			"available": ide.Available,
		})
		return true
	}
	writeError(w, http.StatusUnprocessableEntity, codeInsufficientDraws, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
