package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	rollcallvoting "plenary/contexts/chamber-floor/roll-call-voting"
	"plenary/contexts/chamber-floor/roll-call-voting/application/commands"
	domainerrors "plenary/contexts/chamber-floor/roll-call-voting/domain/errors"
	chamberhttp "plenary/contexts/chamber-floor/roll-call-voting/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "plenary/internal/platform/httpserver/docs"
)

const apiPrefix = "/api/plenary/v1"

// maxBodyBytes bounds command payloads; the largest is a roster import.
const maxBodyBytes = 1 << 20

type Server struct {
	mux     *http.ServeMux
	logger  *slog.Logger
	addr    string
	chamber rollcallvoting.Module
	metrics http.Handler
}

// New builds the HTTP surface. metrics may be nil, in which case /metrics is
// not served.
func New(
	chamber rollcallvoting.Module,
	metrics http.Handler,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		addr:    addr,
		chamber: chamber,
		metrics: metrics,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("http server stopping",
			"event", "http_server_stopping",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"addr", s.addr,
		)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.mux.HandleFunc("GET "+apiPrefix+"/sessions", s.handleListSessions)
	s.mux.HandleFunc("POST "+apiPrefix+"/sessions", s.handlePrepareSession)
	s.mux.HandleFunc("GET "+apiPrefix+"/sessions/active", s.handleActiveSession)
	s.mux.HandleFunc("GET "+apiPrefix+"/sessions/{session_id}", s.handleSessionOverview)
	s.mux.HandleFunc("POST "+apiPrefix+"/sessions/{session_id}/start", s.handleStartSession)
	s.mux.HandleFunc("POST "+apiPrefix+"/sessions/{session_id}/pause", s.handlePauseSession)
	s.mux.HandleFunc("POST "+apiPrefix+"/sessions/{session_id}/resume", s.handleResumeSession)
	s.mux.HandleFunc("POST "+apiPrefix+"/sessions/{session_id}/close", s.handleCloseSession)
	s.mux.HandleFunc("GET "+apiPrefix+"/sessions/{session_id}/quorum", s.handleQuorum)
	s.mux.HandleFunc("GET "+apiPrefix+"/sessions/{session_id}/eligibility/{legislator_id}", s.handleEligibility)
	s.mux.HandleFunc("POST "+apiPrefix+"/sessions/{session_id}/roll-calls", s.handleCreateRollCall)

	s.mux.HandleFunc("GET "+apiPrefix+"/roll-calls/{roll_call_id}", s.handleAttendance)
	s.mux.HandleFunc("POST "+apiPrefix+"/roll-calls/{roll_call_id}/attendance", s.handleMarkAttendance)
	s.mux.HandleFunc("POST "+apiPrefix+"/roll-calls/{roll_call_id}/confirm", s.handleConfirmRollCall)

	s.mux.HandleFunc("POST "+apiPrefix+"/initiatives/{initiative_id}/activate", s.handleActivateInitiative)
	s.mux.HandleFunc("POST "+apiPrefix+"/initiatives/{initiative_id}/close", s.handleCloseInitiative)
	s.mux.HandleFunc("POST "+apiPrefix+"/initiatives/{initiative_id}/reopen", s.handleReopenInitiative)
	s.mux.HandleFunc("POST "+apiPrefix+"/initiatives/{initiative_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("GET "+apiPrefix+"/initiatives/{initiative_id}/tally", s.handleInitiativeTally)

	s.mux.HandleFunc("GET "+apiPrefix+"/legislators", s.handleListLegislators)
	s.mux.HandleFunc("POST "+apiPrefix+"/legislators", s.handleRegisterLegislators)
	s.mux.HandleFunc("PUT "+apiPrefix+"/legislators/{legislator_id}/active", s.handleSetLegislatorActive)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	resp, err := s.chamber.Handler.ListSessionsHandler(r.Context(), readerActor(r))
	if err != nil {
		writeChamberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePrepareSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req chamberhttp.PrepareSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.chamber.Handler.PrepareSessionHandler(r.Context(), actor, req)
	if err != nil {
		writeChamberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	resp, err := s.chamber.Handler.ActiveSessionHandler(r.Context(), readerActor(r))
	if err != nil {
		writeChamberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSessionOverview(w http.ResponseWriter, r *http.Request) {
	resp, err := s.chamber.Handler.SessionOverviewHandler(r.Context(), readerActor(r), r.PathValue("session_id"))
	if err != nil {
		writeChamberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req chamberhttp.StartSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.chamber.Handler.StartSessionHandler(r.Context(), actor, r.PathValue("session_id"), req)
	if err != nil {
		writeChamberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePauseSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req chamberhttp.PauseSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.chamber.Handler.PauseSessionHandler(r.Context(), actor, r.PathValue("session_id"), req)
	if err != nil {
		writeChamberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResumeSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.chamber.Handler.ResumeSessionHandler(r.Context(), actor, r.PathValue("session_id"))
	if err != nil {
		writeChamberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.chamber.Handler.CloseSessionHandler(r.Context(), actor, r.PathValue("session_id"))
	if err != nil {
		writeChamberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQuorum(w http.ResponseWriter, r *http.Request) {
	rule := r.URL.Query().Get("rule")
	resp, err := s.chamber.Handler.QuorumHandler(r.Context(), readerActor(r), r.PathValue("session_id"), rule)
	if err != nil {
		writeChamberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEligibility(w http.ResponseWriter, r *http.Request) {
	resp, err := s.chamber.Handler.EligibilityHandler(
		r.Context(),
		readerActor(r),
		r.PathValue("session_id"),
		r.PathValue("legislator_id"),
	)
	if err != nil {
		writeChamberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateRollCall(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.chamber.Handler.CreateRollCallHandler(r.Context(), actor, r.PathValue("session_id"))
	if err != nil {
		writeChamberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleAttendance(w http.ResponseWriter, r *http.Request) {
	resp, err := s.chamber.Handler.AttendanceHandler(r.Context(), readerActor(r), r.PathValue("roll_call_id"))
	if err != nil {
		writeChamberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req chamberhttp.MarkAttendanceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.chamber.Handler.MarkAttendanceHandler(r.Context(), actor, r.PathValue("roll_call_id"), req)
	if err != nil {
		writeChamberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConfirmRollCall(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.chamber.Handler.ConfirmRollCallHandler(r.Context(), actor, r.PathValue("roll_call_id"))
	if err != nil {
		writeChamberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleActivateInitiative(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req chamberhttp.ActivateInitiativeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.chamber.Handler.ActivateInitiativeHandler(r.Context(), actor, r.PathValue("initiative_id"), req)
	if err != nil {
		writeChamberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCloseInitiative(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.chamber.Handler.CloseInitiativeHandler(r.Context(), actor, r.PathValue("initiative_id"))
	if err != nil {
		writeChamberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReopenInitiative(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req chamberhttp.ReopenInitiativeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.chamber.Handler.ReopenInitiativeHandler(r.Context(), actor, r.PathValue("initiative_id"), req)
	if err != nil {
		writeChamberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req chamberhttp.CastVoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.chamber.Handler.CastVoteHandler(r.Context(), actor, r.PathValue("initiative_id"), req)
	if err != nil {
		writeChamberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInitiativeTally(w http.ResponseWriter, r *http.Request) {
	resp, err := s.chamber.Handler.InitiativeTallyHandler(r.Context(), readerActor(r), r.PathValue("initiative_id"))
	if err != nil {
		writeChamberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListLegislators(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if raw := r.URL.Query().Get("active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeChamberError(w, http.StatusBadRequest, "invalid_filter", "active must be a boolean", nil)
			return
		}
		activeOnly = parsed
	}
	resp, err := s.chamber.Handler.ListLegislatorsHandler(r.Context(), readerActor(r), activeOnly)
	if err != nil {
		writeChamberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegisterLegislators(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req chamberhttp.RegisterLegislatorsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.chamber.Handler.RegisterLegislatorsHandler(r.Context(), actor, req)
	if err != nil {
		writeChamberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetLegislatorActive(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req chamberhttp.SetLegislatorActiveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.chamber.Handler.SetLegislatorActiveHandler(r.Context(), actor, r.PathValue("legislator_id"), req)
	if err != nil {
		writeChamberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// requireActor resolves the caller for mutations. Identity is established
// upstream; both headers must be present.
func requireActor(w http.ResponseWriter, r *http.Request) (commands.Actor, bool) {
	actor := commands.Actor{
		ActorID: strings.TrimSpace(r.Header.Get("X-Actor-Id")),
		Role:    strings.TrimSpace(r.Header.Get("X-Actor-Role")),
	}
	if actor.ActorID == "" || actor.Role == "" {
		writeChamberError(w, http.StatusUnauthorized, "missing_actor", "X-Actor-Id and X-Actor-Role headers are required", nil)
		return commands.Actor{}, false
	}
	return actor, true
}

// readerActor treats anonymous readers as the public display.
func readerActor(r *http.Request) commands.Actor {
	actor := commands.Actor{
		ActorID: strings.TrimSpace(r.Header.Get("X-Actor-Id")),
		Role:    strings.TrimSpace(r.Header.Get("X-Actor-Role")),
	}
	if actor.Role == "" {
		actor.Role = "public"
	}
	return actor
}

// decodeBody accepts an empty body for endpoints whose fields are all
// optional. The body must hold a single JSON value of at most maxBodyBytes.
func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	if r.Body == nil {
		return true
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	err := decoder.Decode(out)
	if errors.Is(err, io.EOF) {
		return true
	}
	if err == nil {
		if trailing := decoder.Decode(&json.RawMessage{}); !errors.Is(trailing, io.EOF) {
			err = trailing
			if err == nil {
				err = errTrailingJSON
			}
		}
	}
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeChamberError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body exceeds "+strconv.Itoa(maxBodyBytes)+" bytes", nil)
		return false
	}
	writeChamberError(w, http.StatusBadRequest, "invalid_json", "request body must be a single JSON value", nil)
	return false
}

var errTrailingJSON = errors.New("trailing data after JSON value")

func writeChamberDomainError(w http.ResponseWriter, err error) {
	var domainErr *domainerrors.Error
	if !errors.As(err, &domainErr) {
		writeChamberError(w, http.StatusInternalServerError, "internal_error", "internal server error", nil)
		return
	}
	status := http.StatusInternalServerError
	switch domainErr.Kind {
	case domainerrors.KindForbidden:
		status = http.StatusForbidden
	case domainerrors.KindPreconditionFailed:
		status = http.StatusPreconditionFailed
	case domainerrors.KindConflict:
		status = http.StatusConflict
	case domainerrors.KindNotFound:
		status = http.StatusNotFound
	case domainerrors.KindInvalid:
		status = http.StatusBadRequest
	}
	code := strings.ToLower(domainErr.Code)
	if code == "" {
		code = string(domainErr.Kind)
	}
	writeJSON(w, status, chamberhttp.ErrorResponse{
		Code:     code,
		Kind:     string(domainErr.Kind),
		Message:  domainErr.Message,
		Metadata: domainErr.Metadata,
	})
}

func writeChamberError(w http.ResponseWriter, status int, code string, message string, metadata map[string]string) {
	writeJSON(w, status, chamberhttp.ErrorResponse{
		Code:     code,
		Message:  message,
		Metadata: metadata,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
