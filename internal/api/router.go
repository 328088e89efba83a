package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/soaringjerry/Mindful/internal/catalog"
	"github.com/soaringjerry/Mindful/internal/checkin"
	"github.com/soaringjerry/Mindful/internal/logging"
	"github.com/soaringjerry/Mindful/internal/metrics"
	"github.com/soaringjerry/Mindful/internal/middleware"
	"github.com/soaringjerry/Mindful/internal/services"
)

const maxBodyBytes = 64 << 10

type Options struct {
	Store    Store
	Catalog  *catalog.Catalog
	Auth     *middleware.Auth
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	TokenTTL time.Duration
}

type Router struct {
	catalog  *catalog.Catalog
	sessions *services.SessionService
	records  *services.RecordService
	auth     *services.AuthService
	log      *zap.Logger
	validate *validator.Validate
}

func NewRouter(opts Options) *Router {
	log := logging.OrNop(opts.Logger)
	store := opts.Store
	if store == nil {
		store = newMemoryStore()
	}
	cat := opts.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	signer := opts.Auth
	if signer == nil {
		signer = middleware.NewAuth("")
	}
	recordStore := NewRecordStore(store)
	return &Router{
		catalog:  cat,
		sessions: services.NewSessionService(cat, recordStore, opts.Metrics, log.Named("sessions")),
		records:  services.NewRecordService(recordStore, opts.Metrics, log.Named("records")),
		auth:     services.NewAuthService(newAuthStoreAdapter(store), signer.SignToken, opts.TokenTTL),
		log:      log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Sessions exposes the session registry for background pruning.
func (rt *Router) Sessions() *services.SessionService { return rt.sessions }

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", rt.handleRegister)
	mux.HandleFunc("POST /api/auth/login", rt.handleLogin)
	mux.HandleFunc("GET /api/topics", rt.handleTopics)
	mux.HandleFunc("GET /api/questions", rt.handleQuestions)

	authed := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, middleware.RequireAuth(h))
	}
	authed("POST /api/sessions", rt.handleStartSession)
	authed("GET /api/sessions/{id}", rt.handleGetSession)
	authed("DELETE /api/sessions/{id}", rt.handleDiscardSession)
	authed("POST /api/sessions/{id}/answers", rt.handleAnswer)
	authed("POST /api/sessions/{id}/skip", rt.handleSkip)
	authed("POST /api/sessions/{id}/next", rt.handleNext)
	authed("POST /api/sessions/{id}/back", rt.handleBack)
	authed("PUT /api/sessions/{id}/reflection", rt.handleSessionReflection)
	authed("GET /api/sessions/{id}/summary", rt.handleSessionSummary)
	authed("POST /api/sessions/{id}/finalize", rt.handleFinalize)

	authed("GET /api/records", rt.handleListRecords)
	authed("DELETE /api/records", rt.handleDeleteAllRecords)
	authed("GET /api/records/trends", rt.handleTrends)
	authed("GET /api/records/{id}", rt.handleGetRecord)
	authed("DELETE /api/records/{id}", rt.handleDeleteRecord)
	authed("PUT /api/records/{id}/reflection", rt.handleRecordReflection)
}

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type answerRequest struct {
	QuestionID string          `json:"question_id" validate:"required"`
	Answer     *checkin.Answer `json:"answer" validate:"required"`
}

type reflectionRequest struct {
	Reflection string `json:"reflection" validate:"max=4000"`
}

// POST /api/auth/register
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !rt.decode(w, r, &req) {
		return
	}
	res, err := rt.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// POST /api/auth/login
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !rt.decode(w, r, &req) {
		return
	}
	res, err := rt.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /api/topics
func (rt *Router) handleTopics(w http.ResponseWriter, r *http.Request) {
	type topicOut struct {
		ID              checkin.Topic `json:"id"`
		Name            string        `json:"name"`
		PositiveSummary string        `json:"positive_summary"`
	}
	all := checkin.AllTopics()
	out := make([]topicOut, 0, len(all))
	for _, t := range all {
		out = append(out, topicOut{ID: t, Name: t.DisplayName(), PositiveSummary: t.PositiveSummary()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": out})
}

// GET /api/questions?enabled=true
func (rt *Router) handleQuestions(w http.ResponseWriter, r *http.Request) {
	qs := rt.catalog.All()
	if r.URL.Query().Get("enabled") == "true" {
		qs = rt.catalog.Enabled()
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": qs})
}

// POST /api/sessions
func (rt *Router) handleStartSession(w http.ResponseWriter, r *http.Request) {
	snap, err := rt.sessions.Start(ownerID(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// GET /api/sessions/{id}
func (rt *Router) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := rt.sessions.Get(ownerID(r), r.PathValue("id"))
	rt.writeSnapshot(w, r, snap, err)
}

// DELETE /api/sessions/{id}
func (rt *Router) handleDiscardSession(w http.ResponseWriter, r *http.Request) {
	if err := rt.sessions.Discard(ownerID(r), r.PathValue("id")); err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/sessions/{id}/answers
// { question_id: string, answer: {scale: n} | {choice: s} }
func (rt *Router) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !rt.decode(w, r, &req) {
		return
	}
	cat, snap, err := rt.sessions.Answer(ownerID(r), r.PathValue("id"), req.QuestionID, *req.Answer)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"category": cat, "session": snap})
}

// POST /api/sessions/{id}/skip
func (rt *Router) handleSkip(w http.ResponseWriter, r *http.Request) {
	snap, err := rt.sessions.Skip(ownerID(r), r.PathValue("id"))
	rt.writeSnapshot(w, r, snap, err)
}

// POST /api/sessions/{id}/next
func (rt *Router) handleNext(w http.ResponseWriter, r *http.Request) {
	snap, err := rt.sessions.Next(ownerID(r), r.PathValue("id"))
	rt.writeSnapshot(w, r, snap, err)
}

// POST /api/sessions/{id}/back
func (rt *Router) handleBack(w http.ResponseWriter, r *http.Request) {
	snap, err := rt.sessions.Back(ownerID(r), r.PathValue("id"))
	rt.writeSnapshot(w, r, snap, err)
}

// PUT /api/sessions/{id}/reflection
func (rt *Router) handleSessionReflection(w http.ResponseWriter, r *http.Request) {
	var req reflectionRequest
	if !rt.decode(w, r, &req) {
		return
	}
	snap, err := rt.sessions.SetReflection(ownerID(r), r.PathValue("id"), req.Reflection)
	rt.writeSnapshot(w, r, snap, err)
}

// GET /api/sessions/{id}/summary
func (rt *Router) handleSessionSummary(w http.ResponseWriter, r *http.Request) {
	view, err := rt.sessions.Summary(ownerID(r), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// POST /api/sessions/{id}/finalize
func (rt *Router) handleFinalize(w http.ResponseWriter, r *http.Request) {
	rec, err := rt.sessions.Finalize(r.Context(), ownerID(r), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"record": rec, "summary": services.BuildSummaryView(rec)})
}

// GET /api/records
func (rt *Router) handleListRecords(w http.ResponseWriter, r *http.Request) {
	recs, err := rt.records.List(r.Context(), ownerID(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": recs})
}

// DELETE /api/records
func (rt *Router) handleDeleteAllRecords(w http.ResponseWriter, r *http.Request) {
	n, err := rt.records.DeleteAll(r.Context(), ownerID(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": n})
}

// GET /api/records/trends?since=YYYY-MM-DD
func (rt *Router) handleTrends(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			rt.writeError(w, r, services.NewInvalidError("since must be YYYY-MM-DD"))
			return
		}
		since = t
	}
	tr, err := rt.records.Trends(r.Context(), ownerID(r), since)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

// GET /api/records/{id}
func (rt *Router) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := rt.records.Get(r.Context(), ownerID(r), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"record": rec, "summary": services.BuildSummaryView(rec)})
}

// DELETE /api/records/{id}
func (rt *Router) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := rt.records.Delete(r.Context(), ownerID(r), r.PathValue("id")); err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PUT /api/records/{id}/reflection
func (rt *Router) handleRecordReflection(w http.ResponseWriter, r *http.Request) {
	var req reflectionRequest
	if !rt.decode(w, r, &req) {
		return
	}
	rec, err := rt.records.UpdateReflection(r.Context(), ownerID(r), r.PathValue("id"), req.Reflection)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"record": rec})
}

func ownerID(r *http.Request) string {
	uid, _ := middleware.UserIDFromContext(r.Context())
	return uid
}

// decode reads a JSON body into dst and validates it, answering 400 on failure.
func (rt *Router) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid", "invalid request body: "+err.Error()))
		return false
	}
	if err := rt.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid", verrs[0].Field()+" failed "+verrs[0].Tag()))
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorBody("invalid", err.Error()))
		return false
	}
	return true
}

func (rt *Router) writeSnapshot(w http.ResponseWriter, r *http.Request, snap services.Snapshot, err error) {
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	se, ok := services.AsServiceError(err)
	if !ok {
		rt.log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal", "internal error"))
		return
	}
	writeJSON(w, statusFor(se.Code), errorBody(string(se.Code), se.Message))
}

func statusFor(code services.ErrorCode) int {
	switch code {
	case services.ErrorInvalid:
		return http.StatusBadRequest
	case services.ErrorUnauthorized:
		return http.StatusUnauthorized
	case services.ErrorForbidden:
		return http.StatusForbidden
	case services.ErrorNotFound:
		return http.StatusNotFound
	case services.ErrorConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func errorBody(code, msg string) map[string]string {
	return map[string]string{"error": code, "message": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
