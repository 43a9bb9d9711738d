package plans

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mbasaric/fitplan/internal/telemetry/tracing"
	"github.com/mbasaric/fitplan/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

type WindowResponse struct {
	Days              []DayPlan `json:"days"`
	DisplayLimit      int       `json:"displayLimit"`
	HasMoreDays       bool      `json:"hasMoreDays"`
	HasMoreWeeks      bool      `json:"hasMoreWeeks"`
	CompletedWorkouts int       `json:"completedWorkouts"`
}

type ArchivedListResponse struct {
	Days  []DayPlan `json:"days"`
	Total int       `json:"total"`
}

type DeleteDayResponse struct {
	DeletedID string `json:"deletedId"`
}

type Handler struct {
	managers *ManagerStore
}

func NewHandler(managers *ManagerStore) *Handler {
	return &Handler{
		managers: managers,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/days/{owner}/window", handler.HandleGetWindow).Methods("GET").Name("day-window")
	router.HandleFunc("/days/{owner}/jump/{date}", handler.HandleJump).Methods("POST", "OPTIONS").Name("day-window-jump")
	router.HandleFunc("/days/{owner}/prevweek", handler.HandlePreviousWeek).Methods("POST", "OPTIONS").Name("day-window-prevweek")
	router.HandleFunc("/days/{owner}/more", handler.HandleMoreDisplay).Methods("POST", "OPTIONS").Name("day-window-more")
	router.HandleFunc("/days/{owner}/next", handler.HandleAddNextDay).Methods("POST", "OPTIONS").Name("day-add-next")
	router.HandleFunc("/days/{owner}/save", handler.HandleSaveDay).Methods("POST", "OPTIONS").Name("day-save")
	router.HandleFunc("/days/{owner}/{date}/toggle/completed", handler.HandleToggleCompleted).Methods("POST", "OPTIONS").Name("day-toggle-completed")
	router.HandleFunc("/days/{owner}/{date}/toggle/missed", handler.HandleToggleMissed).Methods("POST", "OPTIONS").Name("day-toggle-missed")
	router.HandleFunc("/days/{owner}/archived", handler.HandleListArchived).Methods("GET").Name("day-archived-list")
	router.HandleFunc("/days/{owner}/archived/{id}", handler.HandleDeleteArchived).Methods("DELETE", "OPTIONS").Name("day-archived-delete")
}

// HandleGetWindow returns the owner's current day window, loading the
// initial range (and seeding a fresh schedule) on first access.
func (handler *Handler) HandleGetWindow(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.window")
	defer span.End()

	m := handler.managers.Get(mux.Vars(r)["owner"])
	if len(m.Loaded()) == 0 {
		if err := m.LoadInitial(ctx, time.Time{}); err != nil {
			log.Errorf("get window [%s]: %s", m.OwnerID(), err)
			http.Error(w, "failed to load day window", http.StatusInternalServerError)
			return
		}
	}

	handler.writeWindow(w, m)
}

// HandleJump re-centers the window on the date in the path.
func (handler *Handler) HandleJump(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.jump")
	defer span.End()

	vars := mux.Vars(r)
	date, err := time.Parse(dateLayout, vars["date"])
	if err != nil {
		http.Error(w, "error, invalid date", http.StatusBadRequest)
		return
	}

	m := handler.managers.Get(vars["owner"])
	if err := m.JumpTo(ctx, date); err != nil {
		log.Errorf("jump [%s] to %s: %s", m.OwnerID(), vars["date"], err)
		http.Error(w, "failed to jump to date", http.StatusInternalServerError)
		return
	}

	handler.writeWindow(w, m)
}

func (handler *Handler) HandlePreviousWeek(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.prevweek")
	defer span.End()

	m := handler.managers.Get(mux.Vars(r)["owner"])
	switch err := m.LoadPreviousWeek(ctx); {
	case err == nil:
	case errors.Is(err, ErrHistoryLimit):
		http.Error(w, "error, history limit reached", http.StatusBadRequest)
		return
	case errors.Is(err, ErrEmptyWindow):
		http.Error(w, "error, window not loaded", http.StatusBadRequest)
		return
	default:
		log.Errorf("load previous week [%s]: %s", m.OwnerID(), err)
		http.Error(w, "failed to load previous week", http.StatusInternalServerError)
		return
	}

	handler.writeWindow(w, m)
}

// HandleMoreDisplay reveals the next page of already loaded days, no
// storage round trip involved.
func (handler *Handler) HandleMoreDisplay(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.more")
	defer span.End()

	m := handler.managers.Get(mux.Vars(r)["owner"])
	m.LoadMoreDisplay()
	handler.writeWindow(w, m)
}

func (handler *Handler) HandleAddNextDay(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.next")
	defer span.End()

	m := handler.managers.Get(mux.Vars(r)["owner"])
	day, err := m.AddNextDay(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrEmptyWindow):
		http.Error(w, "error, window not loaded", http.StatusBadRequest)
		return
	default:
		log.Errorf("add next day [%s]: %s", m.OwnerID(), err)
		http.Error(w, "failed to add next day", http.StatusInternalServerError)
		return
	}

	log.Debugf("day added [%s]: %s", m.OwnerID(), day.Date.Format(dateLayout))
	handler.writeDay(w, day, http.StatusCreated)
}

// HandleSaveDay replaces a full day plan from the request body.
func (handler *Handler) HandleSaveDay(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.save")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var day DayPlan
	if err := json.NewDecoder(r.Body).Decode(&day); err != nil {
		log.Errorf("save day, unmarshal json params: %s", err)
		http.Error(w, "save day failed", http.StatusBadRequest)
		return
	}

	m := handler.managers.Get(mux.Vars(r)["owner"])
	saved, err := m.SaveDay(ctx, day)
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidDay):
		http.Error(w, "error, invalid day", http.StatusBadRequest)
		return
	default:
		log.Errorf("save day [%s]: %s", m.OwnerID(), err)
		http.Error(w, "failed to save day", http.StatusInternalServerError)
		return
	}

	log.Debugf("day saved [%s]: %s [%s]", m.OwnerID(), saved.Date.Format(dateLayout), saved.Kind)
	handler.writeDay(w, saved, http.StatusOK)
}

func (handler *Handler) HandleToggleCompleted(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.toggle.completed")
	defer span.End()
	handler.handleToggle(ctx, w, r, (*Manager).ToggleCompleted)
}

func (handler *Handler) HandleToggleMissed(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.toggle.missed")
	defer span.End()
	handler.handleToggle(ctx, w, r, (*Manager).ToggleMissed)
}

func (handler *Handler) handleToggle(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	toggle func(*Manager, context.Context, time.Time) (*DayPlan, error),
) {
	vars := mux.Vars(r)
	date, err := time.Parse(dateLayout, vars["date"])
	if err != nil {
		http.Error(w, "error, invalid date", http.StatusBadRequest)
		return
	}

	m := handler.managers.Get(vars["owner"])
	day, err := toggle(m, ctx, date)
	switch {
	case err == nil:
	case errors.Is(err, ErrDateNotLoaded):
		http.Error(w, "error, date not loaded", http.StatusBadRequest)
		return
	default:
		log.Errorf("toggle day [%s] %s: %s", m.OwnerID(), vars["date"], err)
		http.Error(w, "failed to toggle day", http.StatusInternalServerError)
		return
	}

	handler.writeDay(w, day, http.StatusOK)
}

func (handler *Handler) HandleListArchived(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.archived.list")
	defer span.End()

	m := handler.managers.Get(mux.Vars(r)["owner"])
	days, err := m.Archived(ctx)
	if err != nil {
		log.Errorf("list archived [%s]: %s", m.OwnerID(), err)
		http.Error(w, "failed to list archived days", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(ArchivedListResponse{
		Days:  days,
		Total: len(days),
	})
	if err != nil {
		log.Errorf("marshal archived days: %s", err)
		http.Error(w, "failed to list archived days", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) HandleDeleteArchived(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.archived.delete")
	defer span.End()

	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	m := handler.managers.Get(vars["owner"])
	switch err := m.DeleteArchived(ctx, id); {
	case err == nil:
	case errors.Is(err, ErrDayNotFound):
		http.Error(w, "day not found", http.StatusNotFound)
		return
	default:
		log.Errorf("delete archived [%s] %s: %s", m.OwnerID(), id, err)
		http.Error(w, "failed to delete day", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(DeleteDayResponse{DeletedID: id})
	if err != nil {
		log.Errorf("marshal delete day response: %s", err)
		http.Error(w, "failed to delete day", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) writeWindow(w http.ResponseWriter, m *Manager) {
	respJson, err := json.Marshal(WindowResponse{
		Days:              m.Visible(),
		DisplayLimit:      m.DisplayLimit(),
		HasMoreDays:       m.HasMoreDays(),
		HasMoreWeeks:      m.HasMoreWeeks(),
		CompletedWorkouts: m.CompletedWorkouts(),
	})
	if err != nil {
		log.Errorf("marshal window response: %s", err)
		http.Error(w, "failed to render day window", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) writeDay(w http.ResponseWriter, day *DayPlan, statusCode int) {
	respJson, err := json.Marshal(day)
	if err != nil {
		log.Errorf("marshal day response: %s", err)
		http.Error(w, "failed to render day", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, statusCode)
}
