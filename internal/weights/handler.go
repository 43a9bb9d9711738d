package weights

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/mbasaric/fitplan/internal/telemetry/metrics"
	"github.com/mbasaric/fitplan/internal/telemetry/tracing"
	"github.com/mbasaric/fitplan/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

type weightsRepo interface {
	Save(ctx context.Context, entry Entry) (*Entry, error)
	List(ctx context.Context, params ListParams) ([]Entry, error)
	Get(ctx context.Context, id int) (*Entry, error)
	Delete(ctx context.Context, id int) error
}

type ListResponse struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
}

type DeleteEntryResponse struct {
	DeletedID int `json:"deletedId"`
}

type Handler struct {
	repo    weightsRepo
	metrics *metrics.Manager
}

func NewHandler(repo weightsRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/weights/{owner}", handler.HandleSave).Methods("POST", "OPTIONS").Name("weight-save")
	router.HandleFunc("/weights/{owner}", handler.HandleList).Methods("GET").Name("weight-list")
	router.HandleFunc("/weights/{owner}/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("weight-delete")
}

func (handler *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weights.save")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var entry Entry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		log.Errorf("save weight, unmarshal json params: %s", err)
		http.Error(w, "save weight failed", http.StatusBadRequest)
		return
	}

	entry.OwnerID = mux.Vars(r)["owner"]
	entry.Date = entry.Date.UTC().Truncate(24 * time.Hour)
	if err := entry.Validate(); err != nil {
		http.Error(w, "error, invalid weight entry", http.StatusBadRequest)
		return
	}

	saved, err := handler.repo.Save(ctx, entry)
	if err != nil {
		log.Errorf("save weight [%s]: %s", entry.OwnerID, err)
		http.Error(w, "failed to save weight entry", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterWeightReports.Inc()
	log.Debugf("weight saved [%s]: %.1fkg on %s", saved.OwnerID, saved.Kilograms, saved.Date.Format(dateLayout))

	savedJson, err := json.Marshal(saved)
	if err != nil {
		log.Errorf("marshal saved weight entry: %s", err)
		http.Error(w, "failed to save weight entry", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, savedJson, http.StatusCreated)
}

// HandleList returns the owner's measurements, optionally narrowed with
// from/to query params (YYYY-MM-DD).
func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weights.list")
	defer span.End()

	params := ListParams{
		OwnerID: mux.Vars(r)["owner"],
	}
	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		from, err := time.Parse(dateLayout, fromStr)
		if err != nil {
			http.Error(w, "error, invalid <from> param", http.StatusBadRequest)
			return
		}
		params.From = from
	}
	if toStr := r.URL.Query().Get("to"); toStr != "" {
		to, err := time.Parse(dateLayout, toStr)
		if err != nil {
			http.Error(w, "error, invalid <to> param", http.StatusBadRequest)
			return
		}
		params.To = to
	}

	entries, err := handler.repo.List(ctx, params)
	if err != nil {
		log.Errorf("list weights [%s]: %s", params.OwnerID, err)
		http.Error(w, "failed to list weight entries", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(ListResponse{
		Entries: entries,
		Total:   len(entries),
	})
	if err != nil {
		log.Errorf("marshal weight entries: %s", err)
		http.Error(w, "failed to list weight entries", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weights.delete")
	defer span.End()

	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	owner := vars["owner"]
	entry, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			http.Error(w, "weight entry not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete weight [%s] %d: %s", owner, id, err)
		http.Error(w, "failed to delete weight entry", http.StatusInternalServerError)
		return
	}
	if entry.OwnerID != owner {
		http.Error(w, "weight entry not found", http.StatusNotFound)
		return
	}

	if err := handler.repo.Delete(ctx, id); err != nil {
		log.Errorf("delete weight [%s] %d: %s", owner, id, err)
		http.Error(w, "failed to delete weight entry", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(DeleteEntryResponse{DeletedID: id})
	if err != nil {
		log.Errorf("marshal delete weight response: %s", err)
		http.Error(w, "failed to delete weight entry", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}
