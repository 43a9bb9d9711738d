package trainers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mbasaric/fitplan/internal/plans"
	"github.com/mbasaric/fitplan/internal/telemetry/tracing"
	"github.com/mbasaric/fitplan/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type ClientsResponse struct {
	Clients []Client `json:"clients"`
	Total   int      `json:"total"`
}

type Handler struct {
	repo     *CachedRepo
	managers *plans.ManagerStore
}

func NewHandler(repo *CachedRepo, managers *plans.ManagerStore) *Handler {
	return &Handler{
		repo:     repo,
		managers: managers,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/trainers/{trainer}/clients", handler.HandleListClients).Methods("GET").Name("trainer-clients")
	router.HandleFunc("/trainers/{trainer}/clients/{client}", handler.HandleAddClient).Methods("POST", "OPTIONS").Name("trainer-add-client")
	router.HandleFunc("/trainers/{trainer}/clients/{client}", handler.HandleRemoveClient).Methods("DELETE", "OPTIONS").Name("trainer-remove-client")
	router.HandleFunc("/trainers/{trainer}/duel/{clientA}/{clientB}", handler.HandleDuel).Methods("GET").Name("trainer-duel")
}

func (handler *Handler) HandleListClients(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.trainers.clients")
	defer span.End()

	trainerID := mux.Vars(r)["trainer"]
	clients, err := handler.repo.ListClients(ctx, trainerID)
	if err != nil {
		log.Errorf("list clients [%s]: %s", trainerID, err)
		http.Error(w, "failed to list clients", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(ClientsResponse{
		Clients: clients,
		Total:   len(clients),
	})
	if err != nil {
		log.Errorf("marshal clients: %s", err)
		http.Error(w, "failed to list clients", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) HandleAddClient(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.trainers.addclient")
	defer span.End()

	vars := mux.Vars(r)
	trainerID, clientID := vars["trainer"], vars["client"]
	if trainerID == clientID {
		http.Error(w, "error, trainer cannot coach themselves", http.StatusBadRequest)
		return
	}

	switch err := handler.repo.AddClient(ctx, trainerID, clientID); {
	case err == nil:
	case errors.Is(err, ErrAlreadyClient):
		http.Error(w, "error, client already assigned", http.StatusConflict)
		return
	default:
		log.Errorf("add client [%s -> %s]: %s", trainerID, clientID, err)
		http.Error(w, "failed to add client", http.StatusInternalServerError)
		return
	}

	log.Debugf("client added: %s -> %s", trainerID, clientID)
	pkg.WriteTextResponseOK(w, "added")
}

func (handler *Handler) HandleRemoveClient(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.trainers.removeclient")
	defer span.End()

	vars := mux.Vars(r)
	trainerID, clientID := vars["trainer"], vars["client"]
	switch err := handler.repo.RemoveClient(ctx, trainerID, clientID); {
	case err == nil:
	case errors.Is(err, ErrClientNotFound):
		http.Error(w, "client not found", http.StatusNotFound)
		return
	default:
		log.Errorf("remove client [%s -> %s]: %s", trainerID, clientID, err)
		http.Error(w, "failed to remove client", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "removed")
}

// HandleDuel pits two coached athletes' loaded schedules against each
// other, both normalized against the better score.
func (handler *Handler) HandleDuel(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.trainers.duel")
	defer span.End()

	vars := mux.Vars(r)
	trainerID := vars["trainer"]
	clientA, clientB := vars["clientA"], vars["clientB"]
	if clientA == clientB {
		http.Error(w, "error, same client on both sides", http.StatusBadRequest)
		return
	}

	for _, clientID := range []string{clientA, clientB} {
		isClient, err := handler.repo.IsClient(ctx, trainerID, clientID)
		if err != nil {
			log.Errorf("duel [%s]: check client %s: %s", trainerID, clientID, err)
			http.Error(w, "failed to run duel", http.StatusInternalServerError)
			return
		}
		if !isClient {
			http.Error(w, "client not found", http.StatusNotFound)
			return
		}
	}

	daysA, err := handler.loadedDays(ctx, clientA)
	if err != nil {
		log.Errorf("duel [%s]: load days for %s: %s", trainerID, clientA, err)
		http.Error(w, "failed to run duel", http.StatusInternalServerError)
		return
	}
	daysB, err := handler.loadedDays(ctx, clientB)
	if err != nil {
		log.Errorf("duel [%s]: load days for %s: %s", trainerID, clientB, err)
		http.Error(w, "failed to run duel", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(plans.CompareProgress(clientA, daysA, clientB, daysB))
	if err != nil {
		log.Errorf("marshal duel result: %s", err)
		http.Error(w, "failed to run duel", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) loadedDays(ctx context.Context, ownerID string) ([]plans.DayPlan, error) {
	m := handler.managers.Get(ownerID)
	if len(m.Loaded()) == 0 {
		if err := m.LoadInitial(ctx, time.Time{}); err != nil {
			return nil, err
		}
	}
	return m.Loaded(), nil
}
