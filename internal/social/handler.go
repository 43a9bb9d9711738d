package social

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mbasaric/fitplan/internal/telemetry/tracing"
	"github.com/mbasaric/fitplan/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type FeedResponse struct {
	Activities []Activity `json:"activities"`
	Total      int        `json:"total"`
}

type RequestsResponse struct {
	Requests []FriendRequest `json:"requests"`
	Total    int             `json:"total"`
}

type CommentsResponse struct {
	Comments []Comment `json:"comments"`
	Total    int       `json:"total"`
}

type newCommentRequest struct {
	Text string `json:"text"`
}

type Handler struct {
	feed *FeedService
}

func NewHandler(feed *FeedService) *Handler {
	return &Handler{
		feed: feed,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/social/{owner}/feed", handler.HandleFeed).Methods("GET").Name("social-feed")
	router.HandleFunc("/social/{owner}/activities", handler.HandlePublish).Methods("POST", "OPTIONS").Name("social-publish")
	router.HandleFunc("/social/{owner}/friends/request/{to}", handler.HandleFriendRequest).Methods("POST", "OPTIONS").Name("social-friend-request")
	router.HandleFunc("/social/{owner}/friends/requests", handler.HandlePendingRequests).Methods("GET").Name("social-pending-requests")
	router.HandleFunc("/social/{owner}/friends/respond/{id}/{action}", handler.HandleRespond).Methods("POST", "OPTIONS").Name("social-friend-respond")
	router.HandleFunc("/social/{owner}/like/{id}", handler.HandleLike).Methods("POST", "OPTIONS").Name("social-like")
	router.HandleFunc("/social/{owner}/like/{id}", handler.HandleUnlike).Methods("DELETE", "OPTIONS").Name("social-unlike")
	router.HandleFunc("/social/{owner}/comments/{id}", handler.HandleComment).Methods("POST", "OPTIONS").Name("social-comment")
	router.HandleFunc("/social/{owner}/comments/{id}", handler.HandleListComments).Methods("GET").Name("social-comments")
}

func (handler *Handler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.social.feed")
	defer span.End()

	ownerID := mux.Vars(r)["owner"]
	limit := DefaultFeedLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			http.Error(w, "error, invalid <limit> param", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	activities, err := handler.feed.Feed(ctx, ownerID, limit)
	if err != nil {
		log.Errorf("get feed [%s]: %s", ownerID, err)
		http.Error(w, "failed to get feed", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(FeedResponse{
		Activities: activities,
		Total:      len(activities),
	})
	if err != nil {
		log.Errorf("marshal feed: %s", err)
		http.Error(w, "failed to get feed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.social.publish")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var activity Activity
	if err := json.NewDecoder(r.Body).Decode(&activity); err != nil {
		log.Errorf("publish activity, unmarshal json params: %s", err)
		http.Error(w, "publish activity failed", http.StatusBadRequest)
		return
	}

	activity.OwnerID = mux.Vars(r)["owner"]
	if !activity.Kind.IsValid() {
		http.Error(w, "error, invalid activity kind", http.StatusBadRequest)
		return
	}

	added, err := handler.feed.Publish(ctx, activity)
	if err != nil {
		log.Errorf("publish activity [%s]: %s", activity.OwnerID, err)
		http.Error(w, "failed to publish activity", http.StatusInternalServerError)
		return
	}

	addedJson, err := json.Marshal(added)
	if err != nil {
		log.Errorf("marshal published activity: %s", err)
		http.Error(w, "failed to publish activity", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedJson, http.StatusCreated)
}

func (handler *Handler) HandleFriendRequest(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.social.friendrequest")
	defer span.End()

	vars := mux.Vars(r)
	fromID, toID := vars["owner"], vars["to"]
	if fromID == toID {
		http.Error(w, "error, cannot befriend yourself", http.StatusBadRequest)
		return
	}

	request, err := handler.feed.repo.AddFriendRequest(ctx, fromID, toID)
	switch {
	case err == nil:
	case errors.Is(err, ErrAlreadyRequested):
		http.Error(w, "error, friend request already sent", http.StatusConflict)
		return
	default:
		log.Errorf("friend request [%s -> %s]: %s", fromID, toID, err)
		http.Error(w, "failed to send friend request", http.StatusInternalServerError)
		return
	}

	requestJson, err := json.Marshal(request)
	if err != nil {
		log.Errorf("marshal friend request: %s", err)
		http.Error(w, "failed to send friend request", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, requestJson, http.StatusCreated)
}

func (handler *Handler) HandlePendingRequests(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.social.pendingrequests")
	defer span.End()

	ownerID := mux.Vars(r)["owner"]
	requests, err := handler.feed.repo.ListPendingRequests(ctx, ownerID)
	if err != nil {
		log.Errorf("list pending requests [%s]: %s", ownerID, err)
		http.Error(w, "failed to list friend requests", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(RequestsResponse{
		Requests: requests,
		Total:    len(requests),
	})
	if err != nil {
		log.Errorf("marshal pending requests: %s", err)
		http.Error(w, "failed to list friend requests", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) HandleRespond(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.social.respond")
	defer span.End()

	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	var accept bool
	switch vars["action"] {
	case "accept":
		accept = true
	case "decline":
	default:
		http.Error(w, "error, action must be accept or decline", http.StatusBadRequest)
		return
	}

	switch err := handler.feed.repo.RespondFriendRequest(ctx, id, accept); {
	case err == nil:
	case errors.Is(err, ErrRequestNotFound):
		http.Error(w, "friend request not found", http.StatusNotFound)
		return
	default:
		log.Errorf("respond to friend request %d: %s", id, err)
		http.Error(w, "failed to respond to friend request", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, vars["action"]+"ed")
}

func (handler *Handler) HandleLike(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.social.like")
	defer span.End()

	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	switch err := handler.feed.Like(ctx, id, vars["owner"]); {
	case err == nil:
	case errors.Is(err, ErrActivityNotFound):
		http.Error(w, "activity not found", http.StatusNotFound)
		return
	default:
		log.Errorf("like activity %d [%s]: %s", id, vars["owner"], err)
		http.Error(w, "failed to like activity", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "liked")
}

func (handler *Handler) HandleUnlike(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.social.unlike")
	defer span.End()

	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	if err := handler.feed.Unlike(ctx, id, vars["owner"]); err != nil {
		log.Errorf("unlike activity %d [%s]: %s", id, vars["owner"], err)
		http.Error(w, "failed to unlike activity", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "unliked")
}

func (handler *Handler) HandleComment(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.social.comment")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	var params newCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Errorf("add comment, unmarshal json params: %s", err)
		http.Error(w, "add comment failed", http.StatusBadRequest)
		return
	}
	if params.Text == "" {
		http.Error(w, "error, comment text empty", http.StatusBadRequest)
		return
	}

	comment, err := handler.feed.Comment(ctx, Comment{
		ActivityID: id,
		OwnerID:    vars["owner"],
		Text:       params.Text,
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrActivityNotFound):
		http.Error(w, "activity not found", http.StatusNotFound)
		return
	default:
		log.Errorf("add comment to %d [%s]: %s", id, vars["owner"], err)
		http.Error(w, "failed to add comment", http.StatusInternalServerError)
		return
	}

	commentJson, err := json.Marshal(comment)
	if err != nil {
		log.Errorf("marshal comment: %s", err)
		http.Error(w, "failed to add comment", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, commentJson, http.StatusCreated)
}

func (handler *Handler) HandleListComments(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.social.comments")
	defer span.End()

	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	comments, err := handler.feed.Comments(ctx, id)
	if err != nil {
		log.Errorf("list comments for %d: %s", id, err)
		http.Error(w, "failed to list comments", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(CommentsResponse{
		Comments: comments,
		Total:    len(comments),
	})
	if err != nil {
		log.Errorf("marshal comments: %s", err)
		http.Error(w, "failed to list comments", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}
