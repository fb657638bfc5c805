// Package handlers expose les services internes en JSON sur HTTP.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	feedv1 "github.com/jupiterclapton/gamefeed/api/feed/v1"
	graphv1 "github.com/jupiterclapton/gamefeed/api/graph/v1"
	interactionv1 "github.com/jupiterclapton/gamefeed/api/interaction/v1"
	postv1 "github.com/jupiterclapton/gamefeed/api/post/v1"
	"github.com/jupiterclapton/gamefeed/services/api-gateway/internal/auth"
)

// maxBodyBytes borne les corps JSON acceptés.
const maxBodyBytes = 64 << 10

type Handler struct {
	FeedClient        feedv1.FeedServiceClient
	PostClient        postv1.PostServiceClient
	InteractionClient interactionv1.InteractionServiceClient
	GraphClient       graphv1.GraphServiceClient
}

// Routes enregistre les endpoints publics.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/feed", h.getFeed)

	mux.HandleFunc("POST /v1/reactions", h.toggleReaction)
	mux.HandleFunc("GET /v1/reactions", h.getReactionState)

	mux.HandleFunc("POST /v1/comments", h.addComment)
	mux.HandleFunc("DELETE /v1/comments/{id}", h.deleteComment)
	mux.HandleFunc("GET /v1/comments/count", h.getCommentCount)

	mux.HandleFunc("POST /v1/posts", h.createPost)
	mux.HandleFunc("GET /v1/posts/{id}", h.getPost)
	mux.HandleFunc("DELETE /v1/posts/{id}", h.deletePost)
	mux.HandleFunc("GET /v1/authors/{id}/posts", h.listPostsByAuthor)

	mux.HandleFunc("PUT /v1/relations/{relation}/{target}", h.createRelation)
	mux.HandleFunc("DELETE /v1/relations/{relation}/{target}", h.deleteRelation)
	mux.HandleFunc("GET /v1/relations/{target}", h.checkRelation)
}

// --- FEED ---

func (h *Handler) getFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, ok := intParam(w, q.Get("limit"))
	if !ok {
		return
	}
	scope := q.Get("scope")
	if scope == "" {
		scope = "forYou"
	}

	resp, err := h.FeedClient.GetFeed(r.Context(), &feedv1.GetFeedRequest{
		ViewerID:  auth.ForContext(r.Context()),
		Scope:     scope,
		FilterTag: q.Get("filter"),
		Cursor:    q.Get("cursor"),
		Limit:     limit,
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	if resp.Items == nil {
		resp.Items = []feedv1.FeedItem{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- REACTIONS ---

type toggleReactionBody struct {
	ReactableKey string `json:"reactableKey"`
	Action       string `json:"action"`
}

func (h *Handler) toggleReaction(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}
	var body toggleReactionBody
	if !decode(w, r, &body) {
		return
	}
	state, err := h.InteractionClient.ToggleReaction(r.Context(), &interactionv1.ToggleReactionRequest{
		ViewerID:     viewer,
		ReactableKey: body.ReactableKey,
		Action:       body.Action,
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) getReactionState(w http.ResponseWriter, r *http.Request) {
	state, err := h.InteractionClient.GetReactionState(r.Context(), &interactionv1.ReactionStateRequest{
		ViewerID:     auth.ForContext(r.Context()),
		ReactableKey: r.URL.Query().Get("key"),
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// --- COMMENTS ---

type addCommentBody struct {
	ReactableKey string `json:"reactableKey"`
	Body         string `json:"body"`
}

func (h *Handler) addComment(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}
	var body addCommentBody
	if !decode(w, r, &body) {
		return
	}
	resp, err := h.InteractionClient.AddComment(r.Context(), &interactionv1.AddCommentRequest{
		ViewerID:     viewer,
		ReactableKey: body.ReactableKey,
		Body:         body.Body,
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) deleteComment(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}
	resp, err := h.InteractionClient.DeleteComment(r.Context(), &interactionv1.DeleteCommentRequest{
		ViewerID:  viewer,
		CommentID: r.PathValue("id"),
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getCommentCount(w http.ResponseWriter, r *http.Request) {
	resp, err := h.InteractionClient.GetCommentCount(r.Context(), &interactionv1.CommentCountRequest{
		ReactableKey: r.URL.Query().Get("key"),
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- POSTS ---

type createPostBody struct {
	GameID  string         `json:"gameId"`
	Content string         `json:"content"`
	Media   []postv1.Media `json:"media"`
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}
	var body createPostBody
	if !decode(w, r, &body) {
		return
	}
	resp, err := h.PostClient.CreatePost(r.Context(), &postv1.CreatePostRequest{
		UserID:  viewer,
		GameID:  body.GameID,
		Content: body.Content,
		Media:   body.Media,
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp.Post)
}

func (h *Handler) getPost(w http.ResponseWriter, r *http.Request) {
	resp, err := h.PostClient.GetPost(r.Context(), &postv1.GetPostRequest{PostID: r.PathValue("id")})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Post)
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}
	if _, err := h.PostClient.DeletePost(r.Context(), &postv1.DeletePostRequest{PostID: r.PathValue("id"), UserID: viewer}); err != nil {
		writeRPCError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listPostsByAuthor(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, ok := intParam(w, q.Get("limit"))
	if !ok {
		return
	}
	// pageToken, comme nextPageToken dans la réponse ; cursor reste accepté
	token := q.Get("pageToken")
	if token == "" {
		token = q.Get("cursor")
	}
	resp, err := h.PostClient.ListPostsByAuthor(r.Context(), &postv1.ListPostsByAuthorRequest{
		AuthorID:  r.PathValue("id"),
		Limit:     limit,
		PageToken: token,
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	if resp.Posts == nil {
		resp.Posts = []postv1.Post{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- RELATIONS ---

// relation : "follows", "blocks" ou "mutes" dans l'URL
func relationRequest(r *http.Request, viewer string) *graphv1.RelationRequest {
	return &graphv1.RelationRequest{
		ActorID:  viewer,
		TargetID: r.PathValue("target"),
		Relation: strings.ToUpper(r.PathValue("relation")),
	}
}

func (h *Handler) createRelation(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}
	if _, err := h.GraphClient.CreateRelation(r.Context(), relationRequest(r, viewer)); err != nil {
		writeRPCError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteRelation(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}
	if _, err := h.GraphClient.DeleteRelation(r.Context(), relationRequest(r, viewer)); err != nil {
		writeRPCError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) checkRelation(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}
	resp, err := h.GraphClient.CheckRelation(r.Context(), &graphv1.RelationRequest{ActorID: viewer, TargetID: r.PathValue("target")})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- HELPERS ---

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func requireViewer(w http.ResponseWriter, r *http.Request) (string, bool) {
	viewer := auth.ForContext(r.Context())
	if viewer == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return "", false
	}
	return viewer, true
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func intParam(w http.ResponseWriter, raw string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "validation", "limit must be a positive integer")
		return 0, false
	}
	return n, true
}

// httpStatus traduit les codes gRPC des services internes.
func httpStatus(code codes.Code) (int, string) {
	switch code {
	case codes.InvalidArgument:
		return http.StatusBadRequest, "validation"
	case codes.Unauthenticated:
		return http.StatusUnauthorized, "unauthorized"
	case codes.PermissionDenied:
		return http.StatusForbidden, "forbidden"
	case codes.NotFound:
		return http.StatusNotFound, "not_found"
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests, "rate_limited"
	case codes.Unavailable:
		return http.StatusServiceUnavailable, "unavailable"
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusBadGateway, "upstream"
	}
}

func writeRPCError(w http.ResponseWriter, err error) {
	st := status.Convert(err)
	code, name := httpStatus(st.Code())
	if code >= http.StatusInternalServerError {
		slog.Error("Upstream call failed", "code", st.Code().String(), "error", st.Message())
	}
	writeError(w, code, name, st.Message())
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}
