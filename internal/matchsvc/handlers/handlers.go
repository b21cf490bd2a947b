package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"

	"github.com/matchdayhq/matchday-services/internal/matchsvc/broker"
	"github.com/matchdayhq/matchday-services/internal/matchsvc/models"
	"github.com/matchdayhq/matchday-services/internal/matchsvc/service"
)

type Handler struct {
	tokenAuth        *jwtauth.JWTAuth
	publisher        *broker.Publisher
	gameService      *service.GameService
	formationService *service.FormationService
	commentService   *service.CommentService
}

func NewHandler(pub *broker.Publisher, gameService *service.GameService,
	formationService *service.FormationService, commentService *service.CommentService) *Handler {
	return &Handler{
		publisher:        pub,
		gameService:      gameService,
		formationService: formationService,
		commentService:   commentService,
	}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

// identity pulls the actor and organization out of the verified JWT claims.
func (h *Handler) identity(r *http.Request) (actorID, orgID string, err error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return "", "", service.ErrUnauthenticated
	}
	actorID, _ = claims["user_id"].(string)
	orgID, _ = claims["org_id"].(string)
	if actorID == "" || orgID == "" {
		return "", "", service.ErrUnauthenticated
	}
	return actorID, orgID, nil
}

func errStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrValidationFailed):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	code := errStatus(err)
	if code >= http.StatusInternalServerError {
		log.Errorf("mutation failed: %v", err)
	}
	h.CreateResponse(w, Response{Code: code, Error: err.Error()})
}

func (h *Handler) ok(w http.ResponseWriter, code int, data interface{}) {
	h.CreateResponse(w, Response{Code: code, Data: data})
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	rsp := Response{
		Message: "match service is running at port " + os.Getenv("MATCH_SERVICE_PORT"),
		Code:    200,
		Data:    nil,
	}
	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode health response: %v", err)
	}
}

func (h *Handler) CreateGame(w http.ResponseWriter, r *http.Request) {
	actorID, orgID, err := h.identity(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	var in service.CreateGameInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.fail(w, service.ErrValidationFailed)
		return
	}

	game, err := h.gameService.CreateGame(r.Context(), actorID, orgID, in)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.ok(w, http.StatusCreated, h.publisher.PublishGameCreated(game))
}

func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	_, orgID, err := h.identity(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	games, err := h.gameService.ListGames(r.Context(), orgID)
	if err != nil {
		h.fail(w, err)
		return
	}

	snaps := make([]interface{}, 0, len(games))
	for _, g := range games {
		snaps = append(snaps, broker.GameSnap(g))
	}
	h.ok(w, http.StatusOK, snaps)
}

func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	_, orgID, err := h.identity(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	game, err := h.gameService.GetGame(r.Context(), orgID, chi.URLParam(r, "gameID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, http.StatusOK, broker.GameSnap(game))
}

func (h *Handler) UpdateGame(w http.ResponseWriter, r *http.Request) {
	actorID, orgID, err := h.identity(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	var in service.UpdateGameInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.fail(w, service.ErrValidationFailed)
		return
	}

	game, err := h.gameService.UpdateGame(r.Context(), actorID, orgID, chi.URLParam(r, "gameID"), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, http.StatusOK, h.publisher.PublishGameUpdated(game))
}

func (h *Handler) RespondToGame(w http.ResponseWriter, r *http.Request) {
	actorID, orgID, err := h.identity(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	var in struct {
		IsAvailable bool `json:"is_available"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.fail(w, service.ErrValidationFailed)
		return
	}

	game, err := h.gameService.RespondToGame(r.Context(), actorID, orgID, chi.URLParam(r, "gameID"), in.IsAvailable)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, http.StatusOK, h.publisher.PublishGameUpdated(game))
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request,
	call func(actorID, orgID, gameID, note string) (*models.Game, error)) {
	actorID, orgID, err := h.identity(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	var in struct {
		Note string `json:"note"`
	}
	// body is optional for status transitions
	_ = json.NewDecoder(r.Body).Decode(&in)

	game, err := call(actorID, orgID, chi.URLParam(r, "gameID"), in.Note)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, http.StatusOK, h.publisher.PublishGameStatus(game))
}

func (h *Handler) ConfirmGame(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actorID, orgID, gameID, note string) (*models.Game, error) {
		return h.gameService.ConfirmGame(r.Context(), actorID, orgID, gameID, note)
	})
}

func (h *Handler) CancelGame(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actorID, orgID, gameID, note string) (*models.Game, error) {
		return h.gameService.CancelGame(r.Context(), actorID, orgID, gameID, note)
	})
}

func (h *Handler) CompleteGame(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actorID, orgID, gameID, note string) (*models.Game, error) {
		return h.gameService.CompleteGame(r.Context(), actorID, orgID, gameID, note)
	})
}

func (h *Handler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	actorID, orgID, err := h.identity(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	gameID := chi.URLParam(r, "gameID")
	formation, err := h.gameService.DeleteGame(r.Context(), actorID, orgID, gameID)
	if err != nil {
		h.fail(w, err)
		return
	}

	// cascade first, then the game itself, so viewers drop the formation
	// before the game disappears under it
	if formation != nil {
		h.publisher.PublishFormationDeleted(orgID, gameID)
	}
	h.publisher.PublishGameDeleted(orgID, gameID)
	h.ok(w, http.StatusOK, map[string]string{"game_id": gameID})
}

func (h *Handler) CreateFormation(w http.ResponseWriter, r *http.Request) {
	actorID, orgID, err := h.identity(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	var in struct {
		FormationType string `json:"formation_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.fail(w, service.ErrValidationFailed)
		return
	}

	f, err := h.formationService.CreateFormation(r.Context(), actorID, orgID, chi.URLParam(r, "gameID"), in.FormationType)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, http.StatusCreated, h.publisher.PublishFormationCreated(f))
}

func (h *Handler) GetFormation(w http.ResponseWriter, r *http.Request) {
	_, orgID, err := h.identity(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	f, err := h.formationService.GetFormationByGame(r.Context(), orgID, chi.URLParam(r, "gameID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, http.StatusOK, broker.FormationSnap(f))
}

func (h *Handler) UpdateFormation(w http.ResponseWriter, r *http.Request) {
	actorID, orgID, err := h.identity(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	var in struct {
		Positions []models.Position `json:"positions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.fail(w, service.ErrValidationFailed)
		return
	}

	f, err := h.formationService.UpdateFormation(r.Context(), actorID, orgID, chi.URLParam(r, "gameID"), in.Positions)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, http.StatusOK, h.publisher.PublishFormationUpdated(f))
}

func (h *Handler) DeleteFormation(w http.ResponseWriter, r *http.Request) {
	actorID, orgID, err := h.identity(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	gameID := chi.URLParam(r, "gameID")
	f, err := h.formationService.DeleteFormation(r.Context(), actorID, orgID, gameID)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.publisher.PublishFormationDeleted(orgID, gameID)
	h.ok(w, http.StatusOK, map[string]string{"game_id": gameID, "formation_id": f.ID})
}

func (h *Handler) LikeFormation(w http.ResponseWriter, r *http.Request) {
	actorID, orgID, err := h.identity(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	f, err := h.formationService.LikeFormation(r.Context(), actorID, orgID, chi.URLParam(r, "formationID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, http.StatusOK, h.publisher.PublishFormationLiked(f))
}

func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	_, orgID, err := h.identity(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	comments, err := h.commentService.ListComments(r.Context(), orgID, chi.URLParam(r, "formationID"))
	if err != nil {
		h.fail(w, err)
		return
	}

	snaps := make([]interface{}, 0, len(comments))
	for _, c := range comments {
		snaps = append(snaps, broker.CommentSnap(c))
	}
	h.ok(w, http.StatusOK, snaps)
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	actorID, orgID, err := h.identity(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	var in struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.fail(w, service.ErrValidationFailed)
		return
	}

	c, err := h.commentService.AddComment(r.Context(), actorID, orgID, chi.URLParam(r, "formationID"), in.Text)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, http.StatusCreated, h.publisher.PublishCommentAdded(c))
}

func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	actorID, orgID, err := h.identity(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	var in struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.fail(w, service.ErrValidationFailed)
		return
	}

	c, err := h.commentService.UpdateComment(r.Context(), actorID, orgID, chi.URLParam(r, "commentID"), in.Text)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, http.StatusOK, h.publisher.PublishCommentUpdated(c))
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	actorID, orgID, err := h.identity(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	c, err := h.commentService.DeleteComment(r.Context(), actorID, orgID, chi.URLParam(r, "commentID"))
	if err != nil {
		h.fail(w, err)
		return
	}

	h.publisher.PublishCommentDeleted(orgID, c.ID, c.FormationID)
	h.ok(w, http.StatusOK, map[string]string{"comment_id": c.ID, "formation_id": c.FormationID})
}

func (h *Handler) LikeComment(w http.ResponseWriter, r *http.Request) {
	actorID, orgID, err := h.identity(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	c, err := h.commentService.LikeComment(r.Context(), actorID, orgID, chi.URLParam(r, "commentID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, http.StatusOK, h.publisher.PublishCommentLiked(c))
}
