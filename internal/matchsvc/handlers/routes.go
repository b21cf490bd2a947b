package handlers

import (
	"os"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) SetRoutes(r *chi.Mux) {
	r.Route("/v1", func(r chi.Router) {

		// public routes here

		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(jwtauth.Authenticator)

			r.Get("/health", h.HealthHandler)

			r.Get("/games", h.ListGames)
			r.Post("/games", h.CreateGame)
			r.Get("/games/{gameID}", h.GetGame)
			r.Put("/games/{gameID}", h.UpdateGame)
			r.Delete("/games/{gameID}", h.DeleteGame)
			r.Post("/games/{gameID}/respond", h.RespondToGame)
			r.Post("/games/{gameID}/confirm", h.ConfirmGame)
			r.Post("/games/{gameID}/cancel", h.CancelGame)
			r.Post("/games/{gameID}/complete", h.CompleteGame)

			r.Post("/games/{gameID}/formation", h.CreateFormation)
			r.Get("/games/{gameID}/formation", h.GetFormation)
			r.Put("/games/{gameID}/formation", h.UpdateFormation)
			r.Delete("/games/{gameID}/formation", h.DeleteFormation)
			r.Post("/formations/{formationID}/like", h.LikeFormation)

			r.Get("/formations/{formationID}/comments", h.ListComments)
			r.Post("/formations/{formationID}/comments", h.AddComment)
			r.Put("/comments/{commentID}", h.UpdateComment)
			r.Delete("/comments/{commentID}", h.DeleteComment)
			r.Post("/comments/{commentID}/like", h.LikeComment)
		})
	})
}

func (h *Handler) InitAuth() {
	var jwtKey = os.Getenv("JWT_SECRET_KEY")
	h.tokenAuth = jwtauth.New("HS256", []byte(jwtKey), nil)

	expirationTime := time.Now().Add(7 * 24 * time.Hour).Unix()

	_, tokenString, _ := h.tokenAuth.Encode(map[string]interface{}{
		"user_id": "dev-user",
		"org_id":  "dev-org",
		"exp":     expirationTime,
	})

	// For debugging only, comment it out in production
	log.Infof("DEBUG: JWT for testing expires soon : %s", tokenString)
}
