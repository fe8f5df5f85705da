package routes

import (
	"github.com/aidosbek/swisscut/handlers"
	"github.com/aidosbek/swisscut/middleware"
	"github.com/aidosbek/swisscut/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRoutes собирает все маршруты API на переданном роутере.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	tournamentHandler *handlers.TournamentHandler,
	participantHandler *handlers.ParticipantHandler,
	progressionHandler *handlers.ProgressionHandler,
	matchHandler *handlers.MatchHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.Handler())

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	// Live-лента событий турнира
	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)

	organizerOnly := []string{string(models.RoleOrganizer), string(models.RoleAdmin)}

	router.Route("/tournaments", func(r chi.Router) {
		// Публичные маршруты для просмотра
		r.Get("/", tournamentHandler.List)
		r.Get("/{id}", tournamentHandler.Get)
		r.Get("/{id}/participants", participantHandler.List)
		r.Get("/{id}/matches", matchHandler.ListByTournament)
		r.Get("/{id}/standings", progressionHandler.Standings)

		// Регистрация открыта для любого аутентифицированного пользователя
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Post("/{id}/participants", participantHandler.Register)
		})

		// Управление турниром — только организаторы
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.Authorize(organizerOnly...))

			r.Post("/", tournamentHandler.Create)
			r.Patch("/{id}/status", tournamentHandler.UpdateStatus)
			r.Delete("/{id}", tournamentHandler.Delete)
			r.Post("/{id}/logo", tournamentHandler.UploadLogo)

			r.Post("/{id}/swiss-rounds/{round}", progressionHandler.GenerateSwissRound)
			r.Post("/{id}/top-cut", progressionHandler.GenerateTopCut)
			r.Post("/{id}/bracket/advance", progressionHandler.AdvanceBracket)
			r.Delete("/{id}/bracket/rounds/{round}", progressionHandler.ResetBracketRound)
		})
	})

	router.Route("/participants", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Post("/{participantID}/check-in", participantHandler.CheckIn)
			r.Post("/{participantID}/avatar", participantHandler.UploadAvatar)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.Authorize(organizerOnly...))
			r.Post("/{participantID}/drop", participantHandler.Drop)
			r.Delete("/{participantID}", participantHandler.Remove)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", matchHandler.Get)
		r.Get("/{matchID}/events", matchHandler.ListEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.Authorize(organizerOnly...))
			r.Post("/{matchID}/finish", matchHandler.RecordFinish)
			r.Post("/{matchID}/score", matchHandler.SetScore)
			r.Post("/{matchID}/reset", matchHandler.Reset)
		})
	})
}
