package routes

import (
	"net/http"

	"github.com/esports-arena/platform/handlers"
	"github.com/esports-arena/platform/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRoutes собирает все маршруты приложения на переданном роутере.
func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Auth,
	authHandler *handlers.AuthHandler,
	tournamentHandler *handlers.TournamentHandler,
	enrollmentHandler *handlers.EnrollmentHandler,
	matchHandler *handlers.MatchHandler,
	leaderboardHandler *handlers.LeaderboardHandler,
	notificationHandler *handlers.NotificationHandler,
	webSocketHandler *handlers.WebSocketHandler,
	allowedOrigins []string,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// Аутентификация
	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	// Публичные маршруты просмотра
	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.List)
		r.Get("/slug/{slug}", tournamentHandler.GetBySlug)
		r.Get("/{tournamentID}", tournamentHandler.Get)
		r.Get("/{tournamentID}/overview", tournamentHandler.Overview)
		r.Get("/{tournamentID}/matches", matchHandler.ListByTournament)
		r.Get("/{tournamentID}/leaderboard", leaderboardHandler.List)
		r.Get("/{tournamentID}/enrollments", enrollmentHandler.ListByTournament)
	})

	// Live-события
	router.Get("/ws/tournaments/{slug}", webSocketHandler.Subscribe)

	// Маршруты аутентифицированных пользователей
	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Get("/me", authHandler.Me)

		r.Post("/tournaments/{tournamentID}/enroll", enrollmentHandler.Submit)
		r.Get("/enrollments/mine", enrollmentHandler.ListMine)

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", notificationHandler.ListMine)
			r.Patch("/read-all", notificationHandler.MarkAllRead)
			r.Patch("/{notificationID}/read", notificationHandler.MarkRead)
		})
	})

	// Администрирование турниров
	router.Route("/admin", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Use(auth.RequireAdmin)

		r.Route("/tournaments", func(r chi.Router) {
			r.Post("/", tournamentHandler.Create)
			r.Put("/{tournamentID}", tournamentHandler.Update)
			r.Patch("/{tournamentID}/status", tournamentHandler.ChangeStatus)
			r.Put("/{tournamentID}/banner", tournamentHandler.UploadBanner)
			r.Delete("/{tournamentID}", tournamentHandler.Delete)

			r.Post("/{tournamentID}/matches", matchHandler.Create)
			r.Post("/{tournamentID}/leaderboard", leaderboardHandler.CreateEntry)
			r.Post("/{tournamentID}/leaderboard/recalculate", leaderboardHandler.Recalculate)
		})

		r.Route("/enrollments", func(r chi.Router) {
			r.Patch("/{enrollmentID}/approve", enrollmentHandler.Approve)
			r.Patch("/{enrollmentID}/reject", enrollmentHandler.Reject)
		})

		r.Route("/matches", func(r chi.Router) {
			r.Patch("/{matchID}/status", matchHandler.UpdateStatus)
			r.Patch("/{matchID}/room", matchHandler.SetRoom)
			r.Put("/{matchID}/details", matchHandler.UpdateDetails)
			r.Put("/{matchID}/result", matchHandler.RecordResult)
			r.Delete("/{matchID}", matchHandler.Delete)
		})

		r.Route("/leaderboard", func(r chi.Router) {
			r.Put("/{entryID}/stats", leaderboardHandler.UpdateStats)
			r.Patch("/{entryID}/disqualify", leaderboardHandler.Disqualify)
			r.Patch("/{entryID}/requalify", leaderboardHandler.Requalify)
			r.Post("/{entryID}/prize", leaderboardHandler.DistributePrize)
			r.Delete("/{entryID}", leaderboardHandler.DeleteEntry)
		})
	})
}
