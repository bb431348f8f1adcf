package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/taskhive/taskhive-be/internal/api/handlers"
	"github.com/taskhive/taskhive-be/internal/auth"
	"github.com/taskhive/taskhive-be/internal/services"
	"github.com/taskhive/taskhive-be/internal/websocket"
)

// NewRouter creates and configures a new Chi router.
//
// Authentication ordering matters: the JWT middleware runs before any
// authorization check so that handlers always see resolved claims. Reads by
// id (lists, tasks) are deliberately public; every mutation is authenticated
// and list-authorized.
func NewRouter(
	hub *websocket.Hub,
	tokens *auth.TokenManager,
	userService services.UserServiceProvider,
	listService services.ListServiceProvider,
	taskService services.TaskServiceProvider,
	eventService services.EventServiceProvider,
	allowedOrigin string,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{allowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService, tokens)
	listHandler := handlers.NewListHandler(listService)
	taskHandler := handlers.NewTaskHandler(taskService)
	eventHandler := handlers.NewEventHandler(eventService)
	systemHandler := handlers.NewSystemHandler()
	wsHandler := handlers.NewWebSocketHandler(hub)

	requireAuth := tokens.Middleware()

	r.Route("/api/v1", func(r chi.Router) {
		// Live update feed
		r.Get("/ws", wsHandler.Serve)

		// Authentication (token issuance)
		r.Post("/authentication", userHandler.Authenticate)

		r.Route("/users", func(r chi.Router) {
			r.Post("/", userHandler.Register) // registration entry point
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/", userHandler.Find)
				r.Get("/me", userHandler.GetMe)
				r.Get("/{id}", userHandler.Get)
			})
		})

		r.Route("/lists", func(r chi.Router) {
			r.Get("/", listHandler.Find)
			r.Get("/{id}", listHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", listHandler.Create)
				r.Patch("/{id}", listHandler.Patch)
				r.Delete("/{id}", listHandler.Delete)
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/{id}", taskHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/", taskHandler.Find)
				r.Post("/", taskHandler.Create)
				r.Patch("/{id}", taskHandler.Patch)
				r.Delete("/{id}", taskHandler.Delete)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/events", eventHandler.GetRecent)
			r.Get("/system/stats", systemHandler.GetStats)
		})
	})

	return r
}
