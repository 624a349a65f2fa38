package httpapi

import (
	"net/http"
	"time"

	"kanza-admin-go/internal/cache"
	"kanza-admin-go/internal/config"
	"kanza-admin-go/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
)

type Server struct {
	DB         *sqlx.DB
	Config     config.Config
	Tokens     services.TokenService
	Cache      cache.Store
	MetricsHub *services.MetricsHub
}

func NewServer(db *sqlx.DB, cfg config.Config, store cache.Store, hub *services.MetricsHub) *Server {
	tokens := services.TokenService{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  time.Duration(cfg.AccessTTLSeconds) * time.Second,
		RefreshTTL: time.Duration(cfg.RefreshTTLSeconds) * time.Second,
	}
	return &Server{
		DB:         db,
		Config:     cfg,
		Tokens:     tokens,
		Cache:      store,
		MetricsHub: hub,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger)
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/login", s.Login)
		api.Post("/auth/refresh", s.Refresh)
		api.Post("/auth/logout", s.Logout)

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(WithAuth(s.Tokens))

			admin.Route("/categories", func(categories chi.Router) {
				categories.Get("/", s.ListCategories)
				categories.Post("/", s.CreateCategory)
				categories.Put("/order", s.ReorderCategories)
				categories.Get("/{categoryId}", s.GetCategory)
				categories.Put("/{categoryId}", s.UpdateCategory)
				categories.Delete("/{categoryId}", s.DeleteCategory)
				categories.Patch("/{categoryId}/status", s.SetCategoryStatus)
			})

			admin.Route("/courses", func(courses chi.Router) {
				courses.Get("/", s.ListCourses)
				courses.Post("/", s.CreateCourse)
				courses.Get("/{courseId}", s.GetCourse)
				courses.Put("/{courseId}", s.UpdateCourse)
				courses.Delete("/{courseId}", s.DeleteCourse)
				courses.Patch("/{courseId}/status", s.SetCourseStatus)
				courses.Get("/{courseId}/videos", s.ListCourseVideos)
				courses.Post("/{courseId}/videos", s.CreateCourseVideo)
				courses.Put("/{courseId}/videos/order", s.ReorderCourseVideos)
			})

			admin.Route("/videos", func(videos chi.Router) {
				videos.Get("/{videoId}", s.GetVideo)
				videos.Put("/{videoId}", s.UpdateVideo)
				videos.Delete("/{videoId}", s.DeleteVideo)
				videos.Patch("/{videoId}/status", s.SetVideoStatus)
			})

			admin.Route("/auctions", func(auctions chi.Router) {
				auctions.Get("/", s.ListAuctions)
				auctions.Post("/", s.CreateAuction)
				auctions.Get("/{auctionId}", s.GetAuction)
				auctions.Put("/{auctionId}", s.UpdateAuction)
				auctions.Delete("/{auctionId}", s.DeleteAuction)
				auctions.Patch("/{auctionId}/status", s.SetAuctionStatus)
			})

			admin.Route("/plans", func(plans chi.Router) {
				plans.Get("/", s.ListPlans)
				plans.Post("/", s.CreatePlan)
				plans.Get("/{planId}", s.GetPlan)
				plans.Put("/{planId}", s.UpdatePlan)
				plans.Delete("/{planId}", s.DeletePlan)
				plans.Patch("/{planId}/status", s.SetPlanStatus)
			})

			admin.Route("/notifications", func(notifications chi.Router) {
				notifications.Get("/", s.ListNotifications)
				notifications.Post("/", s.CreateNotification)
				notifications.Get("/{notificationId}", s.GetNotification)
				notifications.Put("/{notificationId}", s.UpdateNotification)
				notifications.Delete("/{notificationId}", s.DeleteNotification)
				notifications.Patch("/{notificationId}/status", s.SetNotificationStatus)
				notifications.Patch("/{notificationId}/read", s.SetNotificationRead)
			})

			admin.Route("/pages", func(pages chi.Router) {
				pages.Get("/", s.ListPages)
				pages.Post("/", s.CreatePage)
				pages.Get("/{pageId}", s.GetPage)
				pages.Put("/{pageId}", s.UpdatePage)
				pages.Delete("/{pageId}", s.DeletePage)
				pages.Patch("/{pageId}/status", s.SetPageStatus)
			})

			admin.Route("/users", func(users chi.Router) {
				users.Use(RequireRole("ADMIN"))
				users.Get("/", s.ListUsers)
				users.Post("/", s.CreateUser)
				users.Get("/{userId}", s.GetUser)
				users.Put("/{userId}", s.UpdateUser)
				users.Delete("/{userId}", s.DeleteUser)
				users.Patch("/{userId}/status", s.SetUserStatus)
			})

			admin.Get("/dashboard", s.Dashboard)
			admin.Get("/metrics/history", s.MetricsHistory)
		})

		api.Route("/public", func(pub chi.Router) {
			pub.Get("/categories", s.PublicCategories)
			pub.Get("/pages/{slug}", s.PublicPage)
		})

		api.Route("/media", func(media chi.Router) {
			media.Get("/assets/{assetId}/content", s.MediaContent)
		})
	})

	r.Get("/ws/metrics", s.MetricsSocket)
	return r
}
