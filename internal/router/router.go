package router

import (
	"net/http"
	"strings"

	"makecommunity/internal/actions"
	"makecommunity/internal/config"
	"makecommunity/internal/feed"
	"makecommunity/internal/handlers"
	"makecommunity/internal/middleware"
	"makecommunity/internal/store"
	"makecommunity/web"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionMaxAge = 30 * 24 * 60 * 60

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Config  *config.Config
	Store   store.Store
	Users   middleware.UserResolver
	Feed    *feed.Service
	Actions *actions.Actions
}

// New assembles the engine: middleware chain, templates, static assets and
// routes.
func New(d Deps) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics())
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	sessionStore := cookie.NewStore([]byte(d.Config.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   strings.HasPrefix(d.Config.SiteURL, "https://"),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(middleware.SessionName, sessionStore))
	r.Use(middleware.SessionRefresh(d.Users, d.Config.BackendConfigured()))

	renderer, err := LoadTemplates(web.FS)
	if err != nil {
		return nil, err
	}
	r.HTMLRender = renderer

	r.StaticFS("/static", http.FS(web.Static()))

	RegisterRoutes(r, d)
	return r, nil
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	authHandler := handlers.NewAuthHandler(d.Actions)
	postHandler := handlers.NewPostHandler(d.Actions, d.Feed)
	commentHandler := handlers.NewCommentHandler(d.Actions, d.Store)
	reactionHandler := handlers.NewReactionHandler(d.Actions)
	userHandler := handlers.NewUserHandler(d.Feed)
	seoHandler := handlers.NewSEOHandler(d.Store, d.Config.SiteURL)
	healthHandler := handlers.NewHealthHandler(d.Store)

	// Public Routes
	r.GET("/", postHandler.Home)
	r.GET("/search", postHandler.Search)
	r.GET("/post/:id", postHandler.Detail)
	r.GET("/post/:id/edit", postHandler.ShowEdit)

	r.GET("/signup", authHandler.ShowSignup)
	r.POST("/signup", authHandler.Signup)
	r.GET("/login", authHandler.ShowLogin)
	r.POST("/login", authHandler.Login)
	r.POST("/logout", authHandler.Logout)
	r.GET("/auth/callback", authHandler.Callback)
	r.GET("/reset-password", authHandler.ShowResetPassword)
	r.POST("/reset-password", authHandler.ResetPassword)

	r.GET("/robots.txt", seoHandler.RobotsTxt)
	r.GET("/sitemap.xml", seoHandler.SitemapXML)
	r.GET("/feed.xml", seoHandler.FeedXML)

	// Ops
	r.GET("/healthz", healthHandler.Check)
	r.GET("/metrics", middleware.MetricsAuth(d.Config.MetricsToken), middleware.MetricsHandler())

	// Protected Routes
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/write", postHandler.ShowWrite)
		authorized.POST("/write", postHandler.Create)
		authorized.GET("/profile", userHandler.Profile)
		authorized.POST("/post/:id/edit", postHandler.Update)
		authorized.POST("/post/:id/delete", postHandler.Delete)
		authorized.POST("/post/:id/comments", commentHandler.Create)
		authorized.POST("/post/:id/reactions", reactionHandler.Toggle)
		authorized.POST("/comments/:id/edit", commentHandler.Update)
		authorized.POST("/comments/:id/delete", commentHandler.Delete)

		// Account lookup diagnostic. It mails a recovery link, so it stays
		// off outside debug mode.
		if d.Config.GinMode == gin.DebugMode {
			authorized.POST("/auth/check-user", authHandler.CheckUser)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		handlers.RenderError(c, http.StatusNotFound, "페이지를 찾을 수 없습니다.")
	})
}
