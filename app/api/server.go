package api

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/adcomb/app/content"
	"github.com/lysyi3m/adcomb/app/storage"
)

type ServerOptions struct {
	BaseURL         string
	Version         string
	MediaDir        string
	SchedulerAPIKey string
}

func NewHandler(services Services, opts ServerOptions) *Handler {
	return &Handler{
		Services:  services,
		owned:     content.Owned{Campaigns: services.Repos.Campaigns, Items: services.Repos.Items},
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		version:   opts.Version,
		startedAt: time.Now(),
	}
}

// NewServer creates the gin engine with all routes configured.
func NewServer(handler *Handler, opts ServerOptions) *gin.Engine {
	r := gin.New()

	r.Use(corsMiddleware())

	setupRoutes(r, handler, opts)

	return r
}

func setupRoutes(r *gin.Engine, h *Handler, opts ServerOptions) {
	r.GET("/health", h.GetHealth)

	if opts.MediaDir != "" {
		r.Static(storage.MediaPath, opts.MediaDir)
	}

	public := r.Group("/public")
	{
		public.GET("/landing/:slug", h.GetPublicLandingPage)
		public.GET("/campaigns/:id/feed.xml", h.GetCampaignFeed)
	}

	api := r.Group("/api")

	if opts.SchedulerAPIKey != "" {
		api.GET("/scheduled-update", schedulerKeyMiddleware(opts.SchedulerAPIKey), h.RunScheduledUpdate)
	} else {
		slog.Info("Scheduled update endpoint disabled (SCHEDULER_API_KEY not set)")
	}

	user := api.Group("", authMiddleware(h.Repos.Profiles))
	{
		user.GET("/me", h.GetMe)
		user.GET("/categories", h.ListCategories)

		user.GET("/campaigns", h.ListCampaigns)
		user.POST("/campaigns", h.CreateCampaign)
		user.POST("/campaigns/suggestions", h.SuggestCampaign)
		user.GET("/campaigns/:id", h.GetCampaign)
		user.PUT("/campaigns/:id", h.UpdateCampaign)
		user.DELETE("/campaigns/:id", h.DeleteCampaign)
		user.GET("/campaigns/:id/feeds", h.GetCampaignFeeds)
		user.GET("/campaigns/:id/news", h.GetCampaignNews)

		user.POST("/content/generate", h.GenerateContent)
		user.GET("/content", h.QueryContent)
		user.GET("/content/:id", h.GetContent)
		user.PATCH("/content/:id", h.PublishContent)
		user.DELETE("/content/:id", h.DeleteContent)
		user.POST("/content/:id/image", h.GenerateImage)

		user.GET("/content/:id/variants", h.ListVariants)
		user.POST("/content/:id/variants", h.GenerateVariants)
		user.PATCH("/variants/:id", h.PatchVariant)
		user.DELETE("/variants/:id", h.DeleteVariant)

		user.GET("/content/:id/landing-page", h.GetLandingPage)
		user.POST("/content/:id/landing-page", h.GenerateLandingPage)
		user.DELETE("/content/:id/landing-page", h.DeleteLandingPage)
	}

	admin := user.Group("/admin", adminMiddleware(h.Repos.Profiles))
	{
		admin.GET("/feeds", h.ListFeeds)
		admin.POST("/feeds", h.CreateFeed)
		admin.GET("/feeds/:id", h.GetFeed)
		admin.PUT("/feeds/:id", h.UpdateFeed)
		admin.DELETE("/feeds/:id", h.DeleteFeed)
	}
}
