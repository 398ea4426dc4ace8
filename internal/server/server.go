package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/choneas/atelier/internal/config"
	"github.com/choneas/atelier/internal/locale"
	"github.com/choneas/atelier/internal/service/notion"
	"github.com/choneas/atelier/internal/service/social"
	"github.com/choneas/atelier/internal/transport"
)

const localeContextKey = "locale"

type Server struct {
	Config *config.Config
	Router *gin.Engine
	Logger *zap.Logger
	Server *http.Server

	// Services
	Notion  *notion.Service
	Social  *social.Service
	Locales *locale.Matcher
}

func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	// Set gin mode
	gin.SetMode(cfg.Server.Mode)

	// Locale discovery is a startup invariant: a missing default-locale
	// message file is fatal here, not at request time.
	locales, err := locale.NewMatcher(cfg.Locale.MessagesDir, cfg.Locale.DefaultLocale)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize locales: %w", err)
	}

	// Initialize services
	client := notion.NewClient(&cfg.Notion, &cfg.Proxy, logger)
	notionService := notion.NewService(&cfg.Notion, cfg.Authors, client, logger)
	socialService := social.NewService(&cfg.Social, transport.NewProxy(&cfg.Proxy, nil, logger), logger)

	// Create router
	router := gin.New()

	// Create server
	srv := &Server{
		Config:  cfg,
		Router:  router,
		Logger:  logger,
		Notion:  notionService,
		Social:  socialService,
		Locales: locales,
	}

	// Setup middleware and routes
	srv.setupMiddleware()
	srv.setupRoutes()

	return srv, nil
}

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.Router.Use(gin.Recovery())

	// Logger middleware
	s.Router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	// CORS middleware
	s.Router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Locale resolution: cookie first, then Accept-Language, then default
	s.Router.Use(func(c *gin.Context) {
		cookie, _ := c.Cookie(locale.CookieName)
		c.Set(localeContextKey, s.Locales.Resolve(cookie, c.GetHeader("Accept-Language")))
		c.Next()
	})
}

func (s *Server) setupRoutes() {
	// Health check
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})

	// API routes
	api := s.Router.Group("/api/v1")
	{
		posts := api.Group("/posts")
		{
			posts.GET("", s.handleListPosts)
			posts.GET("/:identifier", s.handleGetPost)
			posts.GET("/:identifier/reading-time", s.handleReadingTime)
		}

		api.GET("/social/posts", s.handleSocialPosts)
	}
}

func (s *Server) requestLocale(c *gin.Context) string {
	return c.GetString(localeContextKey)
}

func (s *Server) localizer(c *gin.Context) notion.Localizer {
	loc := s.requestLocale(c)
	return func(category string) string {
		return s.Locales.LocalizeCategory(loc, category)
	}
}

func (s *Server) handleListPosts(c *gin.Context) {
	posts, err := s.Notion.ListArticles(c.Request.Context(), s.localizer(c), false)
	if err != nil {
		s.Logger.Error("Failed to list articles", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (s *Server) handleGetPost(c *gin.Context) {
	identifier := c.Param("identifier")

	tree, metadata, err := s.Notion.ResolvePage(c.Request.Context(), identifier, s.localizer(c))
	if err != nil {
		var notFound *notion.ArticleNotFoundError
		if errors.As(err, &notFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		s.Logger.Error("Failed to resolve post",
			zap.String("identifier", identifier),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"post":                 metadata,
		"reading_time_minutes": notion.ReadingTimeMinutes(tree),
	})
}

func (s *Server) handleReadingTime(c *gin.Context) {
	identifier := c.Param("identifier")

	tree, _, err := s.Notion.ResolvePage(c.Request.Context(), identifier, nil)
	if err != nil {
		var notFound *notion.ArticleNotFoundError
		if errors.As(err, &notFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		s.Logger.Error("Failed to resolve post",
			zap.String("identifier", identifier),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get post"})
		return
	}

	minutes := notion.ReadingTimeMinutes(tree)
	c.JSON(http.StatusOK, gin.H{
		"minutes": minutes,
		"label":   notion.FormatReadingTime(minutes, s.requestLocale(c), s.Locales),
	})
}

func (s *Server) handleSocialPosts(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	posts := s.Social.Posts(c.Request.Context(), limit)
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)

	s.Server = &http.Server{
		Addr:    addr,
		Handler: s.Router,
	}

	s.Logger.Info("Starting HTTP server", zap.String("addr", addr))

	if s.Config.Server.CertFile != "" && s.Config.Server.KeyFile != "" {
		return s.Server.ListenAndServeTLS(s.Config.Server.CertFile, s.Config.Server.KeyFile)
	}

	return s.Server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.Server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return s.Server.Shutdown(shutdownCtx)
}
