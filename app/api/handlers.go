package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sidehub/sidehub/app/database"
	"github.com/sidehub/sidehub/app/source"
	"github.com/sidehub/sidehub/app/tasks"
)

const themePreferenceKey = "theme"

func NewHandler(configCache *source.ConfigCache, catalogCache *source.CatalogCache,
	sourceRepo database.SourceRepository, appRepo database.AppRepository,
	newsRepo database.NewsRepository, prefRepo database.PreferenceRepository,
	scheduler tasks.TaskSchedulerInterface, httpClient *http.Client,
	loader *source.Loader, newsParser *source.NewsParser, userAgent string) *Handler {
	return &Handler{
		configCache:  configCache,
		catalogCache: catalogCache,
		sourceRepo:   sourceRepo,
		appRepo:      appRepo,
		newsRepo:     newsRepo,
		prefRepo:     prefRepo,
		scheduler:    scheduler,
		httpClient:   httpClient,
		loader:       loader,
		newsParser:   newsParser,
		userAgent:    userAgent,
	}
}

// catalogFor resolves the live catalog for a source, writing the
// appropriate error response on failure. A configured source whose
// first refresh has not completed yet is 503, not 404.
func (h *Handler) catalogFor(c *gin.Context, name string) (*source.Catalog, bool) {
	if _, err := h.configCache.GetConfig(name); err != nil {
		slog.Debug("Source configuration not found", "source", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		return nil, false
	}

	catalog, err := h.catalogCache.Get(name)
	if err != nil {
		slog.Debug("Catalog not loaded yet", "source", name, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Source not loaded yet"})
		return nil, false
	}

	return catalog, true
}

func (h *Handler) GetApps(c *gin.Context) {
	name := c.Param("name")

	catalog, ok := h.catalogFor(c, name)
	if !ok {
		return
	}

	query := c.Query("q")
	apps := catalog.Search(query)

	cards := make([]source.CardView, 0, len(apps))
	for _, app := range apps {
		cards = append(cards, source.NewCardView(app))
	}

	c.JSON(http.StatusOK, gin.H{
		"source": catalog.Name(),
		"query":  query,
		"apps":   cards,
		"total":  len(cards),
	})
}

func (h *Handler) GetAppDetails(c *gin.Context) {
	name := c.Param("name")
	id := c.Param("id")

	catalog, ok := h.catalogFor(c, name)
	if !ok {
		return
	}

	app, found := catalog.FindByIdentifier(id)
	if !found {
		// A stale or mistyped identifier is not an error condition
		c.Status(http.StatusNotFound)
		return
	}

	shown, _ := strconv.Atoi(c.Query("shown"))

	c.JSON(http.StatusOK, source.NewDetailView(*app, shown))
}

func (h *Handler) GetNews(c *gin.Context) {
	name := c.Param("name")

	catalog, ok := h.catalogFor(c, name)
	if !ok {
		return
	}

	filter := c.DefaultQuery("filter", source.AllFilterKey)
	items := catalog.FilterNews(filter)

	c.JSON(http.StatusOK, gin.H{
		"source":  catalog.Name(),
		"filter":  filter,
		"filters": catalog.FilterGroups(),
		"items":   items,
		"total":   len(items),
	})
}

func (h *Handler) GetNewsArticle(c *gin.Context) {
	name := c.Param("name")
	id := c.Param("id")

	if _, ok := h.catalogFor(c, name); !ok {
		return
	}

	article, err := h.newsRepo.GetArticle(name, id)
	if err != nil {
		slog.Error("Database error", "operation", "get_article", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if article == nil {
		c.Status(http.StatusNotFound)
		return
	}

	response := gin.H{
		"identifier": article.Identifier,
		"status":     article.Status,
	}
	if article.Status == database.ArticleStatusSuccess {
		response["content"] = article.Content
	}
	if article.Error != "" {
		response["error"] = article.Error
	}
	if article.ExtractedAt != nil {
		response["extracted_at"] = article.ExtractedAt.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) GetInstallLinks(c *gin.Context) {
	name := c.Param("name")

	config, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Debug("Source configuration not found", "source", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"source": name,
		"url":    config.URL,
		"links":  source.InstallLinks(config.URL),
	})
}

func (h *Handler) GetTheme(c *gin.Context) {
	value, ok, err := h.prefRepo.Get(themePreferenceKey)
	if err != nil {
		slog.Error("Database error", "operation", "get_preference", "key", themePreferenceKey, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	// Absent means follow the system appearance
	if !ok {
		value = "system"
	}

	c.JSON(http.StatusOK, gin.H{"theme": value})
}

func (h *Handler) SetTheme(c *gin.Context) {
	var body struct {
		Theme string `json:"theme"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	switch body.Theme {
	case "light", "dark", "system":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Theme must be 'light', 'dark' or 'system'"})
		return
	}

	if err := h.prefRepo.Set(themePreferenceKey, body.Theme); err != nil {
		slog.Error("Database error", "operation", "set_preference", "key", themePreferenceKey, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"theme": body.Theme})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if sourceCount, err := h.sourceRepo.GetSourceCount(); err == nil {
		health["sources"] = sourceCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()
	health["loaded_catalogs"] = h.catalogCache.GetCatalogCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"timestamp":             time.Now().In(time.Local).Format(time.RFC3339),
		"loaded_configurations": h.configCache.GetConfigCount(),
		"loaded_catalogs":       h.catalogCache.GetCatalogCount(),
		"apps":                  h.catalogCache.GetAppCount(),
	}

	if sourceCount, err := h.sourceRepo.GetSourceCount(); err == nil {
		stats["sources"] = sourceCount
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIListSources(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	sources := make([]map[string]interface{}, 0, len(configs))

	for _, config := range configs {
		sourceInfo := map[string]interface{}{
			"name":             config.Name,
			"url":              config.URL,
			"title":            "",
			"enabled":          config.Settings.Enabled,
			"refresh_interval": (time.Duration(config.Settings.RefreshInterval) * time.Second).String(),
			"news_feed":        config.NewsFeed,
		}

		if src, err := h.sourceRepo.GetSource(config.Name); err == nil && src != nil {
			sourceInfo["title"] = src.Title
			sourceInfo["last_fetched_at"] = src.LastFetchedAt
			sourceInfo["next_fetch_at"] = src.NextFetchAt
			sourceInfo["updated_at"] = src.UpdatedAt
		}

		if appCount, err := h.appRepo.GetAppCount(config.Name); err == nil {
			sourceInfo["app_count"] = appCount
		}

		sources = append(sources, sourceInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"sources": sources,
		"total":   len(sources),
	})
}

func (h *Handler) APIGetSourceDetails(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing source name parameter"})
		return
	}

	config, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Error("Source configuration not found", "source", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
		return
	}

	src, err := h.sourceRepo.GetSource(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_source", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if src == nil {
		slog.Error("Source not found in database", "source", name)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found in database"})
		return
	}

	details := map[string]interface{}{
		"name":             name,
		"url":              config.URL,
		"title":            src.Title,
		"enabled":          config.Settings.Enabled,
		"refresh_interval": (time.Duration(config.Settings.RefreshInterval) * time.Second).String(),
		"timeout":          (time.Duration(config.Settings.Timeout) * time.Second).String(),
		"news_feed":        config.NewsFeed,
		"extract_articles": config.Settings.ExtractArticles,
	}

	details["database"] = map[string]interface{}{
		"name":            src.Name,
		"subtitle":        src.Subtitle,
		"icon_url":        src.IconURL,
		"tint_color":      src.TintColor,
		"last_fetched_at": src.LastFetchedAt,
		"next_fetch_at":   src.NextFetchAt,
		"created_at":      src.CreatedAt,
		"updated_at":      src.UpdatedAt,
	}

	counts := map[string]interface{}{}
	if appCount, err := h.appRepo.GetAppCount(name); err == nil {
		counts["apps"] = appCount
	}
	if newsCount, err := h.newsRepo.GetNewsCount(name); err == nil {
		counts["news"] = newsCount
	}
	details["counts"] = counts

	c.JSON(http.StatusOK, details)
}

func (h *Handler) APIRefreshSource(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing source name parameter"})
		return
	}

	if _, err := h.configCache.GetConfig(name); err != nil {
		slog.Error("Source configuration not found", "source", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
		return
	}

	config, err := h.configCache.LoadConfig(name)
	if err != nil {
		slog.Error("Error reloading configuration", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload configuration",
			"details": err.Error(),
		})
		return
	}

	syncTask := tasks.NewSyncSourceConfigTask(name, config, h.sourceRepo)
	if err := h.scheduler.EnqueueTask(syncTask); err != nil {
		slog.Error("Error enqueueing sync task", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue sync task",
			"details": err.Error(),
		})
		return
	}

	refreshTask := tasks.NewRefreshSourceTask(name, config, h.httpClient, h.loader,
		h.newsParser, h.sourceRepo, h.appRepo, h.newsRepo, h.catalogCache, h.userAgent)
	if err := h.scheduler.EnqueueTask(refreshTask); err != nil {
		slog.Error("Error enqueueing refresh task", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue refresh task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Configuration reloaded and tasks enqueued successfully",
		"source": gin.H{
			"name": name,
			"url":  config.URL,
		},
		"tasks": []gin.H{
			{
				"id":   syncTask.ID,
				"type": syncTask.Type,
			},
			{
				"id":   refreshTask.ID,
				"type": refreshTask.Type,
			},
		},
	})
}
