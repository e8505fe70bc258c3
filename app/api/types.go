package api

import (
	"net/http"

	"github.com/sidehub/sidehub/app/database"
	"github.com/sidehub/sidehub/app/source"
	"github.com/sidehub/sidehub/app/tasks"
)

type Handler struct {
	configCache  *source.ConfigCache
	catalogCache *source.CatalogCache
	sourceRepo   database.SourceRepository
	appRepo      database.AppRepository
	newsRepo     database.NewsRepository
	prefRepo     database.PreferenceRepository
	scheduler    tasks.TaskSchedulerInterface
	httpClient   *http.Client
	loader       *source.Loader
	newsParser   *source.NewsParser
	userAgent    string
}
