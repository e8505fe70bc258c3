package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sidehub/sidehub/app/database"
	"github.com/sidehub/sidehub/app/source"
	"github.com/sidehub/sidehub/app/tasks"
)

type fakeScheduler struct {
	enqueued []tasks.TaskInterface
}

func (f *fakeScheduler) Start() {}
func (f *fakeScheduler) Stop()  {}
func (f *fakeScheduler) EnqueueTask(task tasks.TaskInterface) error {
	f.enqueued = append(f.enqueued, task)
	return nil
}

type testEnv struct {
	router    *gin.Engine
	scheduler *fakeScheduler
	prefRepo  database.PreferenceRepository
	newsRepo  database.NewsRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	sourcesDir := t.TempDir()
	configYML := `url: "https://example.com/apps.json"
settings:
  enabled: true
`
	if err := os.WriteFile(filepath.Join(sourcesDir, "demo.yml"), []byte(configYML), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	configCache := source.NewConfigCache(sourcesDir)
	if err := configCache.Run(); err != nil {
		t.Fatalf("Failed to load configs: %v", err)
	}

	catalogCache := source.NewCatalogCache()
	catalogCache.Set("demo", source.NewCatalog(testFeed()))

	sourceRepo := database.NewSourceRepository(db)
	appRepo := database.NewAppRepository(db)
	newsRepo := database.NewNewsRepository(db)
	prefRepo := database.NewPreferenceRepository(db)

	if err := sourceRepo.UpsertSource("demo", "https://example.com/apps.json"); err != nil {
		t.Fatal(err)
	}

	scheduler := &fakeScheduler{}
	handler := NewHandler(configCache, catalogCache, sourceRepo, appRepo, newsRepo,
		prefRepo, scheduler, http.DefaultClient,
		source.NewLoader(http.DefaultClient, "SideHub Test/1.0"),
		source.NewNewsParser(), "SideHub Test/1.0")

	return &testEnv{
		router:    NewServer(handler, "secret", "test"),
		scheduler: scheduler,
		prefRepo:  prefRepo,
		newsRepo:  newsRepo,
	}
}

func testFeed() *source.Feed {
	return &source.Feed{
		Name: "Demo Source",
		Apps: []source.AppRecord{
			{
				BundleIdentifier: "com.example.notes",
				Name:             "Notes",
				DeveloperName:    "Alice",
				Versions: []source.VersionRecord{
					{Version: "2.0", Date: "2024-01-05", Size: 1536},
					{Version: "1.9", Date: "2023-12-01", Size: 1024},
					{Version: "1.8", Date: "2023-11-01", Size: 1024},
					{Version: "1.7", Date: "2023-10-01", Size: 1024},
				},
			},
			{
				BundleIdentifier: "com.example.player",
				Name:             "Player",
				DeveloperName:    "Bob",
				Versions: []source.VersionRecord{
					{Version: "1.0", Date: "2024-02-01", Size: 2048},
				},
			},
		},
		News: []source.NewsRecord{
			{Title: "Notes 2.0 released", Date: "2024-01-05", AppID: "com.example.notes"},
			{Title: "Welcome", Date: "2024-01-01"},
		},
	}
}

func doRequest(t *testing.T, router *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var result map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to decode response: %v\nbody: %s", err, w.Body.String())
	}
	return result
}

func TestGetApps(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(t, env.router, "GET", "/sources/demo/apps", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	result := decodeJSON(t, w)
	if result["total"].(float64) != 2 {
		t.Errorf("Expected 2 apps, got %v", result["total"])
	}
	if result["source"] != "Demo Source" {
		t.Errorf("Expected source 'Demo Source', got %v", result["source"])
	}
}

func TestGetAppsSearch(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(t, env.router, "GET", "/sources/demo/apps?q=ALICE", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	result := decodeJSON(t, w)
	if result["total"].(float64) != 1 {
		t.Errorf("Expected 1 match for developer search, got %v", result["total"])
	}
}

func TestGetAppsUnknownSource(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(t, env.router, "GET", "/sources/missing/apps", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown source, got %d", w.Code)
	}
}

func TestGetAppDetails(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(t, env.router, "GET", "/sources/demo/apps/com.example.notes", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	result := decodeJSON(t, w)
	if result["totalVersions"].(float64) != 4 {
		t.Errorf("Expected 4 total versions, got %v", result["totalVersions"])
	}
	if result["shownVersions"].(float64) != 3 {
		t.Errorf("Expected first page of 3 versions, got %v", result["shownVersions"])
	}
	if result["hasMoreVersions"] != true {
		t.Error("Expected more versions to be available")
	}
}

func TestGetAppDetailsShownParameter(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(t, env.router, "GET", "/sources/demo/apps/com.example.notes?shown=6", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	result := decodeJSON(t, w)
	if result["shownVersions"].(float64) != 4 {
		t.Errorf("Expected shown clamped to 4, got %v", result["shownVersions"])
	}
	if result["hasMoreVersions"] != false {
		t.Error("Expected no more versions once fully expanded")
	}
}

func TestGetAppDetailsUnknownIdentifier(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(t, env.router, "GET", "/sources/demo/apps/com.gone.app", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown identifier, got %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Expected empty body for unknown identifier, got %q", w.Body.String())
	}
}

func TestGetNews(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(t, env.router, "GET", "/sources/demo/news", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	result := decodeJSON(t, w)
	if result["total"].(float64) != 2 {
		t.Errorf("Expected 2 news items, got %v", result["total"])
	}

	filters := result["filters"].([]interface{})
	first := filters[0].(map[string]interface{})
	if first["key"] != "all" {
		t.Errorf("Expected 'all' filter first, got %v", first["key"])
	}
}

func TestGetNewsFiltered(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(t, env.router, "GET", "/sources/demo/news?filter=Notes", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	result := decodeJSON(t, w)
	if result["total"].(float64) != 1 {
		t.Errorf("Expected 1 item in Notes group, got %v", result["total"])
	}
}

func TestGetNewsArticleUnknown(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(t, env.router, "GET", "/sources/demo/news/deadbeef/article", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown article, got %d", w.Code)
	}
}

func TestGetInstallLinks(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(t, env.router, "GET", "/sources/demo/install-links", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	result := decodeJSON(t, w)
	links := result["links"].([]interface{})
	if len(links) != 5 {
		t.Errorf("Expected 5 installer links, got %d", len(links))
	}

	first := links[0].(map[string]interface{})
	if first["name"] != "AltStore" {
		t.Errorf("Expected AltStore first, got %v", first["name"])
	}
	if !strings.HasPrefix(first["url"].(string), "altstore://source?url=") {
		t.Errorf("Unexpected AltStore URI: %v", first["url"])
	}
}

func TestThemePreference(t *testing.T) {
	env := newTestEnv(t)

	// Absent preference follows the system
	w := doRequest(t, env.router, "GET", "/preferences/theme", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if decodeJSON(t, w)["theme"] != "system" {
		t.Error("Expected 'system' theme when no preference is stored")
	}

	w = doRequest(t, env.router, "PUT", "/preferences/theme", `{"theme":"dark"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(t, env.router, "GET", "/preferences/theme", "", nil)
	if decodeJSON(t, w)["theme"] != "dark" {
		t.Error("Expected stored 'dark' theme")
	}
}

func TestThemePreferenceRejectsUnknownValue(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(t, env.router, "PUT", "/preferences/theme", `{"theme":"sepia"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown theme, got %d", w.Code)
	}
}

func TestGetHealth(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(t, env.router, "GET", "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	result := decodeJSON(t, w)
	if result["loaded_configurations"].(float64) != 1 {
		t.Errorf("Expected 1 loaded configuration, got %v", result["loaded_configurations"])
	}
	if result["loaded_catalogs"].(float64) != 1 {
		t.Errorf("Expected 1 loaded catalog, got %v", result["loaded_catalogs"])
	}
}

func TestAPIRequiresKey(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(t, env.router, "GET", "/api/sources", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without key, got %d", w.Code)
	}

	w = doRequest(t, env.router, "GET", "/api/sources", "", map[string]string{"X-API-Key": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with wrong key, got %d", w.Code)
	}

	w = doRequest(t, env.router, "GET", "/api/sources", "", map[string]string{"X-API-Key": "secret"})
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 with valid key, got %d", w.Code)
	}

	w = doRequest(t, env.router, "GET", "/api/sources", "", map[string]string{"Authorization": "Bearer secret"})
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 with bearer token, got %d", w.Code)
	}
}

func TestAPIRefreshSource(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(t, env.router, "POST", "/api/sources/demo/refresh", "", map[string]string{"X-API-Key": "secret"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if len(env.scheduler.enqueued) != 2 {
		t.Fatalf("Expected 2 enqueued tasks, got %d", len(env.scheduler.enqueued))
	}
	if env.scheduler.enqueued[0].GetType() != tasks.TaskTypeSyncSourceConfig {
		t.Errorf("Expected sync task first, got %v", env.scheduler.enqueued[0].GetType())
	}
	if env.scheduler.enqueued[1].GetType() != tasks.TaskTypeRefreshSource {
		t.Errorf("Expected refresh task second, got %v", env.scheduler.enqueued[1].GetType())
	}
}

func TestAPIRefreshUnknownSource(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(t, env.router, "POST", "/api/sources/missing/refresh", "", map[string]string{"X-API-Key": "secret"})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}
