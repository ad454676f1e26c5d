package router

import (
	"net/http"

	"homestead/config"
	"homestead/config/database"
	recordHandler "homestead/internal/record"
	"homestead/internal/record/model"
	"homestead/internal/record/repository"
	"homestead/internal/record/service"
	storyHandler "homestead/internal/story"
	"homestead/internal/story/filestore"
	storyService "homestead/internal/story/service"
	"homestead/middleware"
	"homestead/pkg/logger"
	"homestead/pkg/response"
)

const feedLimit = 10

func Setup(pool *database.Pool, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	var services []*service.RecordService
	for _, c := range model.Collections() {
		svc := service.NewRecordService(repository.NewRecordRepository(pool, c.Table), c)
		services = append(services, svc)
		mountRecords(mux, "/api/"+c.Name, recordHandler.NewRecordHandler(svc))
		if c == model.FieldNotes {
			mountRecords(mux, "/records", recordHandler.NewRecordHandler(svc))
		}
	}

	feed := &recordHandler.FeedHandler{Services: services, Limit: feedLimit}
	mux.HandleFunc("/api/feed", feed.GetFeed)

	stories := storyHandler.NewStoryHandler(storyService.NewStoryService(filestore.New(cfg.NotesDir)))
	mux.HandleFunc("/api/stories", stories.ListStories)
	mux.HandleFunc("/api/stories/{$}", stories.GetStory)
	mux.HandleFunc("/api/stories/{slug}", stories.GetStory)
	mux.HandleFunc("/api/stories/", notFound(storyService.Stories.NotFoundMessage()))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			logger.Sugar.Errorf("Health check failed: %v", err)
			response.Error(w, http.StatusInternalServerError, "Store unavailable")
			return
		}
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	var handler http.Handler = mux
	handler = middleware.Identity(cfg.Auth.JWTSecret)(handler)
	handler = middleware.CORSMiddleware(cfg.CORS.AllowedOrigin)(handler)
	handler = middleware.RequestLogger(handler)
	return handler
}

// mountRecords registers the list, missing-slug and by-slug routes of one
// collection. Deeper paths fall through to a JSON 404.
func mountRecords(mux *http.ServeMux, prefix string, h *recordHandler.RecordHandler) {
	mux.HandleFunc(prefix, h.ListRecords)
	mux.HandleFunc(prefix+"/{$}", h.GetRecord)
	mux.HandleFunc(prefix+"/{slug}", h.GetRecord)
	mux.HandleFunc(prefix+"/", notFound(h.Service.Collection.NotFoundMessage()))
}

func notFound(message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, message)
	}
}
