package handler

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"homestead/internal/record/model"
	"homestead/internal/record/service"
	"homestead/middleware"
	"homestead/pkg/apperr"
	"homestead/pkg/logger"
	"homestead/pkg/response"
)

var readMethods = []string{http.MethodGet, http.MethodHead}

type RecordHandler struct {
	Service *service.RecordService
}

func NewRecordHandler(service *service.RecordService) *RecordHandler {
	return &RecordHandler{Service: service}
}

func (h *RecordHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	if !response.AllowMethods(w, r, readMethods...) {
		return
	}

	slug := SlugFrom(r)
	viewer := middleware.ViewerFrom(r.Context())

	rec, err := h.Service.Get(r.Context(), slug, viewer)
	if err != nil {
		LogFailure(err, h.Service.Collection.Name, slug, viewer)
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, rec)
}

func (h *RecordHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	if !response.AllowMethods(w, r, readMethods...) {
		return
	}

	opts, err := ParseListOptions(r)
	if err != nil {
		response.Fail(w, err)
		return
	}
	viewer := middleware.ViewerFrom(r.Context())

	recs, err := h.Service.List(r.Context(), opts, viewer)
	if err != nil {
		LogFailure(err, h.Service.Collection.Name, "", viewer)
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, recs)
}

type FeedHandler struct {
	Services []*service.RecordService
	Limit    int
}

func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	if !response.AllowMethods(w, r, readMethods...) {
		return
	}

	feed, err := service.Feed(r.Context(), h.Services, h.Limit)
	if err != nil {
		LogFailure(err, "feed", "", "")
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, feed)
}

// SlugFrom reads the slug path segment, falling back to the slug query
// parameter.
func SlugFrom(r *http.Request) string {
	if slug := r.PathValue("slug"); slug != "" {
		return slug
	}
	return r.URL.Query().Get("slug")
}

func ParseListOptions(r *http.Request) (model.ListOptions, error) {
	q := r.URL.Query()
	var opts model.ListOptions

	if raw := q.Get("slugs"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				opts.Slugs = append(opts.Slugs, s)
			}
		}
	}
	if raw := q.Get("favorite"); raw != "" {
		fav, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, apperr.New(apperr.BadRequest, "Invalid favorite parameter")
		}
		opts.FavoriteOnly = fav
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return opts, apperr.New(apperr.BadRequest, "Invalid limit parameter")
		}
		opts.Limit = limit
	}
	return opts, nil
}

// LogFailure records enough context to diagnose err. Client errors are
// logged at info, everything else at error.
func LogFailure(err error, collection, slug, viewer string) {
	if viewer == "" {
		viewer = "anonymous"
	}
	fields := []zap.Field{
		zap.String("collection", collection),
		zap.String("slug", slug),
		zap.String("viewer", viewer),
		zap.String("kind", apperr.KindOf(err).String()),
		zap.Error(err),
	}
	switch apperr.KindOf(err) {
	case apperr.BadRequest, apperr.NotFound:
		logger.Log.Info("record request rejected", fields...)
	default:
		logger.Log.Error("record request failed", fields...)
	}
}
