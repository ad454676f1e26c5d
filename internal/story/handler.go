package handler

import (
	"net/http"

	recordhandler "homestead/internal/record"
	"homestead/internal/story/service"
	"homestead/middleware"
	"homestead/pkg/response"
)

type StoryHandler struct {
	Service *service.StoryService
}

func NewStoryHandler(service *service.StoryService) *StoryHandler {
	return &StoryHandler{Service: service}
}

func (h *StoryHandler) GetStory(w http.ResponseWriter, r *http.Request) {
	if !response.AllowMethods(w, r, http.MethodGet, http.MethodHead) {
		return
	}

	slug := recordhandler.SlugFrom(r)
	owner := r.URL.Query().Get("ownerIdentity")
	viewer := middleware.ViewerFrom(r.Context())

	rec, err := h.Service.Get(owner, slug, viewer)
	if err != nil {
		recordhandler.LogFailure(err, service.Stories.Name, slug, viewer)
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, rec)
}

func (h *StoryHandler) ListStories(w http.ResponseWriter, r *http.Request) {
	if !response.AllowMethods(w, r, http.MethodGet, http.MethodHead) {
		return
	}

	owner := r.URL.Query().Get("ownerIdentity")
	viewer := middleware.ViewerFrom(r.Context())

	recs, err := h.Service.List(owner, viewer)
	if err != nil {
		recordhandler.LogFailure(err, service.Stories.Name, "", viewer)
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, recs)
}
