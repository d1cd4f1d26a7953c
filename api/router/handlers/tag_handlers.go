package handlers

import (
	"net/http"

	"journal/logger"

	"github.com/go-chi/chi/v5"
)

// ListTagsHandler lists every tag with the number of entries carrying it.
// @Summary List tags
// @Tags Tags
// @Produce json
// @Success 200 {array} models.TagWithCount
// @Router /tags [get]
func (h *Handler) ListTagsHandler(w http.ResponseWriter, r *http.Request) {
	tags, err := h.Journal.ListTags(r.Context())
	if err != nil {
		writeError(w, "ListTagsHandler", err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
	logger.Debug("ListTagsHandler: Successfully served %d tags.", len(tags))
}

// ListTagEntriesHandler lists the entries carrying a tag.
// @Summary Entries by tag
// @Tags Tags
// @Produce json
// @Param name path string true "Tag name"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Entries per page" default(20)
// @Success 200 {object} models.EntryListResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /tags/{name}/entries [get]
func (h *Handler) ListTagEntriesHandler(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	result, err := h.Journal.ListEntriesByTag(r.Context(), chi.URLParam(r, "name"), page, limit)
	if err != nil {
		writeError(w, "ListTagEntriesHandler", err)
		return
	}
	writeJSON(w, http.StatusOK, newEntryListResponse(result))
}
