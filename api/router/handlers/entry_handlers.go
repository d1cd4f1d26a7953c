package handlers

import (
	"net/http"

	"journal/apperrors"
	"journal/logger"
	"journal/models"
)

// ListEntriesHandler serves the index: every entry, newest first.
// @Summary List entries
// @Tags Entries
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Entries per page" default(20)
// @Success 200 {object} models.EntryListResponse
// @Router /entries [get]
func (h *Handler) ListEntriesHandler(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	result, err := h.Journal.ListEntries(r.Context(), page, limit)
	if err != nil {
		writeError(w, "ListEntriesHandler", err)
		return
	}
	writeJSON(w, http.StatusOK, newEntryListResponse(result))
}

// ListUserEntriesHandler lists the logged-in user's entries.
// @Summary List my entries
// @Tags Entries
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Entries per page" default(20)
// @Success 200 {object} models.EntryListResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /user/entries [get]
func (h *Handler) ListUserEntriesHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r)
	page, limit := pageParams(r)
	result, err := h.Journal.ListUserEntries(r.Context(), user.ID, page, limit)
	if err != nil {
		writeError(w, "ListUserEntriesHandler", err)
		return
	}
	writeJSON(w, http.StatusOK, newEntryListResponse(result))
}

// GetEntryHandler returns one entry with its tags and rendered knowledge.
// @Summary Get entry
// @Tags Entries
// @Produce json
// @Param entryID path int true "Entry ID"
// @Success 200 {object} models.EntryResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /entries/{entryID} [get]
func (h *Handler) GetEntryHandler(w http.ResponseWriter, r *http.Request) {
	entryID, err := entryIDParam(r)
	if err != nil {
		writeError(w, "GetEntryHandler", err)
		return
	}
	detail, err := h.Journal.GetEntry(r.Context(), entryID)
	if err != nil {
		writeError(w, "GetEntryHandler", err)
		return
	}
	view := models.NewEntryView(detail.EntryWithTags)
	view.KnowledgeHTML = detail.KnowledgeHTML
	writeJSON(w, http.StatusOK, models.EntryResponse{Entry: view})
}

// CreateEntryHandler publishes a new entry owned by the logged-in user.
// @Summary Create entry
// @Tags Entries
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param entry body models.CreateEntryRequest true "Entry fields and comma separated tags"
// @Success 201 {object} models.EntryResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /entries [post]
func (h *Handler) CreateEntryHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r)
	req, err := decodeCreateEntry(w, r)
	if err != nil {
		writeError(w, "CreateEntryHandler", err)
		return
	}
	fields, err := h.Journal.ParseForm(req.EntryForm)
	if err != nil {
		writeError(w, "CreateEntryHandler", err)
		return
	}

	entry, err := h.Journal.CreateEntry(r.Context(), user.ID, fields, req.Tags)
	if err != nil {
		writeError(w, "CreateEntryHandler", err)
		return
	}
	w.Header().Set("Location", "/api"+entryPath(entry.ID))
	writeJSON(w, http.StatusCreated, models.EntryResponse{
		Entry: models.NewEntryView(entry),
		Flash: flash(flashSuccess, "journal entry published"),
	})
}

// EditEntryHandler updates an entry's fields, its tags, or both.
// @Summary Edit entry
// @Description Body is {"entry": {...}, "tags": "a, b"}; either part may be omitted.
// @Tags Entries
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param entryID path int true "Entry ID"
// @Param edit body models.EditEntryRequest true "Fields and/or tags"
// @Success 200 {object} models.EntryResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /entries/{entryID} [put]
func (h *Handler) EditEntryHandler(w http.ResponseWriter, r *http.Request) {
	entryID, err := entryIDParam(r)
	if err != nil {
		writeError(w, "EditEntryHandler", err)
		return
	}
	req, err := decodeEditEntry(w, r)
	if err != nil {
		writeError(w, "EditEntryHandler", err)
		return
	}
	h.applyEdit(w, r, "EditEntryHandler", entryID, req.Entry, req.Tags)
}

// ReplaceEntryTagsHandler reconciles an entry's tags without touching its fields.
// @Summary Replace entry tags
// @Tags Entries
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param entryID path int true "Entry ID"
// @Param tags body models.TagsRequest true "Comma separated tag names"
// @Success 200 {object} models.EntryResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /entries/{entryID}/tags [put]
func (h *Handler) ReplaceEntryTagsHandler(w http.ResponseWriter, r *http.Request) {
	entryID, err := entryIDParam(r)
	if err != nil {
		writeError(w, "ReplaceEntryTagsHandler", err)
		return
	}
	req, err := decodeTags(w, r)
	if err != nil {
		writeError(w, "ReplaceEntryTagsHandler", err)
		return
	}
	h.applyEdit(w, r, "ReplaceEntryTagsHandler", entryID, nil, &req.Tags)
}

// applyEdit hands the raw form to the workflow, which validates it only after the ownership
// check, so a non-owner always sees the 403 flash rather than field errors.
func (h *Handler) applyEdit(w http.ResponseWriter, r *http.Request, handlerName string, entryID int64, form *models.EntryForm, tags *string) {
	user, _ := CurrentUser(r)
	entry, result, err := h.Journal.EditEntryForm(r.Context(), user.ID, entryID, form, tags)
	if err != nil {
		writeError(w, handlerName, err)
		return
	}
	if result != nil && result.Writes() > 0 {
		logger.Info("%s: Entry %d tags added=%v removed=%v", handlerName, entryID, result.Added, result.Removed)
	}
	writeJSON(w, http.StatusOK, models.EntryResponse{
		Entry: models.NewEntryView(entry),
		Flash: flash(flashSuccess, "hey we updated your entry"),
	})
}

// DeleteEntryHandler deletes an entry owned by the logged-in user. Deleting an entry that
// is already gone succeeds.
// @Summary Delete entry
// @Tags Entries
// @Produce json
// @Param entryID path int true "Entry ID"
// @Success 200 {object} models.MessageResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /entries/{entryID} [delete]
func (h *Handler) DeleteEntryHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r)
	entryID, err := entryIDParam(r)
	if err != nil {
		writeError(w, "DeleteEntryHandler", err)
		return
	}

	err = h.Journal.DeleteEntry(r.Context(), user.ID, entryID)
	switch {
	case err == nil:
		writeFlashRedirect(w, http.StatusOK, flashSuccess, "your entry has been deleted", "/")
	case apperrors.Is(err, apperrors.ErrNotFound):
		writeFlashRedirect(w, http.StatusOK, flashInfo, "entry already deleted", "/")
	default:
		writeError(w, "DeleteEntryHandler", err)
	}
}
