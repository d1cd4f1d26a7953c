package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"journal/apperrors"
	"journal/models"

	"github.com/tidwall/gjson"
)

const maxBodyBytes = 1 << 20

var entryFormKeys = []string{"title", "date", "time_spent", "knowledge", "resources"}

// readPayload returns the request body as JSON. Form-encoded bodies are converted to a flat JSON
// object holding the first value of every field, so both encodings share one decoding path.
func readPayload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil && err != http.ErrNotMultipart {
			return nil, apperrors.Validationf("invalid form body: %v", err)
		}
		fields := make(map[string]string, len(r.PostForm))
		for key, values := range r.PostForm {
			if len(values) > 0 {
				fields[key] = values[0]
			}
		}
		body, err := json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("re-encoding form body: %w", err)
		}
		return body, nil
	default:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, apperrors.Validationf("reading request body: %v", err)
		}
		if len(strings.TrimSpace(string(body))) == 0 {
			return []byte("{}"), nil
		}
		if !gjson.ValidBytes(body) {
			return nil, apperrors.Validation("request body is not valid JSON")
		}
		return body, nil
	}
}

// decodeJSON reads a payload into dst. Used for the account forms whose fields are all strings.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := readPayload(w, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.Validationf("invalid request payload: %v", err)
	}
	return nil
}

// entryFormFrom reads the entry fields out of a JSON object. Numbers are accepted for
// time_spent and an array of strings for resources.
func entryFormFrom(obj gjson.Result) models.EntryForm {
	form := models.EntryForm{
		Title:     obj.Get("title").String(),
		Date:      obj.Get("date").String(),
		TimeSpent: obj.Get("time_spent").String(),
		Knowledge: obj.Get("knowledge").String(),
	}
	if resources := obj.Get("resources"); resources.IsArray() {
		lines := []string{}
		for _, item := range resources.Array() {
			lines = append(lines, item.String())
		}
		form.Resources = strings.Join(lines, "\n")
	} else {
		form.Resources = resources.String()
	}
	return form
}

func hasEntryFields(obj gjson.Result) bool {
	for _, key := range entryFormKeys {
		if obj.Get(key).Exists() {
			return true
		}
	}
	return false
}

// optionalString distinguishes an absent (or null) key from an empty string.
func optionalString(obj gjson.Result, key string) *string {
	v := obj.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}
	s := v.String()
	return &s
}

func decodeCreateEntry(w http.ResponseWriter, r *http.Request) (models.CreateEntryRequest, error) {
	body, err := readPayload(w, r)
	if err != nil {
		return models.CreateEntryRequest{}, err
	}
	obj := gjson.ParseBytes(body)
	return models.CreateEntryRequest{
		EntryForm: entryFormFrom(obj),
		Tags:      optionalString(obj, "tags"),
	}, nil
}

// decodeEditEntry accepts either {"entry": {...}, "tags": "..."} or the flat form layout.
// Each part is optional; neither present is a validation error.
func decodeEditEntry(w http.ResponseWriter, r *http.Request) (models.EditEntryRequest, error) {
	body, err := readPayload(w, r)
	if err != nil {
		return models.EditEntryRequest{}, err
	}
	obj := gjson.ParseBytes(body)

	var req models.EditEntryRequest
	if nested := obj.Get("entry"); nested.IsObject() {
		form := entryFormFrom(nested)
		req.Entry = &form
	} else if hasEntryFields(obj) {
		form := entryFormFrom(obj)
		req.Entry = &form
	}
	req.Tags = optionalString(obj, "tags")

	if req.Entry == nil && req.Tags == nil {
		return req, apperrors.Validation("nothing to update: submit entry fields, tags, or both")
	}
	return req, nil
}

func decodeTags(w http.ResponseWriter, r *http.Request) (models.TagsRequest, error) {
	body, err := readPayload(w, r)
	if err != nil {
		return models.TagsRequest{}, err
	}
	tags := optionalString(gjson.ParseBytes(body), "tags")
	if tags == nil {
		return models.TagsRequest{}, apperrors.ValidationWithDetails("validation failed",
			map[string]string{"tags": "is required"})
	}
	return models.TagsRequest{Tags: *tags}, nil
}
