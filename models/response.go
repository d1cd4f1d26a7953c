package models

// ErrorResponse is a generic error response structure for API
type ErrorResponse struct {
	Message string            `json:"message" example:"Error message describing the issue"`
	Code    string            `json:"code,omitempty" example:"VALIDATION"`
	Details map[string]string `json:"details,omitempty"`
	Flash   *Flash            `json:"flash,omitempty"`
	// Redirect names the view the client should fall back to.
	Redirect string `json:"redirect,omitempty" example:"/"`
}

// Flash is a one-off user-visible message.
type Flash struct {
	Category string `json:"category" example:"success" enum:"success,error"`
	Message  string `json:"message"`
}

// EntryResponse wraps a single entry with an optional flash message.
type EntryResponse struct {
	Entry EntryView `json:"entry"`
	Flash *Flash    `json:"flash,omitempty"`
}

// EntryListResponse is a page of entries.
type EntryListResponse struct {
	Page         int         `json:"page"`
	Limit        int         `json:"limit"`
	TotalRecords int         `json:"total_records"`
	TotalPages   int         `json:"total_pages"`
	Entries      []EntryView `json:"entries"`
}

// MessageResponse carries only a flash message.
type MessageResponse struct {
	Flash    *Flash `json:"flash"`
	Redirect string `json:"redirect,omitempty"`
}
