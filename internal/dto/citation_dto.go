package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Identifier and text emptiness is checked by the pipeline so the caller gets
// the same message from every entry point.
type CreateCitationRequest struct {
	HistoryId  string `json:"history_id" validate:"omitempty,uuid"`
	Identifier string `json:"identifier" validate:"max=512"`
	Style      string `json:"style"`
}

type ConvertCitationRequest struct {
	HistoryId string `json:"history_id" validate:"omitempty,uuid"`
	Text      string `json:"text" validate:"max=20000"`
	Style     string `json:"style"`
}

type CitationResponse struct {
	CiteId    *uuid.UUID `json:"cite_id"`
	HistoryId string     `json:"history_id"`
	Style     string     `json:"style"`
	Text      string     `json:"text"`
	Warning   string     `json:"warning,omitempty"`
	Used      int        `json:"used"`
	Remaining int        `json:"remaining"`
}

type CitationDetailResponse struct {
	Id         uuid.UUID       `json:"id"`
	HistoryId  uuid.UUID       `json:"history_id"`
	Mode       string          `json:"mode"`
	Identifier string          `json:"identifier,omitempty"`
	InputText  string          `json:"input_text,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	Style      string          `json:"style"`
	Text       string          `json:"text"`
	CreatedAt  time.Time       `json:"created_at"`
}

type SessionStatusResponse struct {
	HistoryId string `json:"history_id"`
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
}

type StyleResponse struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// QuickCitationResponse is the public resolver endpoint's body.
type QuickCitationResponse struct {
	Apa string `json:"apa"`
}

type QuickCitationError struct {
	Error string `json:"error"`
}

// StyleWarmupMessage asks the consumer to load one style into the cache.
type StyleWarmupMessage struct {
	StyleKey string `json:"style_key"`
}
