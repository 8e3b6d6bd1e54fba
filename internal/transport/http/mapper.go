package http

import (
	"time"

	"github.com/vovakirdan/commlog-server/internal/store"
)

// isoLayout matches the microsecond ISO-8601 timestamps the dashboard expects.
const isoLayout = "2006-01-02T15:04:05.000000Z07:00"

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// OKResponse is returned by successful writes.
type OKResponse struct {
	OK bool `json:"ok"`
}

// DeleteResponse is returned by the delete endpoint.
type DeleteResponse struct {
	OK      bool  `json:"ok"`
	Deleted int64 `json:"deleted"`
}

// StatsResponse holds live counts per kind.
type StatsResponse struct {
	Emails   int64 `json:"emails"`
	SMS      int64 `json:"sms"`
	WhatsApp int64 `json:"whatsapp"`
}

// EmailResponse represents an email record in API responses.
type EmailResponse struct {
	ID        int64  `json:"id"`
	EmailTo   string `json:"email_to"`
	CreatedAt string `json:"created_at"`
}

// MessageResponse represents an SMS or WhatsApp record in API responses.
type MessageResponse struct {
	ID           int64  `json:"id"`
	MobileNumber string `json:"mobile_number"`
	Message      string `json:"message"`
	CreatedAt    string `json:"created_at"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

func toEmailResponses(recs []*store.EmailRecord) []EmailResponse {
	out := make([]EmailResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, EmailResponse{
			ID:        rec.ID,
			EmailTo:   rec.EmailTo,
			CreatedAt: formatTime(rec.CreatedAt),
		})
	}
	return out
}

func toMessageResponses(recs []*store.MessageRecord) []MessageResponse {
	out := make([]MessageResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, MessageResponse{
			ID:           rec.ID,
			MobileNumber: rec.MobileNumber,
			Message:      rec.Message,
			CreatedAt:    formatTime(rec.CreatedAt),
		})
	}
	return out
}
