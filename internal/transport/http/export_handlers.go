package http

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vovakirdan/commlog-server/internal/store"
)

var exportFilenames = map[store.Kind]string{
	store.KindEmail:    "emails.csv",
	store.KindSMS:      "sms.csv",
	store.KindWhatsApp: "whatsapp.csv",
}

// Export returns a handler streaming a kind's records as CSV, newest first.
// GET /api/{kind}/export/
func (h *RecordHandlers) Export(kind store.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := store.ListFilter{Query: c.Query("q")}

		var (
			header []string
			rows   [][]string
		)
		if kind == store.KindEmail {
			recs, err := h.svc.ListEmails(c.Request.Context(), filter)
			if err != nil {
				h.internalError(c, err, kind, "failed to export emails")
				return
			}
			header = []string{"id", "email_to", "created_at"}
			for _, rec := range recs {
				rows = append(rows, []string{strconv.FormatInt(rec.ID, 10), rec.EmailTo, formatTime(rec.CreatedAt)})
			}
		} else {
			recs, err := h.svc.ListMessages(c.Request.Context(), kind, filter)
			if err != nil {
				h.internalError(c, err, kind, "failed to export messages")
				return
			}
			header = []string{"id", "mobile_number", "message", "created_at"}
			for _, rec := range recs {
				rows = append(rows, []string{strconv.FormatInt(rec.ID, 10), rec.MobileNumber, rec.Message, formatTime(rec.CreatedAt)})
			}
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilenames[kind]))
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Status(http.StatusOK)

		w := csv.NewWriter(c.Writer)
		if err := w.Write(header); err != nil {
			h.log.Warn().Err(err).Msg("csv export aborted")
			return
		}
		if err := w.WriteAll(rows); err != nil {
			h.log.Warn().Err(err).Str("kind", string(kind)).Msg("csv export aborted")
			return
		}
		h.log.Debug().Str("kind", string(kind)).Int("rows", len(rows)).Msg("records exported")
	}
}
