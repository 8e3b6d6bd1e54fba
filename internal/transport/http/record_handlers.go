package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/commlog-server/internal/metrics"
	"github.com/vovakirdan/commlog-server/internal/service/records"
	"github.com/vovakirdan/commlog-server/internal/store"
	"github.com/vovakirdan/commlog-server/internal/validation"
)

const msgInvalidJSON = "Invalid JSON"

// RecordHandlers provides HTTP handlers for the log record endpoints.
type RecordHandlers struct {
	svc          *records.Service
	log          *zerolog.Logger
	maxBodyBytes int64
}

// NewRecordHandlers creates a new record handlers instance.
func NewRecordHandlers(svc *records.Service, logger *zerolog.Logger, maxBodyBytes int64) *RecordHandlers {
	return &RecordHandlers{
		svc:          svc,
		log:          logger,
		maxBodyBytes: maxBodyBytes,
	}
}

// ListEmails handles listing email records.
// GET /api/email/
func (h *RecordHandlers) ListEmails(c *gin.Context) {
	recs, err := h.svc.ListEmails(c.Request.Context(), store.ListFilter{Query: c.Query("q")})
	if err != nil {
		h.internalError(c, err, store.KindEmail, "failed to list emails")
		return
	}

	h.log.Debug().Int("count", len(recs)).Msg("emails listed")
	c.JSON(http.StatusOK, toEmailResponses(recs))
}

// CreateEmail handles email record creation.
// POST /api/email/
func (h *RecordHandlers) CreateEmail(c *gin.Context) {
	body, err := h.readBody(c)
	if err != nil {
		h.rejectBody(c, validation.ErrMalformedBody)
		return
	}

	in, err := validation.DecodeEmail(body)
	if err != nil {
		h.rejectBody(c, err)
		return
	}

	rec, err := h.svc.CreateEmail(c.Request.Context(), in)
	if err != nil {
		h.internalError(c, err, store.KindEmail, "failed to create email record")
		return
	}

	h.log.Info().Int64("id", rec.ID).Str("kind", string(store.KindEmail)).Msg("record created")
	c.JSON(http.StatusCreated, OKResponse{OK: true})
}

// ListMessages returns a handler listing records of a message kind.
// GET /api/sms/, GET /api/whatsapp/
func (h *RecordHandlers) ListMessages(kind store.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		recs, err := h.svc.ListMessages(c.Request.Context(), kind, store.ListFilter{Query: c.Query("q")})
		if err != nil {
			h.internalError(c, err, kind, "failed to list messages")
			return
		}

		h.log.Debug().Str("kind", string(kind)).Int("count", len(recs)).Msg("messages listed")
		c.JSON(http.StatusOK, toMessageResponses(recs))
	}
}

// CreateMessage returns a handler creating records of a message kind.
// POST /api/sms/, POST /api/whatsapp/
func (h *RecordHandlers) CreateMessage(kind store.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := h.readBody(c)
		if err != nil {
			h.rejectBody(c, validation.ErrMalformedBody)
			return
		}

		in, err := validation.DecodeMessage(body)
		if err != nil {
			h.rejectBody(c, err)
			return
		}

		rec, err := h.svc.CreateMessage(c.Request.Context(), kind, in)
		if err != nil {
			h.internalError(c, err, kind, "failed to create message record")
			return
		}

		h.log.Info().Int64("id", rec.ID).Str("kind", string(kind)).Msg("record created")
		c.JSON(http.StatusCreated, OKResponse{OK: true})
	}
}

// Stats handles the per-kind counters.
// GET /api/stats/
func (h *RecordHandlers) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to count records")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, StatsResponse{
		Emails:   stats.Emails,
		SMS:      stats.SMS,
		WhatsApp: stats.WhatsApp,
	})
}

// Delete handles removal of a single record of any kind.
// POST /api/delete/
func (h *RecordHandlers) Delete(c *gin.Context) {
	body, err := h.readBody(c)
	if err != nil {
		h.rejectBody(c, validation.ErrMalformedBody)
		return
	}

	in, err := validation.DecodeDelete(body)
	if err != nil {
		h.rejectBody(c, err)
		return
	}

	n, err := h.svc.Delete(c.Request.Context(), in)
	if err != nil {
		h.internalError(c, err, in.Kind, "failed to delete record")
		return
	}

	h.log.Info().Str("kind", string(in.Kind)).Int64("id", in.ID).Int64("deleted", n).Msg("delete requested")
	c.JSON(http.StatusOK, DeleteResponse{OK: true, Deleted: n})
}

func (h *RecordHandlers) readBody(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	return io.ReadAll(c.Request.Body)
}

// rejectBody answers 400 for decode and validation failures.
func (h *RecordHandlers) rejectBody(c *gin.Context, err error) {
	metrics.ValidationFailures.WithLabelValues(c.FullPath()).Inc()

	if ve, ok := validation.IsValidationError(err); ok {
		h.log.Debug().Str("field", ve.Field).Str("path", c.FullPath()).Msg("validation failed")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ve.Message})
		return
	}

	h.log.Debug().Err(err).Str("path", c.FullPath()).Msg("invalid request body")
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidJSON})
}

func (h *RecordHandlers) internalError(c *gin.Context, err error, kind store.Kind, msg string) {
	h.log.Error().Err(err).Str("kind", string(kind)).Msg(msg)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}
