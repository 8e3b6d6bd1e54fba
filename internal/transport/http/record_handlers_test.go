package http

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/commlog-server/internal/config"
	"github.com/vovakirdan/commlog-server/internal/store"
	"github.com/vovakirdan/commlog-server/internal/store/sqlite"
	"github.com/vovakirdan/commlog-server/internal/validation"
)

var timestampRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{6}Z$`)

func TestCreateAndListEmail(t *testing.T) {
	router := newTestRouter(t, createTestStore(t), nil)

	resp := doRequest(t, router, http.MethodPost, "/api/email/", `{"email_to":"user@example.com"}`)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.JSONEq(t, `{"ok":true}`, resp.Body.String())

	resp = doRequest(t, router, http.MethodGet, "/api/email/", "")
	require.Equal(t, http.StatusOK, resp.Code)

	list := decodeBody[[]EmailResponse](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, "user@example.com", list[0].EmailTo)
	assert.Positive(t, list[0].ID)
	assert.Regexp(t, timestampRE, list[0].CreatedAt)
}

func TestListEmpty_ReturnsArray(t *testing.T) {
	router := newTestRouter(t, createTestStore(t), nil)

	for _, path := range []string{"/api/email/", "/api/sms/", "/api/whatsapp/"} {
		resp := doRequest(t, router, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, resp.Code, path)
		assert.JSONEq(t, `[]`, resp.Body.String(), path)
	}
}

func TestCreateEmail_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "not an email", body: `{"email_to":"not-an-email"}`, wantErr: validation.MsgEmailRequired},
		{name: "missing field", body: `{}`, wantErr: validation.MsgEmailRequired},
		{name: "blank", body: `{"email_to":"  "}`, wantErr: validation.MsgEmailRequired},
		{name: "malformed", body: `{"email_to":`, wantErr: msgInvalidJSON},
		{name: "form encoded", body: `email_to=a@b.co`, wantErr: msgInvalidJSON},
		{name: "empty body", body: ``, wantErr: msgInvalidJSON},
	}

	st := createTestStore(t)
	router := newTestRouter(t, st, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, router, http.MethodPost, "/api/email/", tt.body)
			require.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Equal(t, tt.wantErr, decodeBody[ErrorResponse](t, resp).Error)
		})
	}

	n, err := st.Count(context.Background(), store.KindEmail)
	require.NoError(t, err)
	assert.Zero(t, n, "rejected requests must not create records")
}

func TestCreateMessage_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "missing message", body: `{"mobile_number":"111"}`, wantErr: validation.MsgMessageRequired},
		{name: "missing mobile", body: `{"message":"hi"}`, wantErr: validation.MsgMessageRequired},
		{name: "empty mobile", body: `{"mobile_number":"","message":"hi"}`, wantErr: validation.MsgMessageRequired},
		{name: "empty strings", body: `{"mobile_number":"","message":""}`, wantErr: validation.MsgMessageRequired},
		{name: "mobile too long", body: `{"mobile_number":"` + strings.Repeat("9", 31) + `","message":"hi"}`, wantErr: validation.MsgMobileTooLong},
		{name: "malformed", body: `not json`, wantErr: msgInvalidJSON},
		{name: "invalid utf-8", body: "{\"mobile_number\":\"111\",\"message\":\"bad \xc3( utf8\"}", wantErr: msgInvalidJSON},
		{name: "upper-case keys", body: `{"MOBILE_NUMBER":"111","MESSAGE":"hi"}`, wantErr: validation.MsgMessageRequired},
	}

	router := newTestRouter(t, createTestStore(t), nil)

	for _, path := range []string{"/api/sms/", "/api/whatsapp/"} {
		for _, tt := range tests {
			t.Run(path+" "+tt.name, func(t *testing.T) {
				resp := doRequest(t, router, http.MethodPost, path, tt.body)
				require.Equal(t, http.StatusBadRequest, resp.Code)
				assert.Equal(t, tt.wantErr, decodeBody[ErrorResponse](t, resp).Error)
			})
		}
	}

	resp := doRequest(t, router, http.MethodGet, "/api/stats/", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"emails":0,"sms":0,"whatsapp":0}`, resp.Body.String(), "rejected requests must not create records")
}

func TestCreateSMS_EmptyMobileLeavesCountUnchanged(t *testing.T) {
	router := newTestRouter(t, createTestStore(t), nil)

	resp := doRequest(t, router, http.MethodPost, "/api/sms/", `{"mobile_number":"111","message":"kept"}`)
	require.Equal(t, http.StatusCreated, resp.Code)

	before := decodeBody[StatsResponse](t, doRequest(t, router, http.MethodGet, "/api/stats/", ""))

	resp = doRequest(t, router, http.MethodPost, "/api/sms/", `{"mobile_number":"","message":"hi"}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.JSONEq(t, `{"error":"mobile_number and message are required"}`, resp.Body.String())

	after := decodeBody[StatsResponse](t, doRequest(t, router, http.MethodGet, "/api/stats/", ""))
	assert.Equal(t, before.SMS, after.SMS)
	assert.Equal(t, int64(1), after.SMS)
}

func TestDelete_RoundTripThroughList(t *testing.T) {
	router := newTestRouter(t, createTestStore(t), nil)

	for _, body := range []string{
		`{"mobile_number":"111","message":"keep me"}`,
		`{"mobile_number":"222","message":"delete me"}`,
	} {
		resp := doRequest(t, router, http.MethodPost, "/api/whatsapp/", body)
		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	}

	list := decodeBody[[]MessageResponse](t, doRequest(t, router, http.MethodGet, "/api/whatsapp/", ""))
	require.Len(t, list, 2)
	target := list[0]
	require.Equal(t, "delete me", target.Message)

	before := decodeBody[StatsResponse](t, doRequest(t, router, http.MethodGet, "/api/stats/", ""))

	resp := doRequest(t, router, http.MethodPost, "/api/delete/", `{"type":"whatsapp","id":`+itoa(target.ID)+`}`)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"ok":true,"deleted":1}`, resp.Body.String())

	list = decodeBody[[]MessageResponse](t, doRequest(t, router, http.MethodGet, "/api/whatsapp/", ""))
	require.Len(t, list, 1)
	for _, rec := range list {
		assert.NotEqual(t, target.ID, rec.ID, "deleted record still listed")
	}
	assert.Equal(t, "keep me", list[0].Message)

	after := decodeBody[StatsResponse](t, doRequest(t, router, http.MethodGet, "/api/stats/", ""))
	assert.Equal(t, before.WhatsApp-1, after.WhatsApp)
	assert.Equal(t, before.SMS, after.SMS)
	assert.Equal(t, before.Emails, after.Emails)
}

func TestMessages_NewestFirstAndIndependent(t *testing.T) {
	router := newTestRouter(t, createTestStore(t), nil)

	for _, body := range []string{
		`{"mobile_number":"111","message":"first"}`,
		`{"mobile_number":"222","message":"second"}`,
		`{"mobile_number":"333","message":"third"}`,
	} {
		resp := doRequest(t, router, http.MethodPost, "/api/sms/", body)
		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	}

	resp := doRequest(t, router, http.MethodGet, "/api/sms/", "")
	require.Equal(t, http.StatusOK, resp.Code)
	list := decodeBody[[]MessageResponse](t, resp)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Message)
	assert.Equal(t, "second", list[1].Message)
	assert.Equal(t, "first", list[2].Message)
	for i := 1; i < len(list); i++ {
		assert.GreaterOrEqual(t, list[i-1].CreatedAt, list[i].CreatedAt)
	}

	resp = doRequest(t, router, http.MethodGet, "/api/whatsapp/", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[]`, resp.Body.String())
}

func TestStats(t *testing.T) {
	router := newTestRouter(t, createTestStore(t), nil)

	doRequest(t, router, http.MethodPost, "/api/email/", `{"email_to":"a@example.com"}`)
	doRequest(t, router, http.MethodPost, "/api/email/", `{"email_to":"b@example.com"}`)
	doRequest(t, router, http.MethodPost, "/api/whatsapp/", `{"mobile_number":"111","message":"hi"}`)
	// rejected, must not count
	doRequest(t, router, http.MethodPost, "/api/sms/", `{"mobile_number":"111"}`)

	resp := doRequest(t, router, http.MethodGet, "/api/stats/", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"emails":2,"sms":0,"whatsapp":1}`, resp.Body.String())
}

func TestDelete(t *testing.T) {
	st := createTestStore(t)
	router := newTestRouter(t, st, nil)
	ctx := context.Background()

	sms, err := st.CreateMessage(ctx, store.KindSMS, "111", "hi")
	require.NoError(t, err)
	wa, err := st.CreateMessage(ctx, store.KindWhatsApp, "111", "hi")
	require.NoError(t, err)

	// Same id in another kind is untouched.
	resp := doRequest(t, router, http.MethodPost, "/api/delete/", `{"type":"email","id":`+itoa(sms.ID)+`}`)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"ok":true,"deleted":0}`, resp.Body.String())

	resp = doRequest(t, router, http.MethodPost, "/api/delete/", `{"type":"sms","id":"`+itoa(sms.ID)+`"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"ok":true,"deleted":1}`, resp.Body.String())

	// Second delete of the same id reports zero.
	resp = doRequest(t, router, http.MethodPost, "/api/delete/", `{"type":"sms","id":`+itoa(sms.ID)+`}`)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"ok":true,"deleted":0}`, resp.Body.String())

	resp = doRequest(t, router, http.MethodPost, "/api/delete/", `{"type":"sms","id":9999}`)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"ok":true,"deleted":0}`, resp.Body.String())

	count, err := st.Count(ctx, store.KindWhatsApp)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	resp = doRequest(t, router, http.MethodPost, "/api/delete/", `{"type":"whatsapp","id":`+itoa(wa.ID)+`}`)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"ok":true,"deleted":1}`, resp.Body.String())
}

func TestDelete_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "non numeric id", body: `{"type":"sms","id":"abc"}`, wantErr: validation.MsgIDRequired},
		{name: "missing id", body: `{"type":"sms"}`, wantErr: validation.MsgIDRequired},
		{name: "unknown type", body: `{"type":"fax","id":1}`, wantErr: validation.MsgKindRequired},
		{name: "missing type", body: `{"id":1}`, wantErr: validation.MsgKindRequired},
		{name: "malformed", body: `{"type":`, wantErr: msgInvalidJSON},
	}

	router := newTestRouter(t, createTestStore(t), nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, router, http.MethodPost, "/api/delete/", tt.body)
			require.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Equal(t, tt.wantErr, decodeBody[ErrorResponse](t, resp).Error)
		})
	}
}

func TestSearchFilter(t *testing.T) {
	st := createTestStore(t)
	router := newTestRouter(t, st, nil)
	ctx := context.Background()

	for _, addr := range []string{"alice@example.com", "bob@example.org", "100%@example.com"} {
		_, err := st.CreateEmail(ctx, addr)
		require.NoError(t, err)
	}
	_, err := st.CreateMessage(ctx, store.KindWhatsApp, "555", "Meeting at noon")
	require.NoError(t, err)
	_, err = st.CreateMessage(ctx, store.KindWhatsApp, "777", "lunch?")
	require.NoError(t, err)

	resp := doRequest(t, router, http.MethodGet, "/api/email/?q=ALICE", "")
	require.Equal(t, http.StatusOK, resp.Code)
	emails := decodeBody[[]EmailResponse](t, resp)
	require.Len(t, emails, 1)
	assert.Equal(t, "alice@example.com", emails[0].EmailTo)

	resp = doRequest(t, router, http.MethodGet, "/api/email/?q=%25", "")
	require.Equal(t, http.StatusOK, resp.Code)
	emails = decodeBody[[]EmailResponse](t, resp)
	require.Len(t, emails, 1, "percent must match literally")
	assert.Equal(t, "100%@example.com", emails[0].EmailTo)

	resp = doRequest(t, router, http.MethodGet, "/api/whatsapp/?q=meeting", "")
	require.Equal(t, http.StatusOK, resp.Code)
	msgs := decodeBody[[]MessageResponse](t, resp)
	require.Len(t, msgs, 1)
	assert.Equal(t, "555", msgs[0].MobileNumber)

	_, err = st.CreateMessage(ctx, store.KindSMS, "888", "Привет École")
	require.NoError(t, err)
	resp = doRequest(t, router, http.MethodGet, "/api/sms/?q=%D0%9F%D0%A0%D0%98%D0%92%D0%95%D0%A2", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Len(t, decodeBody[[]MessageResponse](t, resp), 1, "cyrillic query must match case-insensitively")

	resp = doRequest(t, router, http.MethodGet, "/api/whatsapp/?q=77", "")
	require.Equal(t, http.StatusOK, resp.Code)
	msgs = decodeBody[[]MessageResponse](t, resp)
	require.Len(t, msgs, 1)
	assert.Equal(t, "lunch?", msgs[0].Message)
}

func TestBodyTooLarge(t *testing.T) {
	router := newTestRouter(t, createTestStore(t), func(cfg *config.Config) {
		cfg.MaxBodyBytes = 16
	})

	resp := doRequest(t, router, http.MethodPost, "/api/email/", `{"email_to":"someone.with.a.long.name@example.com"}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, msgInvalidJSON, decodeBody[ErrorResponse](t, resp).Error)
}

func TestStoreFailure_Returns500(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	router := newTestRouter(t, sqlite.NewFromDB(db), nil)

	mock.ExpectQuery(`SELECT id, email_to, created_at\s+FROM email_logs`).
		WillReturnError(errors.New("disk I/O error"))
	resp := doRequest(t, router, http.MethodGet, "/api/email/", "")
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, "internal server error", decodeBody[ErrorResponse](t, resp).Error)

	mock.ExpectExec("INSERT INTO sms_logs").
		WillReturnError(errors.New("database is locked"))
	resp = doRequest(t, router, http.MethodPost, "/api/sms/", `{"mobile_number":"111","message":"hi"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.NotContains(t, resp.Body.String(), "locked")

	require.NoError(t, mock.ExpectationsWereMet())
}
