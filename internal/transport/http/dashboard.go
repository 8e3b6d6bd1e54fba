package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vovakirdan/commlog-server/internal/store"
)

type messageKindView struct {
	Kind  store.Kind
	Label string
}

var dashboardKinds = []messageKindView{
	{Kind: store.KindSMS, Label: "SMS"},
	{Kind: store.KindWhatsApp, Label: "WhatsApp"},
}

// Dashboard renders the HTML shell. Data is loaded client-side from the JSON API.
// GET /
func Dashboard(c *gin.Context) {
	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Title":        "Communication Log",
		"MessageKinds": dashboardKinds,
	})
}
