package web

import (
	"log"

	"github.com/gin-gonic/gin"
)

// RegisterPageData represents data for register page
type RegisterPageData struct {
	TemplateData
	Name    string
	Roll    string
	Meeting string
	Role    string
}

// registerPage displays the face registration form. The dashboard join form
// lands here with name, roll, role and meeting in the query.
func (s *WebServer) registerPage(c *gin.Context) {
	data := RegisterPageData{
		TemplateData: s.getBaseTemplateData("register face", "register"),
		Name:         normalizeFormName(c.Query("name")),
		Roll:         normalizeFormName(c.Query("roll")),
		Meeting:      normalizeMeetingID(c.Query("meeting")),
		Role:         normalizeRole(c.Query("role")),
	}
	s.renderTemplate(c, tmplRegisterFace, data)
}

// registerSubmit accepts the face registration form. The uploaded photo is
// not encoded or kept; every submission goes back to the dashboard.
func (s *WebServer) registerSubmit(c *gin.Context) {
	limitFormBody(c)
	name := normalizeFormName(c.PostForm("name"))
	roll := normalizeFormName(c.PostForm("roll"))
	meeting := normalizeMeetingID(c.PostForm("meeting"))
	role := normalizeRole(c.PostForm("role"))
	if s.Config.Debug {
		var photoSize int64
		if photo, err := c.FormFile("face"); err == nil {
			photoSize = photo.Size
		}
		log.Printf("[WEB]: Face registration submitted from %s name=%q roll=%q role=%s meeting=%q photo=%d bytes",
			c.ClientIP(), name, roll, role, meeting, photoSize)
	}
	redirectHome(c)
}
