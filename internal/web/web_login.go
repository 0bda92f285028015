package web

import (
	"log"

	"github.com/gin-gonic/gin"
)

// LoginPageData represents data for login page
type LoginPageData struct {
	TemplateData
	Username string
}

// loginPage displays the login form
func (s *WebServer) loginPage(c *gin.Context) {
	data := LoginPageData{
		TemplateData: s.getBaseTemplateData("login", "login"),
		Username:     normalizeFormName(c.Query("username")),
	}
	s.renderTemplate(c, tmplLogin, data)
}

// loginSubmit accepts the login form. Credentials are not checked: every
// submission goes back to the dashboard.
func (s *WebServer) loginSubmit(c *gin.Context) {
	limitFormBody(c)
	username := normalizeFormName(c.PostForm("username"))
	if s.Config.Debug {
		log.Printf("[WEB]: Login submitted from %s username=%q", c.ClientIP(), username)
	}
	redirectHome(c)
}
