package web

import (
	"time"

	"github.com/gin-gonic/gin"
)

// DashboardPageData represents data for the dashboard and its join form
type DashboardPageData struct {
	TemplateData
	Uptime    string
	MeetingID string // freshly generated suggestion, hosts may keep it
}

func (s *WebServer) homePage(c *gin.Context) {
	data := DashboardPageData{
		TemplateData: s.getBaseTemplateData("dashboard", "home"),
		Uptime:       s.uptime(),
		MeetingID:    newMeetingID(),
	}
	s.renderTemplate(c, tmplDashboard, data)
}

// uptime is the time since NewServer, rounded to seconds
func (s *WebServer) uptime() string {
	return time.Since(s.StartTime).Truncate(time.Second).String()
}
