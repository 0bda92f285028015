package web

import (
	"github.com/gin-gonic/gin"
)

// attendancePage shows the attendance view. There is no log behind it yet.
func (s *WebServer) attendancePage(c *gin.Context) {
	data := s.getBaseTemplateData("attendance", "attendance")
	s.renderTemplate(c, tmplAttendance, data)
}
