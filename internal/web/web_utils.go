package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-while/go-attendance/internal/config"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	baseTemplate     = "base.html"
	tmplDashboard    = "dashboard.html"
	tmplLogin        = "login.html"
	tmplRegisterFace = "register_face.html"
	tmplAttendance   = "attendance.html"
	tmplError        = "error.html"
)

// pageTemplates lists every page rendered on top of base.html
var pageTemplates = []string{tmplDashboard, tmplLogin, tmplRegisterFace, tmplAttendance, tmplError}

// TemplateData represents common template data
type TemplateData struct {
	Title       string
	ActivePage  string
	CurrentTime string
	AppVersion  string
}

var templateFuncs = template.FuncMap{
	// a Caser keeps state, one per call
	"title": func(s string) string {
		return cases.Title(language.English).String(s)
	},
}

// loadTemplates parses base.html together with each page template.
// An empty dir selects the embedded templates.
func loadTemplates(dir string) (map[string]*template.Template, error) {
	var fsys fs.FS
	if dir == "" {
		sub, err := fs.Sub(EmbeddedTemplatesFS, "templates")
		if err != nil {
			return nil, fmt.Errorf("embedded templates: %w", err)
		}
		fsys = sub
	} else {
		fsys = os.DirFS(dir)
		log.Printf("[WEB]: Loading templates from %s", dir)
	}
	return parseTemplates(fsys)
}

func parseTemplates(fsys fs.FS) (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template, len(pageTemplates))
	for _, page := range pageTemplates {
		tmpl, err := template.New(baseTemplate).Funcs(templateFuncs).ParseFS(fsys, baseTemplate, page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		templates[page] = tmpl
	}
	return templates, nil
}

// getBaseTemplateData creates a TemplateData struct with common information
func (s *WebServer) getBaseTemplateData(title, activePage string) TemplateData {
	return TemplateData{
		Title:       title,
		ActivePage:  activePage,
		CurrentTime: time.Now().Format("2006-01-02 15:04:05"),
		AppVersion:  config.AppVersion,
	}
}

// execute runs a cached page template into a buffer so a failure never leaves a half written page
func (s *WebServer) execute(page string, data interface{}) ([]byte, error) {
	tmpl, ok := s.templates[page]
	if !ok {
		return nil, fmt.Errorf("unknown template %s", page)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, baseTemplate, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderTemplate renders a page template with status 200
func (s *WebServer) renderTemplate(c *gin.Context, page string, data interface{}) {
	body, err := s.execute(page, data)
	if err != nil {
		log.Printf("[WEB]: Error rendering template %s: %v", page, err)
		s.renderError(c, http.StatusInternalServerError, "Template error", err.Error())
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", body)
}

// renderError renders an error page
func (s *WebServer) renderError(c *gin.Context, statusCode int, message string, errstring string) {
	errorData := struct {
		TemplateData
		Error      string
		StatusCode int
	}{
		TemplateData: s.getBaseTemplateData("error", ""),
		Error:        message,
		StatusCode:   statusCode,
	}
	if statusCode >= http.StatusInternalServerError || s.Config.Debug {
		log.Printf("[WEB]: Error %d: %s - %s", statusCode, message, errstring)
	}

	body, err := s.execute(tmplError, errorData)
	if err != nil {
		log.Printf("[WEB]: Error rendering error template: %v", err)
		c.String(statusCode, "Error: %s - %s", message, errstring)
		return
	}
	c.Data(statusCode, "text/html; charset=utf-8", body)
}
