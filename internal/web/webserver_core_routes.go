// Package web provides the HTTP server and web interface for go-attendance
package web

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/go-while/go-attendance/internal/config"
	"golang.org/x/crypto/acme/autocert"
)

const (
	// multipart parts above this size spill to temp files
	maxMultipartMemory = 8 << 20
	// request bodies are cut off here, the form handlers redirect anyway
	maxFormBodyBytes = 16 << 20
)

// WebServer represents the web server
type WebServer struct {
	Router          *gin.Engine
	Config          *config.WebConfig
	StartTime       time.Time // Track server start time for uptime calculations
	templates       map[string]*template.Template
	trustedProxies  []netip.Prefix
	httpServer      *http.Server
	certManager     *autocert.Manager
	challengeServer *http.Server // http-01 challenges and https redirect, autocert only
}

// NewServer creates a new web server instance
func NewServer(webconfig *config.WebConfig) (*WebServer, error) {
	if webconfig.Debug {
		gin.SetMode(gin.DebugMode)
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = maxMultipartMemory
	router.HandleMethodNotAllowed = true

	// Configure Gin to trust reverse proxy headers
	router.RemoteIPHeaders = []string{"X-Forwarded-For", "X-Real-IP"}
	if err := router.SetTrustedProxies(webconfig.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	trustedProxies, err := parseTrustedProxies(webconfig.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	templates, err := loadTemplates(webconfig.TemplateDir)
	if err != nil {
		return nil, err
	}

	server := &WebServer{
		Router:         router,
		Config:         webconfig,
		StartTime:      time.Now(),
		templates:      templates,
		trustedProxies: trustedProxies,
	}
	server.httpServer = &http.Server{
		Addr:              ":" + strconv.Itoa(webconfig.ListenPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if webconfig.AutocertHost != "" {
		server.setupAutocert()
	}
	if webconfig.Debug {
		if files, err := ListEmbeddedFiles(); err == nil {
			log.Printf("[WEB]: Embedded static files: %v", files)
		}
	}

	router.Use(server.accessLogger(), gin.Recovery())
	router.Use(secure.New(server.secureConfig()))
	// Add reverse proxy middleware for handling X-Forwarded headers
	router.Use(server.ReverseProxyMiddleware())
	if webconfig.BlockBots {
		router.Use(server.BotDetectionMiddleware())
	}

	server.setupRoutes()
	return server, nil
}

// secureConfig builds the security header policy based on the SSL setup
func (s *WebServer) secureConfig() secure.Config {
	secureConfig := secure.Config{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; img-src 'self' data:",
	}

	// Only add SSL-specific headers if the application terminates TLS itself
	// (not when running behind a reverse proxy like nginx with SSL)
	if s.Config.UsesTLS() {
		secureConfig.SSLRedirect = true
		secureConfig.STSSeconds = 31536000
		secureConfig.STSIncludeSubdomains = true
	}
	return secureConfig
}

// setupAutocert prepares the ACME manager. tls-alpn-01 is answered on the
// TLS listener, http-01 on the optional challenge listener.
func (s *WebServer) setupAutocert() {
	s.certManager = &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(s.Config.AutocertHost),
		Cache:      autocert.DirCache(s.Config.AutocertCacheDir),
	}
	s.httpServer.TLSConfig = s.certManager.TLSConfig()
	s.httpServer.TLSConfig.MinVersion = tls.VersionTLS12

	if s.Config.AutocertHTTPPort > 0 {
		// nil fallback redirects everything else to https
		s.challengeServer = &http.Server{
			Addr:              ":" + strconv.Itoa(s.Config.AutocertHTTPPort),
			Handler:           s.certManager.HTTPHandler(nil),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}
}

// setupRoutes configures all HTTP routes
func (s *WebServer) setupRoutes() {
	// Static files first
	static := EmbeddedStaticHandler("/static")
	s.Router.GET("/static/*filepath", static)
	s.Router.HEAD("/static/*filepath", static)
	s.Router.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	s.Router.GET("/robots.txt", func(c *gin.Context) {
		c.String(http.StatusOK, "User-agent: *\nDisallow:\n")
	})
	s.Router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	s.Router.HEAD("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// Pages
	s.page("/", s.homePage, nil)
	s.page("/login", s.loginPage, s.loginSubmit)
	s.page("/register", s.registerPage, s.registerSubmit)
	s.page("/attendance", s.attendancePage, nil)

	s.Router.NoRoute(func(c *gin.Context) {
		s.renderError(c, http.StatusNotFound, "Page not found", c.Request.URL.Path)
	})
	s.Router.NoMethod(func(c *gin.Context) {
		s.renderError(c, http.StatusMethodNotAllowed, "Method not allowed", c.Request.Method+" "+c.Request.URL.Path)
	})
}

// page registers a page view for GET and HEAD, its form handler for POST
// when submit is set, and answers OPTIONS with the allowed methods.
func (s *WebServer) page(path string, view, submit gin.HandlerFunc) {
	allow := []string{http.MethodGet, http.MethodHead}
	s.Router.GET(path, view)
	s.Router.HEAD(path, view)
	if submit != nil {
		s.Router.POST(path, submit)
		allow = append(allow, http.MethodPost)
	}
	allow = append(allow, http.MethodOptions)
	allowHeader := strings.Join(allow, ", ")
	s.Router.OPTIONS(path, func(c *gin.Context) {
		c.Header("Allow", allowHeader)
		c.Status(http.StatusNoContent)
	})
}

// Start starts the web server with SSL support if configured.
// It returns http.ErrServerClosed after Shutdown.
func (s *WebServer) Start() error {
	addr := s.httpServer.Addr

	switch {
	case s.certManager != nil:
		if s.challengeServer != nil {
			go func() {
				log.Printf("[WEB]: Starting ACME http-01 listener on %s", s.challengeServer.Addr)
				if err := s.challengeServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Printf("[WEB]: ACME http-01 listener failed: %v", err)
				}
			}()
		}
		log.Printf("[WEB]: Starting HTTPS server on %s (autocert for %s)", addr, s.Config.AutocertHost)
		return s.httpServer.ListenAndServeTLS("", "")

	case s.Config.SSL:
		if s.Config.CertFile == "" || s.Config.KeyFile == "" {
			return errors.New("SSL enabled but cert_file or key_file not specified in config")
		}
		log.Printf("[WEB]: Starting HTTPS server on %s", addr)
		return s.httpServer.ListenAndServeTLS(s.Config.CertFile, s.Config.KeyFile)

	default:
		log.Printf("[WEB]: Starting HTTP server on %s", addr)
		return s.httpServer.ListenAndServe()
	}
}

// Shutdown stops accepting connections and waits for in-flight requests until ctx is done
func (s *WebServer) Shutdown(ctx context.Context) error {
	var errs []error
	if s.challengeServer != nil {
		if err := s.challengeServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("acme http-01 listener shutdown: %w", err))
		}
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("web server shutdown: %w", err))
	}
	return errors.Join(errs...)
}

// BotDetectionMiddleware blocks requests from well known crawlers and scripted clients
func (s *WebServer) BotDetectionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userAgent := c.GetHeader("User-Agent")
		if isBadBot(userAgent) {
			log.Printf("[WEB]: Bot blocked: %s from %s", userAgent, c.ClientIP())
			c.String(http.StatusForbidden, "403")
			c.Abort()
			return
		}
		c.Next()
	}
}

// ReverseProxyMiddleware honours X-Forwarded-Proto and X-Forwarded-Host when
// the peer is one of the trusted proxies. The client address is left to gin's
// ClientIP, which walks X-Forwarded-For / X-Real-IP against the same list.
func (s *WebServer) ReverseProxyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.fromTrustedProxy(c) {
			c.Next()
			return
		}

		// Handle X-Forwarded-Proto to detect if the original request was HTTPS
		if proto := c.GetHeader("X-Forwarded-Proto"); proto == "https" {
			c.Request.URL.Scheme = "https"
		}

		// Handle X-Forwarded-Host to get the original host
		if host := c.GetHeader("X-Forwarded-Host"); host != "" {
			c.Request.Host = host
		}

		c.Next()
	}
}

// fromTrustedProxy reports whether the direct peer is a trusted proxy
func (s *WebServer) fromTrustedProxy(c *gin.Context) bool {
	addr, err := netip.ParseAddr(c.RemoteIP())
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range s.trustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// parseTrustedProxies turns addresses and CIDRs into prefixes, a bare address covers itself only
func parseTrustedProxies(proxies []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(proxies))
	for _, proxy := range proxies {
		if strings.Contains(proxy, "/") {
			prefix, err := netip.ParsePrefix(proxy)
			if err != nil {
				return nil, err
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(proxy)
		if err != nil {
			return nil, err
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// accessLogger picks gin's console logger on a terminal and Apache combined lines otherwise
func (s *WebServer) accessLogger() gin.HandlerFunc {
	if s.Config.ConsoleLog {
		return gin.Logger()
	}
	return s.ApacheLogFormat()
}

func (s *WebServer) ApacheLogFormat() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf(`%s - - [%s] "%s %s %s" %d %d "%s" "%s"`+"\n",
			param.ClientIP,
			param.TimeStamp.Format("02/Jan/2006:15:04:05 -0700"),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.BodySize,
			param.Request.Referer(),
			param.Request.UserAgent(),
		)
	})
}
