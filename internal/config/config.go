// Package config provides configuration management for go-attendance.
package config

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"
)

var AppVersion = "-unset-" // will be set at build time

const (
	// Default web settings
	DefaultWebPort          = 11990
	DefaultShutdownTimeout  = 10 * time.Second
	DefaultAutocertCacheDir = "data/autocert"

	// Environment overrides
	EnvWebPort  = "ATTENDANCE_WEB_PORT"
	EnvWebDebug = "ATTENDANCE_WEB_DEBUG"

	minPort   = 1024
	maxPort   = 65535
	httpPort  = 80
	httpsPort = 443
)

// MainConfig holds the main configuration for go-attendance
type MainConfig struct {
	// Mutex for thread-safe access
	mux sync.Mutex `json:"-"`

	// Web interface settings
	Web *WebConfig `json:"web"`

	AppVersion string `json:"app_version"` // Application version, set at build time
}

// WebConfig holds web interface configuration
type WebConfig struct {
	ListenPort       int           `json:"listen_port"`
	SSL              bool          `json:"ssl"`
	CertFile         string        `json:"cert_file,omitempty"`
	KeyFile          string        `json:"key_file,omitempty"`
	AutocertHost     string        `json:"autocert_host,omitempty"`      // hostname for ACME certificates, implies SSL
	AutocertCacheDir string        `json:"autocert_cache_dir,omitempty"` // where ACME certificates are cached
	AutocertHTTPPort int           `json:"autocert_http_port,omitempty"` // serves http-01 challenges and redirects to https, 0 = off
	TemplateDir      string        `json:"template_dir,omitempty"`       // empty uses the embedded templates
	TrustedProxies   []string      `json:"trusted_proxies"`
	BlockBots        bool          `json:"block_bots"`
	ConsoleLog       bool          `json:"console_log"` // human readable access log instead of Apache combined lines
	Debug            bool          `json:"debug"`       // Enable debug logging for requests and form intake
	ShutdownTimeout  time.Duration `json:"shutdown_timeout"`
}

var DefaultTrustedProxies = []string{"127.0.0.1", "::1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}

// NewDefaultConfig returns a configuration with sensible defaults
func NewDefaultConfig() *MainConfig {
	maincfg := &MainConfig{
		AppVersion: AppVersion,
		Web: &WebConfig{
			ListenPort:       DefaultWebPort,
			SSL:              false,
			AutocertCacheDir: DefaultAutocertCacheDir,
			TrustedProxies:   append([]string(nil), DefaultTrustedProxies...),
			ShutdownTimeout:  DefaultShutdownTimeout,
		},
	}

	maincfg.mux.Lock()
	log.Printf("[CONFIG]: MainConfig initialized (version: %s, port: %d)", maincfg.AppVersion, maincfg.Web.ListenPort)
	maincfg.mux.Unlock()
	return maincfg
}

// ApplyEnv overrides web settings from the environment.
// getenv is usually os.Getenv; tests pass a map lookup.
func (mc *MainConfig) ApplyEnv(getenv func(string) string) error {
	mc.mux.Lock()
	defer mc.mux.Unlock()

	if portEnv := strings.TrimSpace(getenv(EnvWebPort)); portEnv != "" {
		p, err := strconv.Atoi(portEnv)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvWebPort, portEnv, err)
		}
		mc.Web.ListenPort = p
		log.Printf("[CONFIG]: Port overridden by environment variable: %d", p)
	}
	if debugEnv := strings.TrimSpace(getenv(EnvWebDebug)); debugEnv != "" {
		debug, err := strconv.ParseBool(debugEnv)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvWebDebug, debugEnv, err)
		}
		mc.Web.Debug = debug
	}
	return nil
}

// UsesTLS reports whether the web server terminates TLS itself
func (wc *WebConfig) UsesTLS() bool {
	return wc.SSL || wc.AutocertHost != ""
}

// Validate checks the final web configuration after defaults, env and flags are applied
func (wc *WebConfig) Validate() error {
	// tls-alpn-01 challenges arrive on 443, so autocert may bind it directly
	if !validPort(wc.ListenPort) && !(wc.AutocertHost != "" && wc.ListenPort == httpsPort) {
		return fmt.Errorf("invalid port number: %d (must be between %d and %d)", wc.ListenPort, minPort, maxPort)
	}
	if wc.ShutdownTimeout < 0 {
		return fmt.Errorf("invalid shutdown timeout: %s", wc.ShutdownTimeout)
	}
	if wc.AutocertHost != "" {
		if wc.CertFile != "" || wc.KeyFile != "" {
			return errors.New("autocert host and cert_file/key_file are mutually exclusive")
		}
		if wc.AutocertCacheDir == "" {
			return errors.New("autocert enabled but autocert_cache_dir is empty")
		}
		if wc.AutocertHTTPPort != 0 {
			if !validPort(wc.AutocertHTTPPort) && wc.AutocertHTTPPort != httpPort {
				return fmt.Errorf("invalid autocert http port: %d (must be %d or between %d and %d)", wc.AutocertHTTPPort, httpPort, minPort, maxPort)
			}
			if wc.AutocertHTTPPort == wc.ListenPort {
				return fmt.Errorf("autocert http port %d collides with listen port", wc.AutocertHTTPPort)
			}
		}
		return nil
	}
	if wc.AutocertHTTPPort != 0 {
		return errors.New("autocert_http_port set but autocert host is empty")
	}
	if wc.SSL && (wc.CertFile == "" || wc.KeyFile == "") {
		return errors.New("SSL enabled but cert_file or key_file not specified in config")
	}
	return nil
}

func validPort(port int) bool {
	return port >= minPort && port <= maxPort
}
