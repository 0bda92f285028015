package config

import (
	"testing"
	"time"
)

func TestNewDefaultConfigValidates(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Web == nil {
		t.Fatal("default config has no web section")
	}
	if cfg.Web.ListenPort != DefaultWebPort {
		t.Errorf("ListenPort = %d, want %d", cfg.Web.ListenPort, DefaultWebPort)
	}
	if cfg.Web.ShutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("ShutdownTimeout = %s, want %s", cfg.Web.ShutdownTimeout, DefaultShutdownTimeout)
	}
	if err := cfg.Web.Validate(); err != nil {
		t.Fatalf("default config does not validate: %v", err)
	}
	// defaults must not share the package-level slice
	cfg.Web.TrustedProxies[0] = "changed"
	if DefaultTrustedProxies[0] == "changed" {
		t.Error("TrustedProxies aliases DefaultTrustedProxies")
	}
}

func TestWebConfigValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(wc *WebConfig)
		wantErr bool
	}{
		{"defaults", func(wc *WebConfig) {}, false},
		{"port too low", func(wc *WebConfig) { wc.ListenPort = 80 }, true},
		{"port too high", func(wc *WebConfig) { wc.ListenPort = 70000 }, true},
		{"lowest port", func(wc *WebConfig) { wc.ListenPort = 1024 }, false},
		{"ssl without files", func(wc *WebConfig) { wc.SSL = true }, true},
		{"ssl without key", func(wc *WebConfig) { wc.SSL = true; wc.CertFile = "cert.pem" }, true},
		{"ssl with files", func(wc *WebConfig) { wc.SSL = true; wc.CertFile = "cert.pem"; wc.KeyFile = "key.pem" }, false},
		{"autocert", func(wc *WebConfig) { wc.AutocertHost = "attendance.example.org" }, false},
		{"autocert with files", func(wc *WebConfig) {
			wc.AutocertHost = "attendance.example.org"
			wc.CertFile = "cert.pem"
		}, true},
		{"autocert without cache", func(wc *WebConfig) {
			wc.AutocertHost = "attendance.example.org"
			wc.AutocertCacheDir = ""
		}, true},
		{"https port without autocert", func(wc *WebConfig) { wc.ListenPort = 443 }, true},
		{"autocert on https port", func(wc *WebConfig) {
			wc.AutocertHost = "attendance.example.org"
			wc.ListenPort = 443
		}, false},
		{"autocert http-01 on port 80", func(wc *WebConfig) {
			wc.AutocertHost = "attendance.example.org"
			wc.ListenPort = 443
			wc.AutocertHTTPPort = 80
		}, false},
		{"autocert http port too low", func(wc *WebConfig) {
			wc.AutocertHost = "attendance.example.org"
			wc.AutocertHTTPPort = 81
		}, true},
		{"autocert http port equals listen port", func(wc *WebConfig) {
			wc.AutocertHost = "attendance.example.org"
			wc.AutocertHTTPPort = wc.ListenPort
		}, true},
		{"http port without autocert", func(wc *WebConfig) { wc.AutocertHTTPPort = 8080 }, true},
		{"negative shutdown timeout", func(wc *WebConfig) { wc.ShutdownTimeout = -time.Second }, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			wc := NewDefaultConfig().Web
			tc.mutate(wc)
			err := wc.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %t", err, tc.wantErr)
			}
		})
	}
}

func TestUsesTLS(t *testing.T) {
	wc := NewDefaultConfig().Web
	if wc.UsesTLS() {
		t.Error("default config should not use TLS")
	}
	wc.AutocertHost = "attendance.example.org"
	if !wc.UsesTLS() {
		t.Error("autocert host should imply TLS")
	}
	wc.AutocertHost = ""
	wc.SSL = true
	if !wc.UsesTLS() {
		t.Error("SSL flag should imply TLS")
	}
}

func TestApplyEnv(t *testing.T) {
	testCases := []struct {
		name      string
		env       map[string]string
		wantPort  int
		wantDebug bool
		wantErr   bool
	}{
		{"empty", map[string]string{}, DefaultWebPort, false, false},
		{"port", map[string]string{EnvWebPort: "12000"}, 12000, false, false},
		{"port with spaces", map[string]string{EnvWebPort: " 12001 "}, 12001, false, false},
		{"debug", map[string]string{EnvWebDebug: "true"}, DefaultWebPort, true, false},
		{"bad port", map[string]string{EnvWebPort: "eighty"}, DefaultWebPort, false, true},
		{"bad debug", map[string]string{EnvWebDebug: "maybe"}, DefaultWebPort, false, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			err := cfg.ApplyEnv(func(key string) string { return tc.env[key] })
			if (err != nil) != tc.wantErr {
				t.Fatalf("ApplyEnv() error = %v, wantErr %t", err, tc.wantErr)
			}
			if cfg.Web.ListenPort != tc.wantPort {
				t.Errorf("ListenPort = %d, want %d", cfg.Web.ListenPort, tc.wantPort)
			}
			if cfg.Web.Debug != tc.wantDebug {
				t.Errorf("Debug = %t, want %t", cfg.Web.Debug, tc.wantDebug)
			}
		})
	}
}
