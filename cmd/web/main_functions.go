package main

import (
	"log"
	"os"
	"time"

	"github.com/go-while/go-attendance/internal/config"
)

const updateCheckInterval = 60 * time.Second

// applyFlags overrides config values with command-line flags if provided
func applyFlags(webConfig *config.WebConfig) {
	if webport > 0 {
		webConfig.ListenPort = webport
		log.Printf("[WEB]: Overriding listen port with command-line flag: %d", webConfig.ListenPort)
	}
	if webssl {
		webConfig.SSL = true
		log.Printf("[WEB]: SSL enabled via command-line flag")
	}
	if webcertFile != "" {
		webConfig.CertFile = webcertFile
		log.Printf("[WEB]: SSL cert file set: %s", webConfig.CertFile)
	}
	if webkeyFile != "" {
		webConfig.KeyFile = webkeyFile
		log.Printf("[WEB]: SSL key file set: %s", webConfig.KeyFile)
	}
	if webacmeHost != "" {
		webConfig.AutocertHost = webacmeHost
		log.Printf("[WEB]: ACME certificates enabled for %s", webConfig.AutocertHost)
	}
	if webacmeCache != "" {
		webConfig.AutocertCacheDir = webacmeCache
	}
	if webacmeHTTP > 0 {
		webConfig.AutocertHTTPPort = webacmeHTTP
	}
	if webtemplates != "" {
		webConfig.TemplateDir = webtemplates
	}
	if blockBots {
		webConfig.BlockBots = true
	}
	if debug {
		webConfig.Debug = true
	}
}

// monitorUpdateFile checks for the existence of an update file every interval
// and signals for shutdown when found, after renaming it to <file>.todo
func monitorUpdateFile(updateFilePath string, interval time.Duration, shutdownChan chan<- bool) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("[WEB]: Update file monitor started, checking for '%s' every %s", updateFilePath, interval)

	for range ticker.C {
		if _, err := os.Stat(updateFilePath); err != nil {
			continue
		}
		log.Printf("[WEB]: Update file '%s' detected, triggering graceful shutdown", updateFilePath)

		if err := os.Rename(updateFilePath, updateFilePath+".todo"); err != nil {
			log.Printf("[WEB]: Warning: Failed to rename update file '%s': %v", updateFilePath, err)
			continue
		}

		select {
		case shutdownChan <- true:
			log.Printf("[WEB]: Shutdown signal sent via update file monitor")
		default:
			log.Printf("[WEB]: Shutdown channel already signaled")
		}
		return
	}
}
