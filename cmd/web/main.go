// Web server for go-attendance
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-while/go-attendance/internal/config"
	"github.com/go-while/go-attendance/internal/web"
	prof "github.com/go-while/go-cpu-mem-profiler"
	"golang.org/x/term"
)

var (
	// command-line flags
	webport        int
	webssl         bool
	webcertFile    string
	webkeyFile     string
	webacmeHost    string
	webacmeCache   string
	webacmeHTTP    int
	webtemplates   string
	blockBots      bool
	debug          bool
	pprofAddr      string
	updateFilePath string
)

var appVersion = "-unset-"

var Prof *prof.Profiler

func main() {
	config.AppVersion = appVersion

	flag.IntVar(&webport, "webport", 0, "Web server port (default: 11990)")
	flag.BoolVar(&webssl, "webssl", false, "Enable SSL (requires -websslcert and -websslkey)")
	flag.StringVar(&webcertFile, "websslcert", "", "SSL certificate file (/path/to/fullchain.pem)")
	flag.StringVar(&webkeyFile, "websslkey", "", "SSL key file (/path/to/privkey.pem)")
	flag.StringVar(&webacmeHost, "webacme", "", "Hostname to fetch ACME (Let's Encrypt) certificates for, enables SSL")
	flag.StringVar(&webacmeCache, "webacmecache", "", "Directory to cache ACME certificates (default: "+config.DefaultAutocertCacheDir+")")
	flag.IntVar(&webacmeHTTP, "webacmehttp", 0, "Port for ACME http-01 challenges and http->https redirects, e.g. 80 (default: off)")
	flag.StringVar(&webtemplates, "webtemplates", "", "Load page templates from this directory instead of the embedded ones")
	flag.BoolVar(&blockBots, "blockbots", false, "Block well known crawlers and scripted clients by User-Agent (default: false)")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging (default: false)")
	flag.StringVar(&pprofAddr, "pprof", "", "Start the pprof web profiler on this address, e.g. :51111 (default: off)")
	flag.StringVar(&updateFilePath, "updatefile", ".update", "Gracefully shut down when this file appears")
	flag.Parse()

	log.Printf("Starting go-attendance: Web Server (version: %s)", appVersion)

	mainConfig := config.NewDefaultConfig()
	if err := mainConfig.ApplyEnv(os.Getenv); err != nil {
		log.Fatalf("[WEB]: Error in environment: %v", err)
	}
	webConfig := mainConfig.Web
	applyFlags(webConfig)

	if err := webConfig.Validate(); err != nil {
		log.Fatalf("[WEB]: Invalid configuration: %v", err)
	}
	if webConfig.Debug {
		log.Printf("[WEB]: Using WEB configuration: %#v", webConfig)
	}

	// colored console access log on a terminal, Apache combined lines otherwise
	webConfig.ConsoleLog = term.IsTerminal(int(os.Stdout.Fd()))
	if !webConfig.ConsoleLog {
		gin.DisableConsoleColor()
	}

	if pprofAddr != "" {
		Prof = prof.NewProf()
		go Prof.PprofWeb(pprofAddr)
		Prof.StartMemProfile(5*time.Minute, 30*time.Second)
		log.Printf("[WEB]: pprof web profiler listening on %s", pprofAddr)
	}

	server, err := web.NewServer(webConfig)
	if err != nil {
		log.Fatalf("[WEB]: Failed to create web server: %v", err)
	}

	protocol := "http"
	if webConfig.UsesTLS() {
		protocol = "https"
	}
	log.Printf("[WEB]: Starting go-attendance web server on %s://localhost:%d", protocol, webConfig.ListenPort)

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start web server in goroutine to make it non-blocking
	webServerErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			webServerErrChan <- err
		}
	}()

	log.Printf("[WEB]: Server started successfully. Press Ctrl+C to gracefully shutdown...")

	updateFileChan := make(chan bool, 1)
	go monitorUpdateFile(updateFilePath, updateCheckInterval, updateFileChan)

	// Wait for either shutdown signal, server error, or update file
	select {
	case sig := <-sigChan:
		log.Printf("[WEB]: Received %s, initiating graceful shutdown...", sig)
	case err := <-webServerErrChan:
		log.Fatalf("[WEB]: Failed to start web server: %v", err)
	case <-updateFileChan:
		log.Printf("[WEB]: Update file detected, initiating graceful shutdown for update...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), webConfig.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("[WEB]: Error during shutdown: %v", err)
	}

	log.Printf("[WEB]: Graceful shutdown completed")
} // end main
