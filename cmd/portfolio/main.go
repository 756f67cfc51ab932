// Command portfolio serves the portfolio site and its contact API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/devswami/portfolio/build"
	"github.com/devswami/portfolio/internal/assets"
	"github.com/devswami/portfolio/internal/config"
	"github.com/devswami/portfolio/internal/contact"
	"github.com/devswami/portfolio/internal/log"
	"github.com/devswami/portfolio/internal/mailer"
	"github.com/devswami/portfolio/internal/metrics"
	"github.com/devswami/portfolio/internal/resume"
	"github.com/devswami/portfolio/internal/server"
)

const (
	defaultAddr   = ":4000"
	defaultConfig = "config.prod.json"
	webRoot       = "web"
)

func main() {
	cfg := parseConfig()

	logger := log.New(cfg.logLevel, cfg.logFormat)

	env, err := config.LoadEnv()
	if err != nil {
		logger.Error("load environment", "error", err)
		os.Exit(1)
	}

	src, err := loadSource(cfg.dev, cfg.folder)
	if err != nil {
		logger.Error("load assets", "error", err)
		os.Exit(1)
	}

	conf, configSource, err := loadConfig(cfg.configPath)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}
	logger.Info("configuration loaded", "source", configSource)

	if err := conf.Validate(src.PageExists); err != nil {
		logger.Error("validate config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := metrics.New()

	if err := env.Mail.Check(); err != nil {
		logger.Warn("mail transport not configured; contact submissions will fail", "provider", env.Mail.ProviderName(), "error", err)
	}
	sender := reg.InstrumentSender(env.Mail.ProviderName(), mailer.New(env.Mail, logger))
	contactSvc := contact.NewService(contact.Addressing{
		Recipient: env.RecipientEmail,
		Account:   env.Mail.Account,
	}, sender, logger, reg)

	resumeSrc, err := loadResume(ctx, env.Resume, logger)
	if err != nil {
		logger.Error("resume source", "error", err)
		os.Exit(1)
	}

	if !cfg.dev {
		gin.SetMode(gin.ReleaseMode)
	}

	srv, err := server.New(conf, src, logger, server.Deps{
		Contact:        contactSvc,
		Resume:         resumeSrc,
		ResumeFilename: env.Resume.Filename,
		Metrics:        reg,
		CORSOrigins:    env.CORSOrigins,
		APIURL:         env.APIURL,
		Dev:            cfg.dev,
	})
	if err != nil {
		logger.Error("initialise server", "error", err)
		os.Exit(1)
	}

	httpSrv := &http.Server{
		Addr:              cfg.addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", "error", err)
		}

		close(done)
	}()

	logger.Info("server starting",
		"addr", cfg.addr,
		"dev", cfg.dev,
		"assets", src.Kind().String(),
		"mail_provider", env.Mail.ProviderName(),
		"projects", len(srv.Catalogue().All()),
	)

	err = httpSrv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	<-done
	logger.Info("server stopped")
}

type runtimeConfig struct {
	configPath string
	addr       string
	logLevel   string
	logFormat  string
	folder     string
	dev        bool
}

type stringFlag struct {
	value string
	set   bool
}

func (s *stringFlag) String() string { return s.value }

func (s *stringFlag) Set(v string) error {
	s.value = strings.TrimSpace(v)
	s.set = true
	return nil
}

func parseConfig() runtimeConfig {
	configDefault := envOrDefault("CONFIG", defaultConfig)
	addrDefault := envOrDefault("ADDR", "")
	if addrDefault == "" {
		if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
			if strings.HasPrefix(port, ":") {
				addrDefault = port
			} else {
				addrDefault = ":" + port
			}
		}
	}
	if addrDefault == "" {
		addrDefault = defaultAddr
	}

	configFlag := &stringFlag{value: configDefault}
	addrFlag := &stringFlag{value: addrDefault}
	folderFlag := &stringFlag{value: envOrDefault("FOLDER", "")}

	flag.Var(configFlag, "config", "path to configuration file")
	flag.Var(addrFlag, "addr", "address to listen on (host:port)")
	flag.Var(folderFlag, "folder", "path to the asset folder (overrides embedded assets)")
	logLevel := flag.String("log-level", envOrDefault("LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", envOrDefault("LOG_FORMAT", "text"), "log format (text, json)")
	dev := flag.Bool("dev", envBool("DEV", false), "run in development mode (serve assets from disk)")

	flag.Parse()

	return runtimeConfig{
		configPath: configFlag.value,
		addr:       addrFlag.value,
		logLevel:   *logLevel,
		logFormat:  *logFormat,
		folder:     folderFlag.value,
		dev:        *dev,
	}
}

func envOrDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func loadConfig(path string) (*config.Config, string, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath != "" {
		conf, err := config.Load(cleanPath)
		if err == nil {
			return conf, cleanPath, nil
		}

		if !errors.Is(err, os.ErrNotExist) {
			return nil, "", err
		}
	}

	embedded := build.EmbeddedConfig()
	if len(embedded) == 0 {
		if cleanPath != "" {
			return nil, "", fmt.Errorf("config %s not found and no embedded configuration present", cleanPath)
		}
		return nil, "", errors.New("embedded configuration is missing")
	}

	conf, err := config.Parse(embedded)
	if err != nil {
		return nil, "", fmt.Errorf("parse embedded config: %w", err)
	}

	conf.WithSource("embedded")
	conf.WithLoadedTime(time.Now().UTC())

	if cleanPath != "" {
		return conf, fmt.Sprintf("embedded (fallback from %s)", cleanPath), nil
	}

	return conf, "embedded", nil
}

func loadSource(dev bool, folder string) (*assets.Source, error) {
	root := strings.TrimSpace(folder)
	if root == "" && dev {
		root = webRoot
	}

	if root != "" {
		return assets.NewDisk(root)
	}

	sub, err := fs.Sub(build.FS, "public")
	if err != nil {
		return nil, err
	}

	return assets.NewEmbedded(sub)
}

// loadResume returns nil when the packed asset should be served.
func loadResume(ctx context.Context, env config.ResumeEnv, logger *slog.Logger) (resume.Source, error) {
	switch {
	case env.UseS3():
		logger.Info("resume from s3", "bucket", env.Bucket, "key", env.Key)
		return resume.NewS3Source(ctx, env.Region, env.Bucket, env.Key)
	case env.Path != "":
		logger.Info("resume from disk", "path", env.Path)
		return resume.FileSource{Path: env.Path}, nil
	default:
		return nil, nil
	}
}
