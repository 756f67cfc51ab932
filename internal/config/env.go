package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/devswami/portfolio/internal/mailer"
)

// ErrParsingEnv wraps failures to read the environment into Env.
var ErrParsingEnv = errors.New("parse environment")

// Env holds secrets and deployment settings read from the process
// environment. A .env file, when present, is loaded first.
type Env struct {
	Mail mailer.Config

	// RecipientEmail receives contact submissions. Falls back to the mail
	// account when empty.
	RecipientEmail string   `env:"CONTACT_RECIPIENT_EMAIL"`
	CORSOrigins    []string `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
	APIURL         string   `env:"API_URL" envDefault:"http://localhost:4000"`

	Resume ResumeEnv
}

// ResumeEnv chooses where the résumé is read from. S3 wins over a local path;
// with neither set the packed asset is served.
type ResumeEnv struct {
	Path     string `env:"RESUME_PATH"`
	Bucket   string `env:"RESUME_S3_BUCKET"`
	Key      string `env:"RESUME_S3_KEY" envDefault:"resume.pdf"`
	Region   string `env:"RESUME_S3_REGION"`
	Filename string `env:"RESUME_FILENAME" envDefault:"Dev Swami.pdf"`
}

// UseS3 reports whether the résumé lives in a bucket.
func (r ResumeEnv) UseS3() bool {
	return strings.TrimSpace(r.Bucket) != ""
}

// LoadEnv loads the given dotenv files (".env" when none are given), skipping
// missing ones, and parses the process environment.
func LoadEnv(paths ...string) (*Env, error) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", p, err)
		}
	}

	var e Env
	if err := env.Parse(&e); err != nil {
		return nil, errors.Join(ErrParsingEnv, err)
	}
	e.normalize()
	return &e, nil
}

// ParseEnv reads Env from an explicit variable set instead of the process
// environment.
func ParseEnv(vars map[string]string) (*Env, error) {
	var e Env
	if err := env.ParseWithOptions(&e, env.Options{Environment: vars}); err != nil {
		return nil, errors.Join(ErrParsingEnv, err)
	}
	e.normalize()
	return &e, nil
}

func (e *Env) normalize() {
	e.RecipientEmail = strings.TrimSpace(e.RecipientEmail)
	e.APIURL = strings.TrimRight(strings.TrimSpace(e.APIURL), "/")

	origins := make([]string, 0, len(e.CORSOrigins))
	for _, o := range e.CORSOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	e.CORSOrigins = origins
}
