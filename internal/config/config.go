package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "PROPOSALDESK_"

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Application struct {
	Host     string   `koanf:"host"`
	Server   Server   `koanf:"server"`
	Frontend Frontend `koanf:"frontend"`
	AI       AI       `koanf:"ai"`
	Database Database `koanf:"db"`
}

type Server struct {
	Port int `koanf:"port"`
}

func (s Server) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Frontend struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir"`
}

// AI configures the OpenAI-compatible chat completions endpoint used to
// generate proposal drafts.
type AI struct {
	Url     string        `koanf:"url"`
	Model   string        `koanf:"model"`
	ApiKey  string        `koanf:"apikey"`
	Timeout time.Duration `koanf:"timeout"`
}

type Database struct {
	Driver string `koanf:"driver"`
	// Path is the SQLite database file.
	Path   string `koanf:"path"`
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

func Defaults() Application {
	return Application{
		Host:   "http://localhost:8181",
		Server: Server{Port: 8181},
		Frontend: Frontend{
			Enabled: true,
			Dir:     "frontend",
		},
		AI: AI{
			Url:     "https://api.groq.com/openai/v1/chat/completions",
			Model:   "openai/gpt-oss-120b",
			Timeout: 2 * time.Minute,
		},
		Database: Database{
			Driver: DriverSQLite,
			Path:   "proposaldesk.db",
			Host:   "localhost",
			Port:   5432,
			User:   "proposaldesk",
			Name:   "proposaldesk",
			Schema: "proposaldesk",
		},
	}
}

// Load layers defaults, the YAML file at path (if present) and PROPOSALDESK_*
// environment variables, in that order. PROPOSALDESK_AI_APIKEY sets ai.apikey.
func Load(path string) (Application, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", "."), v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}
	applyLegacyEnv(&app.AI)

	switch app.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return Application{}, fmt.Errorf("unsupported database driver %q", app.Database.Driver)
	}
	return app, nil
}

// applyLegacyEnv honours the variable names of the hosted proxy deployment
// when the PROPOSALDESK_AI_* equivalents are not set.
func applyLegacyEnv(ai *AI) {
	if v := os.Getenv("GROQ_API_KEY"); v != "" && ai.ApiKey == "" {
		ai.ApiKey = v
	}
	if v := os.Getenv("GROQ_API_URL"); v != "" && os.Getenv(envPrefix+"AI_URL") == "" {
		ai.Url = v
	}
	if v := os.Getenv("MODEL_NAME"); v != "" && os.Getenv(envPrefix+"AI_MODEL") == "" {
		ai.Model = v
	}
}
