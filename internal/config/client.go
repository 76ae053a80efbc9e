package config

import (
	"flag"
	"os"
	"time"
)

// Google holds the OAuth client used for Google sign-in
type Google struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
	Issuer       string `yaml:"issuer"`
}

// Client is the CLI configuration
type Client struct {
	Google          Google        `yaml:"google"`
	Log             Log           `yaml:"log"`
	ServerURL       string        `yaml:"server_url" validate:"required,url"`
	DBPath          string        `yaml:"db_path" validate:"required"`
	Passphrase      string        `yaml:"passphrase"`                         // включает шифрование локального хранилища
	// Timeout bounds a single HTTP attempt
	Timeout         time.Duration `yaml:"timeout" validate:"gt=0"`
	ReadDwell       time.Duration `yaml:"read_dwell" validate:"gt=0"`
	CoalesceRefresh bool          `yaml:"coalesce_refresh"`
	ShowVersion     bool          `yaml:"-"`
}

// DefaultClient returns the built-in client settings
func DefaultClient() Client {
	return Client{
		ServerURL: "http://localhost:8080",
		DBPath:    "newscoin-client.db",
		Timeout:   30 * time.Second,
		ReadDwell: 30 * time.Second,
		Log:       Log{Level: "warn", Format: "text"},
		Google: Google{
			RedirectURL: "http://127.0.0.1:8085/callback",
			Issuer:      "https://accounts.google.com",
		},
	}
}

// LoadClient builds the client config from all sources. It returns the
// positional arguments left after flag parsing.
func LoadClient(name string, args []string) (*Client, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	configPath := fs.String("config", os.Getenv(EnvConfigPath), "Path to YAML config file")
	showVersion := fs.Bool("version", false, "Show version information")
	serverURL := fs.String("server", "", "Server URL")
	dbPath := fs.String("db", "", "Path to local database")
	timeout := fs.Duration("timeout", 0, "HTTP request timeout")
	coalesce := fs.Bool("coalesce-refresh", false, "Share one token refresh between concurrent requests")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")
	logFormat := fs.String("log-format", "", "Log format: text, json")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	cfg := DefaultClient()
	if err := loadFile(*configPath, &cfg); err != nil {
		return nil, nil, err
	}
	if err := loadDotenv(); err != nil {
		return nil, nil, err
	}

	env := &envLoader{prefix: envPrefix}
	env.string(&cfg.ServerURL, "SERVER_URL")
	env.string(&cfg.DBPath, "DB_PATH")
	env.string(&cfg.Passphrase, "PASSPHRASE")
	env.duration(&cfg.Timeout, "TIMEOUT")
	env.duration(&cfg.ReadDwell, "READ_DWELL")
	env.bool(&cfg.CoalesceRefresh, "COALESCE_REFRESH")
	env.string(&cfg.Log.Level, "LOG_LEVEL")
	env.string(&cfg.Log.Format, "LOG_FORMAT")
	env.string(&cfg.Google.ClientID, "GOOGLE_CLIENT_ID")
	env.string(&cfg.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	env.string(&cfg.Google.RedirectURL, "GOOGLE_REDIRECT_URL")
	env.string(&cfg.Google.Issuer, "GOOGLE_ISSUER")
	if env.err != nil {
		return nil, nil, env.err
	}

	// флаги применяются только если заданы явно
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "version":
			cfg.ShowVersion = *showVersion
		case "server":
			cfg.ServerURL = *serverURL
		case "db":
			cfg.DBPath = *dbPath
		case "timeout":
			cfg.Timeout = *timeout
		case "coalesce-refresh":
			cfg.CoalesceRefresh = *coalesce
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-format":
			cfg.Log.Format = *logFormat
		}
	})

	if err := validate(cfg); err != nil {
		return nil, nil, err
	}
	return &cfg, fs.Args(), nil
}
