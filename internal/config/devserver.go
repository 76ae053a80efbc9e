package config

import (
	"flag"
	"os"
	"time"
)

// Rewards are the coin amounts granted by the development server
type Rewards struct {
	// SignupBonus is granted to users who register with a referral code
	SignupBonus    int64 `yaml:"signup_bonus" validate:"gte=0"`
	ReferralBonus  int64 `yaml:"referral_bonus" validate:"gte=0"`
	// ReferralReads is how many articles the invited user has to read
	// before the referrer gets ReferralBonus
	ReferralReads  int64 `yaml:"referral_reads" validate:"gt=0"`
	ReadReward     int64 `yaml:"read_reward" validate:"gte=0"`
	DailyReadLimit int64 `yaml:"daily_read_limit" validate:"gt=0"`
	StreakBonus    int64 `yaml:"streak_bonus" validate:"gte=0"`
	StreakDays     int64 `yaml:"streak_days" validate:"gt=0"`
	// MinReadSeconds is the shortest read that earns coins
	MinReadSeconds int64 `yaml:"min_read_seconds" validate:"gte=0"`
}

// DevServer is the development backend configuration
type DevServer struct {
	Log            Log           `yaml:"log"`
	Rewards        Rewards       `yaml:"rewards"`
	Addr           string        `yaml:"addr" validate:"required"`
	DBPath         string        `yaml:"db_path" validate:"required"`
	JWTSecret      string        `yaml:"jwt_secret" validate:"required,min=16"`
	GoogleClientID string        `yaml:"google_client_id"`
	GoogleIssuer   string        `yaml:"google_issuer"`
	AccessTTL      time.Duration `yaml:"access_ttl" validate:"gt=0"`
	RefreshTTL     time.Duration `yaml:"refresh_ttl" validate:"gt=0"`
	// RateLimit is the number of requests per minute per client IP, 0 disables it
	RateLimit      int64         `yaml:"rate_limit" validate:"gte=0"`
	SeedNews       bool          `yaml:"seed_news"`
	ShowVersion    bool          `yaml:"-"`
}

// DefaultDevServer returns the built-in server settings
func DefaultDevServer() DevServer {
	return DevServer{
		Addr:         ":8080",
		DBPath:       "newscoin-dev.db",
		AccessTTL:    15 * time.Minute,
		RefreshTTL:   7 * 24 * time.Hour,
		GoogleIssuer: "https://accounts.google.com",
		RateLimit:    600,
		SeedNews:     true,
		Log:          Log{Level: "info", Format: "text"},
		Rewards: Rewards{
			SignupBonus:    50,
			ReferralBonus:  100,
			ReferralReads:  20,
			ReadReward:     10,
			DailyReadLimit: 50,
			StreakBonus:    50,
			StreakDays:     7,
			MinReadSeconds: 30,
		},
	}
}

// LoadDevServer builds the server config from all sources
func LoadDevServer(name string, args []string) (*DevServer, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	configPath := fs.String("config", os.Getenv(EnvConfigPath), "Path to YAML config file")
	showVersion := fs.Bool("version", false, "Show version information")
	addr := fs.String("addr", "", "Listen address")
	dbPath := fs.String("db", "", "Path to SQLite database")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := DefaultDevServer()
	if err := loadFile(*configPath, &cfg); err != nil {
		return nil, err
	}
	if err := loadDotenv(); err != nil {
		return nil, err
	}

	env := &envLoader{prefix: envPrefix + "DEV_"}
	env.string(&cfg.Addr, "ADDR")
	env.string(&cfg.DBPath, "DB_PATH")
	env.string(&cfg.JWTSecret, "JWT_SECRET")
	env.duration(&cfg.AccessTTL, "ACCESS_TTL")
	env.duration(&cfg.RefreshTTL, "REFRESH_TTL")
	env.string(&cfg.GoogleClientID, "GOOGLE_CLIENT_ID")
	env.string(&cfg.GoogleIssuer, "GOOGLE_ISSUER")
	env.int64(&cfg.RateLimit, "RATE_LIMIT")
	env.bool(&cfg.SeedNews, "SEED_NEWS")
	env.string(&cfg.Log.Level, "LOG_LEVEL")
	env.string(&cfg.Log.Format, "LOG_FORMAT")
	if env.err != nil {
		return nil, env.err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "version":
			cfg.ShowVersion = *showVersion
		case "addr":
			cfg.Addr = *addr
		case "db":
			cfg.DBPath = *dbPath
		case "log-level":
			cfg.Log.Level = *logLevel
		}
	})

	// без секрета можно только узнать версию
	if cfg.ShowVersion {
		return &cfg, nil
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
