package core

import (
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug    bool
		TestMode bool
		AppName  string
		Env      string // DEV (local; default), TEST, QA, PROD
		Build    string

		SecretKey              string
		SessionExpirationDelta time.Duration
		AttendanceWindow       int
		Location               *time.Location

		LogLevel      string
		ErrorReporter string // rollbar | sentry
		RollbarToken  string
		SentryDSN     string

		Server   ServerConfig
		Database DatabaseConfig
	}

	ServerConfig struct {
		Host            string
		Address         string
		DebugHost       string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
		DisableCSRF     bool
		SecureCookies   bool
	}

	DatabaseConfig struct {
		Engine        string // postgres | pgx | memory
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		MaxOpenConns  int
		Timeout       time.Duration
	}
)

func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, strconv.Itoa(dbc.Port))
}

func (dbc DatabaseConfig) InMemory() bool {
	return dbc.Engine == "memory"
}

func newViper() *viper.Viper {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("appName", "Shule")
	conf.SetDefault("build", "develop")
	conf.SetDefault("secretKey", "t7d#n0q!1x%9w@zb3m&k(2p^r8v_4ys-lu6c*e5h)og+aj=i")
	conf.SetDefault("sessionExpirationDelta", 24*time.Hour)
	conf.SetDefault("attendanceWindow", 30)
	conf.SetDefault("timezone", "UTC")
	conf.SetDefault("logLevel", "debug")
	conf.SetDefault("errorReporter", "rollbar")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("sentryDSN", "")

	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.address", ":8000")
	conf.SetDefault("server.debugHost", ":4000")
	conf.SetDefault("server.readTimeout", 5*time.Second)
	conf.SetDefault("server.writeTimeout", 10*time.Second)
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.disableCSRF", false)
	conf.SetDefault("server.secureCookies", false)

	conf.SetDefault("db.engine", "postgres")
	conf.SetDefault("db.host", "localhost")
	conf.SetDefault("db.port", 5432)
	conf.SetDefault("db.name", "shule")
	conf.SetDefault("db.user", "shule")
	conf.SetDefault("db.password", "shule")
	conf.SetDefault("db.adminUser", "")
	conf.SetDefault("db.adminPassword", "")
	conf.SetDefault("db.disableTLS", true)
	conf.SetDefault("db.maxOpenConns", 25)
	conf.SetDefault("db.timeout", 5*time.Second)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
		conf.SetDefault("db.engine", "memory")
	case "PROD":
		conf.SetDefault("debug", false)
		conf.SetDefault("logLevel", "info")
		conf.SetDefault("server.secureCookies", true)
	}
	conf.SetDefault("env", env)
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()
	return conf
}

// NewConfig loads the application configuration from defaults, the environment and `config/.env.<env>`.
func NewConfig() *Config {
	conf := newViper()

	loc, err := time.LoadLocation(conf.GetString("timezone"))
	if err != nil {
		log.Printf("config: unknown timezone %q, falling back to UTC", conf.GetString("timezone"))
		loc = time.UTC
	}

	return &Config{
		Debug:                  conf.GetBool("debug"),
		TestMode:               conf.GetBool("testMode"),
		AppName:                conf.GetString("appName"),
		Env:                    conf.GetString("env"),
		Build:                  conf.GetString("build"),
		SecretKey:              conf.GetString("secretKey"),
		SessionExpirationDelta: conf.GetDuration("sessionExpirationDelta"),
		AttendanceWindow:       conf.GetInt("attendanceWindow"),
		Location:               loc,
		LogLevel:               conf.GetString("logLevel"),
		ErrorReporter:          conf.GetString("errorReporter"),
		RollbarToken:           conf.GetString("rollbarToken"),
		SentryDSN:              conf.GetString("sentryDSN"),
		Server: ServerConfig{
			Host:            conf.GetString("server.host"),
			Address:         conf.GetString("server.address"),
			DebugHost:       conf.GetString("server.debugHost"),
			ReadTimeout:     conf.GetDuration("server.readTimeout"),
			WriteTimeout:    conf.GetDuration("server.writeTimeout"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
			DisableCSRF:     conf.GetBool("server.disableCSRF"),
			SecureCookies:   conf.GetBool("server.secureCookies"),
		},
		Database: DatabaseConfig{
			Engine:        strings.ToLower(conf.GetString("db.engine")),
			Host:          conf.GetString("db.host"),
			Port:          conf.GetInt("db.port"),
			Name:          conf.GetString("db.name"),
			User:          conf.GetString("db.user"),
			Password:      conf.GetString("db.password"),
			AdminUser:     conf.GetString("db.adminUser"),
			AdminPassword: conf.GetString("db.adminPassword"),
			DisableTLS:    conf.GetBool("db.disableTLS"),
			MaxOpenConns:  conf.GetInt("db.maxOpenConns"),
			Timeout:       conf.GetDuration("db.timeout"),
		},
	}
}
