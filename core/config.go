package core

import (
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug        bool
		TestMode     bool
		AppName      string
		SecretKey    string
		Env          string
		Build        string
		RollbarToken string

		Server     ServerConfig
		Realtime   RealtimeConfig
		Database   DatabaseConfig
		Pagination PaginationConfig
	}

	ServerConfig struct {
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		AllowOrigins    []string
	}

	// RealtimeConfig tunes the websocket clients.
	RealtimeConfig struct {
		WriteTimeout   time.Duration
		PongTimeout    time.Duration
		PingPeriod     time.Duration
		SendBuffer     int
		MaxMessageSize int64
	}

	DatabaseConfig struct {
		Engine        string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		Name          string
		DisableTLS    bool
	}

	PaginationConfig struct {
		DefaultLimit int
		MaxLimit     int
	}
)

func setDefaults(vpr *viper.Viper) {
	vpr.SetDefault("debug", true)
	vpr.SetDefault("appName", "Sigenerus")
	vpr.SetDefault("secretKey", "z7m!u4k$0q9w^vx2+e8f=rj@3n%b6h(t*c1y)pd5#g&s")
	vpr.SetDefault("build", "dev")
	vpr.SetDefault("rollbarToken", "")

	vpr.SetDefault("server_host", "0.0.0.0:8000")
	vpr.SetDefault("server_debugHost", "0.0.0.0:4000")
	vpr.SetDefault("server_shutdownTimeout", 5*time.Second)
	vpr.SetDefault("server_readTimeout", 5*time.Second)
	vpr.SetDefault("server_writeTimeout", 5*time.Second)
	vpr.SetDefault("server_allowOrigins", "*")

	vpr.SetDefault("realtime_writeTimeout", 10*time.Second)
	vpr.SetDefault("realtime_pongTimeout", 60*time.Second)
	vpr.SetDefault("realtime_pingPeriod", 54*time.Second)
	vpr.SetDefault("realtime_sendBuffer", 256)
	vpr.SetDefault("realtime_maxMessageSize", 64*1024)

	vpr.SetDefault("database_engine", "postgres")
	vpr.SetDefault("database_user", "sigenerus")
	vpr.SetDefault("database_password", "sigenerus")
	vpr.SetDefault("database_adminUser", "postgres")
	vpr.SetDefault("database_adminPassword", "postgres")
	vpr.SetDefault("database_host", "localhost")
	vpr.SetDefault("database_port", "5432")
	vpr.SetDefault("database_name", "sigenerus")
	vpr.SetDefault("database_disableTLS", true)

	vpr.SetDefault("pagination_defaultLimit", 10)
	vpr.SetDefault("pagination_maxLimit", 1000)
}

// NewConfig loads the configuration of the current ENV.
// Variables are read from the environment, prefixed with the ENV name (e.g. DEV_DATABASE_HOST).
func NewConfig() *Config {
	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	vpr := viper.New()
	vpr.SetTypeByDefaultValue(true)
	vpr.SetEnvPrefix(env)
	vpr.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vpr.AutomaticEnv()

	conf := &Config{Env: env}
	setDefaults(vpr)
	vpr.SetDefault("testMode", env == "TEST")

	conf.Debug = vpr.GetBool("debug")
	conf.TestMode = vpr.GetBool("testMode")
	conf.AppName = vpr.GetString("appName")
	conf.SecretKey = vpr.GetString("secretKey")
	conf.Build = vpr.GetString("build")
	conf.RollbarToken = vpr.GetString("rollbarToken")

	conf.Server.Host = vpr.GetString("server_host")
	conf.Server.DebugHost = vpr.GetString("server_debugHost")
	conf.Server.ShutdownTimeout = vpr.GetDuration("server_shutdownTimeout")
	conf.Server.ReadTimeout = vpr.GetDuration("server_readTimeout")
	conf.Server.WriteTimeout = vpr.GetDuration("server_writeTimeout")
	conf.Server.AllowOrigins = splitList(vpr.GetString("server_allowOrigins"))

	conf.Realtime.WriteTimeout = vpr.GetDuration("realtime_writeTimeout")
	conf.Realtime.PongTimeout = vpr.GetDuration("realtime_pongTimeout")
	conf.Realtime.PingPeriod = vpr.GetDuration("realtime_pingPeriod")
	conf.Realtime.SendBuffer = vpr.GetInt("realtime_sendBuffer")
	conf.Realtime.MaxMessageSize = vpr.GetInt64("realtime_maxMessageSize")

	conf.Database.Engine = vpr.GetString("database_engine")
	conf.Database.User = vpr.GetString("database_user")
	conf.Database.Password = vpr.GetString("database_password")
	conf.Database.AdminUser = vpr.GetString("database_adminUser")
	conf.Database.AdminPassword = vpr.GetString("database_adminPassword")
	conf.Database.Host = vpr.GetString("database_host")
	conf.Database.Port = vpr.GetString("database_port")
	conf.Database.Name = vpr.GetString("database_name")
	conf.Database.DisableTLS = vpr.GetBool("database_disableTLS")

	conf.Pagination.DefaultLimit = vpr.GetInt("pagination_defaultLimit")
	conf.Pagination.MaxLimit = vpr.GetInt("pagination_maxLimit")
	return conf
}

// Address returns the database "host:port".
func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
