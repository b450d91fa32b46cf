package configuration

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"vidwatch/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App         App         `json:"app"`
	API         API         `json:"api"`
	Playback    Playback    `json:"playback"`
	RedisClient RedisClient `json:"redisClient"`
	History     History     `json:"history"`
	Logger      Logger      `json:"logger"`
	Cors        Cors        `json:"cors"`
}

type App struct {
	Port        int    `json:"port"`
	TLSEnabled  bool   `json:"tlsEnabled"`
	TLSCertFile string `json:"tlsCertFile"`
	TLSKeyFile  string `json:"tlsKeyFile"`
}

// API locates the two remote services. VideoBaseURL serves /api/videos and
// /api/stream; CoreBaseURL serves /api/core and /api/auth.
type API struct {
	VideoBaseURL   string `json:"videoBaseURL"`
	CoreBaseURL    string `json:"coreBaseURL"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

type Playback struct {
	ProgressIntervalSeconds    int  `json:"progressIntervalSeconds"`
	CompletionThresholdSeconds int  `json:"completionThresholdSeconds"`
	ProbePlaylist              bool `json:"probePlaylist"`
	CommentMaxPages            int  `json:"commentMaxPages"`
	CacheTTLHours              int  `json:"cacheTTLHours"`
}

type RedisClient struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// History configures the local watch-history journal. An empty driver disables it.
type History struct {
	Driver string `json:"driver"` // sqlite | postgres
	DSN    string `json:"dsn"`
}

type Logger struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

type Cors struct {
	AllowOrigins []string `json:"allowOrigins"`
}

// Timeout is the per-request deadline for remote calls
func (a API) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

func (p Playback) ProgressInterval() time.Duration {
	return time.Duration(p.ProgressIntervalSeconds) * time.Second
}

func (p Playback) CacheTTL() time.Duration {
	return time.Duration(p.CacheTTLHours) * time.Hour
}

// Addr joins host and port, or returns "" when Redis is not configured
func (r RedisClient) Addr() string {
	if r.Host == "" {
		return ""
	}
	port := r.Port
	if port == "" {
		port = "6379"
	}
	return fmt.Sprintf("%s:%s", r.Host, port)
}

var C Config

func init() {
	Reload()
}

// Reload rebuilds C from the config file and the environment. main calls it
// again after env files are loaded.
func Reload() {
	C = Config{}
	LoadConfig()
	initAPI(&C)
	initPlayback(&C)
	initStores(&C)
	initApp(&C)
	logger.SetLevel(C.Logger.Level)
	logger.SetFormat(C.Logger.Format)
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found; using defaults and environment")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initAPI(C *Config) {
	if v := os.Getenv("VIDEO_API_URL"); v != "" {
		C.API.VideoBaseURL = v
	}
	if v := os.Getenv("CORE_API_URL"); v != "" {
		C.API.CoreBaseURL = v
	}
	if C.API.VideoBaseURL == "" {
		C.API.VideoBaseURL = "http://localhost:8001"
	}
	if C.API.CoreBaseURL == "" {
		C.API.CoreBaseURL = "http://localhost:8000"
	}
	if C.API.TimeoutSeconds <= 0 {
		C.API.TimeoutSeconds = 10
	}
}

func initPlayback(C *Config) {
	if C.Playback.ProgressIntervalSeconds <= 0 {
		C.Playback.ProgressIntervalSeconds = 10
	}
	if C.Playback.CompletionThresholdSeconds <= 0 {
		C.Playback.CompletionThresholdSeconds = 5
	}
	if C.Playback.CommentMaxPages <= 0 {
		C.Playback.CommentMaxPages = 20
	}
	if C.Playback.CacheTTLHours <= 0 {
		C.Playback.CacheTTLHours = 24 * 7
	}
}

func initStores(C *Config) {
	if v := os.Getenv("REDIS_HOST"); v != "" {
		C.RedisClient.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		C.RedisClient.Port = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		C.RedisClient.Password = v
	}
	if v := os.Getenv("HISTORY_DRIVER"); v != "" {
		C.History.Driver = v
	}
	if v := os.Getenv("HISTORY_DSN"); v != "" {
		C.History.DSN = v
	}
	if C.History.Driver == "sqlite" && C.History.DSN == "" {
		C.History.DSN = "file:vidwatch.db?_pragma=busy_timeout(5000)"
	}
}

func initApp(C *Config) {
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config -> default 10002
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10002
	}
	if v := os.Getenv("TLS_ENABLED"); v != "" {
		switch v {
		case "1", "true", "TRUE", "True":
			C.App.TLSEnabled = true
		case "0", "false", "FALSE", "False":
			C.App.TLSEnabled = false
		}
	}
	if C.App.TLSCertFile == "" {
		C.App.TLSCertFile = os.Getenv("TLS_CERT_FILE")
	}
	if C.App.TLSKeyFile == "" {
		C.App.TLSKeyFile = os.Getenv("TLS_KEY_FILE")
	}
	if len(C.Cors.AllowOrigins) == 0 {
		C.Cors.AllowOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if C.App.TLSEnabled {
		logger.GetLogger().WithFields(map[string]interface{}{"cert": C.App.TLSCertFile, "key": C.App.TLSKeyFile}).Info("TLS enabled via configuration")
	}
}
