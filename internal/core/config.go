package core

import (
	"time"
)

type Config struct {
	Metadata MetadataConfig
	Acquire  AcquireConfig
	Server   ServerConfig
	Log      LogConfig
}

type MetadataConfig struct {
	RequestTimeout time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	SearchLimit    int
	CallsPerMinute int
}

type AcquireConfig struct {
	DownloadsDir  string
	AudioAPIURL   string
	VideoAPIURL   string
	Proxy         string
	CredentialDir string

	ExtractorPath       string
	ExtractorTimeout    time.Duration
	ExtractorRetries    int
	FragmentConcurrency int
	SocketTimeoutSecs   int
	ThrottledRate       string

	CacheSize  int
	LedgerSize int
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

func DefaultConfig() *Config {
	return &Config{
		Metadata: MetadataConfig{
			RequestTimeout: 10 * time.Second,
			MaxRetries:     2,
			RetryDelay:     500 * time.Millisecond,
			SearchLimit:    5,
			CallsPerMinute: 60,
		},
		Acquire: AcquireConfig{
			DownloadsDir:        "./downloads",
			CredentialDir:       "./cookies",
			ExtractorPath:       "yt-dlp",
			ExtractorTimeout:    10 * time.Minute,
			ExtractorRetries:    2,
			FragmentConcurrency: 3,
			SocketTimeoutSecs:   10,
			ThrottledRate:       "100K",
			CacheSize:           512,
			LedgerSize:          10000,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
