package utils

import (
	"os"
	"strconv"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/segmentio/encoding/json"
	"github.com/voxelsplace/gridmap3d/gridfile"
)

// Environment variables read by gridtool.
const (
	EnvLogLevel    = "GRIDTOOL_LOG_LEVEL"
	EnvLogIndent   = "GRIDTOOL_LOG_INDENT"
	EnvCompression = "GRIDTOOL_COMPRESSION"
	EnvRayWorkers  = "GRIDTOOL_RAY_WORKERS"
)

// Config holds the settings shared by every command.
type Config struct {
	LogLevel    string
	LogIndent   bool
	Compression gridfile.Compression
	RayWorkers  int // 0 uses one worker per CPU
}

func DefaultConfig() Config {
	return Config{
		LogLevel:    logs.InfoLevel.String(),
		Compression: gridfile.CompressionZstd,
	}
}

// LoadConfig overrides the defaults with the environment.
func LoadConfig() (Config, error) {
	return loadConfig(os.LookupEnv)
}

func loadConfig(lookup func(string) (string, bool)) (Config, error) {
	conf := DefaultConfig()

	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		if l := logs.ParseLevel(v); l.String() != v || l < logs.DebugLevel || l > logs.ErrorLevel {
			return conf, errors.New("invalid log level").
				WithTag("env", EnvLogLevel).
				WithTag("value", v)
		}
		conf.LogLevel = v
	}
	if v, ok := lookup(EnvLogIndent); ok && v != "" {
		indent, err := strconv.ParseBool(v)
		if err != nil {
			return conf, errors.New("invalid log indent").
				WithTag("env", EnvLogIndent).
				Wrap(err)
		}
		conf.LogIndent = indent
	}
	if v, ok := lookup(EnvCompression); ok {
		comp, err := gridfile.ParseCompression(v)
		if err != nil {
			return conf, errors.New("invalid compression").
				WithTag("env", EnvCompression).
				Wrap(err)
		}
		conf.Compression = comp
	}
	if v, ok := lookup(EnvRayWorkers); ok && v != "" {
		workers, err := strconv.Atoi(v)
		if err != nil || workers < 0 {
			return conf, errors.New("invalid ray worker count").
				WithTag("env", EnvRayWorkers).
				WithTag("value", v)
		}
		conf.RayWorkers = workers
	}
	return conf, nil
}

// SetupLogs applies the log settings of conf.
func SetupLogs(conf Config) {
	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}
	errors.Encoder = json.Marshal
}
