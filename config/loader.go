package config

import (
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Flags is the set of startup-only settings read once at boot and never
// exposed through admin.ConfigStore: the tunables in Runtime are the
// only values a running server's Config{Get|Set|List} can touch.
type Flags struct {
	ListenAddr      string
	AdminSocketPath string
	ProcessingRoot  string
	OutgoingRoot    string
	ConfigFile      string
}

// BindFlags registers this service's startup flags on a pflag.FlagSet,
// mirroring how the teacher's cobra commands bind flags before handing
// the set to viper (see cobra/configure.go's AddCommandConfigure).
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.ListenAddr, "listen", ":8080", "session listener address")
	fs.StringVar(&f.AdminSocketPath, "admin-socket", "/var/run/codexecd/admin.sock", "admin control plane unix socket path")
	fs.StringVar(&f.ProcessingRoot, "processing-root", "/var/lib/codexecd/processing", "scratch directory for in-flight jobs")
	fs.StringVar(&f.OutgoingRoot, "outgoing-root", "/var/lib/codexecd/outgoing", "directory for retained job artifacts")
	fs.StringVar(&f.ConfigFile, "config", "", "optional config file (yaml/toml/json)")
	return f
}

// Load builds a viper instance bound to fs, reads an optional config
// file and the CODEXECD_* environment namespace, and decodes the six
// Runtime tunables into a fresh *Runtime. Flags and environment both
// take precedence over file values; Load never mutates fs itself.
func Load(fs *pflag.FlagSet) (*Runtime, *Flags, error) {
	v := viper.New()
	v.SetEnvPrefix("codexecd")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, nil, err
	}

	rt := NewRuntime()
	v.SetDefault("max_upload_bytes", rt.MaxUploadBytes)
	v.SetDefault("compile_timeout_seconds", rt.CompileTimeout.Time())
	v.SetDefault("exec_timeout_seconds", rt.ExecTimeout.Time())
	v.SetDefault("client_idle_timeout_seconds", rt.ClientIdleTimeout.Time())
	v.SetDefault("queue_max_size", rt.QueueMaxSize)
	v.SetDefault("retention_grace_seconds", rt.RetentionGrace.Time())

	cfgFile, _ := fs.GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, err
		}
	}

	flags := &Flags{
		ListenAddr:      v.GetString("listen"),
		AdminSocketPath: v.GetString("admin-socket"),
		ProcessingRoot:  v.GetString("processing-root"),
		OutgoingRoot:    v.GetString("outgoing-root"),
		ConfigFile:      cfgFile,
	}

	decoded := struct {
		MaxUploadBytes    uint64        `mapstructure:"max_upload_bytes"`
		CompileTimeout    time.Duration `mapstructure:"compile_timeout_seconds"`
		ExecTimeout       time.Duration `mapstructure:"exec_timeout_seconds"`
		ClientIdleTimeout time.Duration `mapstructure:"client_idle_timeout_seconds"`
		QueueMaxSize      int           `mapstructure:"queue_max_size"`
		RetentionGrace    time.Duration `mapstructure:"retention_grace_seconds"`
	}{}

	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		secondsToDurationHookFunc(),
	)
	if err := v.Unmarshal(&decoded, viper.DecodeHook(decodeHook)); err != nil {
		return nil, nil, err
	}

	rt.MaxUploadBytes = decoded.MaxUploadBytes
	rt.CompileTimeout = Duration(decoded.CompileTimeout)
	rt.ExecTimeout = Duration(decoded.ExecTimeout)
	rt.ClientIdleTimeout = Duration(decoded.ClientIdleTimeout)
	rt.QueueMaxSize = decoded.QueueMaxSize
	rt.RetentionGrace = Duration(decoded.RetentionGrace)

	return rt, flags, nil
}

// secondsToDurationHookFunc lets the *_timeout_seconds/_grace_seconds
// keys be written as a plain number (seconds) in a config file or
// environment variable, in addition to a Go duration string like "45s".
func secondsToDurationHookFunc() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch from.Kind() {
		case reflect.Float32, reflect.Float64:
			return time.Duration(reflect.ValueOf(data).Float() * float64(time.Second)), nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return time.Duration(reflect.ValueOf(data).Int()) * time.Second, nil
		default:
			return data, nil
		}
	}
}
