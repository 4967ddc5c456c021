package config

import (
	"fmt"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem is what the loader needs from the disk. Tests swap it out.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// OSFileSystem reads the real disk; LoadEnv exports a .env file into the
// process environment without overriding variables already set.
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OSFileSystem) LoadEnv(path string) error { return godotenv.Load(path) }

// SearchPaths lists, in priority order, where a service's config.yml and
// .env are looked for when no explicit path is given.
func SearchPaths(serviceName string) (configFiles, envFiles []string) {
	cmdDir := "./cmd/" + serviceName
	configFiles = []string{cmdDir + "/config.yml", "." + cmdDir + "/config.yml", "./config/config.yml", "./config.yml"}
	envFiles = []string{cmdDir + "/.env", "./.env." + serviceName, "./.env"}
	return configFiles, envFiles
}

// resolveFiles returns the config and .env files LoadConfig reads. Explicit
// paths are used as given; otherwise the first existing search path wins and
// "" means none was found.
func resolveFiles(serviceName string, lc LoaderConfig) (configFile, envFile string) {
	configFiles, envFiles := SearchPaths(serviceName)
	first := func(explicit string, candidates []string) string {
		if explicit != "" {
			return explicit
		}
		for _, p := range candidates {
			if lc.FileSystem.Exists(p) {
				return p
			}
		}
		return ""
	}
	return first(lc.ConfigFile, configFiles), first(lc.EnvFile, envFiles)
}

// LoaderConfig holds dependencies and optional overrides for LoadConfig.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
	EnvPrefix  string
	Aliases    map[string]string
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnvPrefix makes every key bind to prefix + "_" + KEY instead of the
// bare upper-cased key.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvPrefix = strings.ToUpper(strings.TrimSuffix(prefix, "_")) }
}

// WithEnvAlias binds the environment variable env to the config key as well.
// The prefixed name wins when both are set.
func WithEnvAlias(env, key string) LoaderOption {
	return func(lc *LoaderConfig) {
		if lc.Aliases == nil {
			lc.Aliases = make(map[string]string)
		}
		lc.Aliases[env] = key
	}
}

// LoadConfig fills cfg, a pointer to a struct with mapstructure tags, from the
// resolved YAML file, the .env file and the environment, in increasing order
// of precedence.
func LoadConfig(serviceName string, cfg any, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = OSFileSystem{}
	}

	configFile, envFile := resolveFiles(serviceName, lc)
	v := viper.New()

	if configFile != "" && lc.FileSystem.Exists(configFile) {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	// .env values land in the process environment, so load them before binding.
	if envFile != "" && lc.FileSystem.Exists(envFile) {
		if err := lc.FileSystem.LoadEnv(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	t := reflect.TypeOf(cfg)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("config for %s must be a pointer to a struct, got %T", serviceName, cfg)
	}
	aliases := make(map[string][]string, len(lc.Aliases))
	for env, key := range lc.Aliases {
		aliases[key] = append(aliases[key], env)
	}
	for _, names := range aliases {
		slices.Sort(names)
	}
	for _, key := range Keys(t.Elem()) {
		names := append([]string{EnvName(lc.EnvPrefix, key)}, aliases[key]...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unmarshal config for %s: %w", serviceName, err)
	}
	return nil
}

// EnvName is the variable bound to key: "http.url_prefix" with prefix
// "SSEPLEX" becomes SSEPLEX_HTTP_URL_PREFIX.
func EnvName(prefix, key string) string {
	name := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	if prefix == "" {
		return name
	}
	return prefix + "_" + name
}

// Keys lists the dotted mapstructure keys of every leaf field of t. Fields of
// squashed embedded structs appear at their parent's level.
func Keys(t reflect.Type) []string {
	var keys []string
	collectKeys(t, "", &keys)
	return keys
}

func collectKeys(t reflect.Type, prefix string, keys *[]string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			continue
		}
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct && (opts == "squash" || (f.Anonymous && name == "")) {
			collectKeys(ft, prefix, keys)
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		key := prefix + name
		if ft.Kind() == reflect.Struct && ft.NumField() > 0 && ft.PkgPath() != "time" {
			collectKeys(ft, key+".", keys)
			continue
		}
		*keys = append(*keys, key)
	}
}
