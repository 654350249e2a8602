// Package config loads the server's ambient settings (listen address,
// data/styles directories, size/scale limits, tracing) with spf13/viper,
// the TOML-plus-env-override idiom the retrieved corpus uses for this
// concern (SPEC_FULL.md §4.7).
package config

import (
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/spf13/viper"
)

// ServerConfig is every setting the CLI's `serve` subcommand needs.
type ServerConfig struct {
	ListenAddr      string
	StylesDir       string
	DataDir         string
	SpritesDir      string
	PublicURL       string
	MaxSizePx       int
	MaxScaleFactor  int
	FormatQualityJPEG int
	FormatQualityWebP int
	TraceDir        string
	EnableTracing   bool
	Verbose         bool
}

// Load reads cfgFile (TOML) if non-empty, overlays environment variables
// (`TILESERVER_*`), and returns the merged ServerConfig. A missing config
// file is not an error: every field has a SetDefault, matching the
// corpus's "config file optional, defaults always present" idiom.
func Load(cfgFile string) (*ServerConfig, errorsx.Error) {
	v := viper.New()
	v.SetConfigType("toml")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}

	v.SetEnvPrefix("tileserver")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.listenaddr", ":8080")
	v.SetDefault("server.stylesdir", "styles")
	v.SetDefault("server.datadir", "data")
	v.SetDefault("server.spritesdir", "sprites")
	v.SetDefault("server.publicurl", "")
	v.SetDefault("server.maxsizepx", 2048)
	v.SetDefault("server.maxscalefactor", 3)
	v.SetDefault("server.formatquality.jpeg", 80)
	v.SetDefault("server.formatquality.webp", 90)
	v.SetDefault("server.tracedir", "traces")
	v.SetDefault("server.enabletracing", false)
	v.SetDefault("server.verbose", false)

	if cfgFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, errorsx.Wrap(err, "configFile", cfgFile)
		}
	}

	return &ServerConfig{
		ListenAddr:        v.GetString("server.listenaddr"),
		StylesDir:         v.GetString("server.stylesdir"),
		DataDir:           v.GetString("server.datadir"),
		SpritesDir:        v.GetString("server.spritesdir"),
		PublicURL:         v.GetString("server.publicurl"),
		MaxSizePx:         v.GetInt("server.maxsizepx"),
		MaxScaleFactor:    v.GetInt("server.maxscalefactor"),
		FormatQualityJPEG: v.GetInt("server.formatquality.jpeg"),
		FormatQualityWebP: v.GetInt("server.formatquality.webp"),
		TraceDir:          v.GetString("server.tracedir"),
		EnableTracing:     v.GetBool("server.enabletracing"),
		Verbose:           v.GetBool("server.verbose"),
	}, nil
}
