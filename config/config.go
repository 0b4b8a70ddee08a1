// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// SettingsName is the base name of the settings file, eg settings.yaml
const SettingsName = "settings"

// BlastConfig is the local psiblast search
type BlastConfig struct {
	// path to the psiblast executable
	Path string `mapstructure:"path" yaml:"path"`

	// the BLAST database to search
	DB string `mapstructure:"db" yaml:"db"`

	// number of psiblast threads
	Threads int `mapstructure:"threads" yaml:"threads"`

	// the number of alignments in each report
	NumAlignments int `mapstructure:"num-alignments" yaml:"num-alignments"`

	// e-value threshold
	EValue float64 `mapstructure:"evalue" yaml:"evalue"`
}

// RemoteConfig is the NCBI BLAST search
type RemoteConfig struct {
	// the Blast.cgi URL
	URL string `mapstructure:"url" yaml:"url"`

	// the wait between requests for results
	PollInterval time.Duration `mapstructure:"poll-interval" yaml:"poll-interval"`

	// the maximum number of result requests per query
	MaxPolls int `mapstructure:"max-polls" yaml:"max-polls"`
}

// Config is the root-level settings struct and is a mix
// of settings available in settings.yaml, the environment
// and the command line
type Config struct {
	// path to the mafft executable
	Mafft string `mapstructure:"mafft" yaml:"mafft"`

	// local search settings
	Blast BlastConfig `mapstructure:"blast" yaml:"blast"`

	// remote search settings
	Remote RemoteConfig `mapstructure:"remote" yaml:"remote"`

	// residues per output line
	Wrap int `mapstructure:"wrap" yaml:"wrap"`
}

// Init sets the defaults and environment bindings on v and reads the
// settings file. settings is the file's path. If it's empty, settings.yaml is
// looked for in $HOME/.homa and the working directory and is optional.
func Init(v *viper.Viper, settings string) error {
	v.SetDefault("mafft", "mafft")
	v.SetDefault("blast.path", "psiblast")
	v.SetDefault("blast.db", "sp")
	v.SetDefault("blast.threads", 4)
	v.SetDefault("blast.num-alignments", 600)
	v.SetDefault("blast.evalue", 0.1)
	v.SetDefault("remote.url", "https://blast.ncbi.nlm.nih.gov/Blast.cgi")
	v.SetDefault("remote.poll-interval", 10*time.Second)
	v.SetDefault("remote.max-polls", 360)
	v.SetDefault("wrap", 60)

	// names kept from the original mafft-homologs script
	v.BindEnv("blast.path", "MAFFT_BLAST")
	v.BindEnv("mafft", "MAFFT_HOMOLOGS_MAFFT")

	if settings != "" {
		v.SetConfigFile(settings)
		return v.ReadInConfig()
	}

	v.SetConfigName(SettingsName)
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".homa"))
	}
	v.AddConfigPath(".")

	var notFound viper.ConfigFileNotFoundError
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return err
	}
	return nil
}

// Load unmarshals the settings in v.
func Load(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}

// New returns a new Config struct populated by
// Viper settings (either from the local settings.yaml)
// and/or command line arguments
func New() Config {
	c, err := Load(viper.GetViper())
	if err != nil {
		log.Fatalf("unable to decode into struct, %v", err)
	}
	return c
}
