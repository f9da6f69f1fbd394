package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// sourceConfig is one entry of the "sources" config list.
//
//	sources:
//	  - name: gnomad
//	    family: popfreq
//	    path: /data/gnomad.vcf.gz
//	  - name: clinvar
//	    family: clinvar
//	    backend: duckdb
//	    table: clinvar
type sourceConfig struct {
	Name        string `mapstructure:"name" yaml:"name"`
	Family      string `mapstructure:"family" yaml:"family"`
	Path        string `mapstructure:"path" yaml:"path"`
	Backend     string `mapstructure:"backend" yaml:"backend,omitempty"`
	Table       string `mapstructure:"table" yaml:"table,omitempty"`
	ScoreColumn int    `mapstructure:"score_column" yaml:"score_column,omitempty"`
}

// settings is the resolved configuration shared by the commands.
type settings struct {
	Verbose       bool
	Threads       int
	Capture       string
	DB            string
	Synonyms      string
	GeneRegions   string
	BadRegions    string
	LowComplexity string
	Sources       []sourceConfig
}

func loadSettings() (settings, error) {
	s := settings{
		Verbose:       viper.GetBool("verbose"),
		Threads:       viper.GetInt("threads"),
		Capture:       viper.GetString("capture"),
		DB:            viper.GetString("db"),
		Synonyms:      viper.GetString("genes.synonyms"),
		GeneRegions:   viper.GetString("genes.regions"),
		BadRegions:    viper.GetString("regions.bad"),
		LowComplexity: viper.GetString("regions.low_complexity"),
	}
	if err := viper.UnmarshalKey("sources", &s.Sources); err != nil {
		return s, fmt.Errorf("parsing sources: %w", err)
	}
	return s, nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vibe-trio configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/.vibe-trio.yaml.",
		Example: `  vibe-trio config                               # show all config
  vibe-trio config set threads 8                 # annotate 8 contigs at once
  vibe-trio config set capture /data/exome.bed   # restrict to a capture kit
  vibe-trio config get genes.synonyms            # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow()
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(args[0])
		},
	}
}

func runConfigShow() error {
	settings := viper.AllSettings()
	if len(settings) == 0 {
		fmt.Println("# No configuration set. Config file: ~/.vibe-trio.yaml")
		return nil
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

func runConfigSet(key, value string) error {
	switch value {
	case "true", "yes", "on":
		viper.Set(key, true)
	case "false", "no", "off":
		viper.Set(key, false)
	default:
		viper.Set(key, value)
	}

	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, ".vibe-trio.yaml")
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func runConfigGet(key string) error {
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Println(val)
	return nil
}
