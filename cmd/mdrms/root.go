/*
 * root.go, part of mdrms
 *
 * Copyright 2026 Raul Mera <rauldotmeraatusachdotcl>
 *
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU Lesser General Public License as published by
    the Free Software Foundation, either version 2.1 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU Lesser General Public License
    along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
*/

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rmera/mdrms/batch"
	"github.com/rmera/mdrms/cache"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mdrms",
	Short: "Cached RMSD and RMSF analysis of molecular dynamics trajectories",
	Long: `Cached RMSD and RMSF analysis of molecular dynamics trajectories.

Settings can be given as flags, in a mdrms.yaml file (in the current directory or
in $HOME/.config/mdrms), or as MDRMS_* environment variables (MDRMS_CACHE_PATH for
--cache-path, for instance), in decreasing order of precedence.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		if err := readConfig(); err != nil {
			return err
		}
		slog.SetDefault(newLogger(cmd.ErrOrStderr(), viper.GetBool("verbose"), viper.GetBool("log-json")))
		return nil
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String("config", "", "configuration file (default: mdrms.yaml in . or $HOME/.config/mdrms)")
	f.BoolP("verbose", "v", false, "log debug messages")
	f.Bool("log-json", false, "log in JSON format")
	f.String("cache-store", "dir", "result store: dir, sqlite or s3")
	f.String("cache-path", "results", "directory (dir store) or database file (sqlite store) for results")
	f.String("cache-key", "name", "cache keys: name, or hash of the parameters and input files")
	f.Bool("compress", false, "compress stored tables with zstd (dir store)")
	f.String("s3-bucket", "", "bucket for the s3 store")
	f.String("s3-prefix", "", "key prefix for the s3 store")
	f.String("s3-region", "", "region for the s3 store")
	f.String("s3-endpoint", "", "endpoint for S3-compatible services")
	f.Bool("s3-path-style", false, "use path-style addressing with the s3 store")
}

// readConfig sets up viper with the config file and the environment.
func readConfig() error {
	viper.SetEnvPrefix("MDRMS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if f := viper.GetString("config"); f != "" {
		viper.SetConfigFile(f)
	} else {
		viper.SetConfigName("mdrms")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "mdrms"))
		}
	}
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("reading configuration: %w", err)
	}
	slog.Debug("configuration read", "file", viper.ConfigFileUsed())
	return nil
}

func newLogger(w io.Writer, verbose, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// cacheConfig returns the cache settings given by flags, file or environment.
func cacheConfig() batch.CacheConfig {
	return batch.CacheConfig{
		Store:     viper.GetString("cache-store"),
		Path:      viper.GetString("cache-path"),
		Key:       viper.GetString("cache-key"),
		Compress:  viper.GetBool("compress"),
		Bucket:    viper.GetString("s3-bucket"),
		Prefix:    viper.GetString("s3-prefix"),
		Region:    viper.GetString("s3-region"),
		Endpoint:  viper.GetString("s3-endpoint"),
		PathStyle: viper.GetBool("s3-path-style"),
	}
}

// openCache opens the configured cache. The returned function releases it.
func openCache(ctx context.Context) (*cache.Cache, func() error, error) {
	return cacheConfig().Open(ctx, "")
}

// Execute runs the command line and returns the exit status.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		slog.Error(err.Error())
		return 1
	}
	return 0
}
