package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ethanolivertroy/pyproject-deps/internal/cache"
)

func newCacheCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the extraction result cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove all cached extraction results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := openCache(v)
			if err != nil {
				return err
			}
			if err := c.Clear(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", c.Dir)
			return nil
		},
	})
	return cmd
}

func openCache(v *viper.Viper) (*cache.Cache, error) {
	if dir := v.GetString("cache_dir"); dir != "" {
		return cache.NewAt(dir, 0)
	}
	return cache.New(appName, 0)
}
