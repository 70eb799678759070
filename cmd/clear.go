package cmd

import (
	"github.com/dnitsch/aws-sso-creds/internal/ssocache"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	force    bool
	clearCmd = &cobra.Command{
		Use:   "clear-cache <flags>",
		Short: "Clears any cached SSO login tokens",
		RunE:  clear,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	clearCmd.PersistentFlags().BoolVarP(&force, "force", "f", false, "If a previous sso login exited improperly there is a chance that there could be hanging processes left over - this will clean them up forcefully")
	RootCmd.AddCommand(clearCmd)
}

func clear(cmd *cobra.Command, args []string) error {
	cacheDir := viper.GetString("cache-dir")
	if cacheDir == "" {
		cacheDir = ssocache.DefaultCacheDir()
	}
	cache := ssocache.New(cacheDir, viper.GetString("aws-bin"), logger)

	if force {
		if err := cache.KillHangingLogin(); err != nil {
			return err
		}
	}
	return cache.ClearCache()
}
