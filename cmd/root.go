package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/dnitsch/aws-sso-creds/internal/cmdutils"
	"github.com/dnitsch/aws-sso-creds/internal/credentialexchange"
	"github.com/dnitsch/aws-sso-creds/internal/ssocache"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile     string
	listFlag    bool
	setDefault  bool
	defaultOnly bool
	noSave      bool
	envFile     string
	verbose     bool

	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          credentialexchange.SELF_NAME,
	})

	RootCmd = &cobra.Command{
		Use:   fmt.Sprintf("%s [profile]", credentialexchange.SELF_NAME),
		Short: "Refreshes temporary AWS credentials via AWS SSO",
		Long: `Refreshes temporary AWS credentials via AWS IAM Identity Center (SSO).
Clears the cached SSO tokens, runs the SSO login flow for the given profile,
exchanges the refreshed access token for role credentials and stores them
in the $HOME/.aws/credentials file and/or a shell export script.`,
		Args:         cobra.MaximumNArgs(1),
		RunE:         runRoot,
		SilenceUsage: true,
	}
)

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		logger.Error("credential refresh failed", "err", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", fmt.Sprintf("config file (default is $HOME/.%s.yaml)", credentialexchange.SELF_NAME))
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	RootCmd.Flags().BoolVarP(&listFlag, "list", "l", false, "List all profiles configured in the AWS config file")
	RootCmd.Flags().BoolVarP(&setDefault, "set-default", "s", false, "Additionally overwrite the default profile with the retrieved credentials")
	RootCmd.Flags().BoolVarP(&defaultOnly, "default-only", "", false, "Write the retrieved credentials only under the default profile")
	RootCmd.Flags().BoolVarP(&noSave, "no-save", "", false, "Do not touch the credentials file, write the env script instead")
	RootCmd.Flags().StringVarP(&envFile, "env-file", "e", "", "Also write a shell export script to the given path")
	RootCmd.MarkFlagsMutuallyExclusive("set-default", "default-only", "no-save")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(fmt.Sprintf(".%s", credentialexchange.SELF_NAME))
	}

	viper.SetDefault("aws-bin", "aws")
	viper.AutomaticEnv()

	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	if err := viper.ReadInConfig(); err == nil {
		logger.Debug("using config file", "file", viper.ConfigFileUsed())
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	if listFlag {
		for _, profile := range credentialexchange.ListProfiles(logger, credentialexchange.AwsConfigFile()) {
			fmt.Fprintln(cmd.OutOrStdout(), profile)
		}
		return nil
	}
	if len(args) == 0 {
		return cmd.Help()
	}

	conf := credentialConfig(args[0])
	cache := ssocache.New(conf.BaseConfig.CacheDir, conf.BaseConfig.AwsBin, logger)

	if err := cmdutils.GetSSOCreds(cmd.Context(), logger, cache, credentialexchange.NewSSOClient, conf); err != nil {
		return err
	}

	if viper.GetString(credentialexchange.SOURCED_SENTINEL_VAR) == "1" && conf.EnvFile != "" {
		logger.Info("all done, credentials exported into the calling shell")
		return nil
	}
	logger.Info("all done, try a command like 'aws s3 ls' to confirm everything worked")
	return nil
}

func credentialConfig(profile string) credentialexchange.CredentialConfig {
	mode := credentialexchange.WriteModeNamedProfile
	switch {
	case setDefault:
		mode = credentialexchange.WriteModeNamedPlusDefault
	case defaultOnly:
		mode = credentialexchange.WriteModeDefaultOnly
	case noSave:
		mode = credentialexchange.WriteModeNoSave
	}

	script := envFile
	if script == "" {
		script = viper.GetString("env-file")
	}
	if script == "" && mode == credentialexchange.WriteModeNoSave {
		script = credentialexchange.DefaultEnvScriptFile()
	}

	cacheDir := viper.GetString("cache-dir")
	if cacheDir == "" {
		cacheDir = ssocache.DefaultCacheDir()
	}

	return credentialexchange.CredentialConfig{
		BaseConfig: credentialexchange.BaseConfig{
			Profile:         profile,
			ConfigFile:      credentialexchange.AwsConfigFile(),
			CredentialsFile: credentialexchange.SharedCredentialsFile(),
			CacheDir:        cacheDir,
			AwsBin:          viper.GetString("aws-bin"),
		},
		Mode:    mode,
		EnvFile: script,
	}
}
