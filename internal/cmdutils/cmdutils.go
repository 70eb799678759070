package cmdutils

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dnitsch/aws-sso-creds/internal/credentialexchange"
)

var ErrMissingArg = errors.New("missing arg")

// SsoCache is the narrow surface of the token cache manager the
// pipeline needs.
type SsoCache interface {
	ClearCache() error
	Login(ctx context.Context, profile string) error
	ReadAccessToken() (string, error)
}

// SsoClientFactory builds the role-credentials client once the
// profile's SSO region is known.
type SsoClientFactory func(ctx context.Context, region string) (credentialexchange.RoleCredentialsApi, error)

// GetSSOCreds runs the full refresh pipeline for one profile:
// resolve metadata, clear cache, login, read token, fetch credentials,
// persist. Profile metadata is resolved before the login so a
// non-SSO profile fails fast without opening a browser.
func GetSSOCreds(ctx context.Context, logger *log.Logger, cache SsoCache, newClient SsoClientFactory, conf credentialexchange.CredentialConfig) error {
	if conf.BaseConfig.Profile == "" {
		return fmt.Errorf("a profile name must be provided, %w", ErrMissingArg)
	}

	profile, err := credentialexchange.ProfileSSOConfig(ctx, conf.BaseConfig.ConfigFile, conf.BaseConfig.Profile)
	if err != nil {
		return err
	}
	logger.Debug("resolved sso profile",
		"profile", profile.Name,
		"accountId", profile.SSOAccountID,
		"role", profile.SSORoleName,
		"region", profile.SSORegion)

	logger.Info("clearing sso cache")
	if err := cache.ClearCache(); err != nil {
		return err
	}

	if err := cache.Login(ctx, profile.Name); err != nil {
		return err
	}

	accessToken, err := cache.ReadAccessToken()
	if err != nil {
		return err
	}

	svc, err := newClient(ctx, profile.SSORegion)
	if err != nil {
		return err
	}

	logger.Info("retrieving role credentials", "profile", profile.Name)
	creds, err := credentialexchange.FetchRoleCredentials(ctx, svc, accessToken, profile)
	if err != nil {
		return err
	}
	logger.Debug("credentials retrieved", "expires", creds.Expires)

	if err := credentialexchange.WriteProfile(logger, conf.BaseConfig.CredentialsFile, profile.Name, *creds, conf.Mode); err != nil {
		return err
	}

	if conf.EnvFile != "" {
		if err := credentialexchange.WriteEnvScript(logger, conf.EnvFile, *creds, profile.Name, profile.SSORegion); err != nil {
			return err
		}
	}
	return nil
}
