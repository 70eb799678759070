package credentialexchange

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/charmbracelet/log"
	ini "gopkg.in/ini.v1"
)

var ErrConfigLookup = errors.New("unable to resolve profile configuration")

const profileSectionPrefix = "profile "

// Profile is the SSO metadata of a single entry in the shared config
// file. Read-only, never created or mutated by this tool.
type Profile struct {
	Name         string
	SSOAccountID string
	SSORoleName  string
	SSORegion    string
}

// ListProfiles returns every [profile X] header of the shared config
// file in file order. An absent or unreadable file is logged and
// yields an empty list rather than an error.
func ListProfiles(logger *log.Logger, configFile string) []string {
	profiles := []string{}
	cfg, err := ini.Load(configFile)
	if err != nil {
		logger.Error("aws config file not found", "file", configFile, "err", err)
		return profiles
	}
	for _, name := range cfg.SectionStrings() {
		if strings.HasPrefix(name, profileSectionPrefix) {
			profiles = append(profiles, strings.TrimPrefix(name, profileSectionPrefix))
		}
	}
	return profiles
}

// ProfileSSOConfig resolves the sso_account_id, sso_role_name and
// sso_region of a profile via the SDK's shared-config loader, which
// also understands the newer sso-session config format.
func ProfileSSOConfig(ctx context.Context, configFile, name string) (Profile, error) {
	shared, err := config.LoadSharedConfigProfile(ctx, name, func(o *config.LoadSharedConfigOptions) {
		if configFile != "" {
			o.ConfigFiles = []string{configFile}
		}
	})
	if err != nil {
		return Profile{}, fmt.Errorf("profile %s: %s, %w", name, err, ErrConfigLookup)
	}

	region := shared.SSORegion
	if region == "" && shared.SSOSession != nil {
		region = shared.SSOSession.SSORegion
	}

	if shared.SSOAccountID == "" || shared.SSORoleName == "" || region == "" {
		return Profile{}, fmt.Errorf("profile %s is missing sso_account_id, sso_role_name or sso_region, %w", name, ErrConfigLookup)
	}

	return Profile{
		Name:         name,
		SSOAccountID: shared.SSOAccountID,
		SSORoleName:  shared.SSORoleName,
		SSORegion:    region,
	}, nil
}
