package credentialexchange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sso"
	"github.com/aws/aws-sdk-go-v2/service/sso/types"
	"github.com/aws/smithy-go"
)

var (
	ErrNotAuthorized = errors.New("token rejected by sso")
	ErrRoleFetch     = errors.New("unable to fetch role credentials")
)

// ssoMaxRetryAttempts bounds the standard-mode retries on the
// GetRoleCredentials call, the only retried operation in the pipeline.
const ssoMaxRetryAttempts = 10

type AWSCredentials struct {
	AWSAccessKey    string
	AWSSecretKey    string
	AWSSessionToken string
	Expires         time.Time
}

type RoleCredentialsApi interface {
	GetRoleCredentials(ctx context.Context, params *sso.GetRoleCredentialsInput, optFns ...func(*sso.Options)) (*sso.GetRoleCredentialsOutput, error)
}

// NewSSOClient builds an SSO client for the profile's region. The
// GetRoleCredentials API authenticates via the bearer access token, so
// the client itself carries anonymous credentials.
func NewSSOClient(ctx context.Context, region string) (RoleCredentialsApi, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(aws.AnonymousCredentials{}),
		config.WithRetryMode(aws.RetryModeStandard),
		config.WithRetryMaxAttempts(ssoMaxRetryAttempts),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build sso client config: %s, %w", err, ErrRoleFetch)
	}
	return sso.NewFromConfig(cfg), nil
}

// FetchRoleCredentials exchanges the cached access token for the
// temporary credential triple of the profile's account and role.
func FetchRoleCredentials(ctx context.Context, svc RoleCredentialsApi, accessToken string, profile Profile) (*AWSCredentials, error) {
	resp, err := svc.GetRoleCredentials(ctx, &sso.GetRoleCredentialsInput{
		AccessToken: aws.String(accessToken),
		AccountId:   aws.String(profile.SSOAccountID),
		RoleName:    aws.String(profile.SSORoleName),
	})
	if err != nil {
		var unauthorized *types.UnauthorizedException
		if errors.As(err, &unauthorized) {
			return nil, fmt.Errorf("sso rejected the access token for profile %s - please re-authenticate: %s, %w", profile.Name, err, ErrNotAuthorized)
		}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("getrolecredentials %s: %s, %w", apiErr.ErrorCode(), err, ErrRoleFetch)
		}
		return nil, fmt.Errorf("getrolecredentials: %s, %w", err, ErrRoleFetch)
	}

	roleCreds := resp.RoleCredentials
	return &AWSCredentials{
		AWSAccessKey:    aws.ToString(roleCreds.AccessKeyId),
		AWSSecretKey:    aws.ToString(roleCreds.SecretAccessKey),
		AWSSessionToken: aws.ToString(roleCreds.SessionToken),
		Expires:         time.UnixMilli(roleCreds.Expiration).Local(),
	}, nil
}
