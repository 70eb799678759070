package credentialexchange

import (
	"bytes"
	"errors"
	"fmt"
	stdlog "log"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/google/renameio/v2"
	ini "gopkg.in/ini.v1"
)

var ErrCredentialWrite = errors.New("unable to write credentials")

const (
	keyAccessKeyID     = "aws_access_key_id"
	keySecretAccessKey = "aws_secret_access_key"
	keySessionToken    = "aws_session_token"
)

const defaultSection = "default"

func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		stdlog.Fatal("unable to get the user home dir")
	}
	return home
}

// AwsConfigFile returns the shared config file path,
// honouring the AWS_CONFIG_FILE override.
func AwsConfigFile() string {
	if overridden, exists := os.LookupEnv(AWS_CONFIG_FILE_VAR); exists {
		return overridden
	}
	return path.Join(HomeDir(), ".aws", "config")
}

// SharedCredentialsFile returns the shared credentials file path,
// honouring the AWS_SHARED_CREDENTIALS_FILE override.
func SharedCredentialsFile() string {
	if overridden, exists := os.LookupEnv(AWS_SHARED_CREDS_VAR); exists {
		return overridden
	}
	return path.Join(HomeDir(), ".aws", "credentials")
}

// DefaultEnvScriptFile is where the shell export script lands unless
// overridden by flag or config.
func DefaultEnvScriptFile() string {
	return path.Join(HomeDir(), ".aws", ENV_SCRIPT_NAME)
}

// WriteProfile merges the fetched credentials into the shared
// credentials file according to mode, preserving every unrelated
// section. The merged file is replaced atomically with mode 0600.
func WriteProfile(logger *log.Logger, credsFile, profile string, creds AWSCredentials, mode WriteMode) error {
	if mode == WriteModeNoSave {
		return nil
	}
	cfg, err := ini.LooseLoad(credsFile)
	if err != nil {
		return fmt.Errorf("fail to read credentials file: %s, %w", err, ErrCredentialWrite)
	}

	switch mode {
	case WriteModeDefaultOnly:
		setCredentialSection(cfg.Section(defaultSection), creds)
	default:
		setCredentialSection(cfg.Section(profile), creds)
		if mode == WriteModeNamedPlusDefault || !hasValidDefault(cfg) {
			setCredentialSection(cfg.Section(defaultSection), creds)
		}
	}

	if err := saveIniAtomic(cfg, credsFile); err != nil {
		return err
	}
	logger.Info("credentials saved", "profile", profile, "file", credsFile)
	return nil
}

// WriteEnvScript writes a shell-sourceable export script next to the
// credentials file, restricted identically to owner read/write.
func WriteEnvScript(logger *log.Logger, envFile string, creds AWSCredentials, profile, region string) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "export AWS_ACCESS_KEY_ID=%q\n", creds.AWSAccessKey)
	fmt.Fprintf(&buf, "export AWS_SECRET_ACCESS_KEY=%q\n", creds.AWSSecretKey)
	fmt.Fprintf(&buf, "export AWS_SESSION_TOKEN=%q\n", creds.AWSSessionToken)
	fmt.Fprintf(&buf, "export AWS_PROFILE=%q\n", profile)
	fmt.Fprintf(&buf, "export AWS_REGION=%q\n", region)

	if err := os.MkdirAll(filepath.Dir(envFile), 0755); err != nil {
		return fmt.Errorf("fail to create dir for %s: %s, %w", envFile, err, ErrCredentialWrite)
	}
	if err := renameio.WriteFile(envFile, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("fail to write env script: %s, %w", err, ErrCredentialWrite)
	}
	logger.Info("environment script saved", "file", envFile)
	return nil
}

func setCredentialSection(section *ini.Section, creds AWSCredentials) {
	section.Key(keyAccessKeyID).SetValue(creds.AWSAccessKey)
	section.Key(keySecretAccessKey).SetValue(creds.AWSSecretKey)
	section.Key(keySessionToken).SetValue(creds.AWSSessionToken)
}

// hasValidDefault reports whether a default section already carries
// both the access key and the secret key.
func hasValidDefault(cfg *ini.File) bool {
	if !cfg.HasSection(defaultSection) {
		return false
	}
	section := cfg.Section(defaultSection)
	return section.Key(keyAccessKeyID).String() != "" &&
		section.Key(keySecretAccessKey).String() != ""
}

func saveIniAtomic(cfg *ini.File, target string) error {
	var buf bytes.Buffer
	if _, err := cfg.WriteTo(&buf); err != nil {
		return fmt.Errorf("fail to serialise credentials: %s, %w", err, ErrCredentialWrite)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("fail to create dir for %s: %s, %w", target, err, ErrCredentialWrite)
	}
	if err := renameio.WriteFile(target, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("fail to replace %s: %s, %w", target, err, ErrCredentialWrite)
	}
	return nil
}
