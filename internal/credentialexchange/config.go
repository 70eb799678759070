package credentialexchange

const (
	SELF_NAME            = "aws-sso-creds"
	AWS_CONFIG_FILE_VAR  = "AWS_CONFIG_FILE"
	AWS_SHARED_CREDS_VAR = "AWS_SHARED_CREDENTIALS_FILE"
	SOURCED_SENTINEL_VAR = "__IS_SOURCED__"
	ENV_SCRIPT_NAME      = "tmp-creds.sh"
)

// WriteMode selects what gets persisted after a successful fetch.
type WriteMode int

const (
	// WriteModeNamedProfile merges a [<profile>] section into the
	// credentials file and mirrors it to [default] only when no valid
	// default section exists yet.
	WriteModeNamedProfile WriteMode = iota
	// WriteModeNamedPlusDefault always overwrites [default] with the
	// named profile's credentials as well.
	WriteModeNamedPlusDefault
	// WriteModeDefaultOnly writes the [default] section outright,
	// leaving unrelated sections untouched.
	WriteModeDefaultOnly
	// WriteModeNoSave skips the credentials file entirely, the env
	// script becomes the sole output.
	WriteModeNoSave
)

type BaseConfig struct {
	Profile         string
	ConfigFile      string
	CredentialsFile string
	CacheDir        string
	AwsBin          string
}

type CredentialConfig struct {
	BaseConfig BaseConfig
	Mode       WriteMode
	EnvFile    string
}
