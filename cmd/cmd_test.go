package cmd_test

import (
	"bytes"
	"io"
	"os"
	"path"
	"strings"
	"testing"

	"github.com/dnitsch/aws-sso-creds/cmd"
)

func Test_no_profile_and_no_list_prints_usage(t *testing.T) {
	b := new(bytes.Buffer)
	o := new(bytes.Buffer)
	rootCmd := cmd.RootCmd
	rootCmd.SetArgs([]string{})
	rootCmd.SetErr(b)
	rootCmd.SetOut(o)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("expected nil, got: %v", err)
	}
	out, _ := io.ReadAll(o)
	if !strings.Contains(string(out), "Usage:") {
		t.Fatalf("got %s, wanted the usage text", out)
	}
}

func Test_list_prints_configured_profiles(t *testing.T) {
	tempDir, _ := os.MkdirTemp(os.TempDir(), "cmd-list-tester")
	defer os.RemoveAll(tempDir)
	configFile := path.Join(tempDir, "config")
	os.WriteFile(configFile, []byte(`[profile dev]
sso_account_id = 111

[profile prod]
sso_account_id = 222
`), 0600)
	os.Setenv("AWS_CONFIG_FILE", configFile)
	defer os.Unsetenv("AWS_CONFIG_FILE")

	b := new(bytes.Buffer)
	o := new(bytes.Buffer)
	rootCmd := cmd.RootCmd
	rootCmd.SetArgs([]string{"--list"})
	rootCmd.SetErr(b)
	rootCmd.SetOut(o)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("expected nil, got: %v", err)
	}
	out, _ := io.ReadAll(o)
	if string(out) != "dev\nprod\n" {
		t.Fatalf("got %q, wanted the profiles in file order", out)
	}
}

func Test_helpers_for_command(t *testing.T) {
	ttests := map[string]struct{}{
		"clear-cache": {},
		"version":     {},
	}
	for name := range ttests {
		t.Run(name, func(t *testing.T) {
			cmdArgs := []string{name, "--help"}
			b := new(bytes.Buffer)
			o := new(bytes.Buffer)
			rootCmd := cmd.RootCmd
			rootCmd.SetArgs(cmdArgs)
			rootCmd.SetErr(b)
			rootCmd.SetOut(o)
			rootCmd.Execute()
			err, _ := io.ReadAll(b)
			if len(err) > 0 {
				t.Fatal("got err, wanted nil")
			}
			out, _ := io.ReadAll(o)
			if len(out) <= 0 {
				t.Fatalf("got empty, wanted a help message")
			}
		})
	}
}
