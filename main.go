package main

import "github.com/dnitsch/aws-sso-creds/cmd"

func main() {
	cmd.Execute()
}
