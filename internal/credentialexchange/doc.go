// credentialexchange
//
// Handles the exchange of an SSO access token for AWS temporary creds.
//
// Reads profile metadata from the shared AWS config file, calls the
// IAM Identity Center GetRoleCredentials API and persists the returned
// triple into the shared credentials file and/or a shell export script.
package credentialexchange
