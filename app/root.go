// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "az-groups-auth",
	Short: "Web service with Azure AD login and directory group based authorization",
	Long: `az-groups-auth is a web service that authenticates users against
Azure AD via OpenID Connect and authorizes them from directory group
membership. Group claims are never read from tokens; membership is
resolved through the Microsoft Graph API using the on-behalf-of grant,
so accounts with many groups (the groups overage case) work correctly.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
