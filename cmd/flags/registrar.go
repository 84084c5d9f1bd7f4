package flags

import "github.com/spf13/cobra"

func RegisterGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP(Config, "c", "",
		"Path to reqauth's configuration file.\n"+
			"If not provided, the configuration is taken from the defaults and environment variables only")
	cmd.PersistentFlags().String(EnvironmentConfigPrefix, "REQAUTH_",
		"Prefix for the environment variables to consider for\nloading configuration from")
}
