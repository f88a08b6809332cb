package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func registerFlags(cmd *cobra.Command) {
	cmd.Flags().Int("sysinfo-poll-interval", defaultPollInterval, "seconds between system metric snapshots")
	viper.BindPFlag("sysinfo_poll_interval", cmd.Flags().Lookup("sysinfo-poll-interval"))
}
