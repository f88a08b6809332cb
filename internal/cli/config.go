package cli

import (
	"errors"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/svscagn/skadi/internal/pactl"
	"github.com/svscagn/skadi/internal/playerctl"
	"github.com/svscagn/skadi/internal/supervisor"
)

const defaultPollInterval = 5

func initConfig() {
	viper.SetConfigName("skadi")
	viper.SetConfigType("toml")
	viper.AddConfigPath("$HOME/.config/skadi")
	viper.AddConfigPath("/etc/xdg/skadi")

	setDefaults(viper.GetViper())

	viper.SetEnvPrefix("skadi")
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		log.Debug("no config file found, using defaults")
		return
	}
	cobra.CheckErr(err)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sysinfo_poll_interval", defaultPollInterval)
	v.SetDefault("player", playerctl.DefaultPlayer)
	v.SetDefault("sink", pactl.DefaultSink)
	v.SetDefault("playerctl", playerctl.DefaultBinary)
	v.SetDefault("pactl", pactl.DefaultBinary)
	v.SetDefault("debug", false)
	v.SetDefault("log_file", "")
	v.SetDefault("status_socket", false)
	v.SetDefault("shutdown_grace", supervisor.DefaultShutdownGrace)
}
