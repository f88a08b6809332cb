package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/svscagn/skadi"
	"github.com/svscagn/skadi/internal/command"
	"github.com/svscagn/skadi/internal/hyprland"
	"github.com/svscagn/skadi/internal/ipc"
	"github.com/svscagn/skadi/internal/output"
	"github.com/svscagn/skadi/internal/pactl"
	"github.com/svscagn/skadi/internal/playerctl"
	"github.com/svscagn/skadi/internal/supervisor"
	"github.com/svscagn/skadi/internal/sysinfo"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "skadi",
	Short: "Desktop event backend for the skadi bar",
	Long: `skadi watches the window manager, the system, the media player and the
audio sink, and writes one JSON envelope per line on stdout for the bar
frontend to consume. Logs go to stderr.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(viper.GetBool("debug"), viper.GetString("log_file"))

		log.Infof("%v version %v",
			babyBlue.Render("skadi"),
			green.Render(strings.Trim(skadi.Version, "\n\r ")))
		if f := viper.ConfigFileUsed(); f != "" {
			log.Info("using config file", "path", f)
		}
		printJSONColored(viper.AllSettings())

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sink := output.NewSink(os.Stdout, output.WithDebug(viper.GetBool("debug")))
		return run(ctx, newSupervisor(sink))
	},
}

func newSupervisor(out *output.Sink) *supervisor.Supervisor {
	runner := command.NewExec()

	player := playerctl.New(viper.GetString("player"), runner)
	player.Binary = viper.GetString("playerctl")

	volume := pactl.New(viper.GetString("sink"), runner)
	volume.Binary = viper.GetString("pactl")

	interval := time.Duration(viper.GetInt("sysinfo_poll_interval")) * time.Second

	return supervisor.New(out, viper.GetDuration("shutdown_grace"),
		sysinfo.New(interval),
		hyprland.New(),
		player,
		volume,
	)
}

// run blocks until the first adapter stops or ctx is cancelled. Only a failed
// adapter is reported as an error.
func run(ctx context.Context, sup *supervisor.Supervisor) error {
	statusCtx, stopStatus := context.WithCancel(ctx)
	statusDone := startStatusSocket(statusCtx, sup)

	err := sup.Run(ctx)

	stopStatus()
	select {
	case <-statusDone:
	case <-time.After(supervisor.DefaultShutdownGrace):
		log.Warn("status socket did not stop in time")
	}

	var exit *supervisor.ExitError
	if errors.As(err, &exit) && !exit.Failed() {
		log.Info("exiting", "reason", exit)
		return nil
	}
	return err
}

// startStatusSocket serves the status endpoint when enabled and no other
// instance already answers on the socket. The returned channel closes once
// the server has stopped.
func startStatusSocket(ctx context.Context, p ipc.StatusProvider) <-chan struct{} {
	done := make(chan struct{})
	if !viper.GetBool("status_socket") {
		close(done)
		return done
	}

	path := ipc.SocketPath()
	probeCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if status, err := ipc.SendStatus(probeCtx, path); err == nil {
		log.Warn("another instance owns the status socket, not serving", "socket", path, "pid", status.PID)
		close(done)
		return done
	}

	go func() {
		defer close(done)
		if err := ipc.Serve(ctx, path, p); err != nil {
			log.Error("status socket failed", "socket", path, "err", err)
		}
	}()
	return done
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	registerFlags(rootCmd)
}
