package cli

import (
	"encoding/json"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/tidwall/pretty"
)

var (
	babyBlue = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	green    = lipgloss.NewStyle().Foreground(lipgloss.Color("76"))
	red      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// setupLogging sends logs to stderr, or to a rotating file when logFile is
// set. stdout is never touched.
func setupLogging(debug bool, logFile string) {
	styles := log.DefaultStyles()
	styles.Levels[log.DebugLevel] = babyBlue.SetString("DEBU").Bold(true)
	styles.Levels[log.InfoLevel] = green.SetString("INFO").Bold(true)
	styles.Levels[log.WarnLevel] = yellow.SetString("WARN").Bold(true)
	styles.Levels[log.ErrorLevel] = red.SetString("ERRO").Bold(true)
	styles.Levels[log.FatalLevel] = red.SetString("FATA").Bold(true)
	log.SetStyles(styles)

	log.SetOutput(os.Stderr)
	log.SetReportTimestamp(true)
	log.SetLevel(log.InfoLevel)
	if debug {
		log.SetLevel(log.DebugLevel)
	}

	if logFile != "" {
		setupRotatingLogger(logFile)
	}
}

func setupRotatingLogger(logPath string) {
	writer, err := rotatelogs.New(
		logPath+".%Y%m%d%H%M",
		rotatelogs.WithLinkName(logPath),
		rotatelogs.WithMaxAge(7*24*time.Hour),
		rotatelogs.WithRotationSize(10*1024*1024),
		rotatelogs.WithRotationTime(24*time.Hour),
	)
	if err != nil {
		log.Fatalf("failed to configure log rotation: %v", err)
	}

	log.SetOutput(writer)
}

func printJSONColored(data any) {
	j, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		log.Errorf("Error marshalling JSON: %v", err)
		return
	}

	log.Debug(string(pretty.Color(j, nil)))
}
