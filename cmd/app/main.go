// Image Modifier Studio entry point: GUI editor or headless export

package main

import (
	"flag"
	"os"

	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"
	"github.com/sirupsen/logrus"

	"image-modifier-studio/internal/accel"
	"image-modifier-studio/internal/config"
	"image-modifier-studio/internal/gui"
)

const (
	AppName    = "Image Modifier Studio"
	AppID      = "io.github.image-modifier-studio"
	AppVersion = "1.0.0"
)

func main() {
	debugMode := flag.Bool("debug", false, "Enable debug mode with verbose logging")
	configPath := flag.String("config", "", "Path to a config file (yaml, toml or json)")
	input := flag.String("in", "", "Image to open; with -out the edit runs without a window")
	output := flag.String("out", "", "Export path for headless mode")
	var sets setFlags
	flag.Var(&sets, "set", "Modifier setting kind=value, repeatable (e.g. -set exposure=20)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := initLogger(*debugMode || cfg.Debug)
	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": *debugMode || cfg.Debug,
	}).Info("Starting " + AppName)

	if *output != "" {
		if err := runHeadless(cfg, logger, accel.NewEvaluator(), *input, *output, sets); err != nil {
			logger.WithError(err).Fatal("Headless export failed")
		}
		logger.WithField("out", *output).Info("Export finished")
		return
	}

	myApp := app.NewWithID(AppID)
	myApp.SetIcon(theme.DocumentIcon())
	myApp.Settings().SetTheme(theme.DefaultTheme())

	mainApp := gui.NewApplication(myApp, cfg, logger)
	if *input != "" {
		if err := mainApp.LoadImageFromPath(*input); err != nil {
			logger.WithError(err).Error("Failed to open image from command line")
		}
	}
	mainApp.ShowAndRun()

	logger.Info("Application shutting down gracefully")
	os.Exit(0)
}

// initLogger initializes the logger with appropriate level
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}
