package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime/debug"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/forest-guardian/maxsatt-scene-cli/internal/cli"
	"github.com/forest-guardian/maxsatt-scene-cli/internal/notification"
	"github.com/forest-guardian/maxsatt-scene-cli/internal/properties"
)

func reportPanic() {
	r := recover()
	if r == nil {
		return
	}
	red := color.New(color.FgRed)
	red.Fprintf(os.Stderr, "\nPANIC: %v\n", r)
	red.Fprintln(os.Stderr, "Please check the input and try again.")
	red.Fprintln(os.Stderr, "Exiting...")

	errMessage := fmt.Sprintf("Maxsatt CLI panic:\n\n%v\n\nStack trace:\n%s", r, debug.Stack())
	cfg, err := properties.Load("")
	if err == nil {
		if err := notification.NewDiscord(cfg).Error(errMessage); err != nil {
			red.Fprintf(os.Stderr, "Failed to send notification: %s\n", err)
		}
	}
	os.Exit(2)
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.WithError(err).Warn("failed to load .env file")
	}

	defer reportPanic()

	if err := cli.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
