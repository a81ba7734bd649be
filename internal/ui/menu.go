// Package ui is the interactive menu front end of the scene processor.
package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/forest-guardian/maxsatt-scene-cli/internal/delivery"
)

type menuOption struct {
	title   string
	handler func() error
}

// Menu runs scene operations chosen interactively.
type Menu struct {
	in     *bufio.Reader
	out    io.Writer
	runner *delivery.Runner
	exit   bool
}

func NewMenu(in io.Reader, out io.Writer, runner *delivery.Runner) *Menu {
	return &Menu{in: bufio.NewReader(in), out: out, runner: runner}
}

// Show displays the main menu until the user exits or input ends.
func (m *Menu) Show() error {
	options := []menuOption{
		{"Create a true color composite of a scene", m.process(delivery.RGB)},
		{"Calculate the vegetation index (NDVI) of a scene", m.process(delivery.NDVI)},
		{"Calculate the water index (NDWI) of a scene", m.process(delivery.NDWI)},
		{"Process every product of a scene", m.process()},
		{"View the list of available scenes", m.listScenes},
		{"View the last report of a scene", m.showReport},
		{"Exit the application", func() error { fmt.Fprintln(m.out, "Exiting..."); m.exit = true; return nil }},
	}

	for !m.exit {
		infoColor.Fprintln(m.out, "===================")
		for i, opt := range options {
			infoColor.Fprintf(m.out, "%d. %s\n", i+1, opt.title)
		}

		choice, err := ReadInt(m.in, m.out, "Please enter your choice: ", 1, len(options))
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			PrintError(m.out, err.Error())
			continue
		}

		if err := options[choice-1].handler(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			PrintError(m.out, err.Error())
		}
	}
	return nil
}

func (m *Menu) readScene() (string, error) {
	id, err := ReadString(m.in, m.out, "Enter the scene id: ")
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", errors.New("scene id cannot be empty")
	}
	return id, nil
}

func (m *Menu) process(products ...delivery.Product) func() error {
	return func() error {
		id, err := m.readScene()
		if err != nil {
			return err
		}
		run, err := m.runner.Run(id, products...)
		if err != nil {
			return err
		}
		PrintSuccess(m.out, delivery.FormatRun(*run))
		return nil
	}
}

func (m *Menu) listScenes() error {
	ids, err := m.runner.Catalog().List()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		PrintWarning(m.out, "No scenes found. Download a scene into the image directory first.")
		return nil
	}
	successColor.Fprintln(m.out, "\nAvailable scenes:")
	for _, id := range ids {
		successColor.Fprintf(m.out, "- %s\n", id)
	}
	return nil
}

func (m *Menu) showReport() error {
	id, err := m.readScene()
	if err != nil {
		return err
	}
	run, ok := m.runner.LastReport(id)
	if !ok {
		return fmt.Errorf("no report found for scene %s", id)
	}
	status := successColor
	if strings.TrimSpace(run.Error) != "" {
		status = errorColor
	}
	status.Fprintf(m.out, "\n%s\n", delivery.FormatRun(run))
	return nil
}
