package main

import (
	_ "embed"
	"io"
	"text/template"
)

//go:embed cyclist.service
var cyclistServiceEmbed string

type CyclistServiceParams struct {
	BinaryPath string
	ConfigPath string
	User       string
}

// WriteSystemdServiceFile renders a unit file that runs the daemon with
// params.
func WriteSystemdServiceFile(w io.Writer, params CyclistServiceParams) error {
	tmpl, err := template.New("cyclist.service").Parse(cyclistServiceEmbed)
	if err != nil {
		return err
	}
	return tmpl.Execute(w, params)
}
