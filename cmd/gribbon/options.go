package main

import (
	"flag"
	"fmt"
	"io"
)

// ExitError is returned for usage errors; Code is the process exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

type options struct {
	command string
	args    []string

	configPath string
	macrosPath string
	out        string
	name       string
	addr       string
	logLevel   string
	logFormat  string
}

const usage = `
gribbon converts printer G-code to editable ribbon geometry and back.

Usage:
  gribbon import [options] INPUT.gcode
  gribbon export [options] INPUT.json
  gribbon serve  [options]

Options:
`

// parseArgs returns nil options when the program should exit without
// doing anything, such as after printing help.
func parseArgs(args []string, output io.Writer) (*options, error) {
	if len(args) == 0 {
		fmt.Fprint(output, usage)
		return nil, &ExitError{Code: 2, Message: "missing command"}
	}

	opts := &options{command: args[0]}
	fs := flag.NewFlagSet("gribbon "+opts.command, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(output, usage)
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", "", "Path to an HCL settings file.")
	fs.StringVar(&opts.macrosPath, "macros", "", "Path to a YAML file of macro texts.")
	fs.StringVar(&opts.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	fs.StringVar(&opts.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	switch opts.command {
	case "import":
		fs.StringVar(&opts.out, "o", "", "Output geometry file. Defaults to INPUT with a .json extension.")
		fs.StringVar(&opts.name, "name", "", "Object name. Defaults to the input file name.")
	case "export":
		fs.StringVar(&opts.out, "o", "", "Output G-code file. Defaults to INPUT with a .gcode extension.")
	case "serve":
		fs.StringVar(&opts.addr, "addr", ":9091", "Address to bind the HTTP server to.")
	case "-h", "-help", "--help", "help":
		fs.Usage()
		return nil, nil
	default:
		fmt.Fprint(output, usage)
		return nil, &ExitError{Code: 2, Message: "unknown command " + opts.command}
	}

	if err := fs.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil, nil
		}
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}
	opts.args = fs.Args()

	switch {
	case opts.command == "serve" && len(opts.args) != 0:
		return nil, &ExitError{Code: 2, Message: "serve takes no arguments"}
	case opts.command != "serve" && len(opts.args) != 1:
		return nil, &ExitError{Code: 2, Message: opts.command + " needs exactly one input file"}
	}
	return opts, nil
}
