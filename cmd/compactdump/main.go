package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/op/go-logging"
	"github.com/urfave/cli"

	"github.com/ebourg/thrift/lib/go/thrift"
)

var log = logging.MustGetLogger("compactdump")
var stderrFormat = logging.MustStringFormatter(`%{time:15:04:05.000} %{level:.4s} %{message}`)

func setupLogging(verbose bool) {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	logging.SetFormatter(stderrFormat)
	level := logging.INFO
	if verbose {
		level = logging.DEBUG
	}
	leveled := logging.AddModuleLevel(backend)
	leveled.SetLevel(level, "")
	logging.SetBackend(leveled)
}

func main() {
	app := cli.NewApp()
	app.Name = "compactdump"
	app.Usage = "walk and print the structure of a compact-protocol-encoded message"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "names",
			Usage: "path to a JSON sidecar mapping \"depth:fieldID\" to a human field name",
		},
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable debug-level tracing",
		},
		cli.BoolFlag{
			Name:  "no-color",
			Usage: "disable colored output",
		},
	}
	app.ArgsUsage = "<file>"
	app.Action = runDump

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("compactdump: %v", err))
		os.Exit(1)
	}
}

func runDump(c *cli.Context) error {
	setupLogging(c.Bool("verbose"))

	if c.NArg() != 1 {
		return cli.NewExitError("exactly one input file is required", 2)
	}
	path := c.Args().Get(0)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	log.Debugf("loaded %d bytes from %s", len(data), path)

	noColor := c.Bool("no-color")
	paint := paintFuncs{
		header: paintOrPlain(noColor, color.New(color.FgCyan, color.Bold).SprintfFunc()),
		field:  paintOrPlain(noColor, color.New(color.FgYellow).SprintfFunc()),
		stop:   paintOrPlain(noColor, color.New(color.FgHiBlack).SprintfFunc()),
	}

	trans := thrift.NewTMemoryBufferWithData(data)
	proto := thrift.NewTCompactProtocolConf(trans, &thrift.TConfiguration{})

	w, err := newWalker(proto, os.Stdout, c.String("names"), paint)
	if err != nil {
		return err
	}

	if err := w.WalkMessage(context.Background()); err != nil {
		log.Errorf("walk failed: %v", err)
		return err
	}
	return nil
}

func paintOrPlain(disabled bool, f func(string, ...interface{}) string) func(string, ...interface{}) string {
	if disabled {
		return fmt.Sprintf
	}
	return f
}
