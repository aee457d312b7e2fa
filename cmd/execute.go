package cmd

import (
	"fmt"
	"os"
	"sort"

	"cfront/report"

	"github.com/urfave/cli/v2"
)

// CompilerVersion is the version string printed by `cfront version`.
const CompilerVersion = "cfront 0.4.0"

// Execute is the main entry point for the `cfront` CLI utility.
func Execute() {
	app := &cli.App{
		Name:    "cfront",
		Usage:   "exercise the cfront semantic analysis engine",
		Version: CompilerVersion,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "options",
				Aliases: []string{"O"},
				Usage:   "path to a language options TOML file",
			},
			&cli.StringFlag{
				Name:    "target",
				Aliases: []string{"t"},
				Usage:   "path to a target description TOML file",
			},
			&cli.StringFlag{
				Name:    "loglevel",
				Aliases: []string{"ll"},
				Usage:   "log level: silent, error, warn, or verbose",
				Value:   "verbose",
			},
			&cli.BoolFlag{
				Name:  "werror",
				Usage: "promote all warnings to errors",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "check",
				Usage:     "run a named act script through the analyzer",
				ArgsUsage: "<script>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "dump-ast",
						Usage: "dump the analyzed translation unit",
					},
				},
				Action: execCheck,
			},
			{
				Name:   "scripts",
				Usage:  "list the available act scripts",
				Action: execScripts,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		report.ReportFatal("%s", err.Error())
	}
}

// execCheck runs the `check` subcommand: it builds a driver from the global
// flags and replays the named act script through it.
func execCheck(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("check requires exactly one script name")
	}

	name := c.Args().First()
	script, ok := scripts[name]
	if !ok {
		return fmt.Errorf("unknown script %s (run `cfront scripts` for the list)", name)
	}

	d, err := NewDriver(DriverConfig{
		OptionsPath: c.String("options"),
		TargetPath:  c.String("target"),
		LogLevel:    c.String("loglevel"),
		WError:      c.Bool("werror"),
		DumpAST:     c.Bool("dump-ast"),
	})
	if err != nil {
		return err
	}

	if !d.Run(script) {
		// Diagnostics were already rendered; signal failure without a second
		// error message.
		os.Exit(1)
	}

	return nil
}

// execScripts runs the `scripts` subcommand.
func execScripts(c *cli.Context) error {
	names := make([]string, 0, len(scripts))
	for name := range scripts {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("%-12s %s\n", name, scripts[name].Synopsis)
	}

	return nil
}
