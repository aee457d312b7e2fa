package cmd

import (
	"fmt"
	"os"
	"strings"

	"cfront/common"
	"cfront/report"
	"cfront/sema"
	"cfront/types"
)

// DriverConfig carries the command-line configuration for one driver run.
type DriverConfig struct {
	// Path to the language options TOML file, empty for defaults.
	OptionsPath string

	// Path to the target description TOML file, empty for the host default.
	TargetPath string

	// The requested log level name.
	LogLevel string

	// Whether all warnings are promoted to errors.
	WError bool

	// Whether to dump the analyzed translation unit after analysis.
	DumpAST bool
}

// Driver owns one analysis session: the source manager, the diagnostic
// engine, the type context, and the analyzer itself.  Scripts drive the
// analyzer's act surface through it.
type Driver struct {
	Opts   *common.LangOpts
	Target *common.Target

	SM     *report.SourceManager
	Engine *report.Engine
	Types  *types.Context
	S      *sema.Sema

	// The base location and text of the current script's registered source.
	base report.SourceLoc
	src  string
}

// NewDriver builds a driver from the given configuration.  Option and target
// files are loaded if specified; unset fields fall back to the defaults.
func NewDriver(cfg DriverConfig) (*Driver, error) {
	opts := common.DefaultLangOpts()
	if cfg.OptionsPath != "" {
		loaded, err := common.LoadLangOpts(cfg.OptionsPath)
		if err != nil {
			return nil, fmt.Errorf("loading options: %w", err)
		}

		opts = loaded
	}

	target := common.DefaultTarget()
	if cfg.TargetPath != "" {
		loaded, err := common.LoadTarget(cfg.TargetPath)
		if err != nil {
			return nil, fmt.Errorf("loading target: %w", err)
		}

		target = loaded
	}

	logLevel, err := parseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	sm := report.NewSourceManager()
	engine := report.NewEngine(sm, logLevel)
	engine.SetWarningsAsErrors(opts.WarningsAsErrors || cfg.WError)
	for id, disposition := range opts.DiagnosticMap {
		engine.MapSeverity(id, disposition)
	}

	tctx := types.NewContext(target, opts)

	d := &Driver{
		Opts:   opts,
		Target: target,
		SM:     sm,
		Engine: engine,
		Types:  tctx,
		S:      sema.New(tctx, engine, opts),
	}

	if cfg.DumpAST {
		d.S.AddConsumer(sema.NewASTDumper(os.Stdout))
	}

	return d, nil
}

// Run replays one act script through the driver and finalizes the translation
// unit.  It returns whether analysis succeeded without errors.
func (d *Driver) Run(script *Script) bool {
	d.base = d.SM.AddFile(script.Name+".cc", script.Source, 0)
	d.src = script.Source

	script.Run(d)
	d.S.ActOnEndOfTranslationUnit()

	if n := d.Engine.ErrorCount(); n > 0 {
		fmt.Printf("analysis failed: %d error(s)\n", n)
		return false
	}

	return true
}

// loc returns the source location at the given byte offset of the current
// script's source text.
func (d *Driver) loc(offset int) report.SourceLoc {
	return d.SM.LocAt(d.base, offset)
}

// span returns the source range covering the given byte offsets of the
// current script's source text.
func (d *Driver) span(begin, end int) report.SourceRange {
	return report.SourceRange{Begin: d.loc(begin), End: d.loc(end)}
}

// at returns the source range of the first occurrence of a token in the
// current script's source text.
func (d *Driver) at(token string) report.SourceRange {
	off := strings.Index(d.src, token)
	if off < 0 {
		off = 0
	}

	return d.span(off, off+len(token))
}

// parseLogLevel maps a log level name to its engine constant.
func parseLogLevel(name string) (int, error) {
	switch name {
	case "silent":
		return report.LogLevelSilent, nil
	case "error":
		return report.LogLevelError, nil
	case "warn":
		return report.LogLevelWarn, nil
	case "verbose", "":
		return report.LogLevelVerbose, nil
	default:
		return 0, fmt.Errorf("invalid log level %s", name)
	}
}
