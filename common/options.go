package common

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

// Dialect identifies the active language standard.
type Dialect int

// Enumeration of the supported language dialects.
const (
	DialectC89 Dialect = iota
	DialectC99
	DialectC11
	DialectCXX03
	DialectCXX11
	DialectCXX14
	DialectCXX17
	DialectCXX20
)

// IsCPlusPlus returns whether the dialect is a C++ standard.
func (d Dialect) IsCPlusPlus() bool {
	return d >= DialectCXX03
}

// dialectNames maps the TOML spellings of dialects to their values.
var dialectNames = map[string]Dialect{
	"c89":   DialectC89,
	"c99":   DialectC99,
	"c11":   DialectC11,
	"c++03": DialectCXX03,
	"c++11": DialectCXX11,
	"c++14": DialectCXX14,
	"c++17": DialectCXX17,
	"c++20": DialectCXX20,
}

// LangOpts is the language-options bag.  Sema reads it at initialization and
// at every act; it never mutates it.
type LangOpts struct {
	// The active language dialect.
	Dialect Dialect

	// Whether Objective-C extensions are enabled.
	ObjC bool

	// Whether exceptions are enabled.
	Exceptions bool

	// Whether run-time type information is enabled.
	RTTI bool

	// Whether member access control is enforced.
	AccessControl bool

	// The maximum template instantiation depth.
	InstantiationDepth int

	// The constant-evaluation step budget.
	ConstexprSteps int

	// The constant-evaluation call-depth budget.
	ConstexprCallDepth int

	// Whether all warnings are promoted to errors.
	WarningsAsErrors bool

	// Per-diagnostic-id severity dispositions: "error", "warning", "ignore".
	DiagnosticMap map[string]string

	// Named extension flags that are enabled.
	Extensions []string
}

// DefaultLangOpts returns the default options: C++17 with exceptions, RTTI,
// and access control on.
func DefaultLangOpts() *LangOpts {
	return &LangOpts{
		Dialect:            DialectCXX17,
		Exceptions:         true,
		RTTI:               true,
		AccessControl:      true,
		InstantiationDepth: 512,
		ConstexprSteps:     1 << 20,
		ConstexprCallDepth: 512,
		DiagnosticMap:      make(map[string]string),
	}
}

// HasExtension returns whether the named extension flag is enabled.
func (lo *LangOpts) HasExtension(name string) bool {
	for _, ext := range lo.Extensions {
		if ext == name {
			return true
		}
	}

	return false
}

// -----------------------------------------------------------------------------

// tomlLangOpts is the language-options bag as it is encoded in TOML.
type tomlLangOpts struct {
	Dialect            string            `toml:"dialect"`
	ObjC               bool              `toml:"objc"`
	Exceptions         *bool             `toml:"exceptions"`
	RTTI               *bool             `toml:"rtti"`
	AccessControl      *bool             `toml:"access-control"`
	InstantiationDepth int               `toml:"instantiation-depth"`
	ConstexprSteps     int               `toml:"constexpr-steps"`
	WarningsAsErrors   bool              `toml:"warnings-as-errors"`
	Diagnostics        map[string]string `toml:"diagnostics"`
	Extensions         []string          `toml:"extensions"`
}

// LoadLangOpts loads a language-options file, filling unset fields from the
// defaults.
func LoadLangOpts(path string) (*LangOpts, error) {
	buff, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open options file: %w", err)
	}

	tomlOpts := &tomlLangOpts{}
	if err := toml.Unmarshal(buff, tomlOpts); err != nil {
		return nil, fmt.Errorf("error parsing options file: %w", err)
	}

	opts := DefaultLangOpts()

	if tomlOpts.Dialect != "" {
		dialect, ok := dialectNames[tomlOpts.Dialect]
		if !ok {
			return nil, fmt.Errorf("unknown dialect: `%s`", tomlOpts.Dialect)
		}

		opts.Dialect = dialect
	}

	opts.ObjC = tomlOpts.ObjC
	opts.WarningsAsErrors = tomlOpts.WarningsAsErrors

	if tomlOpts.Exceptions != nil {
		opts.Exceptions = *tomlOpts.Exceptions
	}

	if tomlOpts.RTTI != nil {
		opts.RTTI = *tomlOpts.RTTI
	}

	if tomlOpts.AccessControl != nil {
		opts.AccessControl = *tomlOpts.AccessControl
	}

	if tomlOpts.InstantiationDepth > 0 {
		opts.InstantiationDepth = tomlOpts.InstantiationDepth
	}

	if tomlOpts.ConstexprSteps > 0 {
		opts.ConstexprSteps = tomlOpts.ConstexprSteps
	}

	for id, disposition := range tomlOpts.Diagnostics {
		switch disposition {
		case "error", "warning", "ignore":
			opts.DiagnosticMap[id] = disposition
		default:
			return nil, fmt.Errorf("unknown diagnostic disposition for `%s`: `%s`", id, disposition)
		}
	}

	opts.Extensions = tomlOpts.Extensions
	return opts, nil
}
