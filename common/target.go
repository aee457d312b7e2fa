package common

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

// Target describes the properties of the compilation target that semantic
// analysis needs: integer and pointer widths, alignments, endianness, and
// language-ABI knobs.  Widths and alignments are in bytes.
type Target struct {
	// The display name of the target, eg. `x86_64-linux`.
	Name string `toml:"name"`

	PointerWidth int `toml:"pointer-width"`
	PointerAlign int `toml:"pointer-align"`

	ShortWidth    int `toml:"short-width"`
	IntWidth      int `toml:"int-width"`
	LongWidth     int `toml:"long-width"`
	LongLongWidth int `toml:"long-long-width"`

	FloatWidth      int `toml:"float-width"`
	DoubleWidth     int `toml:"double-width"`
	LongDoubleWidth int `toml:"long-double-width"`
	LongDoubleAlign int `toml:"long-double-align"`

	// The width of a pointer to member, which carries an adjustment word on
	// some ABIs.
	MemberPointerWidth int `toml:"member-pointer-width"`

	BigEndian  bool `toml:"big-endian"`
	CharSigned bool `toml:"char-signed"`

	// Names of target-specific builtin functions made visible to lookup.
	Builtins []string `toml:"builtins"`
}

// DefaultTarget returns a 64-bit little-endian target with the common LP64
// widths.
func DefaultTarget() *Target {
	return &Target{
		Name:               "x86_64-unknown-linux",
		PointerWidth:       8,
		PointerAlign:       8,
		ShortWidth:         2,
		IntWidth:           4,
		LongWidth:          8,
		LongLongWidth:      8,
		FloatWidth:         4,
		DoubleWidth:        8,
		LongDoubleWidth:    16,
		LongDoubleAlign:    16,
		MemberPointerWidth: 16,
		CharSigned:         true,
	}
}

// LoadTarget loads a target descriptor file, filling unset widths from the
// default target.
func LoadTarget(path string) (*Target, error) {
	buff, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open target file: %w", err)
	}

	target := DefaultTarget()
	if err := toml.Unmarshal(buff, target); err != nil {
		return nil, fmt.Errorf("error parsing target file: %w", err)
	}

	if err := target.validate(); err != nil {
		return nil, err
	}

	return target, nil
}

// validate checks the basic width relations the type system assumes.
func (t *Target) validate() error {
	if t.ShortWidth < 2 || t.IntWidth < t.ShortWidth || t.LongWidth < t.IntWidth || t.LongLongWidth < t.LongWidth {
		return fmt.Errorf("target `%s` violates integer width ordering", t.Name)
	}

	if t.PointerWidth <= 0 {
		return fmt.Errorf("target `%s` has no pointer width", t.Name)
	}

	return nil
}

// HasBuiltin returns whether the target declares the named builtin function.
func (t *Target) HasBuiltin(name string) bool {
	for _, b := range t.Builtins {
		if b == name {
			return true
		}
	}

	return false
}
