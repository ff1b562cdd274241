package rustc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

const (
	// baselineProgram is the identity assumed when the version line names
	// no alternative implementation.
	baselineProgram = "rustc"
	// unstableMarker prefixes programs of the lccc family, whose releases are
	// always treated as unstable.
	unstableMarker = "lc"
)

// Channel is a compiler release channel.
type Channel int

const (
	Stable Channel = iota
	Beta
	Nightly
	Dev
	Unstable
)

func (c Channel) String() string {
	switch c {
	case Stable:
		return "stable"
	case Beta:
		return "beta"
	case Nightly:
		return "nightly"
	case Dev:
		return "dev"
	case Unstable:
		return "unstable"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

func (c Channel) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Channel) UnmarshalText(b []byte) error {
	switch string(b) {
	case "stable":
		*c = Stable
	case "beta":
		*c = Beta
	case "nightly":
		*c = Nightly
	case "dev":
		*c = Dev
	case "unstable":
		*c = Unstable
	default:
		return fmt.Errorf("unknown channel %q", b)
	}
	return nil
}

// Version is what a compiler reports about itself.
type Version struct {
	Program string  `json:"program"`
	Major   int     `json:"major"`
	Minor   int     `json:"minor"`
	Patch   int     `json:"patch"`
	Channel Channel `json:"channel"`
}

func (v Version) String() string {
	return fmt.Sprintf("%s %d.%d.%d (%s)", v.Program, v.Major, v.Minor, v.Patch, v.Channel)
}

// AtLeast reports whether v is at or above minimum, ignoring the channel.
func (v Version) AtLeast(minimum string) (bool, error) {
	minimum = strings.TrimSpace(minimum)
	if minimum == "" {
		return true, nil
	}
	constraint, err := goversion.NewConstraint(">= " + minimum)
	if err != nil {
		return false, fmt.Errorf("parse minimum version %q: %w", minimum, err)
	}
	current, err := goversion.NewVersion(fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch))
	if err != nil {
		return false, err
	}
	return constraint.Check(current), nil
}

var errMalformedVersion = errors.New("malformed version line")

// ParseVersion parses the first line printed by `rustc --version`, e.g.
// "rustc 1.75.0-nightly (abcdef 2023-10-01)".
func ParseVersion(line string) (Version, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Version{}, errMalformedVersion
	}

	var override string
	if fields[0] != baselineProgram {
		override = fields[0]
	}

	parts := strings.Split(fields[1], ".")
	if len(parts) < 3 {
		return Version{}, errMalformedVersion
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return Version{}, errMalformedVersion
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return Version{}, errMalformedVersion
	}
	patchText, tag, hasTag := strings.Cut(parts[2], "-")
	patch, err := strconv.Atoi(patchText)
	if err != nil {
		return Version{}, errMalformedVersion
	}

	channel := Stable
	if hasTag {
		switch tag {
		case "beta":
			channel = Beta
		case "nightly":
			channel = Nightly
		default:
			channel = Dev
		}
	}

	if len(fields) > 2 && strings.HasPrefix(fields[2], "(") {
		switch strings.TrimSuffix(strings.TrimPrefix(fields[2], "("), ")") {
		case "mrustc":
			override = "mrust"
		case "lccc":
			override = "lcrustc"
		}
	}

	program := baselineProgram
	if override != "" {
		program = override
	}
	if strings.HasPrefix(program, unstableMarker) {
		channel = Unstable
	}

	return Version{
		Program: program,
		Major:   major,
		Minor:   minor,
		Patch:   patch,
		Channel: channel,
	}, nil
}
