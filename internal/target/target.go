// Package target models compiler target triples such as
// x86_64-unknown-linux-gnu or thumbv7em-none-eabihf.
package target

import (
	"fmt"
	"runtime"
	"strings"
)

// Target is an immutable, parsed target triple.
type Target struct {
	name   string
	arch   string
	vendor string
	os     string
	env    string
	objfmt string
}

// Parse splits a triple into its components. The spelling passed in is kept
// as the short name; String renders the full canonical form.
func Parse(s string) (Target, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Target{}, fmt.Errorf("empty target")
	}
	parts := strings.Split(strings.ToLower(s), "-")
	if len(parts) < 2 {
		return Target{}, fmt.Errorf("unknown target %s: expected arch-[vendor-]os[-env]", s)
	}

	t := Target{name: s}
	arch, ok := canonicalArch(parts[0])
	if !ok {
		return Target{}, fmt.Errorf("unknown target %s: unrecognised architecture %q", s, parts[0])
	}
	t.arch = arch

	for _, p := range parts[1:] {
		if p == "" {
			return Target{}, fmt.Errorf("unknown target %s: empty component", s)
		}
	}

	// Tokens outside the known tables are taken verbatim.
	rest := parts[1:]
	if len(rest) >= 2 && (isVendor(rest[0]) || !isKnownOS(rest[0])) {
		t.vendor = rest[0]
		rest = rest[1:]
	}
	if len(rest) == 1 && isVendor(rest[0]) && !isKnownOS(rest[0]) {
		return Target{}, fmt.Errorf("unknown target %s: missing operating system after vendor %q", s, rest[0])
	}

	t.os, t.env = canonicalOS(rest[0])
	rest = rest[1:]

	if len(rest) > 0 && !(len(rest) == 1 && isObjectFormat(rest[0])) {
		t.env = rest[0]
		rest = rest[1:]
	}
	if len(rest) > 0 {
		if !isObjectFormat(rest[0]) {
			return Target{}, fmt.Errorf("unknown target %s: unrecognised object format %q", s, rest[0])
		}
		t.objfmt = rest[0]
		rest = rest[1:]
	}
	if len(rest) > 0 {
		return Target{}, fmt.Errorf("unknown target %s: trailing components %q", s, strings.Join(rest, "-"))
	}

	if t.vendor == "" {
		t.vendor = defaultVendor(t.arch, t.os)
	}
	return t, nil
}

// MustParse is like Parse but panics on error. Intended for constants.
func MustParse(s string) Target {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the short canonical name: the triple as it was spelled.
func (t Target) Name() string { return t.name }

// String returns the full canonical triple.
func (t Target) String() string {
	parts := []string{t.arch, t.vendor, t.os}
	if t.env != "" {
		parts = append(parts, t.env)
	}
	if t.objfmt != "" {
		parts = append(parts, t.objfmt)
	}
	return strings.Join(parts, "-")
}

func (t Target) Arch() string         { return t.arch }
func (t Target) Vendor() string       { return t.vendor }
func (t Target) OS() string           { return t.os }
func (t Target) Env() string          { return t.env }
func (t Target) ObjectFormat() string { return t.objfmt }

// IsZero reports whether t was never parsed.
func (t Target) IsZero() bool { return t.arch == "" }

// WithVendor returns a copy of t with the vendor replaced. The copy's short
// name is its full canonical string.
func (t Target) WithVendor(vendor string) Target {
	out := t
	out.vendor = vendor
	out.name = out.String()
	return out
}

// Normalized returns t with the vendor forced to "unknown".
func (t Target) Normalized() Target {
	return t.WithVendor("unknown")
}

// Equal compares canonical components, ignoring how the name was spelled.
func (t Target) Equal(other Target) bool {
	return t.String() == other.String()
}

// MarshalText renders the short name so configuration round-trips unchanged.
func (t Target) MarshalText() ([]byte, error) {
	return []byte(t.name), nil
}

// UnmarshalText parses a triple.
func (t *Target) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Host returns the triple describing the running process.
func Host() Target {
	return MustParse(hostTriple(runtime.GOOS, runtime.GOARCH))
}

func hostTriple(goos, goarch string) string {
	arch := map[string]string{
		"amd64":    "x86_64",
		"386":      "i686",
		"arm64":    "aarch64",
		"arm":      "armv7",
		"riscv64":  "riscv64gc",
		"ppc64le":  "powerpc64le",
		"ppc64":    "powerpc64",
		"s390x":    "s390x",
		"mips64le": "mips64el",
		"mips64":   "mips64",
		"loong64":  "loongarch64",
		"wasm":     "wasm32",
	}[goarch]
	if arch == "" {
		arch = goarch
	}

	switch goos {
	case "darwin":
		return arch + "-apple-darwin"
	case "ios":
		return arch + "-apple-ios"
	case "windows":
		return arch + "-pc-windows-msvc"
	case "linux":
		if arch == "armv7" {
			return "armv7-unknown-linux-gnueabihf"
		}
		return arch + "-unknown-linux-gnu"
	case "android":
		return arch + "-linux-android"
	case "wasip1":
		return "wasm32-wasip1"
	case "js":
		return "wasm32-unknown-emscripten"
	case "illumos":
		return arch + "-unknown-illumos"
	case "solaris":
		return arch + "-pc-solaris"
	default:
		return arch + "-unknown-" + goos
	}
}
