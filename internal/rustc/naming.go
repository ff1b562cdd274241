package rustc

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
)

// probeStem is the crate name used for every synthetic probe compilation.
const probeStem = "comptest"

// CrateType is one of the artifact kinds rustc can emit.
type CrateType int

const (
	CrateBin CrateType = iota
	CrateRlib
	CrateDylib
	CrateStaticlib
	CrateCdylib
	CrateProcMacro
)

// crateTypes is the order rustc reports file names in for the probe
// invocation; it must match the --crate-type list.
var crateTypes = []CrateType{CrateBin, CrateRlib, CrateDylib, CrateStaticlib, CrateCdylib, CrateProcMacro}

func (c CrateType) String() string {
	switch c {
	case CrateBin:
		return "bin"
	case CrateRlib:
		return "rlib"
	case CrateDylib:
		return "dylib"
	case CrateStaticlib:
		return "staticlib"
	case CrateCdylib:
		return "cdylib"
	case CrateProcMacro:
		return "proc-macro"
	default:
		return "unknown"
	}
}

// CrateTypes returns every crate type in the order rustc reports them.
func CrateTypes() []CrateType {
	return append([]CrateType(nil), crateTypes...)
}

func crateTypeList() string {
	names := make([]string, len(crateTypes))
	for i, c := range crateTypes {
		names[i] = c.String()
	}
	return strings.Join(names, ",")
}

// Affix is the text surrounding a crate name in an artifact file name.
type Affix struct {
	Prefix string `json:"prefix"`
	Suffix string `json:"suffix"`
}

// Naming records the artifact naming conventions a compiler reported for a
// target.
type Naming struct {
	// Target is the --target spelling that worked, or the short triple name
	// for compilers that target it without the flag.
	Target    string `json:"target"`
	Exe       Affix  `json:"exe"`
	Rlib      Affix  `json:"rlib"`
	Dylib     Affix  `json:"dylib"`
	Staticlib Affix  `json:"staticlib"`
	Cdylib    Affix  `json:"cdylib"`
	ProcMacro Affix  `json:"proc_macro"`
}

// Affix returns the naming for a crate type.
func (n Naming) Affix(kind CrateType) Affix {
	switch kind {
	case CrateBin:
		return n.Exe
	case CrateRlib:
		return n.Rlib
	case CrateDylib:
		return n.Dylib
	case CrateStaticlib:
		return n.Staticlib
	case CrateCdylib:
		return n.Cdylib
	case CrateProcMacro:
		return n.ProcMacro
	default:
		return Affix{}
	}
}

func (n *Naming) set(kind CrateType, a Affix) {
	switch kind {
	case CrateBin:
		n.Exe = a
	case CrateRlib:
		n.Rlib = a
	case CrateDylib:
		n.Dylib = a
	case CrateStaticlib:
		n.Staticlib = a
	case CrateCdylib:
		n.Cdylib = a
	case CrateProcMacro:
		n.ProcMacro = a
	}
}

// FileName renders the artifact name rustc would produce for stem.
func (n Naming) FileName(kind CrateType, stem string) string {
	a := n.Affix(kind)
	return a.Prefix + stem + a.Suffix
}

var errShortOutput = errors.New("fewer file names than crate types")

// ParseFileNames derives naming conventions from the output of
// `rustc --print file-names` for a crate named stem. Lines are read in
// crateTypes order. The derivation is textual: a prefix is whatever precedes
// stem, a suffix is everything from the first dot.
func ParseFileNames(out []byte, stem string) (Naming, error) {
	var n Naming
	sc := bufio.NewScanner(bytes.NewReader(out))
	for _, kind := range crateTypes {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return Naming{}, err
			}
			return Naming{}, errShortOutput
		}
		line := strings.TrimSuffix(sc.Text(), "\r")
		a := Affix{Suffix: fromFirstDot(line)}
		if kind != CrateBin {
			if idx := strings.Index(line, stem); idx >= 0 {
				a.Prefix = line[:idx]
			}
		}
		n.set(kind, a)
	}
	return n, nil
}

func fromFirstDot(s string) string {
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		return s[idx:]
	}
	return ""
}
