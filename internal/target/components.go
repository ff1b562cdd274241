package target

import "strings"

var archAliases = map[string]string{
	"amd64": "x86_64",
	"x64":   "x86_64",
	"arm64": "aarch64",
}

// archFamilies lists architecture prefixes; sub-architectures such as
// thumbv7em or riscv64gc match their family.
var archFamilies = []string{
	"x86_64", "i386", "i486", "i586", "i686",
	"aarch64", "arm64_32", "arm", "thumb",
	"riscv32", "riscv64",
	"mips", "powerpc", "sparc", "s390x",
	"wasm32", "wasm64",
	"loongarch64", "m68k", "avr", "msp430", "hexagon", "xtensa",
	"bpfel", "bpfeb", "nvptx64", "csky", "lcrust",
}

var vendors = map[string]bool{
	"unknown": true, "pc": true, "apple": true, "w64": true, "nvidia": true,
	"fortanix": true, "wrs": true, "sun": true, "ibm": true, "esp": true,
	"espressif": true, "kmc": true, "sony": true, "nintendo": true, "unikraft": true,
	"risc0": true, "uwp": true, "win7": true, "openwrt": true, "lcrust": true,
}

var operatingSystems = map[string]bool{
	"none": true, "unknown": true, "linux": true, "windows": true, "darwin": true,
	"macos": true, "ios": true, "tvos": true, "watchos": true, "visionos": true,
	"freebsd": true, "netbsd": true, "openbsd": true, "dragonfly": true,
	"solaris": true, "illumos": true, "android": true, "fuchsia": true,
	"redox": true, "haiku": true, "hermit": true, "wasi": true, "wasip1": true,
	"wasip2": true, "emscripten": true, "cuda": true, "uefi": true, "l4re": true,
	"vxworks": true, "aix": true, "hurd": true, "nto": true, "horizon": true,
	"psp": true, "vita": true, "espidf": true, "teeos": true, "zkvm": true,
	"solid_asp3": true, "xous": true, "nuttx": true, "rtems": true, "cygwin": true,
	"elf": true, "phantom": true, "snesdev": true,
}

var osAliases = map[string][2]string{
	"mingw32": {"windows", "gnu"},
	"mingw64": {"windows", "gnu"},
	"win32":   {"windows", ""},
}

var objectFormats = map[string]bool{
	"coff": true, "macho": true, "wasm": true, "xcoff": true, "aout": true, "pe": true,
}

var appleOS = map[string]bool{
	"darwin": true, "macos": true, "ios": true, "tvos": true, "watchos": true, "visionos": true,
}

func canonicalArch(s string) (string, bool) {
	if alias, ok := archAliases[s]; ok {
		return alias, true
	}
	for _, family := range archFamilies {
		if strings.HasPrefix(s, family) {
			return s, true
		}
	}
	return "", false
}

func isVendor(s string) bool {
	return vendors[s]
}

// canonicalOS returns the operating system and any environment implied by an
// OS alias such as mingw32. Unknown names pass through unchanged.
func canonicalOS(s string) (string, string) {
	if alias, ok := osAliases[s]; ok {
		return alias[0], alias[1]
	}
	return s, ""
}

func isKnownOS(s string) bool {
	if _, ok := osAliases[s]; ok {
		return true
	}
	return lookup(operatingSystems, s)
}

// elf is deliberately absent: rustc spells it as an OS or environment.
func isObjectFormat(s string) bool {
	return objectFormats[s]
}

// lookup matches a token exactly or with a trailing version number removed,
// so darwin20.1 and qnx710 are recognised.
func lookup(set map[string]bool, s string) bool {
	if set[s] {
		return true
	}
	trimmed := strings.TrimRight(s, "0123456789._")
	return trimmed != "" && trimmed != s && set[trimmed]
}

func defaultVendor(arch, os string) string {
	switch {
	case appleOS[os]:
		return "apple"
	case os == "windows":
		return "pc"
	case arch == "x86_64" || (len(arch) == 4 && arch[0] == 'i' && strings.HasSuffix(arch, "86")):
		if os == "none" || os == "unknown" || os == "elf" {
			return "unknown"
		}
		return "pc"
	default:
		return "unknown"
	}
}
