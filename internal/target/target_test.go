package target

import (
	"encoding/json"
	"testing"
)

func TestParseCanonical(t *testing.T) {
	tests := []struct {
		in                            string
		full                          string
		arch, vendor, os, env, objfmt string
	}{
		{"x86_64-unknown-linux-gnu", "x86_64-unknown-linux-gnu", "x86_64", "unknown", "linux", "gnu", ""},
		{"x86_64-linux-gnu", "x86_64-pc-linux-gnu", "x86_64", "pc", "linux", "gnu", ""},
		{"aarch64-linux-gnu", "aarch64-unknown-linux-gnu", "aarch64", "unknown", "linux", "gnu", ""},
		{"arm64-apple-darwin", "aarch64-apple-darwin", "aarch64", "apple", "darwin", "", ""},
		{"x86_64-apple-darwin20.1", "x86_64-apple-darwin20.1", "x86_64", "apple", "darwin20.1", "", ""},
		{"thumbv7em-none-eabihf", "thumbv7em-unknown-none-eabihf", "thumbv7em", "unknown", "none", "eabihf", ""},
		{"wasm32-unknown-unknown", "wasm32-unknown-unknown", "wasm32", "unknown", "unknown", "", ""},
		{"wasm32-wasip1", "wasm32-unknown-wasip1", "wasm32", "unknown", "wasip1", "", ""},
		{"i686-w64-mingw32", "i686-w64-windows-gnu", "i686", "w64", "windows", "gnu", ""},
		{"x86_64-pc-windows-msvc", "x86_64-pc-windows-msvc", "x86_64", "pc", "windows", "msvc", ""},
		{"riscv32imac-unknown-none-elf", "riscv32imac-unknown-none-elf", "riscv32imac", "unknown", "none", "elf", ""},
		{"x86_64-fortanix-unknown-sgx", "x86_64-fortanix-unknown-sgx", "x86_64", "fortanix", "unknown", "sgx", ""},
		{"x86_64-pc-nto-qnx710", "x86_64-pc-nto-qnx710", "x86_64", "pc", "nto", "qnx710", ""},
		{"x86_64-unknown-windows-gnu-coff", "x86_64-unknown-windows-gnu-coff", "x86_64", "unknown", "windows", "gnu", "coff"},
		{"x86_64-elf", "x86_64-unknown-elf", "x86_64", "unknown", "elf", "", ""},
		{"thumbv8m.main-none-eabihf", "thumbv8m.main-unknown-none-eabihf", "thumbv8m.main", "unknown", "none", "eabihf", ""},
		{"x86_64-unknown-windows-coff", "x86_64-unknown-windows-coff", "x86_64", "unknown", "windows", "", "coff"},
		// names missing from the lookup tables are kept verbatim
		{"avr-unknown-gnu-atmega328", "avr-unknown-gnu-atmega328", "avr", "unknown", "gnu", "atmega328", ""},
		{"x86_64-unknown-linux-none", "x86_64-unknown-linux-none", "x86_64", "unknown", "linux", "none", ""},
		{"aarch64-unknown-trusty", "aarch64-unknown-trusty", "aarch64", "unknown", "trusty", "", ""},
		{"armv6k-nintendo-3ds", "armv6k-nintendo-3ds", "armv6k", "nintendo", "3ds", "", ""},
		{"mipsel-sony-psx", "mipsel-sony-psx", "mipsel", "sony", "psx", "", ""},
		{"x86_64-lynx-lynxos178", "x86_64-lynx-lynxos178", "x86_64", "lynx", "lynxos178", "", ""},
		{"aarch64-unknown-linux-gnu_ilp32", "aarch64-unknown-linux-gnu_ilp32", "aarch64", "unknown", "linux", "gnu_ilp32", ""},
		{"x86_64-unknown-plan10-gnu", "x86_64-unknown-plan10-gnu", "x86_64", "unknown", "plan10", "gnu", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.in, err)
			}
			if got.Name() != tt.in {
				t.Errorf("Name() = %q, want %q", got.Name(), tt.in)
			}
			if got.String() != tt.full {
				t.Errorf("String() = %q, want %q", got.String(), tt.full)
			}
			if got.Arch() != tt.arch || got.Vendor() != tt.vendor || got.OS() != tt.os ||
				got.Env() != tt.env || got.ObjectFormat() != tt.objfmt {
				t.Errorf("components = %q/%q/%q/%q/%q", got.Arch(), got.Vendor(), got.OS(), got.Env(), got.ObjectFormat())
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "x86_64", "z80-unknown-linux-gnu", "x86_64-pc", "x86_64--linux-gnu", "x86_64-unknown-linux-", "x86_64-unknown-linux-gnu-bogus", "x86_64-unknown-linux-gnu-coff-extra"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) expected error", in)
		}
	}
}

func TestNormalizedOnlyChangesVendor(t *testing.T) {
	orig := MustParse("i686-w64-mingw32")
	norm := orig.Normalized()

	if norm.Vendor() != "unknown" {
		t.Fatalf("vendor = %q, want unknown", norm.Vendor())
	}
	if norm.Arch() != orig.Arch() || norm.OS() != orig.OS() || norm.Env() != orig.Env() || norm.ObjectFormat() != orig.ObjectFormat() {
		t.Fatalf("normalization changed other components: %+v vs %+v", norm, orig)
	}
	if norm.String() != "i686-unknown-windows-gnu" {
		t.Fatalf("String() = %q", norm.String())
	}
	if norm.Name() != norm.String() {
		t.Fatalf("normalized name should be its canonical string, got %q", norm.Name())
	}
	// original untouched
	if orig.Vendor() != "w64" || orig.Name() != "i686-w64-mingw32" {
		t.Fatalf("original mutated: %+v", orig)
	}
}

func TestEqualIgnoresSpelling(t *testing.T) {
	if !MustParse("amd64-pc-linux-gnu").Equal(MustParse("x86_64-linux-gnu")) {
		t.Fatal("expected spellings of the same triple to be equal")
	}
	if MustParse("x86_64-unknown-linux-gnu").Equal(MustParse("x86_64-unknown-linux-musl")) {
		t.Fatal("different environments must not be equal")
	}
}

func TestHostTriple(t *testing.T) {
	tests := []struct {
		goos, goarch, want string
	}{
		{"linux", "amd64", "x86_64-unknown-linux-gnu"},
		{"linux", "arm64", "aarch64-unknown-linux-gnu"},
		{"linux", "arm", "armv7-unknown-linux-gnueabihf"},
		{"darwin", "arm64", "aarch64-apple-darwin"},
		{"windows", "amd64", "x86_64-pc-windows-msvc"},
		{"freebsd", "amd64", "x86_64-unknown-freebsd"},
	}
	for _, tt := range tests {
		got := hostTriple(tt.goos, tt.goarch)
		if got != tt.want {
			t.Errorf("hostTriple(%s, %s) = %q, want %q", tt.goos, tt.goarch, got, tt.want)
		}
		if _, err := Parse(got); err != nil {
			t.Errorf("host triple %q does not parse: %v", got, err)
		}
	}
	if Host().IsZero() {
		t.Fatal("Host() returned zero target")
	}
}

func TestTextRoundTrip(t *testing.T) {
	var out struct {
		Target Target `json:"target"`
	}
	if err := json.Unmarshal([]byte(`{"target":"x86_64-linux-gnu"}`), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Target.String() != "x86_64-pc-linux-gnu" {
		t.Fatalf("String() = %q", out.Target.String())
	}
	data, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"target":"x86_64-linux-gnu"}` {
		t.Fatalf("marshal = %s", data)
	}
}
