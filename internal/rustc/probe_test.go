package rustc

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"buildprobe/internal/runner"
	"buildprobe/internal/target"
)

type call struct {
	command string
	args    []string
}

// fakeCompiler answers the invocations a probe session makes without
// spawning anything.
type fakeCompiler struct {
	path      string
	accept    map[string]bool // --target values accepted; "" means no flag
	fileNames string
	version   string
	buildBin  bool
	buildRlib bool
	runExit   int
	launchErr map[string]error // keyed by call kind: predict, version, bin, rlib, run

	calls []call
}

func newFakeCompiler(path string) *fakeCompiler {
	return &fakeCompiler{
		path:      path,
		accept:    map[string]bool{},
		fileNames: linuxFileNames,
		version:   "rustc 1.70.0\n",
		buildBin:  true,
		buildRlib: true,
		launchErr: map[string]error{},
	}
}

func (f *fakeCompiler) Run(_ context.Context, command string, args []string, _ runner.Options) (runner.Result, error) {
	f.calls = append(f.calls, call{command: command, args: append([]string(nil), args...)})

	if command != f.path {
		if err := f.launchErr["run"]; err != nil {
			return runner.Result{}, err
		}
		return runner.Result{ExitCode: f.runExit}, nil
	}

	switch {
	case containsArg(args, "--print"):
		if err := f.launchErr["predict"]; err != nil {
			return runner.Result{}, err
		}
		if !f.accept[argAfter(args, "--target")] {
			return runner.Result{ExitCode: 1}, nil
		}
		return runner.Result{Stdout: []byte(f.fileNames)}, nil
	case containsArg(args, "--version"):
		if err := f.launchErr["version"]; err != nil {
			return runner.Result{}, err
		}
		return runner.Result{Stdout: []byte(f.version)}, nil
	case argAfter(args, "--crate-type") == "bin":
		if err := f.launchErr["bin"]; err != nil {
			return runner.Result{}, err
		}
		return exitResult(f.buildBin), nil
	case argAfter(args, "--crate-type") == "rlib":
		if err := f.launchErr["rlib"]; err != nil {
			return runner.Result{}, err
		}
		return exitResult(f.buildRlib), nil
	}
	return runner.Result{ExitCode: 2}, nil
}

func (f *fakeCompiler) callsMatching(pred func(call) bool) []call {
	var out []call
	for _, c := range f.calls {
		if pred(c) {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeCompiler) predictions() []call {
	return f.callsMatching(func(c call) bool { return containsArg(c.args, "--print") })
}

func (f *fakeCompiler) executions() []call {
	return f.callsMatching(func(c call) bool { return c.command != f.path })
}

func exitResult(ok bool) runner.Result {
	if ok {
		return runner.Result{}
	}
	return runner.Result{ExitCode: 1}
}

func containsArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

func argAfter(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func noEnv(string) (string, bool) { return "", false }

func testOptions(t *testing.T, fake *fakeCompiler, triple string) Options {
	t.Helper()
	return Options{
		Target:     target.MustParse(triple),
		ScratchDir: t.TempDir(),
		Compiler:   fake.path,
		LookupEnv:  noEnv,
		Runner:     fake,
		Logger:     log.New(io.Discard, "", 0),
	}
}

func TestProbeShortNameAccepted(t *testing.T) {
	fake := newFakeCompiler("/opt/rust/bin/rustc")
	fake.accept["x86_64-unknown-linux-gnu"] = true

	tc, err := Probe(context.Background(), testOptions(t, fake, "x86_64-unknown-linux-gnu"))
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}

	if want := []string{"-O", "-g", "--target", "x86_64-unknown-linux-gnu"}; !reflect.DeepEqual(tc.Flags, want) {
		t.Fatalf("flags = %q, want %q", tc.Flags, want)
	}
	if tc.Naming.Target != "x86_64-unknown-linux-gnu" {
		t.Fatalf("naming target = %q", tc.Naming.Target)
	}
	if got := len(fake.predictions()); got != 1 {
		t.Fatalf("expected exactly one prediction, got %d", got)
	}
	if tc.NoStd {
		t.Fatal("expected hosted toolchain")
	}
	if tc.Version != (Version{Program: "rustc", Major: 1, Minor: 70, Channel: Stable}) {
		t.Fatalf("version = %+v", tc.Version)
	}
	if got := len(fake.executions()); got != 1 {
		t.Fatalf("expected produced binary to run once, got %d", got)
	}
}

func TestProbeFallbackOrder(t *testing.T) {
	tests := []struct {
		name       string
		triple     string
		accept     string
		wantCalls  []string
		wantTarget string
	}{
		{
			name:       "canonical string",
			triple:     "x86_64-linux-gnu",
			accept:     "x86_64-pc-linux-gnu",
			wantCalls:  []string{"x86_64-linux-gnu", "x86_64-pc-linux-gnu"},
			wantTarget: "x86_64-pc-linux-gnu",
		},
		{
			name:       "vendor normalized",
			triple:     "x86_64-linux-gnu",
			accept:     "x86_64-unknown-linux-gnu",
			wantCalls:  []string{"x86_64-linux-gnu", "x86_64-pc-linux-gnu", "x86_64-unknown-linux-gnu"},
			wantTarget: "x86_64-unknown-linux-gnu",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeCompiler("/usr/bin/rustc")
			fake.accept[tt.accept] = true

			tc, err := Probe(context.Background(), testOptions(t, fake, tt.triple))
			if err != nil {
				t.Fatalf("Probe: %v", err)
			}
			var got []string
			for _, c := range fake.predictions() {
				got = append(got, argAfter(c.args, "--target"))
			}
			if !reflect.DeepEqual(got, tt.wantCalls) {
				t.Fatalf("attempted %q, want %q", got, tt.wantCalls)
			}
			if tc.Naming.Target != tt.wantTarget {
				t.Fatalf("naming target = %q", tc.Naming.Target)
			}
			if n := len(tc.Flags); n < 2 || tc.Flags[n-2] != "--target" || tc.Flags[n-1] != tt.wantTarget {
				t.Fatalf("flags = %q", tc.Flags)
			}
		})
	}
}

func TestProbeSelfNamedCompiler(t *testing.T) {
	fake := newFakeCompiler("/opt/cross/bin/aarch64-linux-gnu-gccrs")
	fake.accept[""] = true

	opts := testOptions(t, fake, "aarch64-linux-gnu")
	opts.CrossCompiling = true
	tc, err := Probe(context.Background(), opts)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	preds := fake.predictions()
	if len(preds) != 1 || containsArg(preds[0].args, "--target") {
		t.Fatalf("self-named compiler must be invoked once without --target: %+v", preds)
	}
	if !reflect.DeepEqual(tc.Flags, []string{"-O", "-g"}) {
		t.Fatalf("flags must not gain --target: %q", tc.Flags)
	}
	if tc.Naming.Target != "aarch64-linux-gnu" {
		t.Fatalf("naming target = %q", tc.Naming.Target)
	}
}

func TestProbeSelfNamedCompilerDoesNotFallBack(t *testing.T) {
	fake := newFakeCompiler("/opt/cross/bin/aarch64-linux-gnu-gccrs")
	fake.accept["aarch64-linux-gnu"] = true

	_, err := Probe(context.Background(), testOptions(t, fake, "aarch64-linux-gnu"))
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if got := len(fake.predictions()); got != 1 {
		t.Fatalf("expected one attempt, got %d", got)
	}
}

func TestProbeAllAttemptsRejected(t *testing.T) {
	fake := newFakeCompiler("/usr/bin/rustc")

	_, err := Probe(context.Background(), testOptions(t, fake, "x86_64-linux-gnu"))
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	var pe *ProbeError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ProbeError, got %T", err)
	}
	if pe.Compiler != "/usr/bin/rustc" || pe.Target != "x86_64-linux-gnu" {
		t.Fatalf("error lacks context: %+v", pe)
	}
	if got := len(fake.predictions()); got != 3 {
		t.Fatalf("expected three attempts, got %d", got)
	}
}

func TestProbeLaunchFailureStopsFallback(t *testing.T) {
	fake := newFakeCompiler("/usr/bin/rustc")
	launch := errors.New("exec format error")
	fake.launchErr["predict"] = launch

	_, err := Probe(context.Background(), testOptions(t, fake, "x86_64-linux-gnu"))
	if !errors.Is(err, launch) {
		t.Fatalf("expected launch error, got %v", err)
	}
	if errors.Is(err, ErrUnsupported) {
		t.Fatal("launch failures must not be reported as unsupported")
	}
	if got := len(fake.predictions()); got != 1 {
		t.Fatalf("expected a single attempt, got %d", got)
	}
}

func TestProbeShortFileNameOutput(t *testing.T) {
	fake := newFakeCompiler("/usr/bin/rustc")
	fake.accept["x86_64-unknown-linux-gnu"] = true
	fake.fileNames = "comptest\nlibcomptest.rlib\n"

	_, err := Probe(context.Background(), testOptions(t, fake, "x86_64-unknown-linux-gnu"))
	if !errors.Is(err, ErrUnsupported) || !strings.Contains(err.Error(), "/usr/bin/rustc") {
		t.Fatalf("expected unsupported error naming the compiler, got %v", err)
	}
}

func TestProbeVersionFailures(t *testing.T) {
	for _, out := range []string{"", "\n", "rustc\n", "rustc 1.x.0\n"} {
		fake := newFakeCompiler("/usr/bin/rustc")
		fake.accept["x86_64-unknown-linux-gnu"] = true
		fake.version = out

		_, err := Probe(context.Background(), testOptions(t, fake, "x86_64-unknown-linux-gnu"))
		if !errors.Is(err, ErrUnsupported) {
			t.Errorf("version %q: expected ErrUnsupported, got %v", out, err)
			continue
		}
		if !strings.Contains(err.Error(), "/usr/bin/rustc") {
			t.Errorf("version %q: error should name compiler: %v", out, err)
		}
	}
}

func TestProbeVersionQueryHasNoFlags(t *testing.T) {
	fake := newFakeCompiler("/usr/bin/rustc")
	fake.accept["x86_64-unknown-linux-gnu"] = true

	if _, err := Probe(context.Background(), testOptions(t, fake, "x86_64-unknown-linux-gnu")); err != nil {
		t.Fatal(err)
	}
	versions := fake.callsMatching(func(c call) bool { return containsArg(c.args, "--version") })
	if len(versions) != 1 || !reflect.DeepEqual(versions[0].args, []string{"--version"}) {
		t.Fatalf("unexpected version query: %+v", versions)
	}
}

func TestProbeNoStdFallback(t *testing.T) {
	fake := newFakeCompiler("/usr/bin/rustc")
	fake.accept["thumbv7em-none-eabihf"] = true
	fake.buildBin = false
	fake.fileNames = "comptest\nlibcomptest.rlib\nlibcomptest.so\nlibcomptest.a\nlibcomptest.so\nlibcomptest.so\n"

	opts := testOptions(t, fake, "thumbv7em-none-eabihf")
	tc, err := Probe(context.Background(), opts)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if !tc.NoStd {
		t.Fatal("expected no_std toolchain")
	}
	if got := len(fake.executions()); got != 0 {
		t.Fatalf("no binary may be executed, got %d executions", got)
	}

	src, err := os.ReadFile(filepath.Join(opts.ScratchDir, "comptest.rs"))
	if err != nil {
		t.Fatal(err)
	}
	if string(src) != freestandingSource {
		t.Fatalf("scratch source = %q", src)
	}
	rlib := fake.callsMatching(func(c call) bool { return argAfter(c.args, "--crate-type") == "rlib" })
	if len(rlib) != 1 {
		t.Fatalf("expected one rlib build, got %d", len(rlib))
	}
	wantEmit := "link=" + filepath.Join(opts.ScratchDir, "libcomptest.rlib")
	if got := argAfter(rlib[0].args, "--emit"); got != wantEmit {
		t.Fatalf("--emit %q, want %q", got, wantEmit)
	}
}

func TestProbeUnusableToolchain(t *testing.T) {
	fake := newFakeCompiler("/usr/bin/rustc")
	fake.accept["x86_64-unknown-linux-gnu"] = true
	fake.buildBin = false
	fake.buildRlib = false

	_, err := Probe(context.Background(), testOptions(t, fake, "x86_64-unknown-linux-gnu"))
	if !errors.Is(err, ErrUnsupported) || !strings.Contains(err.Error(), "cannot compile simple test program") {
		t.Fatalf("expected terminal unsupported error, got %v", err)
	}
}

func TestProbeBinaryDoesNotRun(t *testing.T) {
	fake := newFakeCompiler("/usr/bin/rustc")
	fake.accept["x86_64-unknown-linux-gnu"] = true
	fake.runExit = 139

	_, err := Probe(context.Background(), testOptions(t, fake, "x86_64-unknown-linux-gnu"))
	if !errors.Is(err, ErrUnsupported) || !strings.Contains(err.Error(), "cannot execute binaries produced by") {
		t.Fatalf("expected execution failure, got %v", err)
	}
}

func TestProbeCrossCompilingNeverExecutes(t *testing.T) {
	fake := newFakeCompiler("/usr/bin/rustc")
	fake.accept["aarch64-unknown-linux-gnu"] = true
	fake.runExit = 1

	opts := testOptions(t, fake, "aarch64-unknown-linux-gnu")
	opts.CrossCompiling = true
	tc, err := Probe(context.Background(), opts)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if tc.NoStd {
		t.Fatal("binary build succeeded, toolchain must not be no_std")
	}
	if got := len(fake.executions()); got != 0 {
		t.Fatalf("cross sessions must not execute binaries, got %d", got)
	}
}

func TestProbeExecutesBinaryAtProbedPath(t *testing.T) {
	fake := newFakeCompiler("/usr/bin/rustc")
	fake.accept["x86_64-pc-windows-gnu"] = true
	fake.fileNames = "comptest.exe\nlibcomptest.rlib\ncomptest.dll\nlibcomptest.a\ncomptest.dll\ncomptest.dll\n"

	opts := testOptions(t, fake, "x86_64-pc-windows-gnu")
	if _, err := Probe(context.Background(), opts); err != nil {
		t.Fatal(err)
	}
	execs := fake.executions()
	if len(execs) != 1 || execs[0].command != filepath.Join(opts.ScratchDir, "comptest.exe") {
		t.Fatalf("unexpected executions: %+v", execs)
	}
}

func TestProbeRelativeScratchDir(t *testing.T) {
	fake := newFakeCompiler("/usr/bin/rustc")
	fake.accept["x86_64-unknown-linux-gnu"] = true

	dir := t.TempDir()
	t.Chdir(dir)
	opts := testOptions(t, fake, "x86_64-unknown-linux-gnu")
	opts.ScratchDir = "."
	if _, err := Probe(context.Background(), opts); err != nil {
		t.Fatal(err)
	}
	execs := fake.executions()
	if len(execs) != 1 || !filepath.IsAbs(execs[0].command) {
		t.Fatalf("binary must run by absolute path, got %+v", execs)
	}
	if filepath.Dir(execs[0].command) != filepath.Clean(mustGetwd(t)) {
		t.Fatalf("binary ran outside the scratch dir: %q", execs[0].command)
	}
}

func mustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	return wd
}

func TestProbeFlagsFromEnvironment(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want []string
	}{
		{"default", nil, []string{"-O", "-g"}},
		{"override", map[string]string{"RUSTFLAGS": "-C opt-level=s"}, []string{"-C", "opt-level=s"}},
		{"empty override", map[string]string{"RUSTFLAGS": ""}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeCompiler("/usr/bin/rustc")
			fake.accept["x86_64-unknown-linux-gnu"] = true
			opts := testOptions(t, fake, "x86_64-unknown-linux-gnu")
			opts.LookupEnv = func(k string) (string, bool) {
				v, ok := tt.env[k]
				return v, ok
			}

			tc, err := Probe(context.Background(), opts)
			if err != nil {
				t.Fatal(err)
			}
			want := append(append([]string(nil), tt.want...), "--target", "x86_64-unknown-linux-gnu")
			if !reflect.DeepEqual(tc.Flags, want) {
				t.Fatalf("flags = %q, want %q", tc.Flags, want)
			}
			first := fake.predictions()[0].args
			if len(tt.want) > 0 && !reflect.DeepEqual(first[:len(tt.want)], tt.want) {
				t.Fatalf("prediction did not start with flags: %q", first)
			}
		})
	}
}

func TestLocateCompiler(t *testing.T) {
	var searched []string
	locate := func(names ...string) (string, error) {
		searched = append([]string(nil), names...)
		return "/found/" + names[0], nil
	}
	triple := target.MustParse("x86_64-unknown-linux-gnu")

	tests := []struct {
		name     string
		opts     Options
		want     string
		searched []string
	}{
		{
			name:     "candidates",
			opts:     Options{Target: triple},
			want:     "/found/rustc",
			searched: []string{"rustc", "lcrustc", "x86_64-unknown-linux-gnu-gccrs", "gccrs"},
		},
		{
			name:     "bare env name is searched",
			opts:     Options{Target: triple, LookupEnv: func(k string) (string, bool) { return "lcrustc", k == "RUSTC" }},
			want:     "/found/lcrustc",
			searched: []string{"lcrustc"},
		},
		{
			name: "explicit path wins over env",
			opts: Options{Target: triple, Compiler: "/opt/rustc", LookupEnv: func(string) (string, bool) { return "other", true }},
			want: "/opt/rustc",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searched = nil
			tt.opts.Locate = locate
			if tt.opts.LookupEnv == nil {
				tt.opts.LookupEnv = noEnv
			}
			tt.opts.applyDefaults()
			got, err := locateCompiler(tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if runtime.GOOS != "windows" && got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
			if !reflect.DeepEqual(searched, tt.searched) {
				t.Fatalf("searched %q, want %q", searched, tt.searched)
			}
		})
	}
}

func TestProbeCompilerNotFound(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	_, err := Probe(context.Background(), Options{
		Target:     target.MustParse("x86_64-unknown-linux-gnu"),
		ScratchDir: t.TempDir(),
		LookupEnv:  noEnv,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

type recordingReporter struct {
	events []string
}

func (r *recordingReporter) PhaseStarted(p Phase) { r.events = append(r.events, "start:"+string(p)) }
func (r *recordingReporter) PhaseFinished(p Phase, detail string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.events = append(r.events, "finish:"+string(p)+":"+status)
}

func TestProbeReportsPhases(t *testing.T) {
	fake := newFakeCompiler("/usr/bin/rustc")
	fake.accept["x86_64-unknown-linux-gnu"] = true
	rep := &recordingReporter{}
	opts := testOptions(t, fake, "x86_64-unknown-linux-gnu")
	opts.Reporter = rep

	if _, err := Probe(context.Background(), opts); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"start:locate", "finish:locate:ok",
		"start:target", "finish:target:ok",
		"start:version", "finish:version:ok",
		"start:validate", "finish:validate:ok",
	}
	if !reflect.DeepEqual(rep.events, want) {
		t.Fatalf("events = %q", rep.events)
	}
}

func TestProbeRequiresTargetAndScratch(t *testing.T) {
	if _, err := Probe(context.Background(), Options{ScratchDir: t.TempDir()}); err == nil {
		t.Fatal("expected error without target")
	}
	if _, err := Probe(context.Background(), Options{Target: target.Host()}); err == nil {
		t.Fatal("expected error without scratch dir")
	}
}
