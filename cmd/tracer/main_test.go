package main

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/lumenray/tracer/pkg/engineconfig"
)

func TestApplyModeSetsExactlyOneIntegrator(t *testing.T) {
	tests := []struct {
		mode    string
		checkPT bool
		checkLT bool
		checkIB bool
		checkML bool
	}{
		{"pt", true, false, false, false},
		{"lt", false, true, false, false},
		{"ibpt", false, false, true, false},
		{"mmlt", false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			cfg := engineconfig.Default()
			if err := applyMode(&cfg, tt.mode); err != nil {
				t.Fatalf("applyMode(%q) returned error: %v", tt.mode, err)
			}
			if cfg.PathTracingEnabled != tt.checkPT {
				t.Errorf("PathTracingEnabled = %v, want %v", cfg.PathTracingEnabled, tt.checkPT)
			}
			if cfg.LightTracingEnabled != tt.checkLT {
				t.Errorf("LightTracingEnabled = %v, want %v", cfg.LightTracingEnabled, tt.checkLT)
			}
			if cfg.IBPTEnabled != tt.checkIB {
				t.Errorf("IBPTEnabled = %v, want %v", cfg.IBPTEnabled, tt.checkIB)
			}
			if cfg.EnableMLT != tt.checkML {
				t.Errorf("EnableMLT = %v, want %v", cfg.EnableMLT, tt.checkML)
			}
		})
	}
}

func TestApplyModeRejectsUnknownMode(t *testing.T) {
	cfg := engineconfig.Default()
	if err := applyMode(&cfg, "bogus"); err == nil {
		t.Error("applyMode(\"bogus\") = nil error, want an error")
	}
}

func TestApplyModeClearsPreviousSelection(t *testing.T) {
	cfg := engineconfig.Default() // PathTracingEnabled: true by default
	if err := applyMode(&cfg, "lt"); err != nil {
		t.Fatalf("applyMode(\"lt\") returned error: %v", err)
	}
	if cfg.PathTracingEnabled {
		t.Error("applyMode(\"lt\") left PathTracingEnabled set from the prior default")
	}
	if !cfg.LightTracingEnabled {
		t.Error("applyMode(\"lt\") did not enable LightTracingEnabled")
	}
}

func TestModeName(t *testing.T) {
	tests := []struct {
		mode engineconfig.IntegratorMode
		want string
	}{
		{engineconfig.ModePathTracing, "pt"},
		{engineconfig.ModeLightTracing, "lt"},
		{engineconfig.ModeIBPT, "ibpt"},
		{engineconfig.ModeMMLT, "mmlt"},
		{engineconfig.ModeUnset, "unset"},
	}
	for _, tt := range tests {
		if got := modeName(tt.mode); got != tt.want {
			t.Errorf("modeName(%v) = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestSavePNGWritesReadableImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.png")

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	if err := savePNG(path, img); err != nil {
		t.Fatalf("savePNG returned error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open saved PNG: %v", err)
	}
	defer f.Close()

	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("failed to decode saved PNG: %v", err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Errorf("decoded bounds = %v, want %v", decoded.Bounds(), img.Bounds())
	}
}

func TestSavePNGRejectsUnwritablePath(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	if err := savePNG(filepath.Join(t.TempDir(), "missing-dir", "out.png"), img); err == nil {
		t.Error("savePNG into a nonexistent directory = nil error, want an error")
	}
}

func TestDefaultSceneProviderReturnsError(t *testing.T) {
	if _, err := SceneProvider(engineconfig.Default()); err == nil {
		t.Error("default SceneProvider = nil error, want an error reporting no scene linked")
	}
}

func TestNewRootCmdRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	want := map[string]bool{"render": false, "list-devices": false, "gbuffer-dump": false}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("newRootCmd() did not register subcommand %q", name)
		}
	}
}

func TestNewRootCmdDefaultModeFlagIsPT(t *testing.T) {
	root := newRootCmd()
	flag := root.PersistentFlags().Lookup("mode")
	if flag == nil {
		t.Fatal("newRootCmd() did not register a --mode flag")
	}
	if flag.DefValue != "pt" {
		t.Errorf("--mode default = %q, want %q", flag.DefValue, "pt")
	}
}
