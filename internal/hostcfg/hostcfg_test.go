//go:build !tinygo

package hostcfg

import (
	"flag"
	"io"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() err = %v", err)
	}
	if cfg.FlashPath != "sparkcalc.flash" {
		t.Fatalf("FlashPath = %q, want %q", cfg.FlashPath, "sparkcalc.flash")
	}
	if cfg.FlashSize != 65536 || cfg.StateOffset != 0 || cfg.Scale != 2 || cfg.Mute {
		t.Fatalf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SPARK_FLASH_PATH", "/tmp/calc.img")
	t.Setenv("SPARK_STATE_OFFSET", "4096")
	t.Setenv("SPARK_SCALE", "3")
	t.Setenv("SPARK_MUTE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() err = %v", err)
	}
	opts := cfg.HostOptions()
	if opts.FlashPath != "/tmp/calc.img" || opts.Scale != 3 || !opts.Mute {
		t.Fatalf("HostOptions() = %+v", opts)
	}
	if cfg.StateOffset != 4096 {
		t.Fatalf("StateOffset = %d, want 4096", cfg.StateOffset)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{name: "bad size", key: "SPARK_FLASH_SIZE", value: "big"},
		{name: "zero scale", key: "SPARK_SCALE", value: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), "parse env:") {
				t.Fatalf("expected parse env prefix, got %v", err)
			}
		})
	}
}

func TestUint32Var(t *testing.T) {
	tests := []struct {
		arg     string
		want    uint32
		wantErr bool
	}{
		{arg: "4096", want: 4096},
		{arg: "0x2000", want: 0x2000},
		{arg: "4294967295", want: 4294967295},
		{arg: "4294967296", wantErr: true},
		{arg: "-1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			var v uint32 = 7
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			fs.SetOutput(io.Discard)
			Uint32Var(fs, &v, "offset", "")
			err := fs.Parse([]string{"-offset", tt.arg})
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%s) err = nil, value %d", tt.arg, v)
				}
				if v != 7 {
					t.Fatalf("value after rejected %s = %d, want 7", tt.arg, v)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%s) err = %v", tt.arg, err)
			}
			if v != tt.want {
				t.Fatalf("value = %d, want %d", v, tt.want)
			}
		})
	}
}
