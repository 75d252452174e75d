package types

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty backend returns ErrBackendEmpty",
			config:  Config{Backend: "", DataDir: "/tmp/data"},
			wantErr: ErrBackendEmpty,
		},
		{
			name:    "unknown backend returns ErrBackendUnknown",
			config:  Config{Backend: "postgres", DataDir: "/tmp/data"},
			wantErr: ErrBackendUnknown,
		},
		{
			name:    "negative busy timeout is rejected",
			config:  Config{Backend: "sqlite", BusyTimeoutMS: -1},
			wantErr: ErrBusyTimeoutInvalid,
		},
		{
			name:    "valid sqlite config",
			config:  Config{Backend: "sqlite", DataDir: "/tmp/data"},
			wantErr: nil,
		},
		{
			name:    "sqlite with empty DataDir is valid at config level",
			config:  Config{Backend: "sqlite", DataDir: ""},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %v, got nil", tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigDatabasePath(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{"explicit db path wins", Config{DataDir: "/data", DBPath: "/elsewhere/k.db"}, "/elsewhere/k.db"},
		{"data dir default file", Config{DataDir: "/data"}, filepath.Join("/data", DefaultDBFile)},
		{"current directory fallback", Config{}, filepath.Join(".", DefaultDBFile)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.config.DatabasePath(); got != tt.want {
				t.Errorf("DatabasePath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfigBusyTimeout(t *testing.T) {
	if got := (Config{}).BusyTimeout(); got != DefaultBusyTimeoutMS {
		t.Errorf("default BusyTimeout() = %d, want %d", got, DefaultBusyTimeoutMS)
	}
	if got := (Config{BusyTimeoutMS: 250}).BusyTimeout(); got != 250 {
		t.Errorf("BusyTimeout() = %d, want 250", got)
	}
}
