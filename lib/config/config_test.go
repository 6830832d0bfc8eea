// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workline.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
environment: development
database:
  path: /var/lib/workline/workline.db
  pool_size: 8
notifications:
  link_base: https://workline.example.com
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Database.Path != "/var/lib/workline/workline.db" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
	if cfg.Database.PoolSize != 8 {
		t.Errorf("pool size = %d, want 8", cfg.Database.PoolSize)
	}
	if cfg.Notifications.LinkBase != "https://workline.example.com" {
		t.Errorf("link base = %q", cfg.Notifications.LinkBase)
	}
	if cfg.Reminders.WindowDays != 7 {
		t.Errorf("window days = %d, want default 7", cfg.Reminders.WindowDays)
	}
}

func TestEnvironmentOverridesApply(t *testing.T) {
	path := writeConfig(t, `
environment: production
database:
  path: /tmp/base.db
production:
  database:
    path: /var/lib/workline/prod.db
    pool_size: 16
  reminders:
    window_days: 3
staging:
  database:
    path: /var/lib/workline/staging.db
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Database.Path != "/var/lib/workline/prod.db" {
		t.Errorf("override not applied: path = %q", cfg.Database.Path)
	}
	if cfg.Database.PoolSize != 16 {
		t.Errorf("override not applied: pool size = %d", cfg.Database.PoolSize)
	}
	if cfg.Reminders.WindowDays != 3 {
		t.Errorf("override not applied: window days = %d", cfg.Reminders.WindowDays)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"unknown environment", "environment: chaos\ndatabase:\n  path: /tmp/x.db\n"},
		{"negative pool size", "environment: development\ndatabase:\n  path: /tmp/x.db\n  pool_size: -1\n"},
		{"negative window", "environment: development\ndatabase:\n  path: /tmp/x.db\nreminders:\n  window_days: -2\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadFile(writeConfig(t, tc.content)); err == nil {
				t.Error("invalid config accepted")
			}
		})
	}
}

func TestLoadRequiresEnvVar(t *testing.T) {
	t.Setenv("WORKLINE_CONFIG", "")
	if _, err := Load(); err == nil {
		t.Error("Load without WORKLINE_CONFIG succeeded")
	}
}
