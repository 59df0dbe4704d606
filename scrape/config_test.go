package scrape

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bidwatch.yaml")
	data := `
base_url: https://philgeps.gov.ph
database: /var/lib/bidwatch/bidwatch.db
browser:
  headful: true
  user_data_dir: /var/lib/bidwatch/profile
run:
  workers: 4
  delay_seconds: 3
filters:
  publish_date_from: AUTO
  classification: "1"
blocking:
  block_markers: ["custom challenge"]
schedule:
  enabled: true
  hour: 5
  minute: 30
notify:
  host: smtp.example.ph
  to: [ops@example.ph]
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Run.Workers != 4 {
		t.Errorf("workers = %d", cfg.Run.Workers)
	}
	if cfg.Run.delay() != 3*time.Second {
		t.Errorf("delay = %v", cfg.Run.delay())
	}
	// Unset fields fall back to defaults.
	if cfg.Run.timeout() != 30*time.Second {
		t.Errorf("timeout default = %v", cfg.Run.timeout())
	}
	if cfg.Run.MaxRetries != 3 {
		t.Errorf("retries default = %d", cfg.Run.MaxRetries)
	}
	if cfg.API.Listen != ":8089" {
		t.Errorf("listen default = %q", cfg.API.Listen)
	}
	if !cfg.Browser.Headful || cfg.Browser.UserDataDir == "" {
		t.Errorf("browser = %+v", cfg.Browser)
	}
	if cfg.Schedule.Hour != 5 || cfg.Schedule.Minute != 30 {
		t.Errorf("schedule = %+v", cfg.Schedule)
	}
	if len(cfg.Blocking.BlockMarkers) != 1 {
		t.Errorf("markers = %v", cfg.Blocking.BlockMarkers)
	}
	if cfg.Notify.Port != 587 {
		t.Errorf("smtp port default = %d", cfg.Notify.Port)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.BaseURL != "https://philgeps.gov.ph" {
		t.Errorf("base url = %q", cfg.BaseURL)
	}
	if cfg.Database == "" || cfg.Run.Workers <= 0 {
		t.Errorf("defaults missing: %+v", cfg)
	}
}
