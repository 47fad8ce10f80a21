package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	// Test default version
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}

	// Test that version is at least "dev" or "unknown"
	version := GetVersion()
	if version != "dev" && version != "unknown" {
		// This is fine, version could be set at build time
		t.Logf("Version: %s", version)
	}
}

func TestConfigFields(t *testing.T) {
	// Create a config instance to test field access
	cfg := &Cfg{
		SourcesFile:  "./sources.yml",
		CachePath:    "./cache/orbit.db",
		OutputDir:    "./output",
		WorkerCount:  5,
		FetchTimeout: 20,
		RunTimeout:   300,
		MaxBodySize:  10485760,
		WindowSize:   100,
		MaxItems:     60,
		SiteName:     "Test Planet",
		SiteLink:     "https://planet.example.com/",
		OwnerName:    "Test Owner",
		OwnerEmail:   "owner@example.com",
		Port:         "8080",
		UserAgent:    "Test Agent",
		Timezone:     "UTC",
		Debug:        true,
	}

	// Test direct field access
	if cfg.SourcesFile != "./sources.yml" {
		t.Errorf("Expected sources file './sources.yml', got '%s'", cfg.SourcesFile)
	}
	if cfg.CachePath != "./cache/orbit.db" {
		t.Errorf("Expected cache path './cache/orbit.db', got '%s'", cfg.CachePath)
	}
	if cfg.OutputDir != "./output" {
		t.Errorf("Expected output dir './output', got '%s'", cfg.OutputDir)
	}
	if cfg.WorkerCount != 5 {
		t.Errorf("Expected worker count 5, got %d", cfg.WorkerCount)
	}
	if cfg.FetchTimeout != 20 {
		t.Errorf("Expected fetch timeout 20, got %d", cfg.FetchTimeout)
	}
	if cfg.RunTimeout != 300 {
		t.Errorf("Expected run timeout 300, got %d", cfg.RunTimeout)
	}
	if cfg.MaxBodySize != 10485760 {
		t.Errorf("Expected max body size 10485760, got %d", cfg.MaxBodySize)
	}
	if cfg.WindowSize != 100 {
		t.Errorf("Expected window size 100, got %d", cfg.WindowSize)
	}
	if cfg.MaxItems != 60 {
		t.Errorf("Expected max items 60, got %d", cfg.MaxItems)
	}
	if cfg.SiteName != "Test Planet" {
		t.Errorf("Expected site name 'Test Planet', got '%s'", cfg.SiteName)
	}
	if cfg.SiteLink != "https://planet.example.com/" {
		t.Errorf("Expected site link 'https://planet.example.com/', got '%s'", cfg.SiteLink)
	}
	if cfg.OwnerName != "Test Owner" {
		t.Errorf("Expected owner name 'Test Owner', got '%s'", cfg.OwnerName)
	}
	if cfg.UserAgent != "Test Agent" {
		t.Errorf("Expected user agent 'Test Agent', got '%s'", cfg.UserAgent)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Expected timezone 'UTC', got '%s'", cfg.Timezone)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
}

func TestSetAndGet(t *testing.T) {
	prev := globalCfg
	defer Set(prev)

	want := &Cfg{SiteName: "Roundtrip"}
	Set(want)
	if Get() != want {
		t.Error("Expected Get to return the configuration passed to Set")
	}
}
