package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// RemaConfig holds everything the REMA 1000 sync pipeline needs. The values
// below are empirically tuned against api.digital.rema1000.dk and are kept in
// configuration because they are not portable to other upstreams.
type RemaConfig struct {
	BaseURL string `yaml:"base_url"`
	Source  string `yaml:"source"`
	Store   string `yaml:"store"`

	// RequestDelay is the minimum spacing between two requests to the
	// upstream host.
	RequestDelay time.Duration `yaml:"request_delay"`
	// BatchBudget bounds one batch invocation's wall clock.
	BatchBudget time.Duration `yaml:"batch_budget"`

	// MaintenanceSampleRate is the probability (0..1) that a post-batch
	// maintenance pass actually runs.
	MaintenanceSampleRate float64 `yaml:"maintenance_sample_rate"`
	// HistoryRetention is the age past which price history rows are purged.
	HistoryRetention time.Duration `yaml:"history_retention"`

	// Departments maps an upstream department code onto a category shown to
	// users. Several codes may share a category; unknown codes resolve to
	// CategoryFallback.
	Departments map[int]string `yaml:"departments"`
	// DepartmentsCSV optionally points at a legacy department export to
	// import on startup, on top of the Departments table above.
	DepartmentsCSV string `yaml:"departments_csv"`
	// PriorityCategories are refreshed on every tiered delta run; the rest
	// only every StableRefreshEvery runs.
	PriorityCategories []string `yaml:"priority_categories"`
	StableRefreshEvery int      `yaml:"stable_refresh_every"`

	// ScanRanges drives the brute-force ID discovery fallback.
	ScanRanges []ScanRange `yaml:"scan_ranges"`
	// ScanProductCeiling stops an ID scan once that many products were found.
	ScanProductCeiling int `yaml:"scan_product_ceiling"`
	// KnownProductIDs seed the last-resort discovery tactic.
	KnownProductIDs []int `yaml:"known_product_ids"`

	// DeltaStrategy forces a strategy ("change-feed", "conditional-refresh",
	// "tiered-refresh") instead of probing the upstream for capabilities.
	// Empty means probe.
	DeltaStrategy string `yaml:"delta_strategy"`
}

// ScanRange is one contiguous slice of the upstream ID space to probe.
type ScanRange struct {
	Start  int `yaml:"start"`
	End    int `yaml:"end"`
	Stride int `yaml:"stride"`
}

// CategoryFallback is assigned when a department code is not in the table.
const CategoryFallback = "Ukategoriseret"

// UnmarshalYAML decodes over the existing values, so fields absent from the
// file keep their defaults. Durations are accepted in time.ParseDuration
// notation ("250ms", "8s", "720h").
func (rc *RemaConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		BaseURL               string         `yaml:"base_url"`
		Source                string         `yaml:"source"`
		Store                 string         `yaml:"store"`
		RequestDelay          string         `yaml:"request_delay"`
		BatchBudget           string         `yaml:"batch_budget"`
		MaintenanceSampleRate *float64       `yaml:"maintenance_sample_rate"`
		HistoryRetention      string         `yaml:"history_retention"`
		Departments           map[int]string `yaml:"departments"`
		DepartmentsCSV        string         `yaml:"departments_csv"`
		PriorityCategories    []string       `yaml:"priority_categories"`
		StableRefreshEvery    int            `yaml:"stable_refresh_every"`
		ScanRanges            []ScanRange    `yaml:"scan_ranges"`
		ScanProductCeiling    int            `yaml:"scan_product_ceiling"`
		KnownProductIDs       []int          `yaml:"known_product_ids"`
		DeltaStrategy         string         `yaml:"delta_strategy"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	if raw.BaseURL != "" {
		rc.BaseURL = raw.BaseURL
	}
	if raw.Source != "" {
		rc.Source = raw.Source
	}
	if raw.Store != "" {
		rc.Store = raw.Store
	}
	if err := setDuration(&rc.RequestDelay, raw.RequestDelay, "request_delay"); err != nil {
		return err
	}
	if err := setDuration(&rc.BatchBudget, raw.BatchBudget, "batch_budget"); err != nil {
		return err
	}
	if err := setDuration(&rc.HistoryRetention, raw.HistoryRetention, "history_retention"); err != nil {
		return err
	}
	if raw.MaintenanceSampleRate != nil {
		rc.MaintenanceSampleRate = *raw.MaintenanceSampleRate
	}
	if raw.Departments != nil {
		rc.Departments = raw.Departments
	}
	if raw.DepartmentsCSV != "" {
		rc.DepartmentsCSV = raw.DepartmentsCSV
	}
	if raw.PriorityCategories != nil {
		rc.PriorityCategories = raw.PriorityCategories
	}
	if raw.StableRefreshEvery > 0 {
		rc.StableRefreshEvery = raw.StableRefreshEvery
	}
	if raw.ScanRanges != nil {
		rc.ScanRanges = raw.ScanRanges
	}
	if raw.ScanProductCeiling > 0 {
		rc.ScanProductCeiling = raw.ScanProductCeiling
	}
	if raw.KnownProductIDs != nil {
		rc.KnownProductIDs = raw.KnownProductIDs
	}
	if raw.DeltaStrategy != "" {
		rc.DeltaStrategy = raw.DeltaStrategy
	}
	return nil
}

func setDuration(dst *time.Duration, raw, field string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", field, err)
	}
	*dst = d
	return nil
}

func DefaultRemaConfig() RemaConfig {
	return RemaConfig{
		BaseURL:               "https://api.digital.rema1000.dk/api/v3",
		Source:                "rema1000",
		Store:                 "REMA 1000",
		RequestDelay:          250 * time.Millisecond,
		BatchBudget:           8 * time.Second,
		MaintenanceSampleRate: 0.1,
		HistoryRetention:      30 * 24 * time.Hour,
		Departments: map[int]string{
			10:  "Brød & kager",
			20:  "Frugt & grønt",
			30:  "Kød, fisk & fjerkræ",
			40:  "Køl",
			50:  "Ost m.v.",
			60:  "Frost",
			70:  "Mejeri",
			80:  "Kolonial",
			90:  "Drikkevarer",
			100: "Husholdning",
			110: "Baby & småbørn",
			120: "Personlig pleje",
			130: "Kiosk",
			140: "Kiosk",
			160: "Diverse",
		},
		PriorityCategories: []string{"Frugt & grønt", "Kød, fisk & fjerkræ"},
		StableRefreshEvery: 4,
		ScanRanges: []ScanRange{
			{Start: 300000, End: 310000, Stride: 5},
			{Start: 400000, End: 450000, Stride: 25},
		},
		ScanProductCeiling: 200,
		KnownProductIDs:    []int{304020, 440065, 410873},
	}
}
