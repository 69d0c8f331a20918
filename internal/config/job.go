package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// JobConfig represents the root configuration for a dataprep job. All
// fields are pointers so a partial file can overlay defaults: nil means
// "not set here", and Merge applies overrides on top of a base config.
type JobConfig struct {
	// Library params
	LibraryName  *string `json:"library_name,omitempty"`
	UserUnit     *string `json:"user_unit,omitempty"`     // unit name like "um"
	DatabaseUnit *string `json:"database_unit,omitempty"` // unit name like "nm"

	// Manhattanization params
	GridSize    *float64 `json:"grid_size,omitempty"` // user units
	DefaultMode *string  `json:"default_mode,omitempty"`

	// Per-layer mode overrides, keyed "layer/purpose" (e.g. "10/0")
	LayerModes map[string]string `json:"layer_modes,omitempty"`

	// Output params
	OutputPath *string `json:"output_path,omitempty"`
	PlotDir    *string `json:"plot_dir,omitempty"`
	ReportPath *string `json:"report_path,omitempty"`
	StorePath  *string `json:"store_path,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }

// DefaultJobConfig returns the built-in defaults: micron user units,
// nanometer database units, a 5nm grid and grow bias.
func DefaultJobConfig() *JobConfig {
	return &JobConfig{
		LibraryName:  ptrString("MASKPREP"),
		UserUnit:     ptrString("um"),
		DatabaseUnit: ptrString("nm"),
		GridSize:     ptrFloat64(0.005),
		DefaultMode:  ptrString("grow"),
	}
}

// LoadJobConfig reads a JSON job file and overlays it on the defaults.
func LoadJobConfig(path string) (*JobConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job config: %w", err)
	}
	var overlay JobConfig
	if err := json.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("failed to parse job config %s: %w", path, err)
	}
	base := DefaultJobConfig()
	base.Merge(&overlay)
	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("job config %s: %w", path, err)
	}
	return base, nil
}

// Merge applies every non-nil field of overlay onto c.
func (c *JobConfig) Merge(overlay *JobConfig) {
	if overlay == nil {
		return
	}
	if overlay.LibraryName != nil {
		c.LibraryName = overlay.LibraryName
	}
	if overlay.UserUnit != nil {
		c.UserUnit = overlay.UserUnit
	}
	if overlay.DatabaseUnit != nil {
		c.DatabaseUnit = overlay.DatabaseUnit
	}
	if overlay.GridSize != nil {
		c.GridSize = overlay.GridSize
	}
	if overlay.DefaultMode != nil {
		c.DefaultMode = overlay.DefaultMode
	}
	if overlay.LayerModes != nil {
		if c.LayerModes == nil {
			c.LayerModes = make(map[string]string)
		}
		for k, v := range overlay.LayerModes {
			c.LayerModes[k] = v
		}
	}
	if overlay.OutputPath != nil {
		c.OutputPath = overlay.OutputPath
	}
	if overlay.PlotDir != nil {
		c.PlotDir = overlay.PlotDir
	}
	if overlay.ReportPath != nil {
		c.ReportPath = overlay.ReportPath
	}
	if overlay.StorePath != nil {
		c.StorePath = overlay.StorePath
	}
}

// Validate checks that the merged configuration is usable.
func (c *JobConfig) Validate() error {
	if c.GridSize == nil || *c.GridSize <= 0 {
		return fmt.Errorf("grid_size must be positive")
	}
	if c.LibraryName == nil || *c.LibraryName == "" {
		return fmt.Errorf("library_name must be set")
	}
	return nil
}
