// Package hostconfig loads the daemon's bring-up configuration from a
// YAML file and exposes it as a simtemp.BindingLookup, the Go analogue
// of the Device Tree property lookup the original kernel module reads
// "sampling-ms" and "threshold-mC" from. Grounded on
// References/orion-prototipe/internal/config/config.go's Load.
package hostconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk bring-up configuration for simtempd.
type File struct {
	InstanceID string `yaml:"instance_id"`

	// Binding mirrors the Device Tree properties the original driver
	// reads at probe time.
	Binding struct {
		SamplingMs  *uint32 `yaml:"sampling-ms"`
		ThresholdMC *int32  `yaml:"threshold-mC"`
	} `yaml:"binding"`

	HTTPAddr string `yaml:"http_addr"`
	UDSPath  string `yaml:"uds_path"`
}

// Load reads and parses path. A missing file is not an error: daemon
// defaults apply, matching the original driver's behavior when no
// Device Tree node is bound.
func Load(path string) (*File, error) {
	if path == "" {
		return &File{}, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &File{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("hostconfig: read %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("hostconfig: parse %s: %w", path, err)
	}
	return &f, nil
}

// LookupUint32 implements simtemp.BindingLookup.
func (f *File) LookupUint32(key string) (uint32, bool) {
	if key == "sampling-ms" && f.Binding.SamplingMs != nil {
		return *f.Binding.SamplingMs, true
	}
	return 0, false
}

// LookupInt32 implements simtemp.BindingLookup.
func (f *File) LookupInt32(key string) (int32, bool) {
	if key == "threshold-mC" && f.Binding.ThresholdMC != nil {
		return *f.Binding.ThresholdMC, true
	}
	return 0, false
}
