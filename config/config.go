// SPDX-License-Identifier: GPL-2.0-or-later

// Package config reads and writes the rscene.yaml settings file.
package config

import (
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"rscene/cvar"
	"rscene/cvars"
	"rscene/scene"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "rscene.yaml"

var ErrInvalid = errors.New("invalid config")

// OptInt is an integer setting that can be switched off. Off is stored as
// -1 and written as "off".
type OptInt int

const Off OptInt = -1

func (o OptInt) MarshalYAML() (interface{}, error) {
	if o < 0 {
		return cvar.Off, nil
	}
	return int(o), nil
}

func (o *OptInt) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return errors.Errorf("line %d: expected an integer or %q", n.Line, cvar.Off)
	}
	if strings.EqualFold(n.Value, cvar.Off) {
		*o = Off
		return nil
	}
	v, err := strconv.Atoi(n.Value)
	if err != nil {
		return errors.Errorf("line %d: expected an integer or %q, got %q", n.Line, cvar.Off, n.Value)
	}
	*o = OptInt(max(v, -1))
	return nil
}

// Debug mirrors the debug variables of model resolution and scene
// assembly.
type Debug struct {
	RemoveProperlyTypedModels bool    `yaml:"remove_properly_typed_models"`
	BadModelIndexOverride     OptInt  `yaml:"bad_model_index_override"`
	ModelSubIndex             OptInt  `yaml:"model_sub_index"`
	ShowOnlyModelType         OptInt  `yaml:"show_only_model_type"`
	ShowTilePaint             bool    `yaml:"show_tile_paint"`
	ShowTileModels            bool    `yaml:"show_tile_models"`
	ZLevels                   [4]bool `yaml:"z_levels,flow"`
}

type Config struct {
	CacheDir string `yaml:"cache_dir"`
	// Xteas overrides the key file found next to the cache.
	Xteas  string `yaml:"xteas,omitempty"`
	// KeySnapshot caches the parsed keys, it defaults to the key file
	// with a .bin suffix.
	KeySnapshot string `yaml:"key_snapshot,omitempty"`
	OutDir string `yaml:"out_dir"`
	Region uint32 `yaml:"region"`
	Radius int    `yaml:"radius"`
	// Scale converts scene units to output units.
	Scale float32 `yaml:"scale"`
	// Revision selects the terrain layout when the cache has no params.txt.
	Revision    int    `yaml:"revision"`
	Workers     int    `yaml:"workers"`
	TextureSize int    `yaml:"texture_size"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	Debug       Debug  `yaml:"debug"`
}

func Default() *Config {
	return &Config{
		CacheDir:    "cache",
		OutDir:      "output",
		Region:      12850,
		Radius:      1,
		Scale:       1.0 / scene.TileSize,
		Revision:    0,
		Workers:     4,
		TextureSize: 128,
		LogLevel:    "info",
		LogFormat:   "console",
		Debug: Debug{
			BadModelIndexOverride: Off,
			ModelSubIndex:         Off,
			ShowOnlyModelType:     Off,
			ShowTilePaint:         true,
			ShowTileModels:        true,
			ZLevels:               [4]bool{true, true, true, true},
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "config")
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrapf(ErrInvalid, "%s: %v", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return c, nil
}

func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return errors.Wrap(err, "config")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, "config")
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func (c *Config) Validate() error {
	switch {
	case c.CacheDir == "":
		return errors.Wrap(ErrInvalid, "cache_dir is empty")
	case c.OutDir == "":
		return errors.Wrap(ErrInvalid, "out_dir is empty")
	case c.Region > 0xffff:
		return errors.Wrapf(ErrInvalid, "region %d is not a map square", c.Region)
	case c.Radius < 0 || c.Radius > scene.MaxRadius:
		return errors.Wrapf(ErrInvalid, "radius %d", c.Radius)
	case c.Scale <= 0:
		return errors.Wrapf(ErrInvalid, "scale %v", c.Scale)
	case c.Workers < 1:
		return errors.Wrapf(ErrInvalid, "workers %d", c.Workers)
	case c.TextureSize != 64 && c.TextureSize != 128:
		return errors.Wrapf(ErrInvalid, "texture_size %d, want 64 or 128", c.TextureSize)
	}
	return nil
}

// Apply sets the debug variables from the debug block.
func (d Debug) Apply(o *cvars.DebugOptions) {
	o.RemoveProperlyTypedModels.SetBool(d.RemoveProperlyTypedModels)
	o.BadModelIndexOverride.SetInt(int(d.BadModelIndexOverride))
	o.ModelSubIndex.SetInt(int(d.ModelSubIndex))
	o.ShowOnlyModelType.SetInt(int(d.ShowOnlyModelType))
	o.ShowTilePaint.SetBool(d.ShowTilePaint)
	o.ShowTileModels.SetBool(d.ShowTileModels)
	for z, v := range d.ZLevels {
		o.ZLevels[z].SetBool(v)
	}
}
