// SPDX-License-Identifier: GPL-2.0-or-later

// Package commandline parses the rscene flags. Flags that are set override
// the values of the config file.
package commandline

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"rscene/config"
)

// optInt accepts an integer or "off".
type optInt struct {
	v *config.OptInt
}

func (o optInt) Set(s string) error {
	if strings.EqualFold(s, "off") {
		*o.v = config.Off
		return nil
	}
	v, err := strconv.ParseInt(s, 0, strconv.IntSize)
	if err != nil {
		return errors.Errorf("want an integer or off, got %q", s)
	}
	*o.v = config.OptInt(max(int(v), -1))
	return nil
}

func (o optInt) String() string {
	if o.v == nil || *o.v < 0 {
		return "off"
	}
	return strconv.Itoa(int(*o.v))
}

// region accepts a region id or map square coordinates as "x,y".
type region struct {
	v *uint32
}

func (r region) Set(s string) error {
	if xs, ys, ok := strings.Cut(s, ","); ok {
		x, err := strconv.ParseUint(strings.TrimSpace(xs), 10, 8)
		if err != nil {
			return errors.Errorf("bad region x %q", xs)
		}
		y, err := strconv.ParseUint(strings.TrimSpace(ys), 10, 8)
		if err != nil {
			return errors.Errorf("bad region y %q", ys)
		}
		*r.v = uint32(x<<8 | y)
		return nil
	}
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return errors.Errorf("bad region %q", s)
	}
	*r.v = uint32(v)
	return nil
}

func (r region) String() string {
	if r.v == nil {
		return "0"
	}
	return strconv.FormatUint(uint64(*r.v), 10)
}

// planes accepts a comma separated list of the visible planes.
type planes struct {
	v *[4]bool
}

func (p planes) Set(s string) error {
	var z [4]bool
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 || n >= len(z) {
			return errors.Errorf("bad plane %q", f)
		}
		z[n] = true
	}
	*p.v = z
	return nil
}

func (p planes) String() string {
	if p.v == nil {
		return ""
	}
	var s []string
	for z, on := range p.v {
		if on {
			s = append(s, strconv.Itoa(z))
		}
	}
	return strings.Join(s, ",")
}

// Parse reads the config file named by -config and applies the flags that
// are set in args over it.
func Parse(name string, args []string, output io.Writer) (*config.Config, error) {
	var (
		path string
		fl   = config.Default()
		fs   = flag.NewFlagSet(name, flag.ContinueOnError)
	)
	fs.SetOutput(output)
	fs.StringVar(&path, "config", config.DefaultFile, "config file, missing is fine")
	fs.StringVar(&fl.CacheDir, "cache", fl.CacheDir, "cache directory")
	fs.StringVar(&fl.Xteas, "xteas", fl.Xteas, "region key file, defaults to xteas.json next to the cache")
	fs.StringVar(&fl.KeySnapshot, "key-snapshot", fl.KeySnapshot, "parsed key cache, defaults to the key file with .bin")
	fs.StringVar(&fl.OutDir, "out", fl.OutDir, "output directory")
	fs.Var(region{&fl.Region}, "region", "center region id or x,y")
	fs.IntVar(&fl.Radius, "radius", fl.Radius, "regions around the center")
	fs.Func("scale", "output units per scene unit", func(s string) error {
		v, err := strconv.ParseFloat(s, 32)
		fl.Scale = float32(v)
		return err
	})
	fs.IntVar(&fl.Revision, "revision", fl.Revision, "cache revision if params.txt is missing")
	fs.IntVar(&fl.Workers, "workers", fl.Workers, "regions built in parallel")
	fs.IntVar(&fl.TextureSize, "texture-size", fl.TextureSize, "texture edge, 64 or 128")
	fs.StringVar(&fl.LogLevel, "loglevel", fl.LogLevel, "debug, info, warn or error")
	fs.StringVar(&fl.LogFormat, "logformat", fl.LogFormat, "console or json")

	d := &fl.Debug
	fs.Var(optInt{&d.ModelSubIndex}, "sub-index", "force the model of this index in an id list")
	fs.Var(optInt{&d.BadModelIndexOverride}, "bad-index", "fallback index when a model type is missing")
	fs.Var(optInt{&d.ShowOnlyModelType}, "only-type", "place only objects of this model type")
	fs.BoolVar(&d.RemoveProperlyTypedModels, "remove-typed", d.RemoveProperlyTypedModels, "drop objects whose model type resolves")
	fs.BoolVar(&d.ShowTilePaint, "tile-paint", d.ShowTilePaint, "export flat tile paints")
	fs.BoolVar(&d.ShowTileModels, "tile-models", d.ShowTileModels, "export shaped tile models")
	fs.Var(planes{&d.ZLevels}, "planes", "visible planes, e.g. 0,1")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, errors.Errorf("unexpected arguments %v", fs.Args())
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	copies := map[string]func(){
		"cache":        func() { cfg.CacheDir = fl.CacheDir },
		"xteas":        func() { cfg.Xteas = fl.Xteas },
		"key-snapshot": func() { cfg.KeySnapshot = fl.KeySnapshot },
		"out":          func() { cfg.OutDir = fl.OutDir },
		"region":       func() { cfg.Region = fl.Region },
		"radius":       func() { cfg.Radius = fl.Radius },
		"scale":        func() { cfg.Scale = fl.Scale },
		"revision":     func() { cfg.Revision = fl.Revision },
		"workers":      func() { cfg.Workers = fl.Workers },
		"texture-size": func() { cfg.TextureSize = fl.TextureSize },
		"loglevel":     func() { cfg.LogLevel = fl.LogLevel },
		"logformat":    func() { cfg.LogFormat = fl.LogFormat },
		"sub-index":    func() { cfg.Debug.ModelSubIndex = d.ModelSubIndex },
		"bad-index":    func() { cfg.Debug.BadModelIndexOverride = d.BadModelIndexOverride },
		"only-type":    func() { cfg.Debug.ShowOnlyModelType = d.ShowOnlyModelType },
		"remove-typed": func() { cfg.Debug.RemoveProperlyTypedModels = d.RemoveProperlyTypedModels },
		"tile-paint":   func() { cfg.Debug.ShowTilePaint = d.ShowTilePaint },
		"tile-models":  func() { cfg.Debug.ShowTileModels = d.ShowTileModels },
		"planes":       func() { cfg.Debug.ZLevels = d.ZLevels },
	}
	fs.Visit(func(f *flag.Flag) {
		if c, ok := copies[f.Name]; ok {
			c()
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	return cfg, nil
}
