// SPDX-License-Identifier: GPL-2.0-or-later

// Command rscene exports the terrain and objects around a region as glTF.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"rscene/cache"
	"rscene/commandline"
	"rscene/compose"
	"rscene/config"
	"rscene/conlog"
	"rscene/cvar"
	"rscene/cvars"
	"rscene/defs"
	"rscene/filesystem"
	"rscene/gltf"
	"rscene/keys"
	"rscene/palette"
	"rscene/scene"
	"rscene/texture"
)

func main() {
	cfg, err := commandline.Parse(os.Args[0], os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log, err := conlog.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	conlog.SetLogger(log)
	defer conlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, log); err != nil {
		log.Error("export failed", zap.Error(err))
		conlog.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	layout, err := filesystem.Locate(cfg.CacheDir)
	if err != nil {
		return err
	}
	revision := cfg.Revision
	if rev, ok := layout.Revision(); ok {
		revision = rev
	}

	store := keys.NewStore()
	keyFile := cfg.Xteas
	if keyFile == "" {
		keyFile = layout.Keys
	}
	if keyFile != "" {
		snapshot := cfg.KeySnapshot
		if snapshot == "" {
			snapshot = keyFile + ".bin"
		}
		fromSnapshot, err := store.LoadCached(keyFile, snapshot)
		if err != nil {
			log.Warn("region keys", zap.String("file", keyFile), zap.String("snapshot", snapshot), zap.Error(err))
		}
		log.Debug("region keys loaded", zap.Bool("snapshot", fromSnapshot))
	}
	log.Info("cache located",
		zap.String("dir", layout.CacheDir),
		zap.Int("revision", revision),
		zap.Int("keys", store.Len()))

	c, err := cache.Open(layout.CacheDir, cache.WithKeys(store), cache.WithLogger(log.Named("cache")))
	if err != nil {
		return err
	}
	defer c.Close()

	set := defs.NewSet(c, revision, log.Named("defs"))
	vars := cvar.New()
	opts := cvars.NewDebugOptions(vars)
	cfg.Debug.Apply(opts)
	log.Debug("debug options", zap.Any("vars", vars.Values()))
	resolver := compose.New(set.Models, opts, log.Named("compose"))

	b := scene.New(set, resolver, opts,
		scene.WithLogger(log.Named("scene")),
		scene.WithWorkers(cfg.Workers))
	s, err := b.Load(ctx, cfg.Region, cfg.Radius)
	if err != nil {
		return err
	}

	exp := &gltf.Exporter{
		OutDir: cfg.OutDir,
		Scale:  cfg.Scale,
		Textures: &texture.Renderer{
			Defs:       set.Textures,
			Sprites:    set,
			Size:       cfg.TextureSize,
			Brightness: palette.BrightnessMax,
		},
		Log: log.Named("gltf"),
	}
	files, err := exp.Export(s)
	if err != nil {
		return err
	}
	log.Debug("export written", zap.Strings("files", files))
	conlog.Printf("exported %d files to %s", len(files), cfg.OutDir)
	return nil
}
