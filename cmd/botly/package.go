package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/dmora/botly/config"
	"github.com/dmora/botly/pack"
)

func runPackage(ctx context.Context, e env, args []string) error {
	var common commonFlags
	var executable, compression, variant string
	var buildFirst bool
	fs := newFlagSet("package", "[flags]", e.stderr)
	common.add(fs)
	fs.StringVar(&executable, "executable", "", "agent executable (default: the build output)")
	fs.BoolVar(&buildFirst, "build", false, "build the agent before packaging")
	fs.StringVar(&compression, "compression", "", "gzip, zstd or lz4 (default package.compression)")
	fs.StringVar(&variant, "variant", "", "entry variant to bundle (default package.variant)")
	if handled, err := parse(fs, args); handled || err != nil {
		return err
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	if compression != "" {
		cfg.Package.Compression = compression
	}
	if variant != "" {
		if err := cfg.Package.Variant.UnmarshalText([]byte(variant)); err != nil {
			return err
		}
	}
	codec, err := pack.ParseCompression(cfg.Package.Compression)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Log, e.stderr)
	if err != nil {
		return err
	}

	orch := newOrchestrator(cfg.Build, e.stderr, logger)
	switch {
	case buildFirst:
		if executable, err = orch.Build(ctx); err != nil {
			return err
		}
	case executable == "":
		if executable, err = orch.Output(); err != nil {
			return err
		}
	}

	entry, err := config.NewEntry(cfg, cfg.Package.Variant)
	if err != nil {
		return err
	}
	bundle, err := pack.New(
		pack.WithDistDir(cfg.Package.DistDir),
		pack.WithArchive(cfg.Package.Archive),
		pack.WithCompression(codec),
		pack.WithEntry(cfg.Package.EntryName, entry),
		pack.WithLogger(logger),
	).Package(ctx, executable)
	if err != nil {
		return err
	}

	fmt.Fprintf(e.stdout, "%s %s blake3:%s\n", bundle.Path, humanize.IBytes(uint64(bundle.Size)), bundle.Digest)
	return nil
}
