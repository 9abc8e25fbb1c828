package main

import (
	"context"

	"github.com/dmora/botly/config"
)

func runEntry(_ context.Context, e env, args []string) error {
	var common commonFlags
	var variant string
	fs := newFlagSet("entry", "[flags]", e.stderr)
	common.add(fs)
	fs.StringVar(&variant, "variant", string(config.VariantProduction), "development or production")
	if handled, err := parse(fs, args); handled || err != nil {
		return err
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	var v config.Variant
	if err := v.UnmarshalText([]byte(variant)); err != nil {
		return err
	}
	doc, err := config.NewEntry(cfg, v)
	if err != nil {
		return err
	}
	data, err := doc.Marshal()
	if err != nil {
		return err
	}
	_, err = e.stdout.Write(data)
	return err
}
