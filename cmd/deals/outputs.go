package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/deal-flow/internal/common"
	"github.com/Veraticus/deal-flow/internal/config"
	"github.com/Veraticus/deal-flow/internal/engine"
	"github.com/Veraticus/deal-flow/internal/gcs"
	"github.com/Veraticus/deal-flow/internal/sheets"
	"github.com/Veraticus/deal-flow/internal/service"
	"github.com/Veraticus/deal-flow/internal/spreadsheet"
)

// wiring holds the collaborators of one pipeline run.
type wiring struct {
	loader  *spreadsheet.Loader
	outputs engine.Outputs
	store   *gcs.Store
}

func (w *wiring) Close() {
	if w.store == nil {
		return
	}
	if err := w.store.Close(); err != nil {
		slog.Warn("Failed to close storage client", "error", err)
	}
}

// wire builds the loader and outputs. A storage client is only created when a
// source lives in GCS or artifacts are published.
func wire(ctx context.Context, sources []service.Source, dir string, widthPadding int, mirror bool) (*wiring, error) {
	publish := viper.GetString("output.publish")

	bucket, prefix, err := publishTarget(publish)
	if err != nil {
		return nil, err
	}

	w := &wiring{
		outputs: engine.Outputs{
			Sink: spreadsheet.NewWriter(widthPadding),
			Dir:  config.ExpandPath(dir),
		},
	}

	if bucket != "" || anyRemote(sources) {
		store, err := gcs.NewStore(ctx, bucket, prefix)
		if err != nil {
			return nil, err
		}
		w.store = store
		if bucket != "" {
			w.outputs.Publisher = store
		}
		w.loader = spreadsheet.NewLoader(spreadsheet.WithFetcher(store))
	} else {
		w.loader = spreadsheet.NewLoader()
	}

	if mirror {
		cfg, err := config.LoadSheetsConfig(viper.GetViper())
		if err != nil {
			w.Close()
			return nil, err
		}
		m, err := sheets.NewMirror(ctx, *cfg, slog.Default())
		if err != nil {
			w.Close()
			return nil, err
		}
		w.outputs.Mirror = m
	}

	return w, nil
}

func publishTarget(publish string) (bucket, prefix string, err error) {
	if publish == "" {
		return "", "", nil
	}
	if !gcs.IsURI(publish) {
		return "", "", fmt.Errorf("publish target must be a gs:// URI, got %q", publish)
	}
	rest := strings.TrimPrefix(publish, "gs://")
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("publish target %q has no bucket", publish)
	}
	return bucket, prefix, nil
}

func anyRemote(sources []service.Source) bool {
	for _, s := range sources {
		if gcs.IsURI(s.Path) {
			return true
		}
	}
	return false
}

// explain turns input problems into messages the user can act on.
func explain(err error) error {
	switch {
	case errors.Is(err, common.ErrSchemaMismatch):
		return common.NewUserError("a sales export does not have the expected layout (title rows, then a header row)", err)
	case errors.Is(err, common.ErrInvalidRule):
		return common.NewUserError("the rules table is invalid; run \"deals rules\" to check it", err)
	case errors.Is(err, context.Canceled):
		return common.NewUserError("run canceled", err)
	default:
		return err
	}
}
