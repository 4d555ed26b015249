package engine

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/Veraticus/deal-flow/internal/common"
	"github.com/Veraticus/deal-flow/internal/model"
	"github.com/Veraticus/deal-flow/internal/service"
)

// ArtifactError records an artifact that could not be written.
type ArtifactError struct {
	Err      error
	FileName string
}

func (e ArtifactError) Error() string {
	return e.FileName + ": " + e.Err.Error()
}

func (e ArtifactError) Unwrap() error {
	return e.Err
}

// emit writes a workbook, then mirrors and publishes it when configured.
// Only the local write can fail the artifact; mirror and publish failures are warnings.
func (o Outputs) emit(ctx context.Context, wb service.Workbook, label string, dr model.DateRange, rows int, fields common.Fields) (service.Artifact, *ArtifactError) {
	path := filepath.Join(o.Dir, wb.FileName)
	f := withFields(fields, common.Fields{"artifact": wb.FileName})

	if err := o.Sink.Write(ctx, path, wb); err != nil {
		common.LogError(err, "failed to write artifact", f)
		return service.Artifact{}, &ArtifactError{FileName: wb.FileName, Err: err}
	}

	artifact := service.Artifact{
		Path:      path,
		Label:     label,
		DateRange: dr,
		Rows:      rows,
	}

	if o.Mirror != nil {
		if err := o.Mirror.Mirror(ctx, wb); err != nil {
			common.LogWarn("failed to mirror artifact", withFields(f, common.Fields{"error": err.Error()}))
		}
	}

	if o.Publisher != nil {
		uri, err := o.Publisher.Publish(ctx, path)
		if err != nil {
			common.LogWarn("failed to publish artifact", withFields(f, common.Fields{"error": err.Error()}))
		} else {
			artifact.RemoteURI = uri
		}
	}

	common.LogInfo("wrote artifact", withFields(f, common.Fields{"path": path, "rows": rows}))
	return artifact, nil
}

// joinArtifactErrors combines artifact failures into one error, nil when there are none.
func joinArtifactErrors(failed []ArtifactError) error {
	errs := make([]error, len(failed))
	for i, f := range failed {
		errs[i] = f
	}
	return errors.Join(errs...)
}
