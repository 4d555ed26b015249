package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/deal-flow/internal/common"
	"github.com/Veraticus/deal-flow/internal/model"
	"github.com/Veraticus/deal-flow/internal/service"
)

func TestPublishTarget(t *testing.T) {
	tests := []struct {
		name       string
		publish    string
		wantBucket string
		wantPrefix string
		wantErr    bool
	}{
		{name: "unset", publish: ""},
		{name: "bucket only", publish: "gs://reports", wantBucket: "reports"},
		{name: "bucket and prefix", publish: "gs://reports/weekly/2024", wantBucket: "reports", wantPrefix: "weekly/2024"},
		{name: "local path", publish: "/tmp/reports", wantErr: true},
		{name: "no bucket", publish: "gs:///weekly", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, prefix, err := publishTarget(tt.publish)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantPrefix, prefix)
		})
	}
}

func TestAnyRemote(t *testing.T) {
	local := []service.Source{{Location: model.LocationMV, Path: "salesMV.xlsx"}}
	assert.False(t, anyRemote(local))
	assert.True(t, anyRemote(append(local, service.Source{Location: model.LocationLM, Path: "gs://exports/salesLM.xlsx"})))
}

func TestExplain(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantUser bool
	}{
		{"schema mismatch", fmt.Errorf("load MV: %w", common.ErrSchemaMismatch), true},
		{"invalid rule", fmt.Errorf("%w: Kiva", common.ErrInvalidRule), true},
		{"canceled", context.Canceled, true},
		{"other", errors.New("disk full"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := explain(tt.err)
			var userErr *common.UserError
			assert.Equal(t, tt.wantUser, errors.As(got, &userErr))
			assert.ErrorIs(t, got, tt.err)
		})
	}
}
