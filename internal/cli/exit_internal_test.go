package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/clothgen/internal/engine/batch"
)

func TestExitErrorFor(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name     string
		result   *batch.BatchResult
		err      error
		wantCode int
		wantNil  bool
		wantSame bool
	}{
		{name: "no result no error", wantNil: true},
		{name: "all completed", result: &batch.BatchResult{Status: batch.JobAllCompleted, Total: 2, Completed: 2}, wantNil: true},
		{
			name:     "cancelled",
			result:   &batch.BatchResult{Status: batch.JobCancelled, Total: 3, Completed: 1, Cancelled: 2},
			wantCode: ExitCancelled,
		},
		{
			name:     "cancelled wins over failures",
			result:   &batch.BatchResult{Status: batch.JobCancelled, Total: 3, Failed: 1, Cancelled: 2},
			wantCode: ExitCancelled,
		},
		{
			name:     "item failure",
			result:   &batch.BatchResult{Status: batch.JobAllCompleted, Total: 3, Completed: 2, Failed: 1},
			wantCode: ExitFailure,
		},
		{
			name:     "flush failure",
			result:   &batch.BatchResult{Status: batch.JobAllCompleted, Total: 1, Completed: 1, FlushErr: boom},
			wantCode: ExitFailure,
		},
		{
			name:     "discovery error",
			err:      &batch.DiscoveryError{Root: "/missing", Err: boom},
			wantCode: ExitFailure,
		},
		{name: "other error passes through", err: boom, wantSame: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := exitErrorFor(tt.result, tt.err)
			switch {
			case tt.wantNil:
				assert.NoError(t, got)
			case tt.wantSame:
				assert.Same(t, tt.err, got)
			default:
				var exitErr *ExitError
				require.ErrorAs(t, got, &exitErr)
				assert.Equal(t, tt.wantCode, exitErr.Code)
				assert.NotEmpty(t, exitErr.Error())
			}
		})
	}
}

func TestResolveFlags(t *testing.T) {
	cfg := configFromContext(context.Background())
	cfg.Generator.ClothingType = "mask"
	cfg.Engine.MaxConcurrency = 3
	cfg.Engine.Timeout = "2m"

	changed := func(name string) bool { return name == "type" }
	f := resolveFlags(cfg, generateFlags{clothingType: "hat", outDir: "ignored"}, changed)

	assert.Equal(t, "hat", f.clothingType)
	assert.Equal(t, cfg.Generator.OutputDir, f.outDir)
	assert.Equal(t, 3, f.maxConcurrency)
	assert.Equal(t, "2m0s", f.timeout.String())
	assert.Equal(t, cfg.Engine.Pattern, f.pattern)
}
