package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForMode_Levels(t *testing.T) {
	ctx := context.Background()

	assert.False(t, ForMode(false, false).Enabled(ctx, slog.LevelError), "interactive default is silent")
	assert.True(t, ForMode(true, false).Enabled(ctx, slog.LevelDebug))
	assert.True(t, ForMode(false, true).Enabled(ctx, slog.LevelInfo))
	assert.False(t, ForMode(false, true).Enabled(ctx, slog.LevelDebug))
	assert.True(t, ForMode(true, true).Enabled(ctx, slog.LevelDebug))
}

func TestOptions_RenamesErrorKey(t *testing.T) {
	attr := options(slog.LevelInfo).ReplaceAttr(nil, slog.String("error", "boom"))
	assert.Equal(t, "err", attr.Key)

	attr = options(slog.LevelInfo).ReplaceAttr(nil, slog.String("status", "402"))
	assert.Equal(t, "status", attr.Key)
}
