package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/kb-resolver/internal/dispatch"
	"github.com/sells-group/kb-resolver/internal/engine"
	"github.com/sells-group/kb-resolver/internal/kb/kbtest"
	"github.com/sells-group/kb-resolver/internal/registry"
)

func TestFormatKBStats(t *testing.T) {
	st := dispatch.Build(kbtest.Snapshot(), registry.Default(), engine.DefaultOptions())

	var buf bytes.Buffer
	formatKBStats(&buf, st)

	out := buf.String()
	assert.Contains(t, out, "Source:")
	assert.Contains(t, out, "kbtest")
	assert.Contains(t, out, "Report dates:")
	assert.Contains(t, out, "2022-12-31 to 2024-09-30")
	assert.Contains(t, out, "Symbols:")
	assert.Contains(t, out, "Semantic documents:")
}

func TestFormatKBStats_Empty(t *testing.T) {
	st := dispatch.Build(nil, nil, engine.Options{})

	var buf bytes.Buffer
	formatKBStats(&buf, st)

	assert.Contains(t, buf.String(), "Reports:")
	assert.NotContains(t, buf.String(), "Report dates:")
}
