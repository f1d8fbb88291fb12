package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/kb-resolver/internal/model"
)

func TestPrintResponse_Text(t *testing.T) {
	resp := model.DispatchResponse{
		Answer:     "The total assets for Jaiz Bank as of 2023-12-31 was ₦1.500 Billion.",
		BrainUsed:  model.BrainLocal,
		Provenance: "financial_statements",
		Confidence: model.ConfidenceHigh,
		Intent:     model.IntentFinancialMetric,
		SourceRefs: []model.SourceRef{{DocumentID: "jaiz_fy2023.pdf", Date: "2023-12-31"}, {DocumentID: "profile"}},
		ElapsedMS:  3,
	}

	var buf bytes.Buffer
	require.NoError(t, printResponse(&buf, resp, false))

	out := buf.String()
	assert.Contains(t, out, "₦1.500 Billion")
	assert.Contains(t, out, "[FINANCIAL_METRIC | Local | financial_statements | high | 3ms]")
	assert.Contains(t, out, "source: jaiz_fy2023.pdf (2023-12-31)")
	assert.Contains(t, out, "source: profile\n")
}

func TestPrintResponse_JSON(t *testing.T) {
	resp := model.DispatchResponse{Answer: "hi", BrainUsed: model.BrainExternal, Intent: model.IntentConcept}

	var buf bytes.Buffer
	require.NoError(t, printResponse(&buf, resp, true))

	var got model.DispatchResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, resp.Answer, got.Answer)
	assert.Equal(t, model.BrainExternal, got.BrainUsed)
}

func TestAskLoop(t *testing.T) {
	var asked []string
	ask := func(_ context.Context, q string) model.DispatchResponse {
		asked = append(asked, q)
		return model.DispatchResponse{Answer: "answer to " + q}
	}

	in := strings.NewReader("first question\n\n  second question  \nexit\nnever asked\n")
	var out bytes.Buffer
	require.NoError(t, askLoop(context.Background(), in, &out, ask, false))

	assert.Equal(t, []string{"first question", "second question"}, asked)
	assert.Contains(t, out.String(), "answer to first question")
	assert.Contains(t, out.String(), "answer to second question")
	assert.NotContains(t, out.String(), "never asked")
}

func TestAskLoop_EOF(t *testing.T) {
	calls := 0
	ask := func(context.Context, string) model.DispatchResponse {
		calls++
		return model.DispatchResponse{}
	}
	require.NoError(t, askLoop(context.Background(), strings.NewReader("only one"), &bytes.Buffer{}, ask, true))
	assert.Equal(t, 1, calls)
}

func TestAskLoop_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ask := func(context.Context, string) model.DispatchResponse {
		cancel()
		return model.DispatchResponse{}
	}
	err := askLoop(ctx, strings.NewReader("a\nb\n"), &bytes.Buffer{}, ask, false)
	assert.ErrorIs(t, err, context.Canceled)
}
