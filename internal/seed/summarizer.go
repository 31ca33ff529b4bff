package seed

import "context"

// Summarizer produces an LLM-assisted block body from the previous block
// plus incremental deltas observed since the last consolidation. On
// failure, the Engine preserves the previous block verbatim rather than
// propagating the error (per the consolidation error taxonomy).
type Summarizer interface {
	Summarize(ctx context.Context, blockName string, previous *Block, deltas []string) (*Block, error)
}

// NullSummarizer always fails, causing the Engine to preserve the previous
// STATE/MEM block unchanged. This is the only Summarizer shipped: LLM
// provider bindings are out of scope, so consolidation always falls back to
// "preserve previous block" for LLM-assisted blocks unless the caller wires
// in its own Summarizer.
type NullSummarizer struct{}

// Summarize always returns an error, signaling "no summary available."
func (NullSummarizer) Summarize(ctx context.Context, blockName string, previous *Block, deltas []string) (*Block, error) {
	return nil, errSummarizerUnavailable
}

var errSummarizerUnavailable = summarizerError("no summarizer configured")

type summarizerError string

func (e summarizerError) Error() string { return string(e) }
