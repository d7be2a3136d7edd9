// Package text splits transcripts into bounded segments for per-segment
// model queries.
package text

// Segment partitions a transcript into ordered, overlapping windows of at
// most budget characters. Consecutive windows overlap by overlap characters
// so that context survives a cut. The split is deterministic and total:
// every character appears in at least one segment, and for a transcript of
// length L the segment count is ceil(L / (budget - overlap)).
//
// budget must be greater than overlap; callers validate this at config time.
func Segment(transcript string, budget, overlap int) []string {
	if transcript == "" {
		return nil
	}

	stride := budget - overlap
	segments := make([]string, 0, (len(transcript)+stride-1)/stride)

	for i := 0; i < len(transcript); i += stride {
		end := i + budget
		if end > len(transcript) {
			end = len(transcript)
		}
		segments = append(segments, transcript[i:end])
	}

	return segments
}
