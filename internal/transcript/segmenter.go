package transcript

import "sort"

// SegmentResult holds the two partitions produced by Segment. The union of
// both lists, re-sorted by sequence number, is exactly the input.
type SegmentResult struct {
	AIMessages    []RawMessage
	HumanMessages []RawMessage
}

// Segment walks one export record's messages in sequence order and splits
// them into the AI-handled and human-handled partitions.
//
// The machine starts in ModeAI. A message that fires a transition rule always
// lands in the AI list: a transfer announcement is the tail of the AI
// stretch, and a bot greeting is the head of the next one. The machine may
// oscillate any number of times if the customer is handed back and forth.
func Segment(messages []RawMessage, rules []TriggerRule) SegmentResult {
	// Copy then sort: callers hand us export slices in file order, and ties
	// on sequence number keep their original relative order.
	sorted := make([]RawMessage, len(messages))
	copy(sorted, messages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SequenceNumber < sorted[j].SequenceNumber
	})

	var res SegmentResult
	mode := ModeAI

	for _, msg := range sorted {
		if next, ok := MatchTransition(rules, mode, msg.Text); ok {
			res.AIMessages = append(res.AIMessages, msg)
			mode = next
			continue
		}

		if mode == ModeAI {
			res.AIMessages = append(res.AIMessages, msg)
		} else {
			res.HumanMessages = append(res.HumanMessages, msg)
		}
	}

	return res
}
