package transcript

import (
	"sort"
	"testing"
	"time"
)

func TestSegment_HandoffScenario(t *testing.T) {
	msgs := []RawMessage{
		{SequenceNumber: 1, Text: "Hi", Sender: SenderUser},
		{SequenceNumber: 2, Text: "Hello, bot here", Sender: SenderBot},
		{SequenceNumber: 3, Text: "Please wait until I connect you to an Agent", Sender: SenderBot},
		{SequenceNumber: 4, Text: "Hi I'm agent Sam", Sender: SenderOther},
		{SequenceNumber: 5, Text: "Thanks", Sender: SenderUser},
	}

	res := Segment(msgs, DefaultRules)

	if got := seqs(res.AIMessages); !equalInts(got, []int{1, 2, 3}) {
		t.Errorf("ai messages = %v, want [1 2 3]", got)
	}
	if got := seqs(res.HumanMessages); !equalInts(got, []int{4, 5}) {
		t.Errorf("human messages = %v, want [4 5]", got)
	}
}

func TestSegment_TriggerMessageStaysInAIList(t *testing.T) {
	msgs := []RawMessage{
		{SequenceNumber: 1, Text: "I will transfer you to an agent now", Sender: SenderBot},
		{SequenceNumber: 2, Text: "Hello from the agent", Sender: SenderOther},
	}

	res := Segment(msgs, DefaultRules)

	if len(res.AIMessages) != 1 || res.AIMessages[0].SequenceNumber != 1 {
		t.Errorf("expected the transfer announcement in the AI list, got %v", seqs(res.AIMessages))
	}
	if len(res.HumanMessages) != 1 || res.HumanMessages[0].SequenceNumber != 2 {
		t.Errorf("expected the agent message in the human list, got %v", seqs(res.HumanMessages))
	}
}

func TestSegment_ResumptionGoesToAIList(t *testing.T) {
	msgs := []RawMessage{
		{SequenceNumber: 1, Text: "Please wait until I connect you to an Agent", Sender: SenderBot},
		{SequenceNumber: 2, Text: "Agent here, fixed it", Sender: SenderOther},
		{SequenceNumber: 3, Text: "Hi again! I'm your virtual assistant", Sender: SenderBot},
		{SequenceNumber: 4, Text: "One more question", Sender: SenderUser},
	}

	res := Segment(msgs, DefaultRules)

	if got := seqs(res.AIMessages); !equalInts(got, []int{1, 3, 4}) {
		t.Errorf("ai messages = %v, want [1 3 4]", got)
	}
	if got := seqs(res.HumanMessages); !equalInts(got, []int{2}) {
		t.Errorf("human messages = %v, want [2]", got)
	}
}

func TestSegment_Oscillation(t *testing.T) {
	msgs := []RawMessage{
		{SequenceNumber: 1, Text: "Help", Sender: SenderUser},
		{SequenceNumber: 2, Text: "connect you to an Agent", Sender: SenderBot},
		{SequenceNumber: 3, Text: "Agent Kim here", Sender: SenderOther},
		{SequenceNumber: 4, Text: "I'm your virtual assistant", Sender: SenderBot},
		{SequenceNumber: 5, Text: "Another issue", Sender: SenderUser},
		{SequenceNumber: 6, Text: "connect you to an Agent", Sender: SenderBot},
		{SequenceNumber: 7, Text: "Agent Kim again", Sender: SenderOther},
	}

	res := Segment(msgs, DefaultRules)

	if got := seqs(res.AIMessages); !equalInts(got, []int{1, 2, 4, 5, 6}) {
		t.Errorf("ai messages = %v, want [1 2 4 5 6]", got)
	}
	if got := seqs(res.HumanMessages); !equalInts(got, []int{3, 7}) {
		t.Errorf("human messages = %v, want [3 7]", got)
	}
}

func TestSegment_SortsBySequenceNumber(t *testing.T) {
	msgs := []RawMessage{
		{SequenceNumber: 3, Text: "third", Sender: SenderUser},
		{SequenceNumber: 1, Text: "first", Sender: SenderUser},
		{SequenceNumber: 2, Text: "second", Sender: SenderBot},
	}

	res := Segment(msgs, DefaultRules)

	if got := seqs(res.AIMessages); !equalInts(got, []int{1, 2, 3}) {
		t.Errorf("ai messages = %v, want sorted [1 2 3]", got)
	}
	// Input slice must not be reordered.
	if msgs[0].SequenceNumber != 3 {
		t.Error("Segment mutated its input slice")
	}
}

func TestSegment_PartitionComplete(t *testing.T) {
	msgs := []RawMessage{
		{SequenceNumber: 5, Text: "Thanks", Sender: SenderUser},
		{SequenceNumber: 1, Text: "Hi", Sender: SenderUser},
		{SequenceNumber: 3, Text: "connect you to an Agent", Sender: SenderBot},
		{SequenceNumber: 2, Text: "Hello", Sender: SenderBot},
		{SequenceNumber: 4, Text: "Agent Sam", Sender: SenderOther},
	}

	res := Segment(msgs, DefaultRules)

	union := append(seqs(res.AIMessages), seqs(res.HumanMessages)...)
	sort.Ints(union)
	if !equalInts(union, []int{1, 2, 3, 4, 5}) {
		t.Errorf("segmentation dropped or duplicated messages: union = %v", union)
	}
}

func TestSegment_Empty(t *testing.T) {
	res := Segment(nil, DefaultRules)
	if len(res.AIMessages) != 0 || len(res.HumanMessages) != 0 {
		t.Errorf("expected empty result for nil input, got %d/%d", len(res.AIMessages), len(res.HumanMessages))
	}
}

func TestSegment_NoTriggersAllAI(t *testing.T) {
	msgs := []RawMessage{
		{SequenceNumber: 1, Text: "Hi", Sender: SenderUser, Timestamp: time.Now()},
		{SequenceNumber: 2, Text: "Hello", Sender: SenderBot},
	}

	res := Segment(msgs, DefaultRules)

	if len(res.AIMessages) != 2 {
		t.Errorf("expected all messages in AI list, got %d", len(res.AIMessages))
	}
	if len(res.HumanMessages) != 0 {
		t.Errorf("expected empty human list, got %d", len(res.HumanMessages))
	}
}

func seqs(msgs []RawMessage) []int {
	out := make([]int, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.SequenceNumber)
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
