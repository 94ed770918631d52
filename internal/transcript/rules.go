package transcript

import "strings"

// TriggerRule maps a phrase to a mode transition. Matching is case-sensitive
// substring containment; rules are evaluated in declaration order and the
// first match wins.
type TriggerRule struct {
	Phrase       string
	AppliesIn    Mode
	TransitionTo Mode
}

// DefaultRules is the built-in rule table. New languages or routing phrases
// are added here, not in the segmenter. Order matters: more specific phrases
// go first.
var DefaultRules = []TriggerRule{
	// Bot announces it is handing the customer to a human agent.
	{Phrase: "connect you to an Agent", AppliesIn: ModeAI, TransitionTo: ModeHuman},
	{Phrase: "transfer you to an agent", AppliesIn: ModeAI, TransitionTo: ModeHuman},
	{Phrase: "transfer you to a human", AppliesIn: ModeAI, TransitionTo: ModeHuman},
	{Phrase: "te comunico con un agente", AppliesIn: ModeAI, TransitionTo: ModeHuman},

	// Bot greeting marks the start of a new AI stretch after an agent session.
	{Phrase: "I'm your virtual assistant", AppliesIn: ModeHuman, TransitionTo: ModeAI},
	{Phrase: "Soy tu asistente virtual", AppliesIn: ModeHuman, TransitionTo: ModeAI},
}

// MatchTransition returns the mode a message transitions to, and whether any
// rule applicable in the current mode matched the text.
func MatchTransition(rules []TriggerRule, current Mode, text string) (Mode, bool) {
	for _, r := range rules {
		if r.AppliesIn != current {
			continue
		}
		if strings.Contains(text, r.Phrase) {
			return r.TransitionTo, true
		}
	}
	return current, false
}
