package chatbot

import "strings"

// Reply is a chatbot answer. Escalate marks messages that must reach a human
// counselor.
type Reply struct {
	Text     string `json:"reply"`
	Escalate bool   `json:"escalate"`
}

// Rule maps a keyword to a canned reply.
type Rule struct {
	Keyword string
	Text    string
}

// Responder produces rule-based replies to student messages. Crisis detection
// always runs first and overrides every rule.
type Responder struct {
	rules []Rule
}

// NewResponder builds a responder with the default rule set.
func NewResponder() *Responder {
	return &Responder{
		rules: []Rule{
			{Keyword: "stress", Text: "Try 4-7-8 breathing. Would you like a short mindfulness exercise?"},
			{Keyword: "deadline", Text: "Breaking work into 25-minute blocks helps. Want me to list your upcoming deadlines?"},
			{Keyword: "fail", Text: "One bad result is not the whole story. Have you talked to the course tutor?"},
		},
	}
}

// AddRule appends a keyword rule. Rules are checked in insertion order.
func (r *Responder) AddRule(rule Rule) {
	r.rules = append(r.rules, rule)
}

// Reply answers one message.
func (r *Responder) Reply(text string) Reply {
	if DetectCrisis(text) {
		return Reply{
			Text:     "I'm here for you. I'm escalating this to a counselor immediately.",
			Escalate: true,
		}
	}

	lowered := strings.ToLower(text)
	for _, rule := range r.rules {
		if strings.Contains(lowered, rule.Keyword) {
			return Reply{Text: rule.Text}
		}
	}
	return Reply{Text: "How are you feeling today?"}
}
