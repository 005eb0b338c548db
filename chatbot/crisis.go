package chatbot

import "strings"

// crisisKeywords flags messages that need immediate escalation to a
// counselor. Matching is substring-based on the lowercased message.
var crisisKeywords = []string{
	"hopeless",
	"suicide",
	"self-harm",
	"drop out",
	"give up",
	"end it",
	"kill myself",
}

// DetectCrisis reports whether text contains any crisis keyword.
func DetectCrisis(text string) bool {
	lowered := strings.ToLower(text)
	for _, keyword := range crisisKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
