package escalation

import "strings"

// frustrationKeywords signal the student is stuck or losing patience.
var frustrationKeywords = []string{
	"i don't understand", "confused", "not clear", "doesn't make sense",
	"still don't get it", "i'm lost", "too complicated", "help", "difficult",
	"what do you mean", "explain again", "i'm not following",
}

// humanRequests are explicit asks for a person.
var humanRequests = []string{
	"can i talk to a human", "can i talk to a teacher", "i want to talk to a teacher",
	"can i speak with a person", "connect me with a teacher", "human teacher",
	"real person", "speak to someone", "talk to someone", "human tutor",
}

// frustrationThreshold: a single frustration keyword is normal in a
// tutoring session; two or more in one message is a signal.
const frustrationThreshold = 2

// HasEscalationSignals reports whether the student's latest input
// explicitly requests a human or shows repeated frustration.
// Runs on text alone, no model call.
func HasEscalationSignals(studentInput string) bool {
	inputLower := strings.ToLower(studentInput)

	for _, request := range humanRequests {
		if strings.Contains(inputLower, request) {
			return true
		}
	}

	frustrationCount := 0
	for _, keyword := range frustrationKeywords {
		if strings.Contains(inputLower, keyword) {
			frustrationCount++
		}
	}

	return frustrationCount >= frustrationThreshold
}
