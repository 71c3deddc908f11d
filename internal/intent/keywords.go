package intent

import "strings"

// subjectPatterns maps each subject to the keywords that signal it.
// Matching is substring-based on the lowercased query.
var subjectPatterns = map[string][]string{
	"reading": {
		"read", "book", "story", "paragraph", "passage", "character", "plot", "author",
		"comprehension", "summary", "theme", "literacy", "literature", "fiction", "nonfiction",
	},
	"science": {
		"science", "biology", "chemistry", "physics", "atom", "molecule", "cell", "orbit",
		"energy", "force", "experiment", "reaction", "ecosystem", "organism", "planet",
		"solar", "element", "compound", "theory", "hypothesis",
	},
	"math": {
		"math", "equation", "number", "algebra", "geometry", "calculus", "fraction",
		"decimal", "percent", "addition", "subtraction", "multiplication", "division",
		"formula", "function", "graph", "variable", "solve", "calculation",
	},
}

// subjectOrder fixes tie-breaking so classification is deterministic.
var subjectOrder = []string{"reading", "science", "math"}

// QuickSubject classifies a query's subject by keyword counting.
// Returns "other" when no keywords match.
func QuickSubject(query string) string {
	queryLower := strings.ToLower(query)

	bestSubject := "other"
	bestScore := 0

	for _, subject := range subjectOrder {
		score := 0
		for _, pattern := range subjectPatterns[subject] {
			if strings.Contains(queryLower, pattern) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestSubject = subject
		}
	}

	return bestSubject
}
