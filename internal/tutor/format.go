package tutor

import (
	"fmt"
	"strings"
)

// Format renders a response for display in the CLI.
func Format(resp *Response) string {
	if resp == nil {
		return ""
	}

	switch resp.Type {
	case TypeReadingPassageAnalysis:
		return formatPassageAnalysis(resp)
	case TypeScienceExplanation:
		return formatScienceExplanation(resp)
	default:
		if resp.Message != "" {
			return resp.Message
		}
		return "I'm not sure how to respond to that. Can you try asking a different question?"
	}
}

func formatPassageAnalysis(resp *Response) string {
	difficulty := "unknown"
	gradeLevel := "unknown"
	if resp.PassageAnalysis != nil {
		if resp.PassageAnalysis.OverallDifficulty != "" {
			difficulty = resp.PassageAnalysis.OverallDifficulty
		}
		if resp.PassageAnalysis.GradeLevel != "" {
			gradeLevel = resp.PassageAnalysis.GradeLevel
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I've analyzed this passage and found it to be %s difficulty, appropriate for %s students.\n", difficulty, gradeLevel)

	if q := resp.GeneratedQuestion; q != nil && q.Question != "" {
		b.WriteString("\nHere's a comprehension question to check understanding:\n\n")
		b.WriteString(q.Question)
		b.WriteString("\n\n")
		for i, option := range q.Options {
			fmt.Fprintf(&b, "%c. %s\n", 'A'+i, option)
		}
		b.WriteString("\nLet me know your answer, and I can provide feedback!")
	}
	return b.String()
}

func formatScienceExplanation(resp *Response) string {
	e := resp.Explanation
	if e == nil {
		return resp.Message
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Let me explain %s.\n\n", e.ConceptName)
	if e.BriefDefinition != "" {
		b.WriteString(e.BriefDefinition)
		b.WriteString("\n\n")
	}
	b.WriteString(e.DetailedExplanation)

	if len(e.RealWorldExamples) > 0 {
		b.WriteString("\n\nReal-world examples:\n")
		examples := e.RealWorldExamples
		if len(examples) > 2 {
			examples = examples[:2]
		}
		for _, example := range examples {
			fmt.Fprintf(&b, "- %s\n", example)
		}
	}

	if resp.UnderstandingCheck != "" {
		b.WriteString("\n")
		b.WriteString(resp.UnderstandingCheck)
	}
	return b.String()
}
