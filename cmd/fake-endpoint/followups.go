// ABOUTME: Canned answers and rule-based follow-up suggestions for the fake endpoint
// ABOUTME: Follow-ups are deduplicated against the question and each other before sending

package main

import (
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/unicode/norm"
)

const (
	notFoundFallback = "I can't find this in the MSc EDI admissions information I am currently using. " +
		"If you rephrase your question, I may be able to help."
	requirementFallback = "I can't find a confirmed EDI-specific requirement statement for this in my current sources. " +
		"Admissions are usually assessed holistically (academic background, projects/experience, and motivation)."
	suitabilityFallback = "Candidates who tend to thrive in MSc Engineering Design & Innovation (EDI) are typically curious about working across disciplines, " +
		"comfortable with ambiguity, and motivated to solve real-world problems through design and technology. " +
		"The programme suits people who enjoy collaboration and want to broaden beyond a single discipline."
	visaFallback = "Visa / Student Pass\n\n" +
		"- If you are an international student, you may need a Student's Pass to study at NUS.\n" +
		"- Visa/Student's Pass steps are typically provided after you accept an offer."
)

// Thresholds for dropping follow-ups that merely restate the question.
const (
	similarityThreshold = 0.92
	similarityMinLen    = 15
)

var (
	punctPattern      = regexp.MustCompile(`[^\w\s]`)
	spacePattern      = regexp.MustCompile(`\s+`)
	visaPattern       = regexp.MustCompile(`(?i)\b(visa|student'?s? pass|immigration)\b`)
	suitablePattern   = regexp.MustCompile(`(?i)\b(suitable|good fit|right for me|should i apply|chance)\b`)
	requirePattern    = regexp.MustCompile(`(?i)\b(require|requirements?|need|must|minimum|gpa)\b`)
	whQuestionPattern = regexp.MustCompile(`(?i)^\s*(what|which|who|when|where|how)\b`)
)

type followupRule struct {
	keywords  []string
	followups []string
}

var followupRules = []followupRule{
	{
		keywords: []string{"challenge", "hard", "rigor"},
		followups: []string{
			"What is the workload like in EDI?",
			"What type of projects will I work on?",
			"How do students cope in the programme?",
		},
	},
	{
		keywords: []string{"value", "worth", "career"},
		followups: []string{
			"What are the career outcomes of EDI?",
			"What skills will I gain from the programme?",
			"What industries do graduates enter?",
		},
	},
	{
		keywords: []string{"course", "module", "curriculum"},
		followups: []string{
			"What courses are included in the programme?",
			"Are there electives available?",
			"How are projects structured?",
		},
	},
	{
		keywords: []string{"apply", "suitable", "admission"},
		followups: []string{
			"What are the admission requirements?",
			"Do I need a portfolio for EDI?",
			"What backgrounds are accepted?",
		},
	},
}

var defaultFollowups = []string{
	"What are the admission requirements?",
	"What is the curriculum like?",
	"What career opportunities does EDI lead to?",
}

// pickFallback chooses a canned answer for q.
func pickFallback(q string) string {
	switch {
	case visaPattern.MatchString(q):
		return visaFallback
	case suitablePattern.MatchString(q):
		return suitabilityFallback
	case requirePattern.MatchString(q) && !whQuestionPattern.MatchString(q):
		return requirementFallback
	default:
		return notFoundFallback
	}
}

// generateFollowups returns the suggestions of the first rule whose keyword
// appears in the question.
func generateFollowups(question string) []string {
	q := strings.ToLower(question)
	for _, rule := range followupRules {
		for _, kw := range rule.keywords {
			if strings.Contains(q, kw) {
				return append([]string(nil), rule.followups...)
			}
		}
	}
	return append([]string(nil), defaultFollowups...)
}

// cleanFollowups drops blank entries, entries that restate the question
// (equal, contained, or nearly identical once canonicalised), and duplicates.
func cleanFollowups(followups []string, question string) []string {
	if len(followups) == 0 {
		return nil
	}

	q := canonical(question)
	seen := make(map[string]bool, len(followups))
	cleaned := make([]string, 0, len(followups))

	for _, f := range followups {
		if strings.TrimSpace(f) == "" {
			continue
		}
		c := canonical(f)

		if c == q || strings.Contains(q, c) || strings.Contains(c, q) {
			continue
		}
		if len(c) > similarityMinLen && similarity(c, q) > similarityThreshold {
			continue
		}
		if seen[c] {
			continue
		}

		cleaned = append(cleaned, strings.TrimSpace(f))
		seen[c] = true
	}
	return cleaned
}

// canonical NFKC-normalises, lowercases, strips punctuation, and collapses
// whitespace.
func canonical(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(strings.TrimSpace(s))
	s = punctPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

// similarity is the character-level SequenceMatcher ratio of a and b.
func similarity(a, b string) float64 {
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
}
