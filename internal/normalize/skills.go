package normalize

import (
	"regexp"
	"strings"
	"sync"
)

// skillVocabulary is the fixed set of skill tokens scanned for in
// descriptions. Output order of matched skills follows this order.
var skillVocabulary = []string{
	"python", "java", "javascript", "sql", "aws", "docker", "kubernetes",
	"react", "angular", "vue", "node.js", "mongodb", "postgresql",
	"machine learning", "data science", "ai", "product management",
}

var (
	skillPatterns     []*regexp.Regexp
	skillPatternsOnce sync.Once
)

func compileSkillPatterns() {
	skillPatterns = make([]*regexp.Regexp, len(skillVocabulary))
	for i, skill := range skillVocabulary {
		skillPatterns[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(skill) + `\b`)
	}
}

// ExtractSkills matches the vocabulary against a description with
// case-insensitive whole-word matching. Order is first-match order over the
// vocabulary, which makes the output stable across runs.
func ExtractSkills(description string) []string {
	if description == "" {
		return nil
	}
	skillPatternsOnce.Do(compileSkillPatterns)

	lower := strings.ToLower(description)
	var skills []string
	for i, pattern := range skillPatterns {
		if pattern.MatchString(lower) {
			skills = append(skills, skillVocabulary[i])
		}
	}
	return skills
}
