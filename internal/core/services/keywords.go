package services

import (
	"sort"
	"strings"
	"unicode"
)

// minKeywordLen is the length a word must exceed to count as a keyword.
const minKeywordLen = 3

var stopwords = toSet(
	"a", "about", "above", "after", "again", "against", "all", "also", "am", "an", "and", "any",
	"are", "aren't", "as", "at", "be", "because", "been", "before", "being", "below", "between",
	"both", "but", "by", "can", "cannot", "could", "did", "does", "doing", "down", "during",
	"each", "even", "every", "few", "for", "from", "further", "get", "gets", "got", "had", "has",
	"have", "having", "he", "her", "here", "hers", "herself", "him", "himself", "his", "how",
	"however", "i", "if", "in", "into", "is", "it", "its", "itself", "just", "like", "made",
	"make", "many", "may", "me", "might", "more", "most", "much", "must", "my", "myself", "need",
	"never", "no", "nor", "not", "now", "of", "off", "on", "once", "one", "only", "or", "other",
	"ought", "our", "ours", "ourselves", "out", "over", "own", "same", "said", "says", "she",
	"should", "since", "so", "some", "still", "such", "than", "that", "the", "their", "theirs",
	"them", "themselves", "then", "there", "these", "they", "thing", "things", "this", "those",
	"through", "to", "too", "under", "until", "up", "upon", "us", "use", "used", "using", "very",
	"via", "want", "was", "we", "well", "were", "what", "when", "where", "whether", "which",
	"while", "who", "whom", "whose", "why", "will", "with", "within", "without", "would", "yes",
	"yet", "you", "your", "yours", "yourself", "yourselves",
	// mail headers rendered into email documents
	"from", "subject", "date", "sent", "re", "fwd",
)

// categoryRules add a fixed tag when any trigger word appears.
var categoryRules = []struct {
	tag      string
	triggers map[string]struct{}
}{
	{"finance", toSet(
		"revenue", "budget", "invoice", "payment", "salary", "expense", "expenses", "profit",
		"forecast", "quarterly", "finance", "financial", "tax", "bank", "cost", "costs", "price",
	)},
	{"code", toSet(
		"function", "class", "import", "return", "variable", "compile", "debug", "api", "git",
		"python", "golang", "javascript", "kubernetes", "docker", "deploy", "server", "bug", "code",
	)},
	{"health", toSet(
		"health", "doctor", "medical", "medicine", "symptom", "symptoms", "exercise", "sleep",
		"diet", "hospital", "patient", "therapy", "fitness", "appointment",
	)},
}

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// tokenize splits on whitespace, strips surrounding punctuation and lower-cases.
func tokenize(text string) []string {
	fields := strings.Fields(text)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if w == "" {
			continue
		}
		words = append(words, strings.ToLower(w))
	}
	return words
}

// isKeyword reports whether a token survives stopword and length filtering.
func isKeyword(w string) bool {
	if len([]rune(w)) <= minKeywordLen {
		return false
	}
	if _, stop := stopwords[w]; stop {
		return false
	}
	for _, r := range w {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

type wordCount struct {
	word  string
	count int
	first int
}

// topWords ranks keywords by frequency. Ties keep first-occurrence order.
func topWords(words []string, k int) []wordCount {
	counts := make(map[string]*wordCount)
	order := 0
	for _, w := range words {
		if !isKeyword(w) {
			continue
		}
		if c, ok := counts[w]; ok {
			c.count++
			continue
		}
		counts[w] = &wordCount{word: w, count: 1, first: order}
		order++
	}

	ranked := make([]wordCount, 0, len(counts))
	for _, c := range counts {
		ranked = append(ranked, *c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].first < ranked[j].first
	})

	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// categories returns the fixed category tags triggered by the words.
func categories(words []string) []string {
	var out []string
	for _, rule := range categoryRules {
		for _, w := range words {
			if _, hit := rule.triggers[w]; hit {
				out = append(out, rule.tag)
				break
			}
		}
	}
	return out
}
