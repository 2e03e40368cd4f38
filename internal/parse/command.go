package parse

import (
	"math"
	"regexp"
	"strings"

	"github.com/hbollon/go-edlib"
)

// Intent is a recognized attendance command.
type Intent string

const (
	IntentUnrecognized Intent = ""
	IntentCheckIn      Intent = "check in"
	IntentCheckOut     Intent = "check out"
	IntentBreakIn      Intent = "break in"
	IntentBreakOut     Intent = "break out"
)

// DefaultThreshold is the score a match must exceed to be accepted.
const DefaultThreshold = 80

// Vocabulary lists the recognized intents in canonical order. Ties are
// resolved in favour of the earlier entry.
var Vocabulary = []Intent{IntentCheckIn, IntentCheckOut, IntentBreakIn, IntentBreakOut}

var nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Classifier maps free-form chat text onto the vocabulary.
type Classifier struct {
	threshold int
}

// NewClassifier creates a classifier with the given confidence floor.
func NewClassifier(threshold int) *Classifier {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Classifier{threshold: threshold}
}

// Classify returns the best matching intent, or IntentUnrecognized when no
// entry scores above the threshold.
func (c *Classifier) Classify(text string) Intent {
	intent, score := c.Best(text)
	if score > c.threshold {
		return intent
	}
	return IntentUnrecognized
}

// Best returns the highest scoring vocabulary entry and its score.
func (c *Classifier) Best(text string) (Intent, int) {
	normalized := Normalize(text)
	if normalized == "" {
		return IntentUnrecognized, 0
	}

	best, bestScore := IntentUnrecognized, -1
	for _, intent := range Vocabulary {
		score := PartialRatio(normalized, string(intent))
		if score > bestScore {
			best, bestScore = intent, score
		}
	}
	return best, bestScore
}

// Normalize lower-cases s and reduces every run of non-alphanumerics to a single space.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = nonWordRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// PartialRatio scores how well the shorter string matches the best equally
// long window of the longer one, on a 0-100 scale.
func PartialRatio(a, b string) int {
	shorter, longer := []rune(a), []rune(b)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == 0 {
		return 0
	}

	best := 0.0
	for start := 0; start+len(shorter) <= len(longer); start++ {
		r := ratio(shorter, longer[start:start+len(shorter)])
		if r > best {
			best = r
		}
		if best >= 1 {
			break
		}
	}
	return int(math.Round(best * 100))
}

func ratio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 0
	}
	common := edlib.LCS(string(a), string(b))
	return 2 * float64(common) / float64(total)
}
