package news

import "strings"

// A compact finance lexicon. Scores are summed per headline and squashed
// into [-1, 1] by the word count matched.
var lexicon = map[string]float64{
	"beat":       1, "beats": 1, "surge": 1, "surges": 1, "soar": 1,
	"soars":      1, "rally": 1, "rallies": 1, "record": 1, "upgrade": 1,
	"upgraded":   1, "bullish": 1, "growth": 1, "profit": 1, "gain": 1,
	"gains":      1, "outperform": 1, "strong": 1, "raise": 1, "raises": 1,
	"buyback":    1, "dividend": 1, "jump": 1, "jumps": 1,

	"miss":       -1, "misses": -1, "plunge": -1, "plunges": -1, "crash": -1,
	"crashes":    -1, "selloff": -1, "sell-off": -1, "downgrade": -1,
	"downgraded": -1, "bearish": -1, "loss": -1, "losses": -1, "weak": -1,
	"cut":        -1, "cuts": -1, "lawsuit": -1, "probe": -1, "recall": -1,
	"bankruptcy": -1, "default": -1, "fraud": -1, "warning": -1,
	"slump":      -1, "slumps": -1, "tumble": -1, "tumbles": -1,
}

// ScoreText scores a headline in [-1, 1]. Zero means neutral or no
// lexicon hit.
func ScoreText(text string) float64 {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && r != '-'
	})

	var sum float64
	var hits int
	for _, word := range words {
		if score, ok := lexicon[word]; ok {
			sum += score
			hits++
		}
	}
	if hits == 0 {
		return 0
	}
	return sum / float64(hits)
}
