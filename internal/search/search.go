package search

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/DeprecatedLuar/sqldevcfg/internal/connections"
)

const (
	// Scoring weights (exact matches)
	nameMatchScore = 100
	tagMatchScore  = 10
	hostMatchScore = 1

	// Fuzzy match weights (lower than exact)
	fuzzyNameMatchScore = 50
	fuzzyTagMatchScore  = 5

	// Fuzzy matching config
	minFuzzyLength      = 4   // Only fuzzy match strings >= 4 chars (avoid "dev"→"de")
	similarityThreshold = 0.8 // 80% similarity for fuzzy matching

	// Matching threshold
	matchThresholdPercent = 0.5 // Require >50% of exponential weight to match
)

// Source is the set of connections of one installation.
type Source struct {
	ConnectionsPath string
	Records         []*connections.Record
}

// Result represents a search result with score
type Result struct {
	ConnectionsPath string
	Record          *connections.Record
	Score           int
}

// Search performs a simple ranked search across connections.
// Query is split into terms (space-separated).
// Scoring: name=100, folder/user=10, host URL=1.
// Equal scores keep installation and file order.
func Search(sources []Source, query string) []Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Result{}
	}

	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return []Result{}
	}

	results := []Result{}

	for _, src := range sources {
		for _, rec := range src.Records {
			score, matched := scoreRecord(rec, terms)
			if matched {
				results = append(results, Result{
					ConnectionsPath: src.ConnectionsPath,
					Record:          rec,
					Score:           score,
				})
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results
}

// scoreRecord scores a connection against search terms
// Returns (score, matched) where matched=true if >50% of exponential weight matched
// Exponential weighting: longer words dominate (oracle²=36 >> dev²=9)
func scoreRecord(rec *connections.Record, terms []string) (int, bool) {
	name := strings.ToLower(rec.Name())
	host := strings.ToLower(rec.Host())

	var tags []string
	for _, tag := range []string{rec.Folder(), rec.User()} {
		if tag != "" {
			tags = append(tags, strings.ToLower(tag))
		}
	}

	score := 0
	totalWeight := 0
	matchedWeight := 0

	for _, term := range terms {
		termScore := 0
		termLen := len(term)
		termWeight := termLen * termLen
		totalWeight += termWeight

		if strings.Contains(name, term) {
			termScore += nameMatchScore * termWeight
		}

		for _, tag := range tags {
			if strings.Contains(tag, term) {
				termScore += tagMatchScore * termWeight
				break // Count tag match once per term
			}
		}

		if strings.Contains(host, term) {
			termScore += hostMatchScore * termWeight
		}

		if termScore == 0 && termLen >= minFuzzyLength {
			if fuzzyMatchWord(term, name) {
				termScore += fuzzyNameMatchScore * termWeight
			} else {
				for _, word := range strings.FieldsFunc(name, isSeparator) {
					if fuzzyMatchWord(term, word) {
						termScore += fuzzyNameMatchScore * termWeight
						break
					}
				}
			}

			if termScore == 0 {
				for _, tag := range tags {
					if fuzzyMatchWord(term, tag) {
						termScore += fuzzyTagMatchScore * termWeight
						break
					}
				}
			}
			// No fuzzy matching for the host URL
		}

		if termScore > 0 {
			matchedWeight += termWeight
			score += termScore
		}
	}

	if totalWeight == 0 {
		return 0, false
	}

	matchThreshold := float64(matchedWeight) / float64(totalWeight)
	if matchThreshold > matchThresholdPercent {
		return score, true
	}

	return 0, false
}

// isSeparator splits connection names like "[1 prod] hr_app" into words.
func isSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '[', ']', '(', ')', '_', '-', '.', '@', ':', '/':
		return true
	}
	return false
}

// fuzzyMatchWord checks if pattern matches a single word with similarity >= threshold
// Uses Damerau-Levenshtein so transpositions like "porduction" still match.
func fuzzyMatchWord(pattern, word string) bool {
	if pattern == word {
		return true
	}

	similarity, err := edlib.StringsSimilarity(pattern, word, edlib.DamerauLevenshtein)
	if err != nil {
		return false
	}

	return similarity >= float32(similarityThreshold)
}
