package verify

import (
	"encoding/json"
	"fmt"
	"strings"
)

// optionLetters returns the valid option letters for a part: parts 1, 3 and
// 4 use A-D, part 2 uses A-C.
func optionLetters(part int) []string {
	if part == 2 {
		return []string{"A", "B", "C"}
	}
	return []string{"A", "B", "C", "D"}
}

// extractAnswers parses the solver's score payload and returns the picked
// answer letter and its confidence score per question. The payload is a
// single score map for parts 1 and 2, or an array of three maps for parts
// 3 and 4. Every valid letter must be scored, and the scores for one
// question must not sum above 100. Ties go to the earlier letter.
func extractAnswers(payload string, part int) ([]string, []int, error) {
	var maps []map[string]int
	if err := json.Unmarshal([]byte(payload), &maps); err != nil {
		var single map[string]int
		if err := json.Unmarshal([]byte(payload), &single); err != nil {
			return nil, nil, fmt.Errorf("unexpected response format: %w", err)
		}
		maps = []map[string]int{single}
	}

	letters := optionLetters(part)

	var answers []string
	var scores []int
	for _, scoreMap := range maps {
		total := 0
		for _, letter := range letters {
			score, ok := scoreMap[letter]
			if !ok {
				return nil, nil, fmt.Errorf("expected %d options for part %d, missing %s",
					len(letters), part, letter)
			}
			total += score
		}
		if total > 100 {
			return nil, nil, fmt.Errorf("confidence scores sum to %d, expected at most 100", total)
		}

		best := letters[0]
		bestScore := scoreMap[best]
		for _, letter := range letters[1:] {
			if scoreMap[letter] > bestScore {
				best = letter
				bestScore = scoreMap[letter]
			}
		}
		answers = append(answers, best)
		scores = append(scores, bestScore)
	}

	return answers, scores, nil
}

// storedAnswers decodes the answer column into a slice of option letters.
// Parts 3 and 4 store a JSON array of three letters, parts 1 and 2 a single
// letter.
func storedAnswers(answer string) ([]string, error) {
	answer = strings.ToUpper(strings.TrimSpace(answer))
	if len(answer) <= 1 {
		if answer == "" {
			return nil, fmt.Errorf("empty answer column")
		}
		return []string{answer}, nil
	}

	var answers []string
	if err := json.Unmarshal([]byte(answer), &answers); err != nil {
		return nil, fmt.Errorf("failed to decode answer column: %w", err)
	}
	return answers, nil
}

func answersEqual(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
