package verify

import (
	"fmt"
	"math/rand/v2"
)

const (
	factorMin     = 2
	factorMax     = 9
	distractorMin = 2
	distractorMax = 81
	choiceCount   = 5
)

// Puzzle is one arithmetic captcha: two factors, the correct product, and a
// shuffled choice set that always contains the product.
type Puzzle struct {
	A       int
	B       int
	Correct int
	Choices []int
}

// Question renders the puzzle prompt.
func (p Puzzle) Question() string {
	return fmt.Sprintf("**%d × %d = ?**", p.A, p.B)
}

func generatePuzzle() Puzzle {
	a := factorMin + rand.IntN(factorMax-factorMin+1)
	b := factorMin + rand.IntN(factorMax-factorMin+1)
	correct := a * b

	choices := []int{correct}
	for len(choices) < choiceCount {
		d := distractorMin + rand.IntN(distractorMax-distractorMin+1)
		if !contains(choices, d) {
			choices = append(choices, d)
		}
	}
	rand.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})

	return Puzzle{A: a, B: b, Correct: correct, Choices: choices}
}

func contains(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
