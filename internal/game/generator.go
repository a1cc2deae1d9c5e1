package game

import (
	"math/rand"
	"sync"
	"time"
)

// Generator produces arithmetic problems, uniformly across the four kinds.
// It is safe for concurrent use. Given a fixed seed the sequence is
// deterministic, which the tests rely on.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator creates a problem generator. A zero seed derives one from the
// current time.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

var problemKinds = []string{
	ProblemAddition,
	ProblemSubtraction,
	ProblemMultiplication,
	ProblemDivision,
}

// Generate returns one problem with no responses.
func (g *Generator) Generate() Problem {
	g.mu.Lock()
	defer g.mu.Unlock()

	kind := problemKinds[g.rng.Intn(len(problemKinds))]

	var operand1, operand2, answer int
	switch kind {
	case ProblemAddition:
		operand1 = g.rng.Intn(50) + 1
		operand2 = g.rng.Intn(50) + 1
		answer = operand1 + operand2
	case ProblemSubtraction:
		operand1 = g.rng.Intn(50) + 1
		operand2 = g.rng.Intn(50) + 1
		// Reorder so the result is never negative.
		if operand2 > operand1 {
			operand1, operand2 = operand2, operand1
		}
		answer = operand1 - operand2
	case ProblemMultiplication:
		operand1 = g.rng.Intn(12) + 1
		operand2 = g.rng.Intn(12) + 1
		answer = operand1 * operand2
	case ProblemDivision:
		// Construct from the answer so the quotient is always exact.
		operand2 = g.rng.Intn(10) + 1
		answer = g.rng.Intn(10) + 1
		operand1 = operand2 * answer
	}

	problemsGenerated.WithLabelValues(kind).Inc()

	return Problem{
		Type:      kind,
		Operand1:  operand1,
		Operand2:  operand2,
		Answer:    answer,
		Responses: []Response{},
	}
}
