// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package command

import "strings"

// DefaultConfirmName is the command that runs a pending suggestion.
const DefaultConfirmName = "yes"

// suggestionThreshold is the exclusive upper bound on edit distance
// for a name to be offered as a correction.
const suggestionThreshold = 3

// Output receives operator-facing messages.
type Output interface {
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// Suggester dispatches lines and remembers one corrected line after a
// near-miss command name, which the confirm command then runs.
type Suggester struct {
	registry    *Registry
	output      Output
	confirmName string
	pending     string
}

// NewSuggester wraps registry and registers the confirm command under
// confirmName (DefaultConfirmName when empty).
func NewSuggester(registry *Registry, output Output, confirmName string) *Suggester {
	if confirmName == "" {
		confirmName = DefaultConfirmName
	}
	suggester := &Suggester{registry: registry, output: output, confirmName: confirmName}
	registry.Register(confirmName, "", "Run the last suggested incorrect command.", func([]string) error {
		suggester.Confirm()
		return nil
	})
	return suggester
}

// Pending returns the stored suggestion, or "".
func (suggester *Suggester) Pending() string {
	return suggester.pending
}

// Handle dispatches line and reports parse failures to the operator.
func (suggester *Suggester) Handle(line string) Response {
	response := suggester.registry.Dispatch(line)
	switch response.Kind {
	case Valid:
		if response.Command.Name != suggester.confirmName {
			suggester.pending = ""
		}
	case UnknownCommand:
		if response.Attempted == "" {
			break
		}
		closest, distance := suggester.closest(response.Attempted)
		if closest != "" && distance < suggestionThreshold {
			trimmed := strings.TrimSpace(line)
			suggester.pending = closest + trimmed[len(response.Attempted):]
			suggester.output.Errorf("Command not found. Did you mean \"%s\"?", closest)
		} else {
			suggester.output.Errorf("Invalid command. Type 'help' for help.")
		}
	case TooFewArgs:
		suggester.output.Errorf("Too few command arguments. Usage: %s", response.Command.Usage())
	case TooManyArgs:
		suggester.output.Errorf("Too many command arguments. Usage: %s", response.Command.Usage())
	}
	return response
}

// Confirm runs the pending suggestion and clears it. With nothing
// pending it reports an error and returns false.
func (suggester *Suggester) Confirm() bool {
	if suggester.pending == "" {
		suggester.output.Errorf("Nothing to confirm.")
		return false
	}
	line := suggester.pending
	suggester.pending = ""
	suggester.Handle(line)
	return true
}

// closest returns the registered name nearest to attempted, skipping
// the confirm command. Ties go to the earlier registration.
func (suggester *Suggester) closest(attempted string) (string, int) {
	bestName := ""
	bestDistance := -1
	for _, command := range suggester.registry.Commands() {
		if command.Name == suggester.confirmName {
			continue
		}
		distance := Levenshtein(attempted, command.Name)
		if bestDistance < 0 || distance < bestDistance {
			bestName = command.Name
			bestDistance = distance
		}
	}
	return bestName, bestDistance
}

// Levenshtein returns the minimum number of single-rune insertions,
// deletions and substitutions turning a into b.
func Levenshtein(a, b string) int {
	source, target := []rune(a), []rune(b)
	if len(source) == 0 {
		return len(target)
	}
	if len(target) == 0 {
		return len(source)
	}
	if len(source) > len(target) {
		source, target = target, source
	}

	previous := make([]int, len(source)+1)
	current := make([]int, len(source)+1)
	for i := range previous {
		previous[i] = i
	}
	for j := 1; j <= len(target); j++ {
		current[0] = j
		for i := 1; i <= len(source); i++ {
			cost := 1
			if source[i-1] == target[j-1] {
				cost = 0
			}
			current[i] = min(previous[i]+1, current[i-1]+1, previous[i-1]+cost)
		}
		previous, current = current, previous
	}
	return previous[len(source)]
}
