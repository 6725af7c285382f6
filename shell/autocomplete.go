package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/domino14/anytime/evaluator"
)

var commandNames = []string{
	"new", "show", "play", "undo", "search", "eval", "autoplay", "analyze",
	"set", "script", "help", "exit",
}

var strategyNames = []string{"alphabeta", "mcts"}

// ShellCompleter implements readline.AutoCompleter.
type ShellCompleter struct {
	sc *ShellController
}

func (c *ShellCompleter) candidates(fields []string, endsWithSpace bool) []string {
	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		return commandNames
	}
	last := ""
	if endsWithSpace {
		last = fields[len(fields)-1]
	} else if len(fields) > 1 {
		last = fields[len(fields)-2]
	}
	switch last {
	case "-evaluator":
		return evaluator.Names
	case "-apply":
		return []string{"true", "false"}
	}
	switch fields[0] {
	case "search":
		return strategyNames
	case "eval":
		return evaluator.Names
	case "help":
		return []string{"search", "autoplay", "set", "script"}
	case "autoplay":
		return []string{"stop"}
	case "set":
		if c.sc != nil && c.sc.config != nil && (len(fields) == 1 || (len(fields) == 2 && !endsWithSpace)) {
			return c.sc.config.AllKeys()
		}
	}
	return nil
}

// Do returns the suffixes that complete the word under the cursor.
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])
	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '
	prefix := ""
	if !endsWithSpace && len(fields) > 0 {
		prefix = fields[len(fields)-1]
	}

	var out [][]rune
	for _, cand := range c.candidates(fields, endsWithSpace) {
		if strings.HasPrefix(cand, prefix) {
			out = append(out, []rune(cand[len(prefix):]))
		}
	}
	return out, len([]rune(prefix))
}
