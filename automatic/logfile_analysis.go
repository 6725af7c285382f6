package automatic

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/domino14/anytime/stats"
)

type agentTurns struct {
	elapsed   stats.Statistic
	depth     stats.Statistic
	nodes     stats.Statistic
	fallbacks int
	random    int
}

// AnalyzeLogFile reads a CSV turn log written by PlayGames and summarises
// the searched decisions per agent.
func AnalyzeLogFile(filepath string) (string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	r := csv.NewReader(file)
	r.FieldsPerRecord = len(TurnLogHeader)

	col := make(map[string]int, len(TurnLogHeader))
	for i, h := range TurnLogHeader {
		col[h] = i
	}
	games := map[string]bool{}
	perAgent := map[string]*agentTurns{}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if record[0] == TurnLogHeader[0] {
			continue
		}
		games[record[col["gameID"]]] = true
		name := record[col["agent"]]
		at, ok := perAgent[name]
		if !ok {
			at = &agentTurns{}
			perAgent[name] = at
		}
		if record[col["random"]] == "true" {
			at.random++
			continue
		}
		ms, err := strconv.ParseFloat(record[col["elapsedMs"]], 64)
		if err != nil {
			return "", err
		}
		depth, err := strconv.ParseFloat(record[col["depth"]], 64)
		if err != nil {
			return "", err
		}
		nodes, err := strconv.ParseFloat(record[col["nodes"]], 64)
		if err != nil {
			return "", err
		}
		at.elapsed.Push(ms)
		at.depth.Push(depth)
		at.nodes.Push(nodes)
		if record[col["fallback"]] == "true" {
			at.fallbacks++
		}
	}

	// node counts run into the millions; group their digits.
	p := message.NewPrinter(language.English)
	var sb strings.Builder
	fmt.Fprintf(&sb, "Games logged: %d\n", len(games))
	names := lo.Keys(perAgent)
	slices.Sort(names)
	for _, name := range names {
		at := perAgent[name]
		p.Fprintf(&sb, "%v: %d decisions (%d random)  mean %.1fms  stdev %.1fms  mean depth %.2f  mean nodes %d  fallbacks %d\n",
			name, at.elapsed.Count(), at.random, at.elapsed.Mean(), at.elapsed.Stdev(),
			at.depth.Mean(), int64(at.nodes.Mean()), at.fallbacks)
	}
	return sb.String(), nil
}
