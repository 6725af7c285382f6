package automatic

import (
	"fmt"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/samber/lo"

	"github.com/domino14/anytime/stats"
	"github.com/domino14/anytime/turnplayer"
)

const histogramBins = 10

// Summary aggregates finished games. Score is agent 0's result per game:
// 1 for a win, 0.5 for a draw and 0 for a loss.
type Summary struct {
	Agents     [2]turnplayer.Agent
	Games      int
	Wins       [2]int
	Draws      int
	WentFirst  [2]int
	FirstWins  int
	Score      stats.Statistic
	Plies      stats.Statistic
	LatencyMs  [2]stats.Statistic
	Depth      [2]stats.Statistic
	Fallbacks  [2]int
	depthsSeen [2][]float64
}

func NewSummary(agents [2]turnplayer.Agent) *Summary {
	return &Summary{Agents: agents}
}

func (s *Summary) Add(r *GameResult) {
	s.Games++
	first := agentFor(0, r.Swapped)
	s.WentFirst[first]++
	switch r.WinnerAgent {
	case 0:
		s.Wins[0]++
		s.Score.Push(1)
	case 1:
		s.Wins[1]++
		s.Score.Push(0)
	default:
		s.Draws++
		s.Score.Push(0.5)
	}
	if r.WinnerAgent == first {
		s.FirstWins++
	}
	s.Plies.Push(float64(r.Plies))
	for _, d := range r.Decisions {
		s.LatencyMs[d.Agent].Push(float64(d.Elapsed.Milliseconds()))
		s.Depth[d.Agent].Push(float64(d.Depth))
		s.depthsSeen[d.Agent] = append(s.depthsSeen[d.Agent], float64(d.Depth))
		if d.Fallback {
			s.Fallbacks[d.Agent]++
		}
	}
}

// String renders the summary for the shell and the autoplay command.
func (s *Summary) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Games played: %d\n", s.Games)
	if s.Games == 0 {
		return sb.String()
	}
	for i, a := range s.Agents {
		fmt.Fprintf(&sb, "Agent %d (%v) wins: %d (%.3f%%)\n", i, a, s.Wins[i],
			100*float64(s.Wins[i])/float64(s.Games))
	}
	fmt.Fprintf(&sb, "Draws: %d\n", s.Draws)
	fmt.Fprintf(&sb, "Player who went first wins: %d (%.3f%%)\n",
		s.FirstWins, 100*float64(s.FirstWins)/float64(s.Games))
	lo95, hi95 := s.Score.ConfidenceInterval(95)
	fmt.Fprintf(&sb, "Agent 0 score: %.3f  95%% CI [%.3f, %.3f]\n", s.Score.Mean(), lo95, hi95)
	fmt.Fprintf(&sb, "Mean plies: %.1f  Stdev: %.1f\n", s.Plies.Mean(), s.Plies.Stdev())

	var all stats.Statistic
	for i := range s.Agents {
		all.Merge(&s.LatencyMs[i])
		fmt.Fprintf(&sb, "Agent %d decisions: %d  mean %.1fms (max %.0fms)  mean depth %.2f  fallbacks %d\n",
			i, s.LatencyMs[i].Count(), s.LatencyMs[i].Mean(), s.LatencyMs[i].Max(),
			s.Depth[i].Mean(), s.Fallbacks[i])
	}
	fmt.Fprintf(&sb, "All decisions: mean %.1fms  stdev %.1fms\n", all.Mean(), all.Stdev())

	for i := range s.Agents {
		if len(s.depthsSeen[i]) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "Agent %d search depth histogram:\n", i)
		h := histogram.Hist(min(histogramBins, len(lo.Uniq(s.depthsSeen[i]))), s.depthsSeen[i])
		if err := histogram.Fprint(&sb, h, histogram.Linear(40)); err != nil {
			fmt.Fprintf(&sb, "(histogram error: %v)\n", err)
		}
	}
	return sb.String()
}
