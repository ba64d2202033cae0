package game

// Rules toggles the two independent scoring components.
type Rules struct {
	CorrectnessBonus bool `json:"correctnessBonus"`
	PopularityBonus  bool `json:"popularityBonus"`
}

// DefaultRules enables both scoring components.
func DefaultRules() Rules {
	return Rules{CorrectnessBonus: true, PopularityBonus: true}
}

const (
	storytellerPoints = 3
	guesserPoints     = 3
	consolationPoints = 2
)

// ScoreRound computes the points each participant earns from the round's
// plays and votes. It does not mutate the round. Only votes cast by
// participants count, and only participants receive points.
func ScoreRound(r *Round, rules Rules) map[string]int {
	scores := make(map[string]int, len(r.Players))
	for _, id := range r.Players {
		scores[id] = 0
	}

	storytellerPlay := r.StorytellerPlay()
	nonStorytellers := 0
	correct := 0
	for _, id := range r.Players {
		if id == r.Turn {
			continue
		}
		nonStorytellers++
		if storytellerPlay != nil && storytellerPlay.VotedBy(id) {
			correct++
		}
	}

	if rules.CorrectnessBonus {
		if correct == 0 || correct == nonStorytellers {
			for id := range scores {
				if id != r.Turn {
					scores[id] += consolationPoints
				}
			}
		} else {
			if _, ok := scores[r.Turn]; ok {
				scores[r.Turn] += storytellerPoints
			}
			for _, id := range r.Players {
				if id != r.Turn && storytellerPlay.VotedBy(id) {
					scores[id] += guesserPoints
				}
			}
		}
	}

	if rules.PopularityBonus {
		for _, play := range r.Plays {
			if play.PlayerID == r.Turn {
				continue
			}
			if _, ok := scores[play.PlayerID]; !ok {
				continue
			}
			for _, voter := range play.Votes {
				if voter != play.PlayerID && r.IsParticipant(voter) {
					scores[play.PlayerID]++
				}
			}
		}
	}

	return scores
}
