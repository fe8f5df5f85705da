package brackets

import (
	"sort"

	"github.com/aidosbek/swisscut/models"
)

// Standing is a derived ranking row; it is never persisted.
type Standing struct {
	ParticipantID int `json:"participant_id"`
	Wins          int `json:"wins"`
	Diff          int `json:"diff"`
}

// CalculateStandings ranks the given participants over the completed matches.
// Ordering: wins descending, point differential descending, participant id
// ascending. The id tie-break makes the ordering strict, so callers get the
// same ranking for the same inputs every time.
//
// Non-bye matches are zero-sum: the winner gains a win, A gains
// scoreA-scoreB of differential and B the negation. A bye credits only the
// byed participant. Matches that are not complete, or complete without a
// winner, are skipped.
func CalculateStandings(participants []*models.Participant, matches []*models.Match) []Standing {
	byID := make(map[int]*Standing, len(participants))
	standings := make([]Standing, 0, len(participants))
	for _, p := range participants {
		standings = append(standings, Standing{ParticipantID: p.ID})
	}
	for i := range standings {
		byID[standings[i].ParticipantID] = &standings[i]
	}

	for _, m := range matches {
		if m.Status != models.MatchComplete || m.WinnerID == nil {
			continue
		}
		if m.IsBye {
			if m.ParticipantAID == nil {
				continue
			}
			if s, ok := byID[*m.ParticipantAID]; ok {
				s.Wins++
				s.Diff += m.ScoreA - m.ScoreB
			}
			continue
		}
		if m.ParticipantAID == nil || m.ParticipantBID == nil {
			continue
		}
		if s, ok := byID[*m.WinnerID]; ok {
			s.Wins++
		}
		if a, ok := byID[*m.ParticipantAID]; ok {
			a.Diff += m.ScoreA - m.ScoreB
		}
		if b, ok := byID[*m.ParticipantBID]; ok {
			b.Diff += m.ScoreB - m.ScoreA
		}
	}

	sort.Slice(standings, func(i, j int) bool {
		if standings[i].Wins != standings[j].Wins {
			return standings[i].Wins > standings[j].Wins
		}
		if standings[i].Diff != standings[j].Diff {
			return standings[i].Diff > standings[j].Diff
		}
		return standings[i].ParticipantID < standings[j].ParticipantID
	})

	return standings
}
