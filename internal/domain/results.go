package domain

import "math"

// Standing is one candidate's position in the results.
type Standing struct {
	Candidate

	// Share is the candidate's percentage of all votes cast, one decimal.
	Share float64 `json:"share"`
}

// Results summarizes the ledger for the results and admin views.
type Results struct {
	TotalVotes        int64      `json:"total_votes"`
	RegisteredVoters  int        `json:"registered_voters"`
	VotersVoted       int        `json:"voters_voted"`
	ParticipationRate float64    `json:"participation_rate"`
	Standings         []Standing `json:"standings"`

	// Leaders holds the ids of every candidate tied for the most votes.
	// Empty while no votes have been cast.
	Leaders []int64 `json:"leaders"`
}

// ComputeResults derives the results from the candidate and user sets.
// Standings keep the candidate order.
func ComputeResults(candidates []Candidate, users []User) *Results {
	r := &Results{
		RegisteredVoters: len(users),
		Standings:        make([]Standing, 0, len(candidates)),
		Leaders:          []int64{},
	}

	var top int64
	for _, c := range candidates {
		r.TotalVotes += c.Votes
		if c.Votes > top {
			top = c.Votes
		}
	}

	for _, c := range candidates {
		s := Standing{Candidate: c}
		if r.TotalVotes > 0 {
			s.Share = round1(float64(c.Votes) * 100 / float64(r.TotalVotes))
		}
		r.Standings = append(r.Standings, s)
		if top > 0 && c.Votes == top {
			r.Leaders = append(r.Leaders, c.ID)
		}
	}

	for _, u := range users {
		if u.HasVoted {
			r.VotersVoted++
		}
	}
	if len(users) > 0 {
		r.ParticipationRate = round1(float64(r.VotersVoted) * 100 / float64(len(users)))
	}

	return r
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
