package game

import "sort"

const (
	impostorWinPoints = 2000
	correctVotePoints = 1000
)

type roundOutcome struct {
	ImpostorId       string
	ImpostorNickname string
	ImpostorWon      bool
	CorrectVoters    []string
	Deltas           map[string]int
	VotingResults    []VotingResult
}

// computeRoundOutcome derives the round result from the cast votes. It never
// mutates the roster; the caller applies Deltas. The impostor wins exactly
// when nobody voted for them, which holds even for an empty ballot.
func computeRoundOutcome(impostorId string, votes []vote, r *roster) roundOutcome {
	outcome := roundOutcome{
		ImpostorId:    impostorId,
		CorrectVoters: []string{},
		Deltas:        make(map[string]int),
		VotingResults: []VotingResult{},
	}
	if impostor := r.byId(impostorId); impostor != nil {
		outcome.ImpostorNickname = impostor.nickname
	}

	for _, v := range votes {
		voter := r.byId(v.voterId)
		target := r.byId(v.votedForId)
		if voter == nil || target == nil {
			continue
		}
		wasImpostor := v.votedForId == impostorId
		outcome.VotingResults = append(outcome.VotingResults, VotingResult{
			VoterId:          v.voterId,
			VoterNickname:    voter.nickname,
			VotedForId:       v.votedForId,
			VotedForNickname: target.nickname,
			WasImpostor:      wasImpostor,
		})
		if wasImpostor {
			outcome.CorrectVoters = append(outcome.CorrectVoters, v.voterId)
			outcome.Deltas[v.voterId] += correctVotePoints
		}
	}

	outcome.ImpostorWon = len(outcome.CorrectVoters) == 0
	if outcome.ImpostorWon {
		outcome.Deltas[impostorId] += impostorWinPoints
	}
	return outcome
}

// buildLeaderboard sorts players by score descending. The sort is stable on
// purpose: equal scores keep the original roster (join) order, which makes
// the winner deterministic.
func buildLeaderboard(r *roster) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, r.size())
	for _, ps := range r.players {
		entries = append(entries, LeaderboardEntry{
			PlayerId: ps.id,
			Nickname: ps.nickname,
			Score:    ps.score,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}
