package game

import (
	"api/domain"
	"fmt"
	"strings"
)

type Phase string

const (
	PhaseLobby         Phase = "lobby"
	PhasePlaying       Phase = "playing"
	PhaseVoting        Phase = "voting"
	PhaseResults       Phase = "results"
	PhaseSetTransition Phase = "set-transition"
)

var validTransitions = map[Phase][]Phase{
	PhaseLobby:         {PhasePlaying},
	PhasePlaying:       {PhaseVoting},
	PhaseVoting:        {PhaseResults},
	PhaseResults:       {PhaseSetTransition, PhaseLobby},
	PhaseSetTransition: {PhasePlaying, PhaseLobby},
}

func (p Phase) CanTransitionTo(target Phase) bool {
	for _, allowed := range validTransitions[p] {
		if allowed == target {
			return true
		}
	}
	return false
}

const (
	MinNicknameLen    = 1
	MaxNicknameLen    = 20
	MaxAnswerLen      = 200
	MaxRotations      = 10
	MaxSets           = 10
	MinPlayersToStart = 3
)

type GameSettings struct {
	Categories []string `json:"categories"`
	Rotations  int      `json:"rotations"`
	Sets       int      `json:"sets"`
}

func DefaultSettings() GameSettings {
	return GameSettings{
		Categories: []string{"animals"},
		Rotations:  1,
		Sets:       3,
	}
}

func (s GameSettings) Validate() error {
	if len(s.Categories) == 0 {
		return fmt.Errorf("%w: at least one category is required", domain.ErrValidation)
	}
	if s.Rotations < 1 || s.Rotations > MaxRotations {
		return fmt.Errorf("%w: rotations must be between 1 and %d", domain.ErrValidation, MaxRotations)
	}
	if s.Sets < 1 || s.Sets > MaxSets {
		return fmt.Errorf("%w: sets must be between 1 and %d", domain.ErrValidation, MaxSets)
	}
	return nil
}

func ValidateNickname(nickname string) (string, error) {
	nickname = strings.TrimSpace(nickname)
	if len(nickname) < MinNicknameLen || len(nickname) > MaxNicknameLen {
		return "", fmt.Errorf("%w: nickname must be %d-%d characters", domain.ErrValidation, MinNicknameLen, MaxNicknameLen)
	}
	return nickname, nil
}

type Message struct {
	PlayerId       string `json:"playerId"`
	PlayerNickname string `json:"playerNickname"`
	Text           string `json:"text"`
	Timestamp      int64  `json:"timestamp"`
	Rotation       int    `json:"rotation"`
}

type VotingResult struct {
	VoterId          string `json:"voterId"`
	VoterNickname    string `json:"voterNickname"`
	VotedForId       string `json:"votedForId"`
	VotedForNickname string `json:"votedForNickname"`
	WasImpostor      bool   `json:"wasImpostor"`
}

type LeaderboardEntry struct {
	PlayerId string `json:"playerId"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
}

// PlayerSnapshot is the per-player slice of a room snapshot. The impostor
// flag and vote targets are deliberately absent; they would leak the round.
type PlayerSnapshot struct {
	Id          string `json:"id"`
	Nickname    string `json:"nickname"`
	IsHost      bool   `json:"isHost"`
	HasAnswered bool   `json:"hasAnswered"`
	HasVoted    bool   `json:"hasVoted"`
	Connected   bool   `json:"connected"`
	Score       int    `json:"score"`
}

// RoomSnapshot is the authoritative full-state view broadcast after every
// mutation. It is personalized per recipient: You carries the recipient's id,
// CurrentWord is blank for the impostor while a set is active, YouAreImpostor
// is only ever true in the impostor's own copy, and ImpostorId is revealed
// only once the room has reached results.
type RoomSnapshot struct {
	Id               string           `json:"id"`
	You              string           `json:"you"`
	Players          []PlayerSnapshot `json:"players"`
	Settings         GameSettings     `json:"settings"`
	Phase            Phase            `json:"phase"`
	MatchComplete    bool             `json:"matchComplete"`
	CurrentWord      string           `json:"currentWord,omitempty"`
	YouAreImpostor   bool             `json:"youAreImpostor"`
	CurrentSet       int              `json:"currentSet"`
	CurrentRotation  int              `json:"currentRotation"`
	CurrentTurnIndex int              `json:"currentTurnIndex"`
	CurrentTurnId    string           `json:"currentTurnId,omitempty"`
	Messages         []Message        `json:"messages"`
	VotingResults    []VotingResult   `json:"votingResults,omitempty"`
	ImpostorId       string           `json:"impostorId,omitempty"`
	IsPaused         bool             `json:"isPaused"`
	TurnTimeLeft     int              `json:"turnTimeLeft"`
	VotingTimeLeft   int              `json:"votingTimeLeft"`
}
