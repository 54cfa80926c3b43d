package game

import (
	"api/domain"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Inbound action kinds. create/join/rejoin travel over the HTTP upgrade
// endpoints; everything else arrives as a JSON envelope on an established
// room-bound connection.
const (
	ActionLeaveRoom      = "leave_room"
	ActionKickPlayer     = "kick_player"
	ActionUpdateSettings = "update_settings"
	ActionStartGame      = "start_game"
	ActionSubmitAnswer   = "submit_answer"
	ActionSubmitVote     = "submit_vote"
	ActionVoteInAdvance  = "vote_in_advance"
	ActionPauseGame      = "pause_game"
	ActionResumeGame     = "resume_game"
	ActionNextSet        = "next_set"
	ActionBackToLobby    = "back_to_lobby"
)

// Outbound event kinds.
const (
	EventRoomCreated      = "room_created"
	EventRoomJoined       = "room_joined"
	EventRoomUpdated      = "room_updated"
	EventPlayerKicked     = "player_kicked"
	EventPlayerVotedEarly = "player_voted_early"
	EventGameStarted      = "game_started"
	EventTurnStarted      = "turn_started"
	EventAnswerSubmitted  = "answer_submitted"
	EventTurnTimeout      = "turn_timeout"
	EventRotationComplete = "rotation_complete"
	EventVotingPhase      = "voting_phase"
	EventVoteSubmitted    = "vote_submitted"
	EventRoundResults     = "round_results"
	EventSetComplete      = "set_complete"
	EventGameComplete     = "game_complete"
	EventGamePaused       = "game_paused"
	EventGameResumed      = "game_resumed"
	EventError            = "error"
)

var knownActions = map[string]struct{}{
	ActionLeaveRoom:      {},
	ActionKickPlayer:     {},
	ActionUpdateSettings: {},
	ActionStartGame:      {},
	ActionSubmitAnswer:   {},
	ActionSubmitVote:     {},
	ActionVoteInAdvance:  {},
	ActionPauseGame:      {},
	ActionResumeGame:     {},
	ActionNextSet:        {},
	ActionBackToLobby:    {},
}

type clientEnvelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// actionEnvelope is what the read pump hands to the room actor: a validated
// action kind, its raw payload, and the already-authenticated sender id.
type actionEnvelope struct {
	kind    string
	payload json.RawMessage
	from    string
}

// decodeClientEnvelope validates the outer envelope at the transport
// boundary; payload decoding happens in the room handlers where the typed
// shape is known.
func decodeClientEnvelope(data []byte, from string) (actionEnvelope, error) {
	var env clientEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return actionEnvelope{}, fmt.Errorf("%w: malformed envelope", domain.ErrValidation)
	}
	if _, ok := knownActions[env.Event]; !ok {
		return actionEnvelope{}, fmt.Errorf("%w: unknown action %q", domain.ErrValidation, env.Event)
	}
	return actionEnvelope{kind: env.Event, payload: env.Payload, from: from}, nil
}

// Typed inbound payloads. RoomId is accepted but ignored; a connection is
// already bound to its room.
type KickPlayerPayload struct {
	RoomId   string `json:"roomId,omitempty"`
	PlayerId string `json:"playerId"`
}

type UpdateSettingsPayload struct {
	RoomId   string       `json:"roomId,omitempty"`
	Settings GameSettings `json:"settings"`
}

type SubmitAnswerPayload struct {
	RoomId   string `json:"roomId,omitempty"`
	PlayerId string `json:"playerId,omitempty"`
	Answer   string `json:"answer"`
}

type SubmitVotePayload struct {
	RoomId     string `json:"roomId,omitempty"`
	PlayerId   string `json:"playerId,omitempty"`
	VotedForId string `json:"votedForId"`
}

type PauseGamePayload struct {
	RoomId   string `json:"roomId,omitempty"`
	TimeLeft int    `json:"timeLeft"`
}

func decodePayload[T any](raw json.RawMessage) (T, error) {
	var payload T
	if len(raw) == 0 {
		return payload, fmt.Errorf("%w: missing payload", domain.ErrValidation)
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, fmt.Errorf("%w: malformed payload", domain.ErrValidation)
	}
	return payload, nil
}

type serverEnvelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

func makeServerEnvelope(event string, payload any) []byte {
	data, err := json.Marshal(serverEnvelope{Event: event, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("failed to marshal server envelope")
		return nil
	}
	return data
}

type sessionPayload struct {
	RoomId   string `json:"roomId"`
	PlayerId string `json:"playerId"`
	Token    string `json:"token,omitempty"`
}

func MakePacketRoomCreated(roomId, playerId, token string) []byte {
	return makeServerEnvelope(EventRoomCreated, sessionPayload{RoomId: roomId, PlayerId: playerId, Token: token})
}

func MakePacketRoomJoined(roomId, playerId, token string) []byte {
	return makeServerEnvelope(EventRoomJoined, sessionPayload{RoomId: roomId, PlayerId: playerId, Token: token})
}

func MakePacketRoomUpdated(snapshot RoomSnapshot) []byte {
	return makeServerEnvelope(EventRoomUpdated, struct {
		Room RoomSnapshot `json:"room"`
	}{Room: snapshot})
}

func MakePacketPlayerKicked(message string) []byte {
	return makeServerEnvelope(EventPlayerKicked, struct {
		Message string `json:"message"`
	}{Message: message})
}

func MakePacketPlayerVotedEarly(nickname string) []byte {
	return makeServerEnvelope(EventPlayerVotedEarly, struct {
		PlayerNickname string `json:"playerNickname"`
	}{PlayerNickname: nickname})
}

func MakePacketGameStarted(word string, players []PlayerSnapshot, currentSet int) []byte {
	return makeServerEnvelope(EventGameStarted, struct {
		Word       string           `json:"word"`
		Players    []PlayerSnapshot `json:"players"`
		CurrentSet int              `json:"currentSet"`
	}{Word: word, Players: players, CurrentSet: currentSet})
}

func MakePacketTurnStarted(playerId, nickname string, turnIndex, totalPlayers, rotation, totalRotations int) []byte {
	return makeServerEnvelope(EventTurnStarted, struct {
		PlayerId       string `json:"playerId"`
		PlayerNickname string `json:"playerNickname"`
		TurnIndex      int    `json:"turnIndex"`
		TotalPlayers   int    `json:"totalPlayers"`
		Rotation       int    `json:"rotation"`
		TotalRotations int    `json:"totalRotations"`
	}{playerId, nickname, turnIndex, totalPlayers, rotation, totalRotations})
}

func MakePacketAnswerSubmitted(message Message) []byte {
	return makeServerEnvelope(EventAnswerSubmitted, struct {
		Message Message `json:"message"`
	}{Message: message})
}

func MakePacketTurnTimeout(playerId string) []byte {
	return makeServerEnvelope(EventTurnTimeout, struct {
		PlayerId string `json:"playerId"`
	}{PlayerId: playerId})
}

func MakePacketRotationComplete() []byte {
	return makeServerEnvelope(EventRotationComplete, nil)
}

func MakePacketVotingPhase(timeLeft int) []byte {
	return makeServerEnvelope(EventVotingPhase, struct {
		TimeLeft int `json:"timeLeft"`
	}{TimeLeft: timeLeft})
}

func MakePacketVoteSubmitted(playerId, nickname string) []byte {
	return makeServerEnvelope(EventVoteSubmitted, struct {
		PlayerId       string `json:"playerId"`
		PlayerNickname string `json:"playerNickname"`
	}{PlayerId: playerId, PlayerNickname: nickname})
}

func MakePacketRoundResults(outcome roundOutcome, leaderboard []LeaderboardEntry) []byte {
	return makeServerEnvelope(EventRoundResults, struct {
		ImpostorId       string             `json:"impostorId"`
		ImpostorNickname string             `json:"impostorNickname"`
		ImpostorWon      bool               `json:"impostorWon"`
		CorrectVoters    []string           `json:"correctVoters"`
		VotingResults    []VotingResult     `json:"votingResults"`
		Leaderboard      []LeaderboardEntry `json:"leaderboard"`
	}{
		ImpostorId:       outcome.ImpostorId,
		ImpostorNickname: outcome.ImpostorNickname,
		ImpostorWon:      outcome.ImpostorWon,
		CorrectVoters:    outcome.CorrectVoters,
		VotingResults:    outcome.VotingResults,
		Leaderboard:      leaderboard,
	})
}

func MakePacketSetComplete(autoNextIn int) []byte {
	return makeServerEnvelope(EventSetComplete, struct {
		AutoNextIn int `json:"autoNextIn"`
	}{AutoNextIn: autoNextIn})
}

func MakePacketGameComplete(winner LeaderboardEntry) []byte {
	return makeServerEnvelope(EventGameComplete, struct {
		Winner LeaderboardEntry `json:"winner"`
	}{Winner: winner})
}

func MakePacketGamePaused() []byte {
	return makeServerEnvelope(EventGamePaused, nil)
}

func MakePacketGameResumed(timeLeft int) []byte {
	return makeServerEnvelope(EventGameResumed, struct {
		TimeLeft int `json:"timeLeft"`
	}{TimeLeft: timeLeft})
}

func MakePacketError(message string) []byte {
	return makeServerEnvelope(EventError, struct {
		Message string `json:"message"`
	}{Message: message})
}
