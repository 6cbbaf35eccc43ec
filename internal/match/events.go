package match

import "quizduel/internal/game"

// Inbound events, client -> server
const (
	EventCreateRoom    = "create-room"
	EventJoinRoom      = "join-room"
	EventPlayerAnswer  = "player-answer"
	EventRequestScores = "request-scores"
	EventGameCompleted = "game-completed"
)

// Outbound events, server -> client
const (
	EventRoomCreated    = "room-created"
	EventRoomNotFound   = "room-not-found"
	EventErrorMessage   = "error-message"
	EventPlayerJoined   = "player-joined"
	EventGameStarted    = "game-started"
	EventOpponentAnswer = "opponent-answer"
	EventScoreUpdate    = "score-update"
	EventGameResults    = "game-results"
	EventOpponentLeft   = "opponent-left"
)

// CreateRoomRequest carries the host identity; Authenticated is set by the transport, never decoded
type CreateRoomRequest struct {
	UserID        string `json:"userId"`
	Username      string `json:"username"`
	Avatar        string `json:"avatar"`
	Authenticated bool   `json:"-"`
}

type JoinRoomRequest struct {
	RoomCode      string `json:"roomCode"`
	UserID        string `json:"userId"`
	Username      string `json:"username"`
	Avatar        string `json:"avatar"`
	Authenticated bool   `json:"-"`
}

// PlayerAnswerRequest carries the client's own correctness claim, which the server ignores.
// Both indexes are required; nil means the field was missing.
type PlayerAnswerRequest struct {
	RoomCode      string `json:"roomCode"`
	QuestionIndex *int   `json:"questionIndex"`
	AnswerIndex   *int   `json:"answerIndex"`
	IsCorrect     bool   `json:"isCorrect"`
}

type RoomRequest struct {
	RoomCode string `json:"roomCode"`
}

type RoomCreated struct {
	RoomCode string `json:"roomCode"`
}

type PlayerInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type PlayerJoined struct {
	Player PlayerInfo `json:"player"`
}

type GameStarted struct {
	Questions []game.Question `json:"questions"`
}

type OpponentAnswer struct {
	QuestionIndex int  `json:"questionIndex"`
	AnswerIndex   int  `json:"answerIndex"`
	IsCorrect     bool `json:"isCorrect"`
}

// ScoreUpdate always carries full current scores relative to its recipient
type ScoreUpdate struct {
	PlayerScore   int    `json:"playerScore"`
	OpponentScore int    `json:"opponentScore"`
	PlayerName    string `json:"playerName"`
	OpponentName  string `json:"opponentName"`
	PlayerIsHost  bool   `json:"playerIsHost"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

type Empty struct{}
