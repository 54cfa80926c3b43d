package game

import (
	"context"
	"net/http"
	"strings"
	"time"

	"api/crypto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const joinResolveTimeout = 5 * time.Second

// jwtTokenIssuer adapts the crypto manager to the room's TokenIssuer port.
type jwtTokenIssuer struct {
	manager *crypto.JWTManager
}

func NewTokenIssuer(manager *crypto.JWTManager) jwtTokenIssuer {
	return jwtTokenIssuer{manager: manager}
}

func (i jwtTokenIssuer) Issue(playerId, roomId string) (string, error) {
	return i.manager.Generate(playerId, roomId, time.Now())
}

// GameHandler owns the three upgrade endpoints. All validation that can fail
// with an HTTP status happens before the upgrade; after the upgrade, errors
// travel as websocket error packets.
type GameHandler struct {
	lobby    *lobby
	tokens   *crypto.JWTManager
	cfg      RoomConfig
	words    WordPicker
	upgrader websocket.Upgrader
}

func NewGameHandler(l *lobby, tokens *crypto.JWTManager, cfg RoomConfig, words WordPicker) *GameHandler {
	return &GameHandler{
		lobby:  l,
		tokens: tokens,
		cfg:    cfg,
		words:  words,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// origin policy is enforced by the CORS middleware
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *GameHandler) CreateRoom(c *gin.Context) {
	nickname, err := ValidateNickname(c.Query("nickname"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	socket := NewWebsocketConnection(conn)
	player := NewPlayer(uuid.NewString(), nickname, &socket)
	room := NewRoom(player, DefaultSettings(), h.cfg, h.words, NewTokenIssuer(h.tokens))

	ctx, cancel := context.WithTimeout(context.Background(), joinResolveTimeout)
	h.lobby.RequestAddAndRunRoom(ctx, room)
	cancel()

	go player.WritePump()
	player.ReadPump()
}

func (h *GameHandler) JoinRoom(c *gin.Context) {
	nickname, err := ValidateNickname(c.Query("nickname"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	roomId := c.Param("roomid")
	if roomId == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room id is required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	socket := NewWebsocketConnection(conn)
	player := NewPlayer(uuid.NewString(), nickname, &socket)
	h.resolveJoin(roomId, player, false, &socket)
}

// RejoinRoom reattaches a disconnected player to their held seat. The token
// carries the player id and the room it was issued for.
func (h *GameHandler) RejoinRoom(c *gin.Context) {
	roomId := c.Param("roomid")
	playerId, tokenRoomId, err := h.tokens.Verify(c.Query("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if !strings.EqualFold(tokenRoomId, roomId) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token was issued for a different room"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	socket := NewWebsocketConnection(conn)
	player := NewPlayer(playerId, "", &socket)
	h.resolveJoin(roomId, player, true, &socket)
}

// resolveJoin routes the request through the lobby and waits for the room
// actor's verdict. On rejection the error goes out as a packet since the
// connection is already upgraded.
func (h *GameHandler) resolveJoin(roomId string, player *wsPlayer, rejoin bool, socket *websocketConnection) {
	jreq := NewRoomJoinRequest(player, rejoin)

	ctx, cancel := context.WithTimeout(context.Background(), joinResolveTimeout)
	defer cancel()
	h.lobby.ForwardPlayerJoinRequestToRoom(ctx, roomId, jreq)

	select {
	case err := <-jreq.errChan:
		if err != nil {
			socket.Write(MakePacketError(err.Error()))
			socket.Close(err.Error())
			return
		}
	case <-ctx.Done():
		socket.Write(MakePacketError("join request timed out"))
		socket.Close("")
		return
	}

	go player.WritePump()
	player.ReadPump()
}
