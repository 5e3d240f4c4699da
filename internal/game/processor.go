// Package game is the server-authoritative action pipeline. Every client
// intent passes through the processor, which validates it against current
// state and policy, applies it to the world, and broadcasts exactly one
// update per committed change. A single commit lock serializes
// validate/apply/broadcast so every client observes updates in the same
// order.
package game

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/plaza-world/plaza/internal/dependencies/clock"
	"github.com/plaza-world/plaza/internal/model"
	"github.com/plaza-world/plaza/internal/moderation"
	"github.com/plaza-world/plaza/internal/protocol"
	"github.com/plaza-world/plaza/internal/services/auth"
	"github.com/plaza-world/plaza/internal/session"
	"github.com/plaza-world/plaza/internal/world"
)

// AnonName is assigned when a client connects with an empty name
const AnonName = "Anon"

// Processor drives all world state changes
type Processor struct {
	world      *world.Store
	sessions   *session.Registry
	moderation *moderation.Service
	auth       *auth.Service
	clock      clock.Clock
	logger     *slog.Logger

	// commitMu serializes the validate/apply/broadcast sequence of every
	// state change, which is what guarantees a single global update order
	commitMu sync.Mutex
	nextID   model.ClientID
}

// NewProcessor wires the processor into the session registry's eviction
// path: a slow consumer is disconnected through the same code path as a
// closed socket.
func NewProcessor(
	worldStore *world.Store,
	sessions *session.Registry,
	mod *moderation.Service,
	authService *auth.Service,
	clk clock.Clock,
	logger *slog.Logger,
) *Processor {
	p := &Processor{
		world:      worldStore,
		sessions:   sessions,
		moderation: mod,
		auth:       authService,
		clock:      clk,
		logger:     logger.With(slog.String("component", "game")),
	}
	// Eviction fires while the registry is mid-broadcast under the commit
	// lock, so the disconnect has to run on its own goroutine.
	sessions.SetEvictFunc(func(id model.ClientID) {
		go p.Disconnect(id)
	})
	return p
}

// Connect admits a new client: policy checks, name resolution, identity
// minting, world insertion, and the join handshake (full state to the
// joiner, one player_joined to everyone else).
func (p *Processor) Connect(ctx context.Context, ip string, req protocol.ConnectPayload) (*session.Client, error) {
	if err := p.moderation.TrackConnect(ip); err != nil {
		return nil, err
	}

	name, err := p.resolveName(ctx, req)
	if err != nil {
		p.moderation.ReleaseIP(ip)
		return nil, err
	}

	p.commitMu.Lock()
	defer p.commitMu.Unlock()

	name = p.dedupeName(name)

	p.nextID++
	id := p.nextID

	client, err := p.sessions.Register(id, ip)
	if err != nil {
		p.moderation.ReleaseIP(ip)
		return nil, err
	}

	player := model.Player{
		ID:         id,
		Name:       name,
		Position:   model.Position{},
		LastActive: p.clock.Now(),
	}
	p.world.Add(player)

	p.send(id, protocol.MsgFullState, protocol.FullStatePayload{
		You:     id,
		Players: p.world.Snapshot(),
	})
	p.broadcast(protocol.UpdatePayload{
		Kind:   protocol.UpdatePlayerJoined,
		Player: &player,
	}, id)

	p.logger.Info("client connected",
		slog.Uint64("client_id", uint64(id)),
		slog.String("name", name),
		slog.String("ip", ip))
	return client, nil
}

// resolveName applies trimming, truncation, the anonymous fallback,
// account verification, and the moderation gate to a requested name
func (p *Processor) resolveName(ctx context.Context, req protocol.ConnectPayload) (string, error) {
	name := strings.TrimSpace(req.Name)
	if utf8.RuneCountInString(name) > model.NameLimit {
		runes := []rune(name)
		name = string(runes[:model.NameLimit])
	}
	if name == "" {
		name = AnonName
	}

	if err := p.auth.VerifyConnect(ctx, name, req.Password); err != nil {
		return "", err
	}

	switch verdict := p.moderation.CheckText(name); verdict.Action {
	case moderation.TextReject:
		name = strings.Repeat("*", 5)
	case moderation.TextRedact:
		name = verdict.Cleaned
	}
	return name, nil
}

// dedupeName appends the lowest free " (N)" suffix when the requested name
// is already on screen. Called under the commit lock.
func (p *Processor) dedupeName(name string) string {
	if !p.world.NameInUse(name) {
		return name
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", name, n)
		if !p.world.NameInUse(candidate) {
			return candidate
		}
	}
}

// Disconnect removes a client. Safe to call more than once per connection;
// only the first call removes the player and broadcasts player_left.
func (p *Processor) Disconnect(id model.ClientID) {
	p.commitMu.Lock()
	defer p.commitMu.Unlock()

	client, ok := p.sessions.Get(id)
	if !ok {
		return
	}
	ip := client.IP

	if !p.sessions.Unregister(id) {
		return
	}
	p.moderation.ReleaseIP(ip)

	if _, existed := p.world.Remove(id); existed {
		p.broadcast(protocol.UpdatePayload{
			Kind: protocol.UpdatePlayerLeft,
			ID:   id,
		})
	}

	p.logger.Info("client disconnected", slog.Uint64("client_id", uint64(id)))
}

// HandleAction validates and commits one client action. A returned error is
// for the sender only; the connection layer maps it to an error frame and
// keeps the socket open.
func (p *Processor) HandleAction(ctx context.Context, id model.ClientID, msg *protocol.Message) error {
	switch msg.Type {
	case protocol.MsgMove:
		var payload protocol.MovePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return err
		}
		return p.handleMove(id, payload)
	case protocol.MsgChat:
		var payload protocol.ChatPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return err
		}
		return p.handleChat(id, payload)
	case protocol.MsgDraw:
		var payload protocol.DrawPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return err
		}
		return p.handleDraw(ctx, id, payload)
	case protocol.MsgEmote:
		var payload protocol.EmotePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return err
		}
		return p.handleEmote(id, payload)
	case protocol.MsgConnect:
		return model.ErrAlreadyConnected
	default:
		return fmt.Errorf("unexpected message type %q", msg.Type)
	}
}

func (p *Processor) handleMove(id model.ClientID, payload protocol.MovePayload) error {
	pos := model.Position{X: payload.X, Y: payload.Y}
	if !pos.InBounds() {
		return model.ErrOutOfBounds
	}

	p.commitMu.Lock()
	defer p.commitMu.Unlock()

	if !p.world.SetPosition(id, pos) {
		return model.ErrNotConnected
	}
	p.world.SetLastActive(id, p.clock.Now())

	p.broadcast(protocol.UpdatePayload{
		Kind:     protocol.UpdatePlayerMoved,
		ID:       id,
		Position: &pos,
	})
	return nil
}

func (p *Processor) handleChat(id model.ClientID, payload protocol.ChatPayload) error {
	if utf8.RuneCountInString(payload.Text) > model.MessageLimit {
		return model.ErrMessageTooLong
	}

	p.commitMu.Lock()
	defer p.commitMu.Unlock()

	player, ok := p.world.Get(id)
	if !ok {
		return model.ErrNotConnected
	}

	ip := ""
	if client, ok := p.sessions.Get(id); ok {
		ip = client.IP
	}

	verdict := p.moderation.CheckText(payload.Text)
	p.moderation.RecordChat(player.Name, ip, payload.Text, verdict.Action != moderation.TextAllow)

	if verdict.Action == moderation.TextReject {
		return model.ErrMessageRejected
	}

	text := payload.Text
	if verdict.Action == moderation.TextRedact {
		text = verdict.Cleaned
	}

	p.world.SetLastActive(id, p.clock.Now())
	p.broadcast(protocol.UpdatePayload{
		Kind: protocol.UpdateChat,
		ID:   id,
		Text: text,
	})
	return nil
}

func (p *Processor) handleDraw(ctx context.Context, id model.ClientID, payload protocol.DrawPayload) error {
	player, ok := p.world.Get(id)
	if !ok {
		return model.ErrNotConnected
	}

	// The storage write stays outside the commit lock so a slow backend
	// only stalls the submitting connection. Nothing is broadcast here, so
	// commit ordering only covers the pending ack.
	drawingID, err := p.moderation.SubmitDrawing(ctx, player.Name, payload.Data)
	if err != nil {
		return err
	}

	p.commitMu.Lock()
	defer p.commitMu.Unlock()

	p.world.SetLastActive(id, p.clock.Now())
	p.send(id, protocol.MsgDrawPending, protocol.DrawPendingPayload{DrawingID: drawingID})
	return nil
}

func (p *Processor) handleEmote(id model.ClientID, payload protocol.EmotePayload) error {
	p.commitMu.Lock()
	defer p.commitMu.Unlock()

	if !p.world.SetEmote(id, payload.Emote) {
		return model.ErrNotConnected
	}
	p.world.SetLastActive(id, p.clock.Now())

	p.broadcast(protocol.UpdatePayload{
		Kind:  protocol.UpdatePlayerEmote,
		ID:    id,
		Emote: payload.Emote,
	})
	return nil
}

// AnnounceDrawing publishes an approved drawing. If its author is still
// connected the drawing is attached to them and broadcast once; an offline
// author's drawing stays persisted but silent.
func (p *Processor) AnnounceDrawing(drawing *model.Drawing) {
	p.commitMu.Lock()
	defer p.commitMu.Unlock()

	var authorID model.ClientID
	found := false
	for _, player := range p.world.Snapshot() {
		if player.Name == drawing.Author {
			authorID = player.ID
			found = true
			break
		}
	}
	if !found {
		p.logger.Info("approved drawing has no connected author",
			slog.String("drawing_id", string(drawing.ID)),
			slog.String("author", drawing.Author))
		return
	}

	p.world.SetDrawing(authorID, drawing.ID)
	p.broadcast(protocol.UpdatePayload{
		Kind:      protocol.UpdateDrawing,
		ID:        authorID,
		DrawingID: drawing.ID,
		Data:      drawing.Data,
	})
}

// KickByIP force-disconnects the client connected from an IP, telling it why
// first. Used when an admin bans the IP of a live connection.
func (p *Processor) KickByIP(ip string) bool {
	client, ok := p.sessions.FindByIP(ip)
	if !ok {
		return false
	}

	p.send(client.ID, protocol.MsgError, protocol.ErrorPayload{
		Code:   protocol.ErrCodeBanned,
		Reason: "your address has been banned",
	})
	p.Disconnect(client.ID)
	return true
}

// Players returns the current world snapshot
func (p *Processor) Players() []model.Player {
	return p.world.Snapshot()
}

// send marshals and queues a frame for one client, dropping it on encode
// failure
func (p *Processor) send(id model.ClientID, msgType protocol.MessageType, payload any) {
	data, err := protocol.Encode(msgType, payload)
	if err != nil {
		p.logger.Error("encode failed", slog.String("type", string(msgType)), slog.String("error", err.Error()))
		return
	}
	_ = p.sessions.SendTo(id, data)
}

// broadcast marshals one update and queues it for every client except the
// excluded IDs. Called under the commit lock so updates hit every queue in
// commit order.
func (p *Processor) broadcast(update protocol.UpdatePayload, exclude ...model.ClientID) {
	data, err := protocol.Encode(protocol.MsgUpdate, update)
	if err != nil {
		p.logger.Error("encode failed", slog.String("kind", string(update.Kind)), slog.String("error", err.Error()))
		return
	}
	p.sessions.Broadcast(data, exclude...)
}
