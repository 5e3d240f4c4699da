package game

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/plaza-world/plaza/internal/dependencies/mocks"
	"github.com/plaza-world/plaza/internal/model"
	"github.com/plaza-world/plaza/internal/moderation"
	"github.com/plaza-world/plaza/internal/protocol"
	"github.com/plaza-world/plaza/internal/services/auth"
	"github.com/plaza-world/plaza/internal/session"
	"github.com/plaza-world/plaza/internal/storage/memory"
	"github.com/plaza-world/plaza/internal/world"
)

type ProcessorSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	sessions   *session.Registry
	moderation *moderation.Service
	auth       *auth.Service
	processor  *Processor
	ctx        context.Context
}

func TestProcessorSuite(t *testing.T) {
	suite.Run(t, new(ProcessorSuite))
}

func (s *ProcessorSuite) SetupTest() {
	logger := slog.Default()
	s.storage = memory.New()
	s.clock = &mocks.MockClock{CurrentTime: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	s.sessions = session.New(logger, nil)
	s.moderation = moderation.New(s.storage, s.clock, logger, moderation.Config{})
	s.auth = auth.New(s.storage, s.clock, logger)
	s.processor = NewProcessor(world.New(), s.sessions, s.moderation, s.auth, s.clock, logger)
	s.ctx = context.Background()
}

// connect is a helper that joins a player and drains the handshake frames
func (s *ProcessorSuite) connect(name, ip string) *session.Client {
	client, err := s.processor.Connect(s.ctx, ip, protocol.ConnectPayload{Name: name})
	s.Require().NoError(err)
	return client
}

// frames drains and decodes everything queued for a client
func (s *ProcessorSuite) frames(c *session.Client) []*protocol.Message {
	var out []*protocol.Message
	for {
		select {
		case data, open := <-c.Send():
			if !open {
				return out
			}
			msg, err := protocol.Decode(data)
			s.Require().NoError(err)
			out = append(out, msg)
		default:
			return out
		}
	}
}

func (s *ProcessorSuite) update(msg *protocol.Message) protocol.UpdatePayload {
	s.Require().Equal(protocol.MsgUpdate, msg.Type)
	var payload protocol.UpdatePayload
	s.Require().NoError(json.Unmarshal(msg.Payload, &payload))
	return payload
}

func (s *ProcessorSuite) fullState(msg *protocol.Message) protocol.FullStatePayload {
	s.Require().Equal(protocol.MsgFullState, msg.Type)
	var payload protocol.FullStatePayload
	s.Require().NoError(json.Unmarshal(msg.Payload, &payload))
	return payload
}

// Connect handshake

func (s *ProcessorSuite) TestConnectHandshake() {
	alice := s.connect("Alice", "10.0.0.1")

	aliceFrames := s.frames(alice)
	s.Require().Len(aliceFrames, 1)
	state := s.fullState(aliceFrames[0])
	s.Equal(model.ClientID(1), state.You)
	s.Require().Len(state.Players, 1)
	s.Equal("Alice", state.Players[0].Name)

	bob := s.connect("Bob", "10.0.0.2")

	bobFrames := s.frames(bob)
	s.Require().Len(bobFrames, 1)
	bobState := s.fullState(bobFrames[0])
	s.Equal(model.ClientID(2), bobState.You)
	s.Len(bobState.Players, 2)

	// Alice sees Bob join, exactly once, and no full state re-send
	aliceFrames = s.frames(alice)
	s.Require().Len(aliceFrames, 1)
	joined := s.update(aliceFrames[0])
	s.Equal(protocol.UpdatePlayerJoined, joined.Kind)
	s.Require().NotNil(joined.Player)
	s.Equal("Bob", joined.Player.Name)
	s.Equal(model.ClientID(2), joined.Player.ID)
}

func (s *ProcessorSuite) TestDuplicateNamesGetSuffixes() {
	s.connect("Alice", "10.0.0.1")
	b := s.connect("Alice", "10.0.0.2")
	c := s.connect("Alice", "10.0.0.3")

	s.Equal("Alice (2)", s.fullState(s.frames(b)[0]).Players[1].Name)

	players := s.fullState(s.frames(c)[0]).Players
	s.Equal("Alice (3)", players[2].Name)
}

func (s *ProcessorSuite) TestEmptyNameBecomesAnon() {
	a := s.connect("   ", "10.0.0.1")
	s.Equal("Anon", s.fullState(s.frames(a)[0]).Players[0].Name)
}

func (s *ProcessorSuite) TestLongNameIsTruncated() {
	long := ""
	for i := 0; i < model.NameLimit+10; i++ {
		long += "x"
	}
	a := s.connect(long, "10.0.0.1")

	name := s.fullState(s.frames(a)[0]).Players[0].Name
	s.Len(name, model.NameLimit)
}

func (s *ProcessorSuite) TestBannedNameIsMasked() {
	s.Require().NoError(s.moderation.BanWord(s.ctx, model.BannedWord{Word: "grape", FullBan: true}))

	a := s.connect("GrapeLord", "10.0.0.1")
	s.Equal("*****", s.fullState(s.frames(a)[0]).Players[0].Name)
}

func (s *ProcessorSuite) TestRedactedNameKeepsCleanParts() {
	s.Require().NoError(s.moderation.BanWord(s.ctx, model.BannedWord{Word: "grape"}))

	a := s.connect("GrapeLord", "10.0.0.1")
	s.Equal("*****Lord", s.fullState(s.frames(a)[0]).Players[0].Name)
}

// Connect policy

func (s *ProcessorSuite) TestBannedIPCannotConnect() {
	s.Require().NoError(s.moderation.BanIP(s.ctx, "10.0.0.1"))

	_, err := s.processor.Connect(s.ctx, "10.0.0.1", protocol.ConnectPayload{Name: "Alice"})
	s.ErrorIs(err, model.ErrIPBanned)
}

func (s *ProcessorSuite) TestOneConnectionPerIP() {
	s.connect("Alice", "10.0.0.1")

	_, err := s.processor.Connect(s.ctx, "10.0.0.1", protocol.ConnectPayload{Name: "Bob"})
	s.ErrorIs(err, model.ErrIPAlreadyConnected)
}

func (s *ProcessorSuite) TestRegisteredNameRequiresPassword() {
	s.Require().NoError(s.auth.Register(s.ctx, "Alice", "hunter2"))

	_, err := s.processor.Connect(s.ctx, "10.0.0.1", protocol.ConnectPayload{Name: "Alice"})
	s.ErrorIs(err, model.ErrInvalidCredentials)

	// The failed attempt must not hold the IP slot
	client, err := s.processor.Connect(s.ctx, "10.0.0.1", protocol.ConnectPayload{Name: "Alice", Password: "hunter2"})
	s.Require().NoError(err)
	s.NotNil(client)
}

// Movement

func (s *ProcessorSuite) TestMoveBroadcastsToEveryoneIncludingSender() {
	alice := s.connect("Alice", "10.0.0.1")
	bob := s.connect("Bob", "10.0.0.2")
	s.frames(alice)
	s.frames(bob)

	err := s.processor.HandleAction(s.ctx, alice.ID, mustMessage(protocol.MsgMove, protocol.MovePayload{X: 100, Y: -50}))
	s.Require().NoError(err)

	for _, c := range []*session.Client{alice, bob} {
		frames := s.frames(c)
		s.Require().Len(frames, 1)
		moved := s.update(frames[0])
		s.Equal(protocol.UpdatePlayerMoved, moved.Kind)
		s.Equal(alice.ID, moved.ID)
		s.Require().NotNil(moved.Position)
		s.Equal(100, moved.Position.X)
		s.Equal(-50, moved.Position.Y)
	}
}

func (s *ProcessorSuite) TestOutOfBoundsMoveIsRejected() {
	alice := s.connect("Alice", "10.0.0.1")
	bob := s.connect("Bob", "10.0.0.2")
	s.frames(alice)
	s.frames(bob)

	err := s.processor.HandleAction(s.ctx, alice.ID, mustMessage(protocol.MsgMove, protocol.MovePayload{X: model.WorldMaxX + 1, Y: 0}))
	s.ErrorIs(err, model.ErrOutOfBounds)

	s.Empty(s.frames(alice))
	s.Empty(s.frames(bob))

	// Position unchanged
	players := s.processor.Players()
	s.Require().NotEmpty(players)
	s.Equal(model.Position{}, players[0].Position)
}

// Chat

func (s *ProcessorSuite) TestCleanChatBroadcasts() {
	alice := s.connect("Alice", "10.0.0.1")
	bob := s.connect("Bob", "10.0.0.2")
	s.frames(alice)
	s.frames(bob)

	err := s.processor.HandleAction(s.ctx, alice.ID, mustMessage(protocol.MsgChat, protocol.ChatPayload{Text: "hello"}))
	s.Require().NoError(err)

	for _, c := range []*session.Client{alice, bob} {
		frames := s.frames(c)
		s.Require().Len(frames, 1)
		chat := s.update(frames[0])
		s.Equal(protocol.UpdateChat, chat.Kind)
		s.Equal("hello", chat.Text)
	}
}

func (s *ProcessorSuite) TestFullBanChatNeverDelivered() {
	s.Require().NoError(s.moderation.BanWord(s.ctx, model.BannedWord{Word: "grape", FullBan: true}))

	alice := s.connect("Alice", "10.0.0.1")
	bob := s.connect("Bob", "10.0.0.2")
	s.frames(alice)
	s.frames(bob)

	err := s.processor.HandleAction(s.ctx, alice.ID, mustMessage(protocol.MsgChat, protocol.ChatPayload{Text: "have a grape"}))
	s.ErrorIs(err, model.ErrMessageRejected)

	s.Empty(s.frames(alice))
	s.Empty(s.frames(bob))
}

func (s *ProcessorSuite) TestRedactedChatIsIdenticalForAllReceivers() {
	s.Require().NoError(s.moderation.BanWord(s.ctx, model.BannedWord{Word: "grape"}))

	alice := s.connect("Alice", "10.0.0.1")
	bob := s.connect("Bob", "10.0.0.2")
	s.frames(alice)
	s.frames(bob)

	err := s.processor.HandleAction(s.ctx, alice.ID, mustMessage(protocol.MsgChat, protocol.ChatPayload{Text: "have a Grape"}))
	s.Require().NoError(err)

	aliceText := s.update(s.frames(alice)[0]).Text
	bobText := s.update(s.frames(bob)[0]).Text
	s.Equal("have a *****", aliceText)
	s.Equal(aliceText, bobText)
}

func (s *ProcessorSuite) TestOverlongChatRejected() {
	alice := s.connect("Alice", "10.0.0.1")
	s.frames(alice)

	long := make([]rune, model.MessageLimit+1)
	for i := range long {
		long[i] = 'a'
	}
	err := s.processor.HandleAction(s.ctx, alice.ID, mustMessage(protocol.MsgChat, protocol.ChatPayload{Text: string(long)}))
	s.ErrorIs(err, model.ErrMessageTooLong)
}

func (s *ProcessorSuite) TestChatIsAudited() {
	s.Require().NoError(s.moderation.BanWord(s.ctx, model.BannedWord{Word: "grape", FullBan: true}))

	alice := s.connect("Alice", "10.0.0.1")
	s.frames(alice)

	_ = s.processor.HandleAction(s.ctx, alice.ID, mustMessage(protocol.MsgChat, protocol.ChatPayload{Text: "grape"}))
	_ = s.processor.HandleAction(s.ctx, alice.ID, mustMessage(protocol.MsgChat, protocol.ChatPayload{Text: "hello"}))

	log := s.moderation.ChatLog()
	s.Require().Len(log, 2)
	s.Equal("hello", log[0].Text)
	s.False(log[0].Flagged)
	s.Equal("grape", log[1].Text) // audit keeps the original text
	s.True(log[1].Flagged)
	s.Equal("10.0.0.1", log[1].IP)
}

// Drawings

func (s *ProcessorSuite) TestDrawingPendingUntilApproved() {
	alice := s.connect("Alice", "10.0.0.1")
	bob := s.connect("Bob", "10.0.0.2")
	s.frames(alice)
	s.frames(bob)

	err := s.processor.HandleAction(s.ctx, alice.ID, mustMessage(protocol.MsgDraw, protocol.DrawPayload{Data: []byte{0x01, 0x02}}))
	s.Require().NoError(err)

	// Submitter gets the pending ack; nobody else hears about it
	aliceFrames := s.frames(alice)
	s.Require().Len(aliceFrames, 1)
	s.Equal(protocol.MsgDrawPending, aliceFrames[0].Type)
	var pending protocol.DrawPendingPayload
	s.Require().NoError(json.Unmarshal(aliceFrames[0].Payload, &pending))
	s.NotEmpty(pending.DrawingID)
	s.Empty(s.frames(bob))

	// Approval publishes it exactly once
	drawing, err := s.moderation.ApproveDrawing(s.ctx, pending.DrawingID)
	s.Require().NoError(err)
	s.processor.AnnounceDrawing(drawing)

	for _, c := range []*session.Client{alice, bob} {
		frames := s.frames(c)
		s.Require().Len(frames, 1)
		update := s.update(frames[0])
		s.Equal(protocol.UpdateDrawing, update.Kind)
		s.Equal(alice.ID, update.ID)
		s.Equal(pending.DrawingID, update.DrawingID)
		s.Equal([]byte{0x01, 0x02}, update.Data)
	}
}

func (s *ProcessorSuite) TestApprovedDrawingWithOfflineAuthorStaysSilent() {
	alice := s.connect("Alice", "10.0.0.1")
	s.frames(alice)

	err := s.processor.HandleAction(s.ctx, alice.ID, mustMessage(protocol.MsgDraw, protocol.DrawPayload{Data: []byte{0x01}}))
	s.Require().NoError(err)
	var pending protocol.DrawPendingPayload
	s.Require().NoError(json.Unmarshal(s.frames(alice)[0].Payload, &pending))

	s.processor.Disconnect(alice.ID)
	bob := s.connect("Bob", "10.0.0.2")
	s.frames(bob)

	drawing, err := s.moderation.ApproveDrawing(s.ctx, pending.DrawingID)
	s.Require().NoError(err)
	s.processor.AnnounceDrawing(drawing)

	s.Empty(s.frames(bob))
}

func (s *ProcessorSuite) TestOversizedDrawingRejected() {
	alice := s.connect("Alice", "10.0.0.1")
	s.frames(alice)

	err := s.processor.HandleAction(s.ctx, alice.ID, mustMessage(protocol.MsgDraw, protocol.DrawPayload{Data: make([]byte, model.DrawingLimit+1)}))
	s.ErrorIs(err, model.ErrDrawingTooLarge)
}

// Emotes

func (s *ProcessorSuite) TestEmoteBroadcasts() {
	alice := s.connect("Alice", "10.0.0.1")
	bob := s.connect("Bob", "10.0.0.2")
	s.frames(alice)
	s.frames(bob)

	err := s.processor.HandleAction(s.ctx, alice.ID, mustMessage(protocol.MsgEmote, protocol.EmotePayload{Emote: "wave"}))
	s.Require().NoError(err)

	update := s.update(s.frames(bob)[0])
	s.Equal(protocol.UpdatePlayerEmote, update.Kind)
	s.Equal("wave", update.Emote)
}

// Disconnect

func (s *ProcessorSuite) TestDisconnectBroadcastsPlayerLeftOnce() {
	alice := s.connect("Alice", "10.0.0.1")
	bob := s.connect("Bob", "10.0.0.2")
	s.frames(alice)
	s.frames(bob)

	s.processor.Disconnect(alice.ID)
	s.processor.Disconnect(alice.ID) // second call is a no-op

	frames := s.frames(bob)
	s.Require().Len(frames, 1)
	left := s.update(frames[0])
	s.Equal(protocol.UpdatePlayerLeft, left.Kind)
	s.Equal(alice.ID, left.ID)

	s.Len(s.processor.Players(), 1)
}

func (s *ProcessorSuite) TestDisconnectFreesIPSlot() {
	alice := s.connect("Alice", "10.0.0.1")
	s.processor.Disconnect(alice.ID)

	again := s.connect("Alice", "10.0.0.1")
	s.NotEqual(alice.ID, again.ID) // fresh identity on reconnect
}

func (s *ProcessorSuite) TestActionsAfterDisconnectFail() {
	alice := s.connect("Alice", "10.0.0.1")
	s.processor.Disconnect(alice.ID)

	err := s.processor.HandleAction(s.ctx, alice.ID, mustMessage(protocol.MsgMove, protocol.MovePayload{X: 1, Y: 1}))
	s.ErrorIs(err, model.ErrNotConnected)
}

// Kicks

func (s *ProcessorSuite) TestKickByIP() {
	alice := s.connect("Alice", "10.0.0.1")
	bob := s.connect("Bob", "10.0.0.2")
	s.frames(alice)
	s.frames(bob)

	s.True(s.processor.KickByIP("10.0.0.1"))
	s.False(s.processor.KickByIP("10.0.0.9"))

	aliceFrames := s.frames(alice)
	s.Require().NotEmpty(aliceFrames)
	s.Equal(protocol.MsgError, aliceFrames[0].Type)
	var errPayload protocol.ErrorPayload
	s.Require().NoError(json.Unmarshal(aliceFrames[0].Payload, &errPayload))
	s.Equal(protocol.ErrCodeBanned, errPayload.Code)

	left := s.update(s.frames(bob)[0])
	s.Equal(protocol.UpdatePlayerLeft, left.Kind)
	s.Len(s.processor.Players(), 1)
}

func mustMessage(msgType protocol.MessageType, payload any) *protocol.Message {
	data, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	return &protocol.Message{Type: msgType, Payload: data}
}

// stallingStorage blocks SaveDrawing until released, standing in for a slow
// or unavailable backend
type stallingStorage struct {
	*memory.Storage
	entered chan struct{}
	release chan struct{}
}

func (st *stallingStorage) SaveDrawing(ctx context.Context, drawing *model.Drawing) error {
	close(st.entered)
	<-st.release
	return st.Storage.SaveDrawing(ctx, drawing)
}

func TestStalledDrawingStorageDoesNotBlockOtherActions(t *testing.T) {
	logger := slog.Default()
	st := &stallingStorage{
		Storage: memory.New(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	clk := &mocks.MockClock{CurrentTime: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	sessions := session.New(logger, nil)
	mod := moderation.New(st, clk, logger, moderation.Config{})
	processor := NewProcessor(world.New(), sessions, mod, auth.New(st, clk, logger), clk, logger)
	ctx := context.Background()

	alice, err := processor.Connect(ctx, "10.0.0.1", protocol.ConnectPayload{Name: "Alice"})
	require.NoError(t, err)
	bob, err := processor.Connect(ctx, "10.0.0.2", protocol.ConnectPayload{Name: "Bob"})
	require.NoError(t, err)

	drawDone := make(chan error, 1)
	go func() {
		drawDone <- processor.HandleAction(ctx, alice.ID, mustMessage(protocol.MsgDraw, protocol.DrawPayload{Data: []byte{0x01}}))
	}()
	<-st.entered

	// Other clients keep committing while the submission sits in storage
	moveDone := make(chan error, 1)
	go func() {
		moveDone <- processor.HandleAction(ctx, bob.ID, mustMessage(protocol.MsgMove, protocol.MovePayload{X: 5, Y: 5}))
	}()

	select {
	case err := <-moveDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("move blocked behind a stalled drawing submission")
	}

	close(st.release)
	require.NoError(t, <-drawDone)
}
