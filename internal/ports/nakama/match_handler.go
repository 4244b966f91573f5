package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math/rand"
	"strconv"

	"github.com/Rulkallos-CHL/spycards/internal/app"
	"github.com/Rulkallos-CHL/spycards/internal/bot"
	"github.com/Rulkallos-CHL/spycards/internal/config"
	"github.com/Rulkallos-CHL/spycards/internal/domain"
	"github.com/Rulkallos-CHL/spycards/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	HostID   string `json:"host_id"`   // User id of the participant who created the match
	GuestID  string `json:"guest_id"`  // User id of the second participant, "" until bound
	JoinCode string `json:"join_code"` // 5-digit code registered for this match

	Tick      int64                       `json:"tick"`
	Presences map[string]runtime.Presence `json:"-"` // Map UserId -> Presence for targeted messaging
	App       *app.Service                `json:"-"` // SpyCards app service with game logic
	Session   *app.Session                `json:"-"` // Live match session (nil until both seats bound)
	Concluded bool                        `json:"concluded"`

	Store        ports.SnapshotStorePort `json:"-"` // Persisted snapshot record
	StoreVersion string                  `json:"-"` // Storage version observed at last save
	Decks        ports.DeckPort          `json:"-"` // Per-user deck lookup
	Economy      ports.EconomyPort       `json:"-"` // SPY-coin wallet access

	DisconnectedID  string `json:"disconnected_id"`  // Participant in their rejoin grace window, "" when none
	DisconnectedAt  int64  `json:"disconnected_at"`  // Tick when the disconnect was observed
	DisconnectGrace int    `json:"disconnect_grace"` // Seconds a disconnected participant may rejoin

	BotID            string        `json:"bot_id"`              // User id of the auto-filled bot, "" when both seats are human
	BotPlan          []app.Command `json:"-"`                   // Remaining commands for the bot's current turn
	BotWaitUntil     int64         `json:"bot_wait_until"`      // Tick when the bot executes its next command
	SoloHumanTick    int64         `json:"solo_human_tick"`     // Tick when the host started waiting alone
	BotMinDelay      int           `json:"bot_min_delay"`       // Min seconds a bot waits between actions
	BotMaxDelay      int           `json:"bot_max_delay"`       // Max seconds a bot waits between actions
	BotAutoFillDelay int           `json:"bot_auto_fill_delay"` // Seconds a solo host waits before a bot opponent is bound
}

// opCodeCommand maps a client opcode to the app command it carries.
func opCodeCommand(opCode int64) (app.CommandType, bool) {
	switch opCode {
	case OpCmdPlayCard:
		return app.CmdPlayCard, true
	case OpCmdMoveToFront:
		return app.CmdMoveToFront, true
	case OpCmdAttackFront:
		return app.CmdAttackFront, true
	case OpCmdAttackHQ:
		return app.CmdAttackHQ, true
	case OpCmdEndTurn:
		return app.CmdEndTurn, true
	case OpCmdConcede:
		return app.CmdConcede, true
	default:
		return "", false
	}
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	state := &MatchState{
		Presences: make(map[string]runtime.Presence),
		App:       app.NewService(nil),
		Store:     NewNakamaSnapshotStore(nk),
		Decks:     NewNakamaDeckAdapter(nk),
		Economy:   NewNakamaEconomyAdapter(nk),
	}

	if v, ok := params["host_id"].(string); ok {
		state.HostID = v
	}
	if v, ok := params["join_code"].(string); ok {
		state.JoinCode = v
	}
	if state.HostID == "" {
		logger.Error("MatchInit: Missing host_id param.")
		return nil, 0, ""
	}

	if gc := config.GetGameConfig(); gc != nil {
		state.BotMinDelay = gc.BotMinDelaySeconds
		state.BotMaxDelay = gc.BotMaxDelaySeconds
		state.BotAutoFillDelay = gc.BotAutoFillDelaySeconds
		state.DisconnectGrace = gc.DisconnectGraceSeconds
	}

	// Environment variables override the config file.
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	if val, ok := env[EnvBotMinDelay]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotMinDelay = i
		}
	}
	if val, ok := env[EnvBotMaxDelay]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotMaxDelay = i
		}
	}
	if val, ok := env[EnvBotAutoFillDelay]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotAutoFillDelay = i
		}
	}
	if val, ok := env[EnvDisconnectGrace]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.DisconnectGrace = i
		}
	}

	// Defaults if not set
	if state.BotMinDelay <= 0 {
		state.BotMinDelay = 1
	}
	if state.BotMaxDelay < state.BotMinDelay {
		state.BotMaxDelay = state.BotMinDelay + 2
	}
	if state.BotAutoFillDelay <= 0 {
		state.BotAutoFillDelay = 10
	}
	if state.DisconnectGrace <= 0 {
		state.DisconnectGrace = 30
	}

	labelBytes, err := json.Marshal(domain.Label{Open: true, Game: domain.GameName, Phase: string(domain.StatusWaiting)})
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	tickRate := 1
	return state, tickRate, string(labelBytes)
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	userID := presence.GetUserId()

	if matchState.Concluded {
		return state, false, "match_finished"
	}

	if matchState.Session != nil {
		// In-game: only the two participants may (re)connect.
		if matchState.Session.State.Participant(userID) != nil {
			return state, true, ""
		}
		return state, false, "match_full"
	}

	// Waiting: the host reconnecting, the bound guest, or the first new guest.
	if userID == matchState.HostID || userID == matchState.GuestID || matchState.GuestID == "" {
		return state, true, ""
	}
	return state, false, "match_full"
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		matchState.Presences[userID] = p

		if matchState.Session != nil {
			// Reconnecting participant: clear any pending grace window and
			// bring them back up to date directly.
			if userID == matchState.DisconnectedID {
				matchState.DisconnectedID = ""
				matchState.DisconnectedAt = 0
			}
			mh.sendSnapshot(matchState, dispatcher, logger, []string{userID})
			continue
		}

		if userID != matchState.HostID && matchState.GuestID == "" {
			matchState.GuestID = userID
			logger.Info("MatchJoin: Guest %s bound, starting match.", userID)
			mh.startMatch(ctx, matchState, dispatcher, logger, nk, false)
		}
	}

	return matchState
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())
	}

	if len(matchState.Presences) > 0 {
		// A participant dropped while their opponent stays connected. Arm the
		// rejoin grace window; the loop concludes against them when it lapses.
		if matchState.Session != nil && !matchState.Concluded {
			for _, p := range presences {
				uid := p.GetUserId()
				if matchState.Session.State.Participant(uid) != nil {
					matchState.DisconnectedID = uid
					matchState.DisconnectedAt = tick
					logger.Info("MatchLeave: Participant %s disconnected, %ds to rejoin.", uid, matchState.DisconnectGrace)
				}
			}
		}
		return matchState
	}

	// No connected humans remain.
	if matchState.Session != nil && !matchState.Concluded {
		// Conclude against the last leaver so the persisted record reflects the
		// abandonment, then tear down.
		leaver := presences[len(presences)-1].GetUserId()
		if matchState.Session.State.Participant(leaver) != nil {
			events, err := matchState.App.Abandon(matchState.Session, leaver)
			if err != nil {
				logger.Error("MatchLeave: Failed to conclude abandoned match: %v", err)
			} else {
				mh.dispatchEvents(ctx, matchState, dispatcher, logger, nk, events)
			}
		}
	}

	if !matchState.Concluded {
		mh.teardown(ctx, matchState, logger, nk)
	}
	logger.Info("MatchLeave: Terminating match with no humans.")
	return nil
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		mh.handleCommand(ctx, matchState, dispatcher, logger, nk, msg)
	}

	if !matchState.Concluded {
		mh.processDisconnect(ctx, matchState, dispatcher, logger, nk)
	}
	if !matchState.Concluded {
		mh.processBot(ctx, matchState, dispatcher, logger, nk)
	}

	if matchState.Concluded {
		logger.Info("MatchLoop: Match concluded, shutting down.")
		return nil
	}

	return matchState
}

// handleCommand decodes one client message into an app command and applies it.
// Rejections go back to the sender only; the board state never leaks a failed
// command to the opponent.
func (mh *matchHandler) handleCommand(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, nk runtime.NakamaModule, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	cmdType, ok := opCodeCommand(msg.GetOpCode())
	if !ok {
		logger.Warn("handleCommand: Unknown opcode %d from %s", msg.GetOpCode(), senderID)
		return
	}

	if state.Session == nil {
		mh.sendRejected(state, dispatcher, logger, senderID, app.ErrMatchNotStarted)
		return
	}

	cmd := app.Command{Type: cmdType}
	if cmdType == app.CmdPlayCard {
		var body struct {
			HandIndex int `json:"handIndex"`
		}
		if err := json.Unmarshal(msg.GetData(), &body); err != nil {
			logger.Warn("handleCommand: Invalid play_card payload from %s: %v", senderID, err)
			mh.sendRejected(state, dispatcher, logger, senderID, app.ErrInvalidCardIndex)
			return
		}
		cmd.HandIndex = body.HandIndex
	}

	events, err := state.App.Apply(state.Session, senderID, cmd)
	if err != nil {
		logger.Debug("handleCommand: %s rejected for %s: %v", cmdType, senderID, err)
		mh.sendRejected(state, dispatcher, logger, senderID, err)
		return
	}

	mh.dispatchEvents(ctx, state, dispatcher, logger, nk, events)
}

// processDisconnect concludes a started match against a participant whose
// rejoin grace window has lapsed, so the remaining player is not stranded.
func (mh *matchHandler) processDisconnect(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, nk runtime.NakamaModule) {
	if state.Session == nil || state.DisconnectedID == "" {
		return
	}
	if state.Tick-state.DisconnectedAt < int64(state.DisconnectGrace) {
		return
	}

	leaver := state.DisconnectedID
	state.DisconnectedID = ""
	state.DisconnectedAt = 0
	logger.Info("processDisconnect: %s did not return, concluding match.", leaver)

	events, err := state.App.Abandon(state.Session, leaver)
	if err != nil {
		logger.Error("processDisconnect: Failed to conclude abandoned match: %v", err)
		return
	}
	mh.dispatchEvents(ctx, state, dispatcher, logger, nk, events)
}

// processBot drives the bot opponent: auto-filling an empty seat for a solo
// host, then pacing one planned command per eligible tick on the bot's turn.
func (mh *matchHandler) processBot(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, nk runtime.NakamaModule) {
	if state.Session == nil {
		if _, hostHere := state.Presences[state.HostID]; !hostHere || state.GuestID != "" {
			state.SoloHumanTick = 0
			return
		}
		if state.SoloHumanTick == 0 {
			state.SoloHumanTick = state.Tick
			logger.Debug("processBot: Solo host detected, starting auto-fill timer.")
			return
		}
		if state.Tick-state.SoloHumanTick >= int64(state.BotAutoFillDelay) {
			identity := bot.RandomIdentity()
			state.BotID = identity.UserID
			state.GuestID = identity.UserID
			logger.Info("processBot: Binding bot %s (%s) as opponent.", identity.DisplayName, identity.UserID)
			mh.startMatch(ctx, state, dispatcher, logger, nk, true)
		}
		return
	}

	if state.BotID == "" {
		return
	}

	gameState := state.Session.State
	if gameState.Status != domain.StatusStarted || gameState.ActiveParticipant != state.BotID {
		state.BotPlan = nil
		state.BotWaitUntil = 0
		return
	}

	if state.BotPlan == nil {
		state.BotPlan = bot.Plan(gameState, state.BotID)
	}

	if state.BotWaitUntil == 0 {
		delay := rand.Intn(state.BotMaxDelay-state.BotMinDelay+1) + state.BotMinDelay
		state.BotWaitUntil = state.Tick + int64(delay)
		return
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0

	if len(state.BotPlan) == 0 {
		// Planner always terminates with EndTurn, so an empty plan here means
		// the turn already moved on.
		state.BotPlan = nil
		return
	}

	cmd := state.BotPlan[0]
	state.BotPlan = state.BotPlan[1:]

	events, err := state.App.Apply(state.Session, state.BotID, cmd)
	if err != nil {
		// Planned against a snapshot that has since moved; skip the step.
		logger.Debug("processBot: Skipping %s: %v", cmd.Type, err)
		return
	}
	mh.dispatchEvents(ctx, state, dispatcher, logger, nk, events)
}

// startMatch binds both seats, deals from fetched decks and publishes the
// opening snapshot. The play code is retired once the match is underway.
func (mh *matchHandler) startMatch(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, nk runtime.NakamaModule, guestIsBot bool) {
	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)

	decks := map[string][]domain.DeckCard{}
	hostDeck, err := state.Decks.FetchDeck(ctx, state.HostID)
	if err != nil {
		logger.Warn("startMatch: Falling back to starter deck for host %s: %v", state.HostID, err)
		hostDeck = config.StarterDeck()
	}
	decks[state.HostID] = hostDeck

	if guestIsBot {
		decks[state.GuestID] = config.StarterDeck()
	} else {
		guestDeck, err := state.Decks.FetchDeck(ctx, state.GuestID)
		if err != nil {
			logger.Warn("startMatch: Falling back to starter deck for guest %s: %v", state.GuestID, err)
			guestDeck = config.StarterDeck()
		}
		decks[state.GuestID] = guestDeck
	}

	sess, events, err := state.App.StartMatch(matchID, state.HostID, state.GuestID, guestIsBot, decks)
	if err != nil {
		logger.Error("startMatch: Failed to start match: %v", err)
		return
	}
	state.Session = sess
	state.StoreVersion = ""
	state.SoloHumanTick = 0

	if guestIsBot {
		if name := bot.GetDisplayName(state.GuestID); name != "" {
			sess.State.Participant(state.GuestID).DisplayName = name
		}
	}

	mh.updateLabel(state, dispatcher, logger)
	mh.dispatchEvents(ctx, state, dispatcher, logger, nk, events)

	if state.JoinCode != "" {
		mh.deletePlayCode(ctx, state, logger, nk)
	}
}

// dispatchEvents persists and transmits app events. The snapshot record is
// written before the broadcast so a client that misses the message can always
// recover the same state over RPC.
func (mh *matchHandler) dispatchEvents(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, nk runtime.NakamaModule, events []app.Event) {
	for _, ev := range events {
		switch ev.Kind {
		case app.EventSnapshot:
			p := ev.Payload.(app.SnapshotPayload)

			version, err := state.Store.Save(ctx, p.State, state.StoreVersion)
			if err != nil {
				if errors.Is(err, app.ErrStaleSnapshot) {
					logger.Warn("dispatchEvents: Snapshot write rejected as stale for %s.", p.State.MatchID)
					// Adopt the version that moved underneath us so the next
					// write can succeed.
					if _, current, lerr := state.Store.Load(ctx, p.State.MatchID); lerr == nil {
						state.StoreVersion = current
					}
				} else {
					logger.Error("dispatchEvents: Failed to persist snapshot: %v", err)
				}
			} else {
				state.StoreVersion = version
			}

			mh.sendSnapshot(state, dispatcher, logger, ev.Recipients)

		case app.EventMatchEnded:
			p := ev.Payload.(app.MatchEndedPayload)
			body, _ := json.Marshal(map[string]interface{}{
				"winner":    p.Winner,
				"loser":     p.Loser,
				"abandoned": p.Abandoned,
			})
			dispatcher.BroadcastMessage(OpEvMatchEnded, body, nil, nil, true)

			mh.creditWinReward(ctx, state, logger, p.Winner)

			state.Concluded = true
			mh.teardown(ctx, state, logger, nk)

		default:
			logger.Warn("dispatchEvents: Unknown event kind: %v", ev.Kind)
		}
	}
}

// creditWinReward pays the match win credit to a human winner.
func (mh *matchHandler) creditWinReward(ctx context.Context, state *MatchState, logger runtime.Logger, winnerID string) {
	if state.Economy == nil || winnerID == "" || bot.IsBot(winnerID) {
		return
	}
	reward := config.WinCoinReward()
	if reward <= 0 {
		return
	}

	matchID := ""
	if state.Session != nil {
		matchID = state.Session.State.MatchID
	}
	err := state.Economy.UpdateBalances(ctx, []ports.WalletUpdate{{
		UserID: winnerID,
		Amount: reward,
		Metadata: map[string]interface{}{
			"reason":   "match_win",
			"match_id": matchID,
		},
	}})
	if err != nil {
		logger.Warn("creditWinReward: Failed to credit %s: %v", winnerID, err)
	}
}

// sendSnapshot transmits the full canonical state. Empty recipients means
// broadcast; named recipients that are not connected (bots) are dropped.
func (mh *matchHandler) sendSnapshot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, recipientIDs []string) {
	if state.Session == nil {
		return
	}
	body, err := json.Marshal(state.Session.State)
	if err != nil {
		logger.Error("sendSnapshot: Failed to marshal state: %v", err)
		return
	}

	var recipients []runtime.Presence
	if len(recipientIDs) > 0 {
		for _, uid := range recipientIDs {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}
		if len(recipients) == 0 {
			return
		}
	}

	dispatcher.BroadcastMessage(OpEvSnapshot, body, recipients, nil, true)
}

// sendRejected reports a failed command to its sender only.
func (mh *matchHandler) sendRejected(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, cause error) {
	body, _ := json.Marshal(map[string]string{
		"code":    app.ErrorCode(cause),
		"message": cause.Error(),
	})

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("sendRejected: Cannot reach %s: presence not found", userID)
		return
	}
	dispatcher.BroadcastMessage(OpEvCommandRejected, body, []runtime.Presence{presence}, nil, true)
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	var label domain.Label
	if state.Session != nil {
		label = domain.ComputeLabel(state.Session.State)
	} else {
		label = domain.Label{Open: true, Game: domain.GameName, Phase: string(domain.StatusWaiting)}
	}

	labelBytes, err := json.Marshal(label)
	if err != nil {
		logger.Error("updateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(string(labelBytes)); err != nil {
		logger.Error("updateLabel: Failed to update: %v", err)
	}
}

// teardown retires the persisted record and play code once the match can no
// longer be resumed.
func (mh *matchHandler) teardown(ctx context.Context, state *MatchState, logger runtime.Logger, nk runtime.NakamaModule) {
	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
	if matchID != "" {
		if err := state.Store.Delete(ctx, matchID); err != nil {
			logger.Warn("teardown: Failed to delete snapshot record: %v", err)
		}
	}
	if state.JoinCode != "" {
		mh.deletePlayCode(ctx, state, logger, nk)
	}
}

func (mh *matchHandler) deletePlayCode(ctx context.Context, state *MatchState, logger runtime.Logger, nk runtime.NakamaModule) {
	err := nk.StorageDelete(ctx, []*runtime.StorageDelete{
		{Collection: CollectionPlayCodes, Key: state.JoinCode},
	})
	if err != nil {
		logger.Warn("deletePlayCode: Failed to delete code %s: %v", state.JoinCode, err)
		return
	}
	state.JoinCode = ""
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: Match terminated for reason %d", reason)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
