package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/calvinwijaya/blackjack/internal/game"
	"github.com/calvinwijaya/blackjack/internal/store"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	errUnknownCommand  = errors.New("unknown command")
)

// Command types accepted over HTTP (as the last path segment) and the socket.
const (
	CommandBet           = "bet"
	CommandStart         = "start"
	CommandHit           = "hit"
	CommandStand         = "stand"
	CommandAck           = "ack"
	CommandCancel        = "cancel"
	CommandShuffle       = "shuffle"
	CommandReset         = "reset"
	CommandResetBankroll = "reset-bankroll"
	CommandState         = "state"
)

var routedCommands = []string{
	CommandBet, CommandStart, CommandHit, CommandStand, CommandAck,
	CommandCancel, CommandShuffle, CommandReset, CommandResetBankroll,
}

// SessionFactory builds the engine session for a table. kv is already scoped
// to the session.
type SessionFactory func(kv store.KV, opts ...game.SessionOption) (*game.Session, error)

// table serializes commands against one session.
type table struct {
	mu       sync.Mutex
	session  *game.Session
	pacer    *Pacer
	lastUsed time.Time
	evicted  bool
}

// Handlers contains all the API handlers
type Handlers struct {
	store   store.Store
	hub     *Hub
	factory SessionFactory
	clock   quartz.Clock
	pacing  Pacing
	logger  *log.Logger

	mu     sync.RWMutex
	tables map[string]*table
}

// HandlersOption configures Handlers
type HandlersOption func(*Handlers)

func WithSessionFactory(factory SessionFactory) HandlersOption {
	return func(h *Handlers) { h.factory = factory }
}

func WithClock(clock quartz.Clock) HandlersOption {
	return func(h *Handlers) { h.clock = clock }
}

func WithPacing(pacing Pacing) HandlersOption {
	return func(h *Handlers) { h.pacing = pacing }
}

// NewHandlers creates a new instance of Handlers. hub may be nil, in which
// case events are not streamed.
func NewHandlers(st store.Store, hub *Hub, logger *log.Logger, opts ...HandlersOption) *Handlers {
	h := &Handlers{
		store: st,
		hub:   hub,
		factory: func(kv store.KV, opts ...game.SessionOption) (*game.Session, error) {
			return game.NewSession(kv, opts...)
		},
		clock:  quartz.NewReal(),
		logger: logger,
		tables: make(map[string]*table),
	}
	for _, opt := range opts {
		opt(h)
	}
	if hub != nil {
		hub.SetCommandFunc(h.socketCommand)
	}
	return h
}

// RegisterRoutes registers all API routes
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	// Session endpoints
	r.HandleFunc("/api/session", h.CreateSession).Methods("POST")
	r.HandleFunc("/api/session/{id}", h.GetSession).Methods("GET")
	r.HandleFunc("/api/session/{id}/stats", h.GetStats).Methods("GET")

	// Game commands
	for _, name := range routedCommands {
		r.HandleFunc("/api/session/{id}/"+name, h.command(name)).Methods("POST")
	}

	// WebSocket endpoint
	if h.hub != nil {
		r.HandleFunc("/ws", h.hub.WebSocketHandler)
	}
}

type errorBody struct {
	Error string     `json:"error"`
	Fatal bool       `json:"fatal,omitempty"`
	Phase game.Phase `json:"phase,omitempty"`
}

// response helper function to send JSON responses
func response(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// error response helper function
func errorResponse(w http.ResponseWriter, status int, message string) {
	response(w, status, errorBody{Error: message})
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case game.IsFatal(err), errors.Is(err, game.ErrIllegalState):
		return http.StatusConflict
	case errors.Is(err, game.ErrInvalidBet),
		errors.Is(err, game.ErrNoBet),
		errors.Is(err, game.ErrInsufficientCards),
		errors.Is(err, errUnknownCommand):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func commandErrorBody(err error, phase game.Phase) errorBody {
	return errorBody{Error: err.Error(), Fatal: game.IsFatal(err), Phase: phase}
}

// CreateSession opens a session. Passing an existing sessionId resumes it,
// along with its persisted bankroll.
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"sessionId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	t, created, err := h.openTable(req.SessionID)
	if err != nil {
		h.logger.Error("failed to create session", "err", err)
		errorResponse(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	t.mu.Lock()
	snapshot := t.session.Snapshot()
	t.mu.Unlock()

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response(w, status, snapshot)
}

// GetSession returns the current state of a session
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.Dispatch(mux.Vars(r)["id"], Command{Type: CommandState})
	if err != nil {
		response(w, statusFor(err), commandErrorBody(err, snapshot.Phase))
		return
	}
	response(w, http.StatusOK, snapshot)
}

// GetStats returns the round history of a session
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			errorResponse(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	stats, err := h.store.Stats(sessionID)
	if err != nil {
		h.logger.Error("failed to load stats", "session", sessionID, "err", err)
		errorResponse(w, http.StatusInternalServerError, "Error retrieving statistics")
		return
	}

	rounds, err := h.store.Rounds(sessionID, limit)
	if err != nil {
		h.logger.Error("failed to load rounds", "session", sessionID, "err", err)
		errorResponse(w, http.StatusInternalServerError, "Error retrieving rounds")
		return
	}
	if rounds == nil {
		rounds = []store.RoundRecord{}
	}

	response(w, http.StatusOK, map[string]interface{}{
		"stats":  stats,
		"rounds": rounds,
	})
}

// command returns the handler for a game command route.
func (h *Handlers) command(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd := Command{Type: name}

		if name == CommandBet {
			var req struct {
				Amount int `json:"amount"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				errorResponse(w, http.StatusBadRequest, "Invalid request body")
				return
			}
			cmd.Amount = req.Amount
		}

		snapshot, err := h.Dispatch(mux.Vars(r)["id"], cmd)
		if err != nil {
			response(w, statusFor(err), commandErrorBody(err, snapshot.Phase))
			return
		}
		response(w, http.StatusOK, snapshot)
	}
}

// socketCommand runs a command read from a WebSocket client.
func (h *Handlers) socketCommand(sessionID string, cmd Command) Message {
	snapshot, err := h.Dispatch(sessionID, cmd)
	if err != nil {
		return Message{Type: "error", SessionID: sessionID, Data: commandErrorBody(err, snapshot.Phase)}
	}
	return Message{Type: "snapshot", SessionID: sessionID, Data: snapshot}
}

// Dispatch runs cmd against a session and returns the resulting snapshot. The
// snapshot is returned on engine errors too, so callers can show the phase.
func (h *Handlers) Dispatch(sessionID string, cmd Command) (game.Snapshot, error) {
	t, err := h.table(sessionID)
	if err != nil {
		return game.Snapshot{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.evicted {
		return game.Snapshot{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	t.lastUsed = h.clock.Now()

	s := t.session
	switch cmd.Type {
	case CommandBet:
		err = s.PlaceBet(cmd.Amount)
	case CommandStart:
		err = s.StartRound()
	case CommandHit:
		err = s.Hit()
	case CommandStand:
		err = s.Stand()
	case CommandAck:
		err = s.AcknowledgeSettlement()
	case CommandCancel:
		err = s.CancelRound()
	case CommandShuffle:
		err = s.Shuffle()
	case CommandReset:
		err = s.Reset()
	case CommandResetBankroll:
		err = s.ResetBankroll()
	case CommandState:
	default:
		err = fmt.Errorf("%w: %q", errUnknownCommand, cmd.Type)
	}

	if err != nil {
		if game.IsFatal(err) || statusFor(err) == http.StatusInternalServerError {
			h.logger.Error("command failed", "session", sessionID, "command", cmd.Type, "phase", s.Phase(), "err", err)
		} else {
			h.logger.Debug("command rejected", "session", sessionID, "command", cmd.Type, "err", err)
		}
	}

	return s.Snapshot(), err
}

func (h *Handlers) table(sessionID string) (*table, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	t, ok := h.tables[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return t, nil
}

// openTable returns the table for sessionID, creating it (and a new id when
// sessionID is empty) if needed.
func (h *Handlers) openTable(sessionID string) (*table, bool, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if t, ok := h.tables[sessionID]; ok {
		return t, false, nil
	}

	t := &table{pacer: NewPacer(h.clock, h.pacing), lastUsed: h.clock.Now()}
	session, err := h.factory(
		store.Prefixed(h.store, store.SessionPrefix(sessionID)),
		game.WithID(sessionID),
		game.WithLogger(h.logger),
		game.WithSubscriber(h.subscriber(sessionID, t)),
	)
	if err != nil {
		return nil, false, err
	}
	t.session = session
	h.tables[sessionID] = t

	h.logger.Info("session opened", "session", sessionID, "bankroll", session.Bankroll())
	return t, true, nil
}

// EvictIdle drops sessions unused for at least idle and returns how many went.
// Only sessions with no bet held and no WebSocket client are dropped; their
// bankroll is already in the store, so reopening the id resumes it.
func (h *Handlers) EvictIdle(idle time.Duration) int {
	now := h.clock.Now()

	h.mu.Lock()
	defer h.mu.Unlock()

	evicted := 0
	for id, t := range h.tables {
		if h.hub != nil && h.hub.ClientCount(id) > 0 {
			continue
		}

		t.mu.Lock()
		phase := t.session.Phase()
		idleFor := now.Sub(t.lastUsed)
		drop := (phase == game.PhaseBetting || phase == game.PhaseSettlement) &&
			t.session.CurrentBet() == 0 &&
			idleFor >= idle
		if drop {
			t.evicted = true
		}
		t.mu.Unlock()

		if drop {
			delete(h.tables, id)
			evicted++
			h.logger.Debug("session evicted", "session", id, "idle", idleFor)
		}
	}
	return evicted
}

// RunEviction calls EvictIdle every interval until ctx is done.
func (h *Handlers) RunEviction(ctx context.Context, interval, idle time.Duration) {
	ticker := h.clock.NewTicker(interval, "eviction")
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := h.EvictIdle(idle); n > 0 {
				h.logger.Info("evicted idle sessions", "count", n)
			}
		}
	}
}

// subscriber records settled rounds and streams every event to the session's
// WebSocket clients. It runs with the table lock held.
func (h *Handlers) subscriber(sessionID string, t *table) game.Subscriber {
	return game.SubscriberFunc(func(e game.Event) {
		if settled, ok := e.(game.RoundSettledEvent); ok {
			h.recordRound(t.session, settled)
		}

		if h.hub == nil {
			return
		}
		showAt := t.pacer.Stamp(e)
		h.hub.BroadcastToSession(sessionID, Message{
			Type:      e.EventType().String(),
			SessionID: sessionID,
			ShowAt:    &showAt,
			Data:      e,
		})
	})
}

func (h *Handlers) recordRound(s *game.Session, e game.RoundSettledEvent) {
	// Log but don't fail the round; the bankroll is already settled.
	if err := h.store.RecordRound(store.NewRoundRecord(s, e, h.clock.Now())); err != nil {
		h.logger.Warn("failed to record round", "session", s.ID(), "round", e.Round, "err", err)
	}
}
