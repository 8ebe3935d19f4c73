package game

import (
	"fmt"
	"io"
	rand "math/rand/v2"

	"github.com/calvinwijaya/blackjack/internal/randutil"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

type Phase string

const (
	PhaseBetting    Phase = "betting"
	PhaseDealing    Phase = "dealing"
	PhasePlayerTurn Phase = "player_turn"
	PhaseDealerTurn Phase = "dealer_turn"
	PhaseSettlement Phase = "settlement"
	PhaseHalted     Phase = "halted" // a draw failed; the round must be cancelled
)

func (p Phase) String() string {
	return string(p)
}

// minDealCards is the opening deal: two cards each.
const minDealCards = 4

// dealSequence is the opening deal order. The dealer's second card is the hole card.
var dealSequence = []struct {
	owner  Owner
	faceUp bool
}{
	{OwnerPlayer, true},
	{OwnerDealer, true},
	{OwnerPlayer, true},
	{OwnerDealer, false},
}

// Session runs rounds of single-player blackjack. It is not safe for
// concurrent use; callers serialize commands.
type Session struct {
	id        string
	roundID   string
	round     int
	phase     Phase
	deck      *Deck
	player    *Hand
	dealer    *Hand
	discards  []Card
	ledger    *Ledger
	result    Outcome
	payout    int
	reshuffle bool

	subscribers []Subscriber
	logger      *log.Logger
}

// SessionOption configures a Session during creation.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	id          string
	rng         *rand.Rand
	deck        *Deck
	starting    int
	reshuffle   bool
	logger      *log.Logger
	subscribers []Subscriber
}

// WithID sets the session identifier instead of generating one.
func WithID(id string) SessionOption {
	return func(c *sessionConfig) { c.id = id }
}

// WithSeed makes every shuffle in the session reproducible.
func WithSeed(seed int64) SessionOption {
	return func(c *sessionConfig) { c.rng = randutil.New(seed) }
}

// WithRand sets the random source used for shuffles.
func WithRand(rng *rand.Rand) SessionOption {
	return func(c *sessionConfig) { c.rng = rng }
}

// WithDeck uses deck as-is. The session does not shuffle it on creation.
func WithDeck(deck *Deck) SessionOption {
	return func(c *sessionConfig) { c.deck = deck }
}

// WithStartingBankroll sets the bankroll used when the store holds none and by ResetBankroll.
func WithStartingBankroll(amount int) SessionOption {
	return func(c *sessionConfig) { c.starting = amount }
}

// WithReshuffleEachRound controls whether the previous round's cards go back
// into the deck and the deck is shuffled before every deal (the default), or
// go to a discard pile until Reset.
func WithReshuffleEachRound(reshuffle bool) SessionOption {
	return func(c *sessionConfig) { c.reshuffle = reshuffle }
}

func WithLogger(logger *log.Logger) SessionOption {
	return func(c *sessionConfig) { c.logger = logger }
}

// WithSubscriber registers a subscriber before any event is published.
func WithSubscriber(sub Subscriber) SessionOption {
	return func(c *sessionConfig) { c.subscribers = append(c.subscribers, sub) }
}

// NewSession creates a session in the betting phase. The bankroll is loaded
// from store, or initialized to the starting bankroll.
func NewSession(store BankrollStore, opts ...SessionOption) (*Session, error) {
	if store == nil {
		return nil, fmt.Errorf("bankroll store is required")
	}

	cfg := &sessionConfig{
		starting:  DefaultStartingBankroll,
		reshuffle: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.id == "" {
		cfg.id = uuid.NewString()
	}
	if cfg.rng == nil {
		cfg.rng = randutil.NewTimeSeeded()
	}
	if cfg.logger == nil {
		cfg.logger = log.New(io.Discard)
	}
	if cfg.deck == nil {
		cfg.deck = NewDeck(cfg.rng)
		cfg.deck.Shuffle()
	} else if cfg.deck.rng == nil {
		cfg.deck.rng = cfg.rng
	}

	ledger, err := NewLedger(store, cfg.starting)
	if err != nil {
		return nil, err
	}

	return &Session{
		id:          cfg.id,
		phase:       PhaseBetting,
		deck:        cfg.deck,
		player:      NewHand(OwnerPlayer),
		dealer:      NewHand(OwnerDealer),
		ledger:      ledger,
		reshuffle:   cfg.reshuffle,
		subscribers: cfg.subscribers,
		logger:      cfg.logger.With("session", cfg.id),
	}, nil
}

// Subscribe adds a subscriber for subsequent events.
func (s *Session) Subscribe(sub Subscriber) {
	s.subscribers = append(s.subscribers, sub)
}

func (s *Session) ID() string      { return s.id }
func (s *Session) RoundID() string { return s.roundID }
func (s *Session) Round() int      { return s.round }
func (s *Session) Phase() Phase    { return s.phase }
func (s *Session) Result() Outcome { return s.result }
func (s *Session) Payout() int     { return s.payout }
func (s *Session) Bankroll() int   { return s.ledger.Bankroll() }
func (s *Session) CurrentBet() int { return s.ledger.CurrentBet() }
func (s *Session) DeckCount() int  { return s.deck.Count() }

// DiscardCount returns the number of cards from earlier rounds that have not
// been returned to the deck.
func (s *Session) DiscardCount() int { return len(s.discards) }

func (s *Session) PlayerHand() []HandCard { return s.player.Cards() }

// DealerHand returns the dealer's cards including the hole card.
func (s *Session) DealerHand() []HandCard { return s.dealer.Cards() }

// PlaceBet stakes amount on the next round, replacing any bet already placed.
func (s *Session) PlaceBet(amount int) error {
	if s.phase != PhaseBetting {
		return s.illegal("place bet")
	}
	if err := s.ledger.PlaceBet(amount); err != nil {
		s.logger.Debug("bet rejected", "amount", amount, "err", err)
		return err
	}
	s.logger.Debug("bet placed", "amount", amount, "bankroll", s.ledger.Bankroll())
	return nil
}

// StartRound collects the previous round's cards and deals a new round. It
// needs a bet and four available cards; otherwise nothing changes.
func (s *Session) StartRound() error {
	if s.phase != PhaseBetting {
		return s.illegal("start round")
	}
	if s.ledger.CurrentBet() <= 0 {
		return ErrNoBet
	}

	available := s.deck.Count()
	if s.reshuffle {
		available += s.player.Len() + s.dealer.Len() + len(s.discards)
	}
	if available < minDealCards {
		return fmt.Errorf("%w: %d available, need %d", ErrInsufficientCards, available, minDealCards)
	}

	s.collectCards(s.reshuffle)
	if s.reshuffle {
		s.deck.Shuffle()
	}

	s.round++
	s.roundID = uuid.NewString()
	s.result = OutcomeNone
	s.payout = 0
	s.logger.Info("round started", "round", s.round, "bet", s.ledger.CurrentBet())

	s.setPhase(PhaseDealing)
	for _, step := range dealSequence {
		if err := s.deal(step.owner, step.faceUp); err != nil {
			return s.halt(err)
		}
	}

	if IsBlackjack(s.player.AllCards()) {
		if err := s.revealDealer(); err != nil {
			return s.halt(err)
		}
		if IsBlackjack(s.dealer.AllCards()) {
			return s.settle(OutcomeTie)
		}
		return s.settle(OutcomePlayer)
	}

	s.setPhase(PhasePlayerTurn)
	return nil
}

// Hit deals the player one card; a bust settles the round for the dealer.
func (s *Session) Hit() error {
	if s.phase != PhasePlayerTurn {
		return s.illegal("hit")
	}
	if err := s.deal(OwnerPlayer, true); err != nil {
		return s.halt(err)
	}
	if IsBust(s.player.AllCards()) {
		return s.settle(OutcomeDealer)
	}
	return nil
}

// Stand ends the player's turn and plays the dealer's hand to completion.
func (s *Session) Stand() error {
	if s.phase != PhasePlayerTurn {
		return s.illegal("stand")
	}
	s.setPhase(PhaseDealerTurn)
	return s.playDealer()
}

// AcknowledgeSettlement returns a settled session to betting. The settled
// hands stay on the table until the next round starts.
func (s *Session) AcknowledgeSettlement() error {
	if s.phase != PhaseSettlement {
		return s.illegal("acknowledge settlement")
	}
	s.setPhase(PhaseBetting)
	return nil
}

// CancelRound refunds the bet. While betting it just withdraws the placed
// bet; on a halted round it also returns the dealt cards to the deck and goes
// back to betting.
func (s *Session) CancelRound() error {
	switch s.phase {
	case PhaseBetting:
		refunded, err := s.ledger.Refund()
		if err != nil {
			return err
		}
		s.logger.Debug("bet withdrawn", "refunded", refunded)
		return nil
	case PhaseHalted:
		refunded, err := s.ledger.Refund()
		if err != nil {
			return err
		}
		s.collectCards(true)
		s.result = OutcomeNone
		s.logger.Warn("halted round cancelled", "round", s.round, "refunded", refunded)
		s.setPhase(PhaseBetting)
		return nil
	default:
		return s.illegal("cancel round")
	}
}

// ResetBankroll restores the starting bankroll. Intended for tests and debugging.
func (s *Session) ResetBankroll() error {
	if s.phase != PhaseBetting {
		return s.illegal("reset bankroll")
	}
	return s.ledger.ResetBankroll()
}

// Shuffle shuffles the cards remaining in the deck.
func (s *Session) Shuffle() error {
	if s.phase != PhaseBetting {
		return s.illegal("shuffle")
	}
	s.deck.Shuffle()
	return nil
}

// Reset returns every card on the table and in the discard pile to the deck
// and shuffles it.
func (s *Session) Reset() error {
	if s.phase != PhaseBetting {
		return s.illegal("reset")
	}
	s.collectCards(true)
	s.deck.Shuffle()
	s.logger.Debug("deck reset", "cards", s.deck.Count())
	return nil
}

// Snapshot is a presentation view of the session with the hole card masked.
type Snapshot struct {
	SessionID    string     `json:"sessionId"`
	RoundID      string     `json:"roundId,omitempty"`
	Round        int        `json:"round"`
	Phase        Phase      `json:"phase"`
	Result       Outcome    `json:"result,omitempty"`
	Payout       int        `json:"payout"`
	Bankroll     int        `json:"bankroll"`
	CurrentBet   int        `json:"currentBet"`
	DeckCount    int        `json:"deckCount"`
	DiscardCount int        `json:"discardCount"`
	Player       []HandCard `json:"player"`
	Dealer       []HandCard `json:"dealer"`
	PlayerState  HandState  `json:"playerState"`
	DealerState  HandState  `json:"dealerState"`
	CanHit       bool       `json:"canHit"`
	CanStand     bool       `json:"canStand"`
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		SessionID:    s.id,
		RoundID:      s.roundID,
		Round:        s.round,
		Phase:        s.phase,
		Result:       s.result,
		Payout:       s.payout,
		Bankroll:     s.ledger.Bankroll(),
		CurrentBet:   s.ledger.CurrentBet(),
		DeckCount:    s.deck.Count(),
		DiscardCount: len(s.discards),
		Player:       s.player.Cards(),
		Dealer:       s.dealer.Masked(),
		PlayerState:  EvaluateHand(s.player),
		DealerState:  EvaluateHand(s.dealer),
		CanHit:       s.phase == PhasePlayerTurn,
		CanStand:     s.phase == PhasePlayerTurn,
	}
}

func (s *Session) hand(owner Owner) *Hand {
	if owner == OwnerDealer {
		return s.dealer
	}
	return s.player
}

// deal draws the top card into owner's hand.
func (s *Session) deal(owner Owner, faceUp bool) error {
	card, err := s.deck.Draw()
	if err != nil {
		return err
	}

	hand := s.hand(owner)
	index := hand.AddCard(card, faceUp)

	shown := card
	if !faceUp {
		shown = Card{}
	}
	s.logger.Debug("card dealt", "owner", owner, "card", shown, "faceUp", faceUp)
	s.publish(CardDealtEvent{Owner: owner, Index: index, Card: shown, FaceUp: faceUp})
	s.publishHand(hand)
	return nil
}

// collectCards takes both hands off the table. With toDeck the cards and the
// discard pile go back into the deck; otherwise they are discarded.
func (s *Session) collectCards(toDeck bool) {
	if s.player.Len() == 0 && s.dealer.Len() == 0 && !(toDeck && len(s.discards) > 0) {
		return
	}

	cards := append(s.player.Clear(), s.dealer.Clear()...)
	if toDeck {
		s.deck.Reconstitute(append(s.discards, cards...))
		s.discards = nil
	} else {
		s.discards = append(s.discards, cards...)
	}

	s.publishHand(s.player)
	s.publishHand(s.dealer)
}

func (s *Session) settle(outcome Outcome) error {
	bet := s.ledger.CurrentBet()

	// The bet is resolved before the phase changes, so settlement
	// subscribers see the result. A store failure halts from the current phase.
	payout, err := s.ledger.ResolveBet(outcome)
	if err != nil {
		return s.halt(err)
	}
	s.result = outcome
	s.payout = payout
	s.setPhase(PhaseSettlement)

	s.logger.Info("round settled",
		"round", s.round,
		"result", outcome,
		"player", Value(s.player.AllCards()),
		"dealer", Value(s.dealer.AllCards()),
		"payout", payout,
		"bankroll", s.ledger.Bankroll())
	s.publish(RoundSettledEvent{
		RoundID:  s.roundID,
		Round:    s.round,
		Result:   outcome,
		Bet:      bet,
		Payout:   payout,
		Bankroll: s.ledger.Bankroll(),
	})
	return nil
}

// halt stops the round after a fatal error. Only CancelRound leaves PhaseHalted.
func (s *Session) halt(cause error) error {
	s.logger.Error("round halted", "round", s.round, "phase", s.phase, "err", cause)
	s.setPhase(PhaseHalted)
	s.publish(RoundHaltedEvent{RoundID: s.roundID, Reason: cause.Error()})
	return fmt.Errorf("round %d halted: %w", s.round, cause)
}

func (s *Session) illegal(op string) error {
	return &IllegalStateError{Op: op, Phase: s.phase}
}

func (s *Session) setPhase(phase Phase) {
	if s.phase == phase {
		return
	}
	s.phase = phase
	s.publish(PhaseChangedEvent{Phase: phase})
}

func (s *Session) publishHand(h *Hand) {
	s.publish(HandChangedEvent{Owner: h.Owner(), State: EvaluateHand(h)})
}

func (s *Session) publish(e Event) {
	for _, sub := range s.subscribers {
		sub.OnEvent(e)
	}
}
