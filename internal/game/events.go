package game

// EventType names an engine event.
type EventType string

const (
	EventTypeCardDealt    EventType = "card_dealt"
	EventTypeCardRevealed EventType = "card_revealed"
	EventTypeHandChanged  EventType = "hand_changed"
	EventTypePhaseChanged EventType = "phase_changed"
	EventTypeRoundSettled EventType = "round_settled"
	EventTypeRoundHalted  EventType = "round_halted"
)

func (et EventType) String() string {
	return string(et)
}

// Event is anything the session reports to the presentation layer.
type Event interface {
	EventType() EventType
}

// Subscriber receives events synchronously, in the order they happen.
type Subscriber interface {
	OnEvent(Event)
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(Event)

func (f SubscriberFunc) OnEvent(e Event) { f(e) }

// CardDealtEvent is published when a card moves from the deck into a hand.
// Card is the zero value when the card was dealt face down.
type CardDealtEvent struct {
	Owner  Owner `json:"owner"`
	Index  int   `json:"index"`
	Card   Card  `json:"card"`
	FaceUp bool  `json:"faceUp"`
}

// CardRevealedEvent is published when a face-down card is turned over.
type CardRevealedEvent struct {
	Owner Owner `json:"owner"`
	Index int   `json:"index"`
	Card  Card  `json:"card"`
}

// HandChangedEvent carries the evaluation of the visible part of a hand.
type HandChangedEvent struct {
	Owner Owner     `json:"owner"`
	State HandState `json:"state"`
}

type PhaseChangedEvent struct {
	Phase Phase `json:"phase"`
}

// RoundSettledEvent is published once per round after the bet is resolved.
type RoundSettledEvent struct {
	RoundID  string  `json:"roundId"`
	Round    int     `json:"round"`
	Result   Outcome `json:"result"`
	Bet      int     `json:"bet"`
	Payout   int     `json:"payout"`
	Bankroll int     `json:"bankroll"`
}

// RoundHaltedEvent is published when a round cannot be completed.
type RoundHaltedEvent struct {
	RoundID string `json:"roundId"`
	Reason  string `json:"reason"`
}

func (CardDealtEvent) EventType() EventType    { return EventTypeCardDealt }
func (CardRevealedEvent) EventType() EventType { return EventTypeCardRevealed }
func (HandChangedEvent) EventType() EventType  { return EventTypeHandChanged }
func (PhaseChangedEvent) EventType() EventType { return EventTypePhaseChanged }
func (RoundSettledEvent) EventType() EventType { return EventTypeRoundSettled }
func (RoundHaltedEvent) EventType() EventType  { return EventTypeRoundHalted }
