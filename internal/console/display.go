package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/calvinwijaya/blackjack/internal/game"
	"github.com/charmbracelet/lipgloss"
)

// Styles contains styling for the table display
type Styles struct {
	Header    lipgloss.Style
	CardRed   lipgloss.Style
	CardBlack lipgloss.Style
	CardBack  lipgloss.Style
	CardBox   lipgloss.Style
	Value     lipgloss.Style
	Winner    lipgloss.Style
	Loser     lipgloss.Style
	Bankroll  lipgloss.Style
	Error     lipgloss.Style
	Info      lipgloss.Style
}

// NewStyles creates a new set of display styles
func NewStyles() *Styles {
	return &Styles{
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#1E7F4F")).
			Padding(0, 2).
			Bold(true),
		CardRed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true),
		CardBlack: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true),
		CardBack: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")),
		CardBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#626262")).
			Padding(0, 1),
		Value: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true),
		Winner: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),
		Loser: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")),
		Bankroll: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true),
		Info: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")),
	}
}

// Display renders session events as they happen. It is a game.Subscriber.
type Display struct {
	out    io.Writer
	styles *Styles
}

func NewDisplay(out io.Writer) *Display {
	return &Display{out: out, styles: NewStyles()}
}

func ownerName(o game.Owner) string {
	if o == game.OwnerDealer {
		return "Dealer"
	}
	return "Player"
}

func (d *Display) OnEvent(e game.Event) {
	switch ev := e.(type) {
	case game.PhaseChangedEvent:
		switch ev.Phase {
		case game.PhaseDealing:
			fmt.Fprintln(d.out, d.styles.Header.Render("*** DEAL ***"))
		case game.PhasePlayerTurn:
			fmt.Fprintln(d.out, d.styles.Info.Render("hit or stand?"))
		case game.PhaseDealerTurn:
			fmt.Fprintln(d.out, d.styles.Header.Render("*** DEALER ***"))
		}

	case game.CardDealtEvent:
		if !ev.FaceUp {
			fmt.Fprintf(d.out, "%s draws %s\n", ownerName(ev.Owner), d.styles.CardBack.Render("a face-down card"))
			return
		}
		fmt.Fprintf(d.out, "%s draws %s\n", ownerName(ev.Owner), d.formatCard(ev.Card))

	case game.CardRevealedEvent:
		fmt.Fprintf(d.out, "%s reveals %s\n", ownerName(ev.Owner), d.formatCard(ev.Card))

	case game.HandChangedEvent:
		if ev.State.Value == 0 {
			return
		}
		fmt.Fprintf(d.out, "%s: %s\n", ownerName(ev.Owner), d.formatState(ev.State))

	case game.RoundSettledEvent:
		switch ev.Result {
		case game.OutcomePlayer:
			fmt.Fprintln(d.out, d.styles.Winner.Render(fmt.Sprintf("You win $%d", ev.Payout)))
		case game.OutcomeDealer:
			fmt.Fprintln(d.out, d.styles.Loser.Render(fmt.Sprintf("Dealer wins, you lose $%d", ev.Bet)))
		case game.OutcomeTie:
			fmt.Fprintln(d.out, d.styles.Winner.Render(fmt.Sprintf("Push, $%d returned", ev.Payout)))
		}
		fmt.Fprintf(d.out, "Bankroll: %s\n", d.styles.Bankroll.Render(fmt.Sprintf("$%d", ev.Bankroll)))
		fmt.Fprintln(d.out, d.styles.Info.Render("type next to continue"))

	case game.RoundHaltedEvent:
		fmt.Fprintln(d.out, d.styles.Error.Render("Round halted: "+ev.Reason))
		fmt.Fprintln(d.out, d.styles.Info.Render("type cancel to get your bet back"))
	}
}

// ShowTable renders both hands as boxed cards with the hole card hidden.
func (d *Display) ShowTable(s game.Snapshot) {
	fmt.Fprintln(d.out, d.styles.Header.Render(fmt.Sprintf("Round %d • %s", s.Round, s.Phase)))
	fmt.Fprintf(d.out, "Dealer %s\n%s\n", d.formatState(s.DealerState), d.renderHand(s.Dealer))
	fmt.Fprintf(d.out, "Player %s\n%s\n", d.formatState(s.PlayerState), d.renderHand(s.Player))
	d.ShowBankroll(s)
}

func (d *Display) ShowBankroll(s game.Snapshot) {
	fmt.Fprintf(d.out, "Bankroll: %s  Bet: %s  Deck: %d\n",
		d.styles.Bankroll.Render(fmt.Sprintf("$%d", s.Bankroll)),
		d.styles.Bankroll.Render(fmt.Sprintf("$%d", s.CurrentBet)),
		s.DeckCount)
}

func (d *Display) ShowError(err error) {
	fmt.Fprintln(d.out, d.styles.Error.Render(err.Error()))
}

func (d *Display) renderHand(hand []game.HandCard) string {
	if len(hand) == 0 {
		return d.styles.Info.Render("(no cards)")
	}
	boxes := make([]string, len(hand))
	for i, hc := range hand {
		face := d.styles.CardBack.Render("??")
		if hc.FaceUp {
			face = d.formatCard(hc.Card)
		}
		boxes[i] = d.styles.CardBox.Render(face)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

func (d *Display) formatCard(c game.Card) string {
	if c.Suit == game.Hearts || c.Suit == game.Diamonds {
		return d.styles.CardRed.Render(c.String())
	}
	return d.styles.CardBlack.Render(c.String())
}

func (d *Display) formatState(s game.HandState) string {
	var notes []string
	switch {
	case s.Blackjack:
		notes = append(notes, "blackjack")
	case s.Bust:
		notes = append(notes, "bust")
	case s.Soft:
		notes = append(notes, "soft")
	}
	value := d.styles.Value.Render(fmt.Sprint(s.Value))
	if len(notes) == 0 {
		return value
	}
	return value + " (" + strings.Join(notes, ", ") + ")"
}
