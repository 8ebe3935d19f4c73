package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/calvinwijaya/blackjack/internal/game"
)

const help = `commands:
  bet N      stake N on the next round
  deal       start the round
  hit        take a card
  stand      let the dealer play
  next       clear the settled round
  cancel     withdraw the bet, or abandon a halted round
  shuffle    shuffle the deck
  reset      gather every card and shuffle
  bankroll   restore the starting bankroll
  table      show the table
  quit       leave`

// Shell plays a session from line commands.
type Shell struct {
	session *game.Session
	display *Display
	in      io.Reader
}

// NewShell subscribes a display writing to out and reads commands from in.
func NewShell(session *game.Session, in io.Reader, out io.Writer) *Shell {
	display := NewDisplay(out)
	session.Subscribe(display)
	return &Shell{session: session, display: display, in: in}
}

// Run reads commands until quit, end of input or ctx is done. Lines are read
// on a separate goroutine so cancellation does not wait for the next line.
func (sh *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(sh.display.out, sh.display.styles.Header.Render("BLACKJACK"))
	sh.display.ShowBankroll(sh.session.Snapshot())
	fmt.Fprintln(sh.display.out, sh.display.styles.Info.Render("type help for commands"))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(sh.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		fmt.Fprint(sh.display.out, "> ")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case line := <-lines:
			if quit := sh.Exec(line); quit {
				return nil
			}
		}
	}
}

// Exec runs one command line and reports whether the player quit.
func (sh *Shell) Exec(line string) bool {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return false
	}

	s := sh.session
	var err error
	switch fields[0] {
	case "bet", "b":
		if len(fields) != 2 {
			err = errors.New("usage: bet N")
			break
		}
		amount, convErr := strconv.Atoi(fields[1])
		if convErr != nil {
			err = fmt.Errorf("%w: %q is not a number", game.ErrInvalidBet, fields[1])
			break
		}
		if err = s.PlaceBet(amount); err == nil {
			sh.display.ShowBankroll(s.Snapshot())
		}
	case "deal", "d":
		err = s.StartRound()
	case "hit", "h":
		err = s.Hit()
	case "stand", "s":
		err = s.Stand()
	case "next", "n":
		err = s.AcknowledgeSettlement()
	case "cancel":
		if err = s.CancelRound(); err == nil {
			sh.display.ShowBankroll(s.Snapshot())
		}
	case "shuffle":
		err = s.Shuffle()
	case "reset":
		err = s.Reset()
	case "bankroll":
		if err = s.ResetBankroll(); err == nil {
			sh.display.ShowBankroll(s.Snapshot())
		}
	case "table", "t":
		sh.display.ShowTable(s.Snapshot())
	case "help", "?":
		fmt.Fprintln(sh.display.out, help)
	case "quit", "q", "exit":
		return true
	default:
		err = fmt.Errorf("unknown command %q, type help", fields[0])
	}

	if err != nil {
		if errors.Is(err, game.ErrIllegalState) {
			err = fmt.Errorf("can't %s during %s", fields[0], s.Phase())
		}
		sh.display.ShowError(err)
	}
	return false
}
