package game

// playDealer reveals the hole card and draws until the dealer stands. The
// dealer stands on any 17, soft or hard.
func (s *Session) playDealer() error {
	if err := s.revealDealer(); err != nil {
		return s.halt(err)
	}

	for Value(s.dealer.AllCards()) < dealerStandsOn {
		if err := s.deal(OwnerDealer, true); err != nil {
			return s.halt(err)
		}
		if IsBust(s.dealer.AllCards()) {
			return s.settle(OutcomePlayer)
		}
	}

	s.logger.Debug("dealer stands", "value", Value(s.dealer.AllCards()))
	return s.settle(DetermineWinner(s.player.AllCards(), s.dealer.AllCards()))
}

// revealDealer turns the dealer's face-down cards over one at a time.
func (s *Session) revealDealer() error {
	for i := s.dealer.FirstHidden(); i != -1; i = s.dealer.FirstHidden() {
		if _, err := s.dealer.Reveal(i); err != nil {
			return err
		}
		card := s.dealer.Cards()[i].Card
		s.logger.Debug("card revealed", "owner", OwnerDealer, "index", i, "card", card)
		s.publish(CardRevealedEvent{Owner: OwnerDealer, Index: i, Card: card})
		s.publishHand(s.dealer)
	}
	return nil
}
