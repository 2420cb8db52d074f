package poker

import (
	"errors"
	"fmt"
	"sort"
)

// Sentinel errors returned by player operations. Callers that translate
// illegal moves into penalties match on these with errors.Is.
var (
	ErrHandComplete   = errors.New("hand is complete")
	ErrNotBetting     = errors.New("no betting action pending")
	ErrNotDrawing     = errors.New("no draw action pending")
	ErrBetOutOfRange  = errors.New("bet amount out of range")
	ErrRaiseCapped    = errors.New("raise cap reached")
	ErrCannotRaise    = errors.New("completion, bet or raise not allowed")
	ErrBadDiscard     = errors.New("discard selects cards not held")
	ErrDeckExhausted  = errors.New("deck exhausted")
	ErrShortDeck      = errors.New("deck order does not cover the deal")
)

// State is a single hand of poker in progress. Forced bets, dealing, bet
// collection, and showdown all run automatically; the only external inputs
// are Fold, CheckOrCall, CompleteBetOrRaiseTo, and StandPatOrDiscard.
//
// Seats are positional: seat 0 posts the first blind, seat 1 the second, and
// so on. Heads-up, seat 0 is the button.
type State struct {
	def Definition
	cfg TableConfig

	deck    []Card
	deckPos int

	hole   [][]Card
	holeUp [][]bool
	board  []Card

	folded   []bool
	stacks   []int64
	starting []int64
	bets     []int64
	contrib  []int64
	pot      int64

	streetIdx int

	actor      int
	currentBet int64
	lastRaise  int64
	raiseCount int
	acted      []bool

	drawActor int

	status bool
}

// NewState starts a hand from a resolved definition, a normalized config
// (both from Variant.Definition), and a shuffled deck order.
func NewState(def Definition, cfg TableConfig, deckOrder []int) (*State, error) {
	if len(deckOrder) < DeckSize {
		return nil, ErrShortDeck
	}

	n := cfg.Players
	s := &State{
		def:       def,
		cfg:       cfg,
		deck:      make([]Card, len(deckOrder)),
		hole:      make([][]Card, n),
		holeUp:    make([][]bool, n),
		folded:    make([]bool, n),
		stacks:    make([]int64, n),
		starting:  make([]int64, n),
		bets:      make([]int64, n),
		contrib:   make([]int64, n),
		acted:     make([]bool, n),
		actor:     -1,
		drawActor: -1,
		status:    true,
	}

	for i, idx := range deckOrder {
		card, err := CardFromIndex(idx)
		if err != nil {
			return nil, err
		}
		s.deck[i] = card
	}
	copy(s.stacks, cfg.StartingStacks)
	copy(s.starting, cfg.StartingStacks)

	s.postAntes()
	if def.UseBlinds {
		s.postBlinds()
	}

	if err := s.dealStreet(); err != nil {
		return nil, err
	}
	s.openStreet()
	return s, nil
}

// Status reports whether the hand is still in progress.
func (s *State) Status() bool { return s.status }

// ActorIndex returns the seat that must bet, or -1.
func (s *State) ActorIndex() int { return s.actor }

// StanderPatOrDiscarderIndex returns the seat that must discard, or -1.
func (s *State) StanderPatOrDiscarderIndex() int { return s.drawActor }

// Stacks returns the current stacks.
func (s *State) Stacks() []int64 {
	out := make([]int64, len(s.stacks))
	copy(out, s.stacks)
	return out
}

// StartingStacks returns the stacks at the start of the hand.
func (s *State) StartingStacks() []int64 {
	out := make([]int64, len(s.starting))
	copy(out, s.starting)
	return out
}

// Bets returns the chips each seat has in front of it this street.
func (s *State) Bets() []int64 {
	out := make([]int64, len(s.bets))
	copy(out, s.bets)
	return out
}

// Board returns the community cards dealt so far.
func (s *State) Board() []Card {
	out := make([]Card, len(s.board))
	copy(out, s.board)
	return out
}

// HoleCards returns the seat's hole cards together with face-up flags.
func (s *State) HoleCards(seat int) ([]Card, []bool) {
	if seat < 0 || seat >= len(s.hole) {
		return nil, nil
	}
	cards := make([]Card, len(s.hole[seat]))
	copy(cards, s.hole[seat])
	up := make([]bool, len(s.holeUp[seat]))
	copy(up, s.holeUp[seat])
	return cards, up
}

// Folded reports whether the seat has folded.
func (s *State) Folded(seat int) bool {
	return seat >= 0 && seat < len(s.folded) && s.folded[seat]
}

// Pot returns all chips committed to the hand, including live bets.
func (s *State) Pot() int64 {
	total := s.pot
	for _, b := range s.bets {
		total += b
	}
	return total
}

// StreetName returns the current street's name, or "showdown" once done.
func (s *State) StreetName() string {
	if s.streetIdx >= len(s.def.Streets) {
		return "showdown"
	}
	return s.def.Streets[s.streetIdx].Name
}

// CheckingOrCallingAmount returns the chips the actor must put in to call.
// Zero means a check.
func (s *State) CheckingOrCallingAmount() int64 {
	if s.actor < 0 {
		return 0
	}
	owed := s.currentBet - s.bets[s.actor]
	if owed > s.stacks[s.actor] {
		owed = s.stacks[s.actor]
	}
	if owed < 0 {
		owed = 0
	}
	return owed
}

// CanCompleteBetOrRaise reports whether the actor may bet or raise at all.
func (s *State) CanCompleteBetOrRaise() bool {
	if s.actor < 0 {
		return false
	}
	if s.def.Betting == FixedLimit && s.def.RaiseCap > 0 && s.raiseCount >= s.def.RaiseCap {
		return false
	}
	// A raise needs chips beyond the call.
	return s.stacks[s.actor] > s.CheckingOrCallingAmount()
}

// MinCompletionBettingOrRaisingToAmount returns the smallest legal bet or
// raise-to total for the actor. Zero when raising is not allowed.
func (s *State) MinCompletionBettingOrRaisingToAmount() int64 {
	min, _ := s.raiseWindow()
	return min
}

// MaxCompletionBettingOrRaisingToAmount returns the largest legal bet or
// raise-to total for the actor. Zero when raising is not allowed.
func (s *State) MaxCompletionBettingOrRaisingToAmount() int64 {
	_, max := s.raiseWindow()
	return max
}

// raiseWindow computes the [min, max] raise-to totals for the current actor.
func (s *State) raiseWindow() (int64, int64) {
	if !s.CanCompleteBetOrRaise() {
		return 0, 0
	}

	allIn := s.bets[s.actor] + s.stacks[s.actor]
	street := s.def.Streets[s.streetIdx]

	switch s.def.Betting {
	case FixedLimit:
		betSize := s.cfg.smallBet() * int64(street.BetSizeMultiplier)
		var target int64
		switch {
		case s.def.UseBringIn && s.streetIdx == 0 && s.raiseCount == 0:
			// Completing the bring-in to a full small bet.
			target = s.cfg.smallBet()
		case s.currentBet == 0:
			target = betSize
		default:
			target = s.currentBet + betSize
		}
		if target > allIn {
			target = allIn
		}
		return target, target

	case PotLimit:
		min := s.minRaiseTo()
		potAfterCall := s.pot + s.sumBets() + s.CheckingOrCallingAmount()
		max := s.currentBet + potAfterCall
		if max > allIn {
			max = allIn
		}
		if min > max {
			min = max
		}
		return min, max

	default: // NoLimit
		min := s.minRaiseTo()
		max := allIn
		if min > max {
			min = max
		}
		return min, max
	}
}

func (s *State) minRaiseTo() int64 {
	ref := s.lastRaise
	if ref < s.cfg.bigBlind() {
		ref = s.cfg.bigBlind()
	}
	if s.currentBet == 0 {
		return ref
	}
	return s.currentBet + ref
}

func (s *State) sumBets() int64 {
	var total int64
	for _, b := range s.bets {
		total += b
	}
	return total
}

// Fold folds the current actor's hand.
func (s *State) Fold() error {
	if !s.status {
		return ErrHandComplete
	}
	if s.actor < 0 {
		return ErrNotBetting
	}

	s.folded[s.actor] = true
	if s.liveCount() == 1 {
		s.finishFoldWin()
		return nil
	}
	s.advanceBetting()
	return nil
}

// CheckOrCall checks when nothing is owed, otherwise calls (all-in if short).
func (s *State) CheckOrCall() error {
	if !s.status {
		return ErrHandComplete
	}
	if s.actor < 0 {
		return ErrNotBetting
	}

	s.commit(s.actor, s.CheckingOrCallingAmount())
	s.acted[s.actor] = true
	s.advanceBetting()
	return nil
}

// CompleteBetOrRaiseTo completes, bets, or raises so the actor's total bet
// this street becomes amount.
func (s *State) CompleteBetOrRaiseTo(amount int64) error {
	if !s.status {
		return ErrHandComplete
	}
	if s.actor < 0 {
		return ErrNotBetting
	}
	if !s.CanCompleteBetOrRaise() {
		if s.def.Betting == FixedLimit && s.def.RaiseCap > 0 && s.raiseCount >= s.def.RaiseCap {
			return ErrRaiseCapped
		}
		return ErrCannotRaise
	}
	min, max := s.raiseWindow()
	if amount < min || amount > max {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrBetOutOfRange, amount, min, max)
	}

	s.commit(s.actor, amount-s.bets[s.actor])
	raise := amount - s.currentBet
	if raise > s.lastRaise {
		s.lastRaise = raise
	}
	s.currentBet = amount
	s.raiseCount++

	// The raise reopens action for everyone still in.
	for i := range s.acted {
		s.acted[i] = false
	}
	s.acted[s.actor] = true
	s.advanceBetting()
	return nil
}

// StandPatOrDiscard discards the selected cards (none to stand pat) and
// replaces them from the deck.
func (s *State) StandPatOrDiscard(discards CardMask) error {
	if !s.status {
		return ErrHandComplete
	}
	if s.drawActor < 0 {
		return ErrNotDrawing
	}

	seat := s.drawActor
	held := MaskOf(s.hole[seat]...)
	if discards&^held != 0 {
		return ErrBadDiscard
	}
	if discards.Count() > s.deckLeft() {
		return ErrDeckExhausted
	}

	kept := s.hole[seat][:0]
	for _, c := range s.hole[seat] {
		if !discards.Has(c.Index()) {
			kept = append(kept, c)
		}
	}
	s.hole[seat] = kept
	for i := 0; i < discards.Count(); i++ {
		s.hole[seat] = append(s.hole[seat], s.drawCard())
	}
	s.holeUp[seat] = make([]bool, len(s.hole[seat]))

	s.drawActor = s.nextDrawActor(seat)
	if s.drawActor < 0 {
		s.openBetting()
	}
	return nil
}

// Payouts returns each seat's net result once the hand is complete.
func (s *State) Payouts() []int64 {
	out := make([]int64, len(s.stacks))
	if s.status {
		return out
	}
	for i := range out {
		out[i] = s.stacks[i] - s.starting[i]
	}
	return out
}

// --- internals ---

func (s *State) postAntes() {
	for i := range s.stacks {
		ante := s.cfg.Antes[i]
		if ante > s.stacks[i] {
			ante = s.stacks[i]
		}
		s.stacks[i] -= ante
		s.contrib[i] += ante
		s.pot += ante
	}
}

func (s *State) postBlinds() {
	for i, blind := range s.cfg.Blinds {
		if blind == 0 {
			continue
		}
		post := blind
		if post > s.stacks[i] {
			post = s.stacks[i]
		}
		s.stacks[i] -= post
		s.bets[i] += post
		s.contrib[i] += post
	}
	s.currentBet = s.cfg.bigBlind()
	s.lastRaise = s.cfg.bigBlind()
}

func (s *State) deckLeft() int {
	return len(s.deck) - s.deckPos
}

func (s *State) drawCard() Card {
	c := s.deck[s.deckPos]
	s.deckPos++
	return c
}

// dealStreet deals the current street's hole and board cards. Hole cards go
// out one at a time around the live seats, the way a dealer pitches them.
func (s *State) dealStreet() error {
	street := s.def.Streets[s.streetIdx]

	need := len(street.HoleUpCards)*s.liveCount() + street.BoardDealCount
	if need > s.deckLeft() {
		return ErrDeckExhausted
	}

	for _, up := range street.HoleUpCards {
		for seat := 0; seat < s.cfg.Players; seat++ {
			if s.folded[seat] {
				continue
			}
			s.hole[seat] = append(s.hole[seat], s.drawCard())
			s.holeUp[seat] = append(s.holeUp[seat], up)
		}
	}
	for i := 0; i < street.BoardDealCount; i++ {
		s.board = append(s.board, s.drawCard())
	}
	return nil
}

// openStreet starts the current street's action: the draw phase if the
// street has one, otherwise betting.
func (s *State) openStreet() {
	street := s.def.Streets[s.streetIdx]
	if street.Draw {
		s.drawActor = s.nextDrawActor(-1)
		if s.drawActor >= 0 {
			return
		}
	}
	s.openBetting()
}

// nextDrawActor finds the next live seat with chips behind after the given
// seat. All-in players stand pat automatically.
func (s *State) nextDrawActor(after int) int {
	for seat := after + 1; seat < s.cfg.Players; seat++ {
		if !s.folded[seat] && s.stacks[seat] > 0 {
			return seat
		}
	}
	return -1
}

// openBetting seats the opening actor for the current street, or skips the
// street entirely when no betting is possible.
func (s *State) openBetting() {
	s.drawActor = -1

	if s.liveWithChips() <= 1 && s.betsMatched() {
		s.actor = -1
		s.endStreet()
		return
	}

	var opener int
	switch {
	case s.streetIdx == 0 && s.def.UseBlinds:
		opener = (s.lastBlindSeat() + 1) % s.cfg.Players
	case s.streetIdx == 0 && s.def.UseBringIn:
		s.postBringIn()
		return
	case s.def.UseBringIn:
		opener = s.bestExposedSeat()
	default:
		opener = (s.buttonSeat() + 1) % s.cfg.Players
	}

	s.actor = s.seatOrNextActive(opener)
	if s.actor < 0 {
		s.endStreet()
	}
}

func (s *State) buttonSeat() int {
	if s.cfg.Players == 2 {
		return 0
	}
	return s.cfg.Players - 1
}

func (s *State) lastBlindSeat() int {
	last := 0
	for i, b := range s.cfg.Blinds {
		if b > 0 {
			last = i
		}
	}
	return last
}

// postBringIn forces the lowest exposed card to open third street, then
// passes action to the next seat.
func (s *State) postBringIn() {
	seat := s.lowestUpCardSeat()
	post := s.cfg.BringIn
	if post > s.stacks[seat] {
		post = s.stacks[seat]
	}
	s.stacks[seat] -= post
	s.bets[seat] += post
	s.contrib[seat] += post
	s.currentBet = s.cfg.BringIn
	s.lastRaise = s.cfg.smallBet() - s.cfg.BringIn
	s.acted[seat] = true

	s.actor = s.nextBettingActor(seat)
	if s.actor < 0 {
		s.endStreet()
	}
}

// lowestUpCardSeat finds the bring-in: lowest exposed rank, clubs-first suit
// order breaking ties.
func (s *State) lowestUpCardSeat() int {
	best := -1
	bestRank, bestSuit := 0, 0
	for seat := 0; seat < s.cfg.Players; seat++ {
		if s.folded[seat] {
			continue
		}
		card, ok := s.lastUpCard(seat)
		if !ok {
			continue
		}
		rank := cardRankHigh(card.Rank)
		suit := cardSuitOrder(card.Suit)
		if best < 0 || rank < bestRank || (rank == bestRank && suit < bestSuit) {
			best = seat
			bestRank = rank
			bestSuit = suit
		}
	}
	if best < 0 {
		best = 0
	}
	return best
}

func (s *State) lastUpCard(seat int) (Card, bool) {
	for i := len(s.holeUp[seat]) - 1; i >= 0; i-- {
		if s.holeUp[seat][i] {
			return s.hole[seat][i], true
		}
	}
	return Card{}, false
}

// bestExposedSeat finds who opens fourth street and beyond: the strongest
// face-up cards, earliest seat breaking ties.
func (s *State) bestExposedSeat() int {
	best := -1
	var bestScore int64
	for seat := 0; seat < s.cfg.Players; seat++ {
		if s.folded[seat] {
			continue
		}
		var up []Card
		for i, isUp := range s.holeUp[seat] {
			if isUp {
				up = append(up, s.hole[seat][i])
			}
		}
		score := exposedStrength(up)
		if best < 0 || score > bestScore {
			best = seat
			bestScore = score
		}
	}
	if best < 0 {
		best = 0
	}
	return best
}

// seatOrNextActive returns the seat itself if it can act, otherwise the next
// seat that can, or -1.
func (s *State) seatOrNextActive(seat int) int {
	return s.nextBettingActor((seat - 1 + s.cfg.Players) % s.cfg.Players)
}

// nextBettingActor finds the next seat after cur that still owes action.
func (s *State) nextBettingActor(cur int) int {
	n := s.cfg.Players
	for offset := 1; offset <= n; offset++ {
		seat := (cur + offset) % n
		if s.folded[seat] || s.stacks[seat] == 0 {
			continue
		}
		if s.acted[seat] && s.bets[seat] == s.currentBet {
			continue
		}
		return seat
	}
	return -1
}

func (s *State) commit(seat int, amount int64) {
	if amount > s.stacks[seat] {
		amount = s.stacks[seat]
	}
	s.stacks[seat] -= amount
	s.bets[seat] += amount
	s.contrib[seat] += amount
}

// advanceBetting moves to the next actor, or closes the street.
func (s *State) advanceBetting() {
	next := s.nextBettingActor(s.actor)
	if next >= 0 {
		s.actor = next
		return
	}
	s.actor = -1
	s.endStreet()
}

func (s *State) betsMatched() bool {
	for seat := 0; seat < s.cfg.Players; seat++ {
		if s.folded[seat] || s.stacks[seat] == 0 {
			continue
		}
		if s.bets[seat] != s.currentBet && s.currentBet != 0 {
			return false
		}
	}
	return true
}

// endStreet refunds any uncalled bet, sweeps bets into the pot, and either
// deals the next street or runs the showdown.
func (s *State) endStreet() {
	s.refundUncalled()
	for seat := range s.bets {
		s.pot += s.bets[seat]
		s.bets[seat] = 0
	}
	s.currentBet = 0
	s.lastRaise = 0
	s.raiseCount = 0
	for i := range s.acted {
		s.acted[i] = false
	}

	s.streetIdx++
	if s.streetIdx >= len(s.def.Streets) {
		s.showdown()
		return
	}
	if err := s.dealStreet(); err != nil {
		// Deck ran dry mid-hand; settle with what everyone holds.
		s.showdown()
		return
	}
	s.openStreet()
}

// refundUncalled returns the part of the highest bet nobody matched.
func (s *State) refundUncalled() {
	top, second := -1, int64(0)
	var topBet int64
	for seat, bet := range s.bets {
		if bet > topBet {
			second = topBet
			topBet = bet
			top = seat
		} else if bet > second {
			second = bet
		}
	}
	if top >= 0 && topBet > second {
		excess := topBet - second
		s.bets[top] -= excess
		s.stacks[top] += excess
		s.contrib[top] -= excess
	}
}

func (s *State) liveCount() int {
	n := 0
	for _, f := range s.folded {
		if !f {
			n++
		}
	}
	return n
}

func (s *State) liveWithChips() int {
	n := 0
	for seat, f := range s.folded {
		if !f && s.stacks[seat] > 0 {
			n++
		}
	}
	return n
}

// finishFoldWin settles the hand when all but one seat folded.
func (s *State) finishFoldWin() {
	s.refundUncalled()
	total := s.pot
	for seat := range s.bets {
		total += s.bets[seat]
		s.bets[seat] = 0
	}
	s.pot = 0

	for seat, f := range s.folded {
		if !f {
			s.stacks[seat] += total
			break
		}
	}
	s.actor = -1
	s.drawActor = -1
	s.status = false
}

// showdown builds side pots from contributions and pays the best hands.
func (s *State) showdown() {
	scores := make([]int16, s.cfg.Players)
	scored := make([]bool, s.cfg.Players)
	for seat := 0; seat < s.cfg.Players; seat++ {
		if s.folded[seat] {
			continue
		}
		score, err := s.scoreSeat(seat)
		if err != nil {
			continue
		}
		scores[seat] = score
		scored[seat] = true
	}

	// Contribution levels of live hands define the pots. Folded money above
	// the highest live level still belongs to the pot, so the overall maximum
	// contribution closes the level list.
	levelSet := make(map[int64]bool)
	var maxContrib int64
	for seat := 0; seat < s.cfg.Players; seat++ {
		if !s.folded[seat] && s.contrib[seat] > 0 {
			levelSet[s.contrib[seat]] = true
		}
		if s.contrib[seat] > maxContrib {
			maxContrib = s.contrib[seat]
		}
	}
	if maxContrib > 0 {
		levelSet[maxContrib] = true
	}
	levels := make([]int64, 0, len(levelSet))
	for level := range levelSet {
		levels = append(levels, level)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	prev := int64(0)
	var lastWinners []int
	for _, level := range levels {
		var amount int64
		for seat := 0; seat < s.cfg.Players; seat++ {
			c := s.contrib[seat]
			if c > level {
				c = level
			}
			if c > prev {
				amount += c - prev
			}
		}

		var winners []int
		var bestScore int16
		for seat := 0; seat < s.cfg.Players; seat++ {
			if !scored[seat] || s.contrib[seat] < level {
				continue
			}
			switch {
			case len(winners) == 0 || scores[seat] > bestScore:
				winners = []int{seat}
				bestScore = scores[seat]
			case scores[seat] == bestScore:
				winners = append(winners, seat)
			}
		}
		// No live hand reaches a level made purely of folded money; it goes
		// to whoever won the deepest contested pot below it.
		if len(winners) == 0 {
			winners = lastWinners
		} else {
			lastWinners = winners
		}

		if len(winners) > 0 && amount > 0 {
			share := amount / int64(len(winners))
			remainder := amount % int64(len(winners))
			for i, seat := range winners {
				s.stacks[seat] += share
				if int64(i) < remainder {
					s.stacks[seat]++ // odd chips to the earliest seats
				}
			}
		}
		prev = level
	}

	s.pot = 0
	s.actor = -1
	s.drawActor = -1
	s.status = false
}

func (s *State) scoreSeat(seat int) (int16, error) {
	if s.def.OmahaScoring {
		return ScoreOmaha(s.hole[seat], s.board)
	}
	cards := make([]Card, 0, len(s.hole[seat])+len(s.board))
	cards = append(cards, s.hole[seat]...)
	cards = append(cards, s.board...)
	return ScoreHigh(cards)
}
