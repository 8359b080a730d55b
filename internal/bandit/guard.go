package bandit

import (
	"errors"
	"fmt"
)

// ErrProtocolViolation is returned by guarded policies when Update does not
// match the most recent selection.
var ErrProtocolViolation = errors.New("select/update protocol violation")

// Guarded wraps a Policy and checks that every Update reports exactly the
// arm returned by the preceding SelectArm, once.
type Guarded struct {
	Policy
	pending int
	armed   bool
	// lost marks that stale was selected and then replaced before its Update.
	stale int
	lost  bool
}

// Guard returns p with call-ordering checks.
func Guard(p Policy) *Guarded {
	return &Guarded{Policy: p}
}

// SelectArm implements Policy. Selecting again before an Update is a violation
// that surfaces on the next Update, not here.
func (g *Guarded) SelectArm() int {
	if g.armed && !g.lost {
		g.stale = g.pending
		g.lost = true
	}
	g.pending = g.Policy.SelectArm()
	g.armed = true
	return g.pending
}

// Update implements Policy.
func (g *Guarded) Update(arm int, reward float64) error {
	if !g.armed {
		return fmt.Errorf("%w: update for arm %d without a pending selection", ErrProtocolViolation, arm)
	}
	if g.lost {
		g.lost = false
		g.armed = false
		return fmt.Errorf("%w: arm %d was selected again before arm %d was updated", ErrProtocolViolation, g.pending, g.stale)
	}
	if arm != g.pending {
		return fmt.Errorf("%w: update for arm %d, selected arm %d", ErrProtocolViolation, arm, g.pending)
	}
	if err := g.Policy.Update(arm, reward); err != nil {
		return err
	}
	g.armed = false
	return nil
}

// GuardedSet wraps a SetPolicy and checks that every Update reports an arm of
// the most recent query set, at most once per round.
type GuardedSet struct {
	SetPolicy
	pending map[int]bool
}

// GuardSet returns p with call-ordering checks.
func GuardSet(p SetPolicy) *GuardedSet {
	return &GuardedSet{SetPolicy: p}
}

// SelectQuerySet implements SetPolicy.
func (g *GuardedSet) SelectQuerySet() []int {
	set := g.SetPolicy.SelectQuerySet()
	g.pending = make(map[int]bool, len(set))
	for _, arm := range set {
		g.pending[arm] = true
	}
	return set
}

// Update implements SetPolicy.
func (g *GuardedSet) Update(arm int, reward float64) error {
	if !g.pending[arm] {
		return fmt.Errorf("%w: arm %d not pending in the current query set", ErrProtocolViolation, arm)
	}
	if err := g.SetPolicy.Update(arm, reward); err != nil {
		return err
	}
	delete(g.pending, arm)
	return nil
}
