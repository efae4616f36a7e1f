package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProfilerScopes(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0), step: 2 * time.Millisecond}
	p := newProfilerWithClock(clock.now)

	p.BeginScope(ScopeUpdate)
	p.EndScope(ScopeUpdate)
	p.Record(ScopeEncode, 1500*time.Microsecond)
	p.SetCount("bundles", 16)

	assert.Equal(t, 2*time.Millisecond, p.Scope(ScopeUpdate))
	assert.Equal(t, []string{ScopeUpdate, ScopeEncode}, p.Order)
	assert.Equal(t, "update=2.00ms encode=1.50ms bundles=16", p.Summary())

	p.Reset()
	assert.Zero(t, p.Scope(ScopeUpdate))
	assert.Len(t, p.Order, 2)

	// ending an unopened scope keeps the old value
	p.EndScope(ScopeSubmit)
	assert.Zero(t, p.Scope(ScopeSubmit))
}
