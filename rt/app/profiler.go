package app

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Frame scopes recorded by App.Render.
const (
	ScopeUpdate = "update"
	ScopeEncode = "encode"
	ScopeSubmit = "submit"
)

type Profiler struct {
	Scopes     map[string]time.Duration
	StartTimes map[string]time.Time
	Counts     map[string]int
	Order      []string

	now func() time.Time
}

func NewProfiler() *Profiler {
	return newProfilerWithClock(time.Now)
}

func newProfilerWithClock(now func() time.Time) *Profiler {
	return &Profiler{
		Scopes:     make(map[string]time.Duration),
		StartTimes: make(map[string]time.Time),
		Counts:     make(map[string]int),
		now:        now,
	}
}

func (p *Profiler) BeginScope(name string) {
	p.StartTimes[name] = p.now()
	if _, seen := p.Scopes[name]; !seen {
		p.Order = append(p.Order, name)
		p.Scopes[name] = 0
	}
}

func (p *Profiler) EndScope(name string) {
	if start, ok := p.StartTimes[name]; ok {
		p.Scopes[name] = p.now().Sub(start)
		delete(p.StartTimes, name)
	}
}

// Record stores a duration measured elsewhere.
func (p *Profiler) Record(name string, d time.Duration) {
	if _, seen := p.Scopes[name]; !seen {
		p.Order = append(p.Order, name)
	}
	p.Scopes[name] = d
}

func (p *Profiler) Scope(name string) time.Duration {
	return p.Scopes[name]
}

func (p *Profiler) SetCount(name string, count int) {
	p.Counts[name] = count
}

// Reset zeroes timings but keeps scope order.
func (p *Profiler) Reset() {
	for k := range p.Scopes {
		p.Scopes[k] = 0
	}
}

// Summary is a single line: scopes in first-seen order, then sorted counts.
func (p *Profiler) Summary() string {
	var sb strings.Builder
	for i, name := range p.Order {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%s=%.2fms", name, ms(p.Scopes[name]))
	}

	keys := make([]string, 0, len(p.Counts))
	for k := range p.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%d", k, p.Counts[k])
	}
	return sb.String()
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
