package syncer

import "time"

const (
	OutcomeReplayed = "replayed"
	OutcomeFailed   = "failed"
	OutcomeSkipped  = "skipped"
)

// Tally counts one entity's outcomes in a run.
type Tally struct {
	Replayed int `json:"replayed"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
}

type Report struct {
	StartedAt time.Time         `json:"started_at"`
	Duration  time.Duration     `json:"duration"`
	Entities  map[string]*Tally `json:"entities"`
}

func newReport(now time.Time) Report {
	return Report{StartedAt: now, Entities: map[string]*Tally{}}
}

func (r Report) tally(entity string) *Tally {
	t, ok := r.Entities[entity]
	if !ok {
		t = &Tally{}
		r.Entities[entity] = t
	}
	return t
}

func (r Report) sum(f func(*Tally) int) int {
	n := 0
	for _, t := range r.Entities {
		n += f(t)
	}
	return n
}

func (r Report) Replayed() int { return r.sum(func(t *Tally) int { return t.Replayed }) }
func (r Report) Failed() int   { return r.sum(func(t *Tally) int { return t.Failed }) }
func (r Report) Skipped() int  { return r.sum(func(t *Tally) int { return t.Skipped }) }
