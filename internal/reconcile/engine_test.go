package reconcile

import (
	"testing"
	"time"

	"github.com/pgriess/streamdeck-workrooms/internal/action"
	"github.com/pgriess/streamdeck-workrooms/internal/metrics"
	"github.com/pgriess/streamdeck-workrooms/internal/sampler"
	"github.com/pgriess/streamdeck-workrooms/internal/streamdeck"
)

type fakeImages struct{}

func (fakeImages) Image(a action.Action, s action.Status) string {
	switch s {
	case action.StatusOn:
		return a.String() + ":on"
	case action.StatusOff:
		return a.String() + ":off"
	default:
		return a.String() + ":none"
	}
}

type recorder struct {
	events []metrics.Event
}

func (r *recorder) Collect(ev metrics.Event) {
	r.events = append(r.events, ev)
}

func (r *recorder) ofType(t string) []metrics.Event {
	var out []metrics.Event
	for _, ev := range r.events {
		if ev["t"] == t {
			out = append(out, ev)
		}
	}
	return out
}

var (
	t0     = time.Unix(1_700_000_000, 0)
	on     = action.State{Status: action.StatusOn}
	off    = action.State{Status: action.StatusOff}
	none   = action.State{Status: action.StatusNone}
	unkDOM = action.State{Status: action.StatusUnknown, Error: action.ErrQueryDOM}
)

// micOnly builds a sample where mic reads st and every other action reads
// NONE.
func micOnly(st action.State) sampler.Sample {
	s := sampler.Fill(none)
	s[action.Mic.Slot()] = st
	return s
}

func newEngine(t *testing.T) (*Engine, *action.Table, *recorder) {
	t.Helper()
	table := action.NewTable()
	rec := &recorder{}
	e := New(Config{Table: table, Images: fakeImages{}, GracePeriod: 5 * time.Second, Metrics: rec})
	return e, table, rec
}

func commandsFor(cmds []streamdeck.Command, context string) []streamdeck.Command {
	var out []streamdeck.Command
	for _, c := range cmds {
		if c.Context == context {
			out = append(out, c)
		}
	}
	return out
}

func TestFirstDefiniteObservationCommitsImmediately(t *testing.T) {
	e, table, _ := newEngine(t)
	table.Appear(action.Mic, "mic-ctx")

	cmds := e.Reconcile(micOnly(on), t0)
	if len(cmds) != 1 {
		t.Fatalf("Reconcile() = %v, want one setImage", cmds)
	}
	if cmds[0].Event != streamdeck.CommandSetImage || cmds[0].Payload.(streamdeck.ImagePayload).Image != "mic:on" {
		t.Fatalf("command = %+v", cmds[0])
	}
	if got := table.Snapshot(action.Mic).Current; got != on {
		t.Fatalf("Current = %v, want %v", got, on)
	}
}

func TestContextGating(t *testing.T) {
	e, table, rec := newEngine(t)

	for i := 0; i < 10; i++ {
		if cmds := e.Reconcile(sampler.Fill(unkDOM), t0.Add(time.Duration(i)*time.Second)); len(cmds) != 0 {
			t.Fatalf("pass %d emitted %v with no contexts", i, cmds)
		}
	}
	for _, a := range action.All {
		if r := table.Snapshot(a); r.Current != (action.State{}) || r.Next != (action.State{}) {
			t.Fatalf("%s record mutated without context: %+v", a, r)
		}
	}
	if len(rec.events) != 0 {
		t.Fatalf("metrics emitted without context: %v", rec.events)
	}
}

func TestFlapIsSuppressed(t *testing.T) {
	e, table, _ := newEngine(t)
	table.Appear(action.Mic, "mic-ctx")
	e.Reconcile(micOnly(on), t0)

	steps := []struct {
		at     time.Duration
		sample action.State
	}{
		{1 * time.Second, unkDOM},
		{2 * time.Second, unkDOM},
		{3 * time.Second, on},
		{4 * time.Second, on},
		{10 * time.Second, on},
	}
	for _, s := range steps {
		if cmds := e.Reconcile(micOnly(s.sample), t0.Add(s.at)); len(cmds) != 0 {
			t.Fatalf("at +%v emitted %v, want nothing", s.at, cmds)
		}
	}
	if got := table.Snapshot(action.Mic).Current; got != on {
		t.Fatalf("Current = %v, want %v", got, on)
	}
}

func TestBadNewsCommitsAfterGracePeriod(t *testing.T) {
	e, table, rec := newEngine(t)
	table.Appear(action.Mic, "mic-ctx")
	e.Reconcile(micOnly(on), t0)

	first := t0.Add(time.Second)
	for _, at := range []time.Duration{0, time.Second, 3 * time.Second, 5 * time.Second} {
		if cmds := e.Reconcile(micOnly(unkDOM), first.Add(at)); len(cmds) != 0 {
			t.Fatalf("at +%v emitted %v before grace expired", at, cmds)
		}
	}

	cmds := e.Reconcile(micOnly(unkDOM), first.Add(5*time.Second+time.Millisecond))
	if len(cmds) != 2 {
		t.Fatalf("Reconcile() = %v, want image and title", cmds)
	}
	if cmds[0].Event != streamdeck.CommandSetImage || cmds[0].Payload.(streamdeck.ImagePayload).Image != "mic:none" {
		t.Fatalf("first command = %+v, want none image", cmds[0])
	}
	if cmds[1].Event != streamdeck.CommandSetTitle {
		t.Fatalf("second command = %+v, want setTitle", cmds[1])
	}
	title := cmds[1].Payload.(streamdeck.TitlePayload).Title
	if title == nil || *title != "E2" {
		t.Fatalf("title = %v, want E2", title)
	}

	ex := rec.ofType("exception")
	if len(ex) != 1 || ex[0]["exd"] != "MicErrorE2" {
		t.Fatalf("exception metrics = %v", ex)
	}
}

func TestGoodNewsClearsErrorImmediately(t *testing.T) {
	e, table, _ := newEngine(t)
	table.Appear(action.Mic, "mic-ctx")
	table.Update(action.Mic, func(r *action.Record) {
		r.Current = unkDOM
		r.Next = unkDOM
		r.NextTime = t0
	})

	cmds := e.Reconcile(micOnly(off), t0.Add(100*time.Millisecond))
	if len(cmds) != 2 {
		t.Fatalf("Reconcile() = %v, want image and title", cmds)
	}
	if cmds[0].Payload.(streamdeck.ImagePayload).Image != "mic:off" {
		t.Fatalf("image = %+v", cmds[0])
	}
	if title := cmds[1].Payload.(streamdeck.TitlePayload).Title; title != nil {
		t.Fatalf("title = %q, want cleared", *title)
	}
}

func TestIdempotence(t *testing.T) {
	e, table, _ := newEngine(t)
	for _, a := range action.All {
		table.Appear(a, a.String()+"-ctx")
	}

	sample := sampler.Sample{on, off, none, unkDOM}
	first := e.Reconcile(sample, t0)
	if len(first) == 0 {
		t.Fatal("first pass emitted nothing")
	}
	for i := 1; i <= 20; i++ {
		cmds := e.Reconcile(sample, t0.Add(time.Duration(i)*time.Second))
		want := 0
		if i == 6 {
			// call's UNKNOWN is held until the grace period has passed.
			want = 2
		}
		if len(cmds) != want {
			t.Fatalf("pass %d emitted %v, want %d commands", i, cmds, want)
		}
	}
}

func TestImageBeforeTitlePerAction(t *testing.T) {
	e, table, _ := newEngine(t)
	for _, a := range action.All {
		table.Appear(a, a.String()+"-ctx")
	}

	e.Reconcile(sampler.Fill(unkDOM), t0)
	cmds := e.Reconcile(sampler.Fill(unkDOM), t0.Add(6*time.Second))
	if len(cmds) != 2*action.Count {
		t.Fatalf("Reconcile() emitted %d commands, want %d", len(cmds), 2*action.Count)
	}
	for _, a := range action.All {
		got := commandsFor(cmds, a.String()+"-ctx")
		if len(got) != 2 || got[0].Event != streamdeck.CommandSetImage || got[1].Event != streamdeck.CommandSetTitle {
			t.Fatalf("%s commands = %+v, want image then title", a, got)
		}
	}
}

func TestToggleTimingMetricConsumedOnce(t *testing.T) {
	e, table, rec := newEngine(t)
	table.Appear(action.Mic, "mic-ctx")
	e.Reconcile(micOnly(on), t0)

	toggled := t0.Add(10 * time.Second)
	table.MarkToggled(action.Mic, action.StatusOn, toggled)

	e.Reconcile(micOnly(off), toggled.Add(1500*time.Millisecond))
	timings := rec.ofType("timing")
	if len(timings) != 1 {
		t.Fatalf("timing metrics = %v, want one", timings)
	}
	if timings[0]["utc"] != "toggle" || timings[0]["utv"] != "mic" || timings[0]["utt"] != "1500" {
		t.Fatalf("timing metric = %v", timings[0])
	}
	if !table.Snapshot(action.Mic).ActionTime.IsZero() {
		t.Fatal("ActionTime not cleared after commit")
	}

	e.Reconcile(micOnly(on), toggled.Add(3*time.Second))
	if n := len(rec.ofType("timing")); n != 1 {
		t.Fatalf("timing metrics after second commit = %d, want 1", n)
	}
}

func TestToggleTimingClearedByNonDefiniteCommit(t *testing.T) {
	e, table, rec := newEngine(t)
	table.Appear(action.Mic, "mic-ctx")
	e.Reconcile(micOnly(on), t0)
	table.MarkToggled(action.Mic, action.StatusOn, t0)

	e.Reconcile(micOnly(none), t0.Add(time.Second))
	if !table.Snapshot(action.Mic).ActionTime.IsZero() {
		t.Fatal("ActionTime not cleared by status change")
	}
	e.Reconcile(micOnly(off), t0.Add(2*time.Second))
	if n := len(rec.ofType("timing")); n != 0 {
		t.Fatalf("timing metrics = %d, want 0", n)
	}
}

func TestUnrecognizedStatusEmitsException(t *testing.T) {
	e, table, rec := newEngine(t)
	table.Appear(action.Camera, "cam-ctx")

	s := sampler.Fill(none)
	s[action.Camera.Slot()] = action.State{Status: action.Status(42)}
	cmds := e.Reconcile(s, t0)

	if len(cmds) != 1 || cmds[0].Payload.(streamdeck.ImagePayload).Image != "camera:none" {
		t.Fatalf("Reconcile() = %+v, want none image", cmds)
	}
	ex := rec.ofType("exception")
	if len(ex) != 1 || ex[0]["exd"] != "CameraUnexpectedStateStatus(42)" {
		t.Fatalf("exception metrics = %v", ex)
	}
}

func TestDisappearStartsClean(t *testing.T) {
	e, table, _ := newEngine(t)
	table.Appear(action.Mic, "mic-ctx")
	e.Reconcile(micOnly(on), t0)

	table.Disappear(action.Mic, t0.Add(time.Second))
	table.Appear(action.Mic, "mic-ctx-2")

	cmds := e.Reconcile(micOnly(on), t0.Add(2*time.Second))
	if len(cmds) != 1 || cmds[0].Context != "mic-ctx-2" {
		t.Fatalf("Reconcile() after re-appear = %+v, want image for new context", cmds)
	}
}
