package sampler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pgriess/streamdeck-workrooms/internal/action"
	"github.com/pgriess/streamdeck-workrooms/internal/browser"
	"github.com/pgriess/streamdeck-workrooms/internal/metrics"
)

func st(status action.Status, code action.ErrorCode) action.State {
	return action.State{Status: status, Error: code}
}

var (
	on      = st(action.StatusOn, action.NoError)
	off     = st(action.StatusOff, action.NoError)
	none    = st(action.StatusNone, action.NoError)
	unkDOM  = st(action.StatusUnknown, action.ErrQueryDOM)
	unkE1   = st(action.StatusUnknown, action.ErrQueryStatus)
	unkE3   = st(action.StatusUnknown, action.ErrScriptingDisabled)
	unkE4   = st(action.StatusUnknown, action.ErrQueryException)
	success = func(out string) browser.Result { return browser.Result{Stdout: out + "\n"} }
)

func TestInterpret(t *testing.T) {
	tests := []struct {
		name        string
		res         browser.Result
		want        Sample
		wantUnknown int
		wantErr     bool
	}{
		{
			name: "all definite",
			res:  success("ON OFF OFF ON"),
			want: Sample{on, off, off, on},
		},
		{
			name: "no session sentinel",
			res:  success("NONE"),
			want: Fill(none),
		},
		{
			name: "hand rule does not apply when call is unknown",
			res:  success("ON OFF NONE UNKNOWN"),
			want: Sample{on, off, none, unkDOM},
		},
		{
			name: "hand rule applies",
			res:  success("ON OFF UNKNOWN OFF"),
			want: Sample{on, off, none, off},
		},
		{
			name: "hand rule needs mic and camera definite",
			res:  success("NONE OFF UNKNOWN ON"),
			want: Sample{none, off, unkDOM, on},
		},
		{
			name:        "unrecognized token reads as unknown",
			res:         success("ON MAYBE OFF ON"),
			want:        Sample{on, unkDOM, off, on},
			wantUnknown: 1,
		},
		{
			name:    "wrong token count",
			res:     success("ON OFF"),
			want:    Fill(unkE4),
			wantErr: true,
		},
		{
			name: "non-zero exit",
			res:  browser.Result{ExitCode: 1, Stderr: "execution error: boom"},
			want: Fill(unkE1),
		},
		{
			name: "scripting disabled",
			res: browser.Result{
				ExitCode: 1,
				Stderr:   "execution error: Google Chrome got an error: Executing JavaScript through AppleScript is turned off. (12)",
			},
			want: Fill(unkE3),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, unknown, err := Interpret(tt.res)
			if got != tt.want {
				t.Errorf("Interpret() = %v, want %v", got, tt.want)
			}
			if len(unknown) != tt.wantUnknown {
				t.Errorf("unknown tokens = %v, want %d", unknown, tt.wantUnknown)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

type fakeQuerier struct {
	res browser.Result
	err error
}

func (f fakeQuerier) Query(context.Context) (browser.Result, error) {
	return f.res, f.err
}

type recorder struct {
	events []metrics.Event
}

func (r *recorder) Collect(ev metrics.Event) {
	r.events = append(r.events, ev)
}

func TestSampleHelperFailureIsE4(t *testing.T) {
	s := New(Config{Querier: fakeQuerier{err: errors.New("exec: not found")}})
	if got := s.Sample(context.Background()); got != Fill(unkE4) {
		t.Fatalf("Sample() = %v, want all %v", got, unkE4)
	}
}

func TestSampleTimingMetricIsSampled(t *testing.T) {
	rec := &recorder{}
	roll := 0.5
	s := New(Config{
		Querier:          fakeQuerier{res: browser.Result{Stdout: "NONE", Duration: 42 * time.Millisecond}},
		Metrics:          rec,
		TimingSampleRate: 0.01,
		Rand:             func() float64 { return roll },
	})

	s.Sample(context.Background())
	if len(rec.events) != 0 {
		t.Fatalf("events = %v, want none above the sample rate", rec.events)
	}

	roll = 0.001
	s.Sample(context.Background())
	if len(rec.events) != 1 {
		t.Fatalf("events = %v, want one timing event", rec.events)
	}
	ev := rec.events[0]
	if ev["t"] != "timing" || ev["utc"] != "query" || ev["utv"] != "subprocess" || ev["utt"] != "42" {
		t.Fatalf("timing event = %v", ev)
	}
}
