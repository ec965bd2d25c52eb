package action

import (
	"fmt"
	"strings"
)

// Action identifies one conferencing control that can be shown on the
// control surface.
type Action int

const (
	Mic Action = iota
	Camera
	Hand
	Call
)

// Count is the number of actions, and the length of every sample vector.
const Count = 4

// All lists every action in slot order.
var All = [Count]Action{Mic, Camera, Hand, Call}

var names = [Count]string{"mic", "camera", "hand", "call"}

// Slot returns the index of this action in a sampler output vector.
func (a Action) Slot() int {
	return int(a)
}

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	return a >= 0 && int(a) < Count
}

func (a Action) String() string {
	if !a.Valid() {
		return fmt.Sprintf("Action(%d)", int(a))
	}
	return names[a]
}

// Title returns the capitalized name used in metric labels ("Mic").
func (a Action) Title() string {
	if !a.Valid() {
		return a.String()
	}
	s := names[a]
	return strings.ToUpper(s[:1]) + s[1:]
}

// Parse resolves an action from its bare name ("mic") or from a
// reverse-DNS action identifier ("com.example.workrooms.mic"), in which
// case the last dot-separated segment is used.
func Parse(name string) (Action, bool) {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range names {
		if n == name {
			return Action(i), true
		}
	}
	return 0, false
}
