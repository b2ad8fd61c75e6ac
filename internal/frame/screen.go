package frame

// Screen is one state of the frame flow.
type Screen string

const (
	Home             Screen = "home"
	CheckInteraction Screen = "check-interaction"
	Recasted         Screen = "recasted"
	Liked            Screen = "liked"
)

// Screens lists every state in route order.
var Screens = []Screen{Home, CheckInteraction, Recasted, Liked}

// Action is a button the viewer can press.
type Action string

const (
	ActionCheck      Action = "check"
	ActionHome       Action = "home"
	ActionRetry      Action = "retry"
	ActionRecast     Action = "recast"
	ActionLike       Action = "like"
	ActionCheckAgain Action = "check-again"
)

// transitions is the whole state machine: state x action -> next state.
var transitions = map[Screen]map[Action]Screen{
	Home: {
		ActionCheck: CheckInteraction,
	},
	CheckInteraction: {
		ActionHome:   Home,
		ActionRetry:  CheckInteraction,
		ActionRecast: Recasted,
		ActionLike:   Liked,
	},
	Recasted: {
		ActionCheckAgain: CheckInteraction,
		ActionHome:       Home,
	},
	Liked: {
		ActionCheckAgain: CheckInteraction,
		ActionHome:       Home,
	},
}

// Next returns the state reached from s by a. ok is false for transitions the flow does not have.
func Next(s Screen, a Action) (next Screen, ok bool) {
	next, ok = transitions[s][a]
	return next, ok
}

// Path is the route of s relative to the frame base path.
func (s Screen) Path() string {
	switch s {
	case Home:
		return "/"
	case CheckInteraction:
		return "/check-interaction"
	case Recasted:
		return "/recast"
	case Liked:
		return "/like"
	}
	return ""
}

func (s Screen) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// ParseScreen accepts a screen name or its route path.
func ParseScreen(v string) (Screen, bool) {
	for _, s := range Screens {
		if string(s) == v || s.Path() == v {
			return s, true
		}
	}
	return "", false
}
