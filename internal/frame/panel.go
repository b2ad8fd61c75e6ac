package frame

import (
	"fmt"

	"framecheck/internal/model"
	"framecheck/internal/util"
)

// maxCaptionRunes keeps post text short enough for the image and its token.
const maxCaptionRunes = 200

const simulatedNote = "This is simulated and was not recorded on Farcaster."

// Image is everything drawn on a panel.
type Image struct {
	Title   string   `json:"t"`
	Lines   []string `json:"l,omitempty"`
	Caption string   `json:"c,omitempty"`
}

// Button is an outgoing action with its target state.
type Button struct {
	Label  string
	Action Action
	Target Screen
}

// Panel is one rendered frame: an image plus the actions leaving it.
type Panel struct {
	Screen  Screen
	Outcome OutcomeKind
	Image   Image
	Buttons []Button
}

// OutcomeKind says what happened while preparing a screen.
type OutcomeKind string

const (
	OutcomeStatic   OutcomeKind = "static"
	OutcomeNoViewer OutcomeKind = "no_viewer"
	OutcomeNotFound OutcomeKind = "not_found"
	OutcomeFailed   OutcomeKind = "failed"
	OutcomeFound    OutcomeKind = "found"
)

// Outcome is the input of Render for screens that depend on a lookup.
type Outcome struct {
	Kind   OutcomeKind
	Result model.InteractionResult
}

// Panels renders every screen. Title is the home screen heading.
type Panels struct {
	Title string
}

// Render returns the panel for screen given the lookup outcome. It has no side effects.
func (p Panels) Render(screen Screen, out Outcome) Panel {
	switch screen {
	case Home:
		return p.home()
	case CheckInteraction:
		switch out.Kind {
		case OutcomeNoViewer:
			return noViewer()
		case OutcomeNotFound:
			return notFound()
		case OutcomeFound:
			return status(out.Result)
		default:
			return lookupFailed()
		}
	case Recasted:
		return confirmation(Recasted, "Recasted!", "You recasted the frame.")
	case Liked:
		return confirmation(Liked, "Liked!", "You liked the frame.")
	}
	return p.home()
}

func (p Panels) home() Panel {
	return panel(Home, OutcomeStatic, Image{
		Title: util.Coalesce(p.Title, "Frame Interaction Checker"),
		Lines: []string{"Check your interaction with a specific cast"},
	}, btn("Check Interaction", ActionCheck))
}

func noViewer() Panel {
	return panel(CheckInteraction, OutcomeNoViewer, Image{
		Title: "Error",
		Lines: []string{"Unable to retrieve user information"},
	}, btn("Back to Home", ActionHome))
}

func notFound() Panel {
	return panel(CheckInteraction, OutcomeNotFound, Image{
		Title: "Cast Not Found",
		Lines: []string{"Unable to find information for this cast"},
	}, btn("Back to Home", ActionHome), btn("Try Again", ActionRetry))
}

func lookupFailed() Panel {
	return panel(CheckInteraction, OutcomeFailed, Image{
		Title: "Error",
		Lines: []string{"An error occurred while checking the interaction. Please try again later."},
	}, btn("Back to Home", ActionHome), btn("Try Again", ActionRetry))
}

func status(r model.InteractionResult) Panel {
	verb := "not recasted"
	if r.ViewerHasRecasted {
		verb = "recasted"
	}
	var buttons []button
	if !r.ViewerHasRecasted {
		buttons = append(buttons, btn("Recast", ActionRecast))
	}
	buttons = append(buttons, btn("Like", ActionLike), btn("Back to Home", ActionHome))
	return panel(CheckInteraction, OutcomeFound, Image{
		Title: "Cast Interaction Status",
		Lines: []string{
			fmt.Sprintf("Recasts: %d", r.RecastCount),
			fmt.Sprintf("Likes: %d", r.LikeCount),
			fmt.Sprintf("You have %s this cast", verb),
		},
		Caption: util.Truncate(util.NormalizeWhitespace(r.Text), maxCaptionRunes),
	}, buttons...)
}

func confirmation(s Screen, title, line string) Panel {
	return panel(s, OutcomeStatic, Image{
		Title: title,
		Lines: []string{line, simulatedNote},
	}, btn("Check Again", ActionCheckAgain), btn("Back to Home", ActionHome))
}

type button struct {
	label  string
	action Action
}

func btn(label string, a Action) button { return button{label: label, action: a} }

// panel resolves each button's target through the transition table.
func panel(s Screen, kind OutcomeKind, img Image, buttons ...button) Panel {
	p := Panel{Screen: s, Outcome: kind, Image: img}
	for _, b := range buttons {
		target, ok := Next(s, b.action)
		if !ok {
			panic(fmt.Sprintf("frame: no transition %s --%s-->", s, b.action))
		}
		p.Buttons = append(p.Buttons, Button{Label: b.label, Action: b.action, Target: target})
	}
	return p
}

// HasAction reports whether the panel offers a.
func (p Panel) HasAction(a Action) bool {
	for _, b := range p.Buttons {
		if b.Action == a {
			return true
		}
	}
	return false
}
