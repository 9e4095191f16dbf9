package calibrate

// Percent bounds and step sizes for scale and quality adjustments.
const (
	MinPercent = 1
	MaxPercent = 100
	SmallStep  = 1
	LargeStep  = 10
)

// Event is one decoded operator input.
type Event int

const (
	EventNone Event = iota
	EventExit
	EventPrevious
	EventNext
	EventAccept
	EventScaleUp
	EventScaleUpLarge
	EventScaleDown
	EventScaleDownLarge
	EventQualityUp
	EventQualityUpLarge
	EventQualityDown
	EventQualityDownLarge
)

var eventNames = map[Event]string{
	EventNone:             "none",
	EventExit:             "exit",
	EventPrevious:         "previous",
	EventNext:             "next",
	EventAccept:           "accept",
	EventScaleUp:          "scale+1",
	EventScaleUpLarge:     "scale+10",
	EventScaleDown:        "scale-1",
	EventScaleDownLarge:   "scale-10",
	EventQualityUp:        "quality+1",
	EventQualityUpLarge:   "quality+10",
	EventQualityDown:      "quality-1",
	EventQualityDownLarge: "quality-10",
}

func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return "unknown"
}

// Transition tells the session loop what to do after an event.
type Transition int

const (
	// Continue re-renders with the (possibly) updated state.
	Continue Transition = iota
	// Accept ends the session keeping the current parameters.
	Accept
	// Exit ends the session discarding the current parameters.
	Exit
)

// State is the mutable part of a calibration session. Images is fixed once
// the state is created.
type State struct {
	Images  []string
	Index   int
	Scale   int
	Quality int
}

// NewState starts at the first image with scale and quality at 100.
func NewState(images []string) State {
	return State{
		Images:  append([]string(nil), images...),
		Scale:   MaxPercent,
		Quality: MaxPercent,
	}
}

// Current returns the name of the image being previewed.
func (s *State) Current() string {
	if len(s.Images) == 0 {
		return ""
	}
	return s.Images[s.Index]
}

// Apply mutates the state for ev and reports how the loop proceeds.
// Previous stops at the first image; Next wraps to the first image only from
// the last one. Scale and quality are clamped to [MinPercent, MaxPercent]
// after every adjustment. Unrecognized events leave the state unchanged.
func (s *State) Apply(ev Event) Transition {
	switch ev {
	case EventExit:
		return Exit
	case EventAccept:
		return Accept
	case EventPrevious:
		if s.Index > 0 {
			s.Index--
		}
	case EventNext:
		if s.Index >= len(s.Images)-1 {
			s.Index = 0
		} else {
			s.Index++
		}
	case EventScaleUp:
		s.Scale = clamp(s.Scale + SmallStep)
	case EventScaleUpLarge:
		s.Scale = clamp(s.Scale + LargeStep)
	case EventScaleDown:
		s.Scale = clamp(s.Scale - SmallStep)
	case EventScaleDownLarge:
		s.Scale = clamp(s.Scale - LargeStep)
	case EventQualityUp:
		s.Quality = clamp(s.Quality + SmallStep)
	case EventQualityUpLarge:
		s.Quality = clamp(s.Quality + LargeStep)
	case EventQualityDown:
		s.Quality = clamp(s.Quality - SmallStep)
	case EventQualityDownLarge:
		s.Quality = clamp(s.Quality - LargeStep)
	}
	return Continue
}

func clamp(v int) int {
	return min(max(v, MinPercent), MaxPercent)
}
