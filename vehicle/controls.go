package vehicle

import "strings"

// Controls is the input bitmask sent by the driver.
type Controls uint32

const (
	ControlAccelerate Controls = 1 << iota
	ControlHandBrake
	ControlReverse
	ControlLeft
	ControlRight
	ControlEngineOn
)

// SpawnControls has the hand brake on
const SpawnControls = ControlHandBrake

func (c Controls) Has(flag Controls) bool {
	return c&flag == flag
}

func (c Controls) With(flag Controls) Controls {
	return c | flag
}

func (c Controls) Without(flag Controls) Controls {
	return c &^ flag
}

// Reset drops every input but the engine and the hand brake.
func (c Controls) Reset() Controls {
	return c & (ControlEngineOn | ControlHandBrake)
}

func (c Controls) Accelerate() bool { return c.Has(ControlAccelerate) }
func (c Controls) HandBrake() bool { return c.Has(ControlHandBrake) }
func (c Controls) Reverse() bool { return c.Has(ControlReverse) }
func (c Controls) Left() bool { return c.Has(ControlLeft) }
func (c Controls) Right() bool { return c.Has(ControlRight) }
func (c Controls) EngineOn() bool { return c.Has(ControlEngineOn) }

var controlNames = [...]string{"accelerate", "handbrake", "reverse", "left", "right", "engine"}

func (c Controls) String() string {
	var names []string
	for i, name := range controlNames {
		if c.Has(1 << i) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}
