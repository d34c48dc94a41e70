// Package viz draws a simulated run in the terminal.
//
// [Model] is a Bubble Tea program showing the field, the robot and its trail
// on a braille [Canvas], next to the sequencer state, a range chart and the
// robot's recent log lines. Terminal keys are forwarded to the robot as IR
// remote presses through a [KeyRemote]:
//
//	Space/P    - Play/Pause
//	S          - Setup (manual adjustment)
//	X          - Stop mode
//	B          - Back
//	7          - Select the 45 degree routine
//
// F freezes the simulation itself, +/- change its speed and G toggles GIF
// recording.
package viz
