// SPDX-License-Identifier: MIT
package mix

// camelotPosition is a slot on the Camelot wheel: a number 1-12 and a
// letter (A for minor, B for major).
type camelotPosition struct {
	num    int
	letter byte
}

// camelotWheel maps the 12 sharp-spelled pitch classes to wheel
// positions. The analyzer reports keys without mode, so the table is
// major-only; the letter field stays so minor rows can be added without
// touching the scoring rules.
var camelotWheel = map[string]camelotPosition{
	"B":  {1, 'B'},
	"F#": {2, 'B'},
	"C#": {3, 'B'},
	"G#": {4, 'B'},
	"D#": {5, 'B'},
	"A#": {6, 'B'},
	"F":  {7, 'B'},
	"C":  {8, 'B'},
	"G":  {9, 'B'},
	"D":  {10, 'B'},
	"A":  {11, 'B'},
	"E":  {12, 'B'},
}

// KeyCompatibility scores two keys by Camelot-wheel distance:
// identical position 1.0; same letter one step apart 0.9; same number
// with the other letter 0.8; within two steps 0.6; everything else 0.3.
// Unknown keys score the floor 0.3.
func KeyCompatibility(keyA, keyB string) float64 {
	a, okA := camelotWheel[keyA]
	b, okB := camelotWheel[keyB]
	if !okA || !okB {
		return 0.3
	}

	dist := wheelDistance(a.num, b.num)
	switch {
	case a.num == b.num && a.letter == b.letter:
		return 1.0
	case a.letter == b.letter && dist == 1:
		return 0.9
	case a.num == b.num:
		return 0.8
	case dist <= 2:
		return 0.6
	default:
		return 0.3
	}
}

// wheelDistance is the circular distance between two wheel numbers.
func wheelDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if d > 6 {
		d = 12 - d
	}
	return d
}
