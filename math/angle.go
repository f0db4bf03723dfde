// SPDX-License-Identifier: GPL-2.0-or-later

package math

import (
	"github.com/chewxy/math32"
)

// AngleSteps is the number of steps in a full turn.
const AngleSteps = 2048

// Sine and Cosine hold 65536 scaled values for every angle step.
var (
	Sine   [AngleSteps]int
	Cosine [AngleSteps]int
)

func init() {
	const unit = 2 * math32.Pi / AngleSteps
	for i := range Sine {
		Sine[i] = int(65536 * math32.Sin(float32(i)*unit))
		Cosine[i] = int(65536 * math32.Cos(float32(i)*unit))
	}
}

// AngleMod wraps an angle to be within 0-2047.
func AngleMod(a int) int {
	return a & (AngleSteps - 1)
}
