/*
 * options.go, part of mdrms
 *
 * Copyright 2026 Raul Mera <rauldotmeraatusachdotcl>
 *
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU Lesser General Public License as published by
    the Free Software Foundation, either version 2.1 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU Lesser General Public License
    along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
*/

package align

import (
	"fmt"
	"strings"
)

// Mode is the kind of reference structure used for a computation.
type Mode int

const (
	//Auto is External if a reference file is given, First otherwise.
	Auto Mode = iota
	//External uses the first frame of a separate structure file.
	External
	//First uses the first frame of the trajectory.
	First
	//Mean uses the mean structure of the trajectory, after superposition.
	Mean
)

var modeNames = []string{"auto", "external", "first", "mean"}

func (m Mode) String() string {
	if int(m) < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode returns the mode named s (case insensitive).
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Auto, nil
	}
	for i, v := range modeNames {
		if v == s {
			return Mode(i), nil
		}
	}
	return Auto, fmt.Errorf("align: unknown reference mode %q", s)
}

// Options contains the options for Resolve.
type Options struct {
	Mode Mode
	//Structure file for the External mode. Only its first frame is used.
	RefFile string
	//Atoms to be compared with the reference.
	Target string
	//Atoms used for the superposition. If empty, Target is used.
	Align string
	//Selections applied to the reference structure. They default to Target and Align.
	RefTarget string
	RefAlign  string
	//Atoms removed from the reference structure before applying the selections.
	RefStrip string
	//Frames are not superposed on the reference.
	NoAlign bool
	//Maximum number of superposition passes for the Mean mode, and
	//the change in the mean structure, in coordinate units, below which it is considered converged.
	MaxIter   int
	Tolerance float64
}

// DefaultOptions returns options for a first-frame reference, with superposition,
// on the alpha carbons of the protein.
func DefaultOptions() *Options {
	return &Options{
		Mode:      Auto,
		Target:    "protein and name CA",
		MaxIter:   2,
		Tolerance: 1e-3,
	}
}

// alignText returns the alignment selection in the trajectory.
func (O *Options) alignText() string {
	if O.Align == "" {
		return O.Target
	}
	return O.Align
}

// refTexts returns the target and alignment selections for the reference structure.
func (O *Options) refTexts() (string, string) {
	t, a := O.RefTarget, O.RefAlign
	if t == "" {
		t = O.Target
	}
	if a == "" {
		a = O.alignText()
	}
	return t, a
}

// mode returns the effective mode.
func (O *Options) mode() Mode {
	if O.Mode != Auto {
		return O.Mode
	}
	if O.RefFile != "" {
		return External
	}
	return First
}
