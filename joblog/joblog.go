/*
 * joblog.go, part of mdrms
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

// Package joblog checks the batch-system logs of simulation replicas for the mark
// the simulation engine writes when a run finishes correctly.
//
// The expected layout is root/<replica>/<phase>/slurm-<jobid>.out. For each replica,
// only the log of the last job (the highest job id) is checked.
package joblog

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// CompletionMark is the line fragment that signals a completed simulation.
const CompletionMark = "Simulation completed!"

var logName = regexp.MustCompile(`^slurm-(\d+)\.out$`)

// Status is the result of checking one replica.
type Status struct {
	Replica   string
	Phase     string
	File      string //the log checked, relative to the phase folder
	Completed bool
	Err       error //the log, or the phase folder, could not be read
}

func (S Status) String() string {
	if S.Err != nil {
		return fmt.Sprintf("[%s] %s : could not read: %v", S.Replica, filepath.Join(S.Phase, S.File), S.Err)
	}
	st := "NOT FOUND"
	if S.Completed {
		st = "FOUND"
	}
	return fmt.Sprintf("[%s] %s/%s : %s %s", S.Replica, S.Phase, S.File, CompletionMark, st)
}

// Scan checks the last log of the given phase (such as "equilibration" or "production")
// in each replica folder under root. Replicas without the phase folder, or without logs,
// are not reported. Phase folders or logs that can't be read are reported with Err set. An error is
// returned only if root can't be read or contains no folders.
func Scan(root, phase string) ([]Status, error) {
	ents, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("joblog: %w", err)
	}
	var replicas []string
	for _, e := range ents {
		if e.IsDir() {
			replicas = append(replicas, e.Name())
		}
	}
	if len(replicas) == 0 {
		return nil, fmt.Errorf("joblog: no replica folders in %s", root)
	}
	sort.Strings(replicas)
	var ret []Status
	for _, r := range replicas {
		dir := filepath.Join(root, r, phase)
		last, ok, err := lastLog(dir)
		if err != nil {
			ret = append(ret, Status{Replica: r, Phase: phase, Err: err})
			continue
		}
		if !ok {
			continue
		}
		S := Status{Replica: r, Phase: phase, File: last}
		S.Completed, S.Err = completed(filepath.Join(dir, last))
		ret = append(ret, S)
	}
	return ret, nil
}

// lastLog returns the name of the log with the highest job id in dir.
// A missing dir is not an error.
func lastLog(dir string) (string, bool, error) {
	ents, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	max := int64(-1)
	var name string
	for _, e := range ents {
		m := logName.FindStringSubmatch(e.Name())
		if m == nil || e.IsDir() {
			continue
		}
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		if n > max {
			max, name = n, e.Name()
		}
	}
	return name, max >= 0, nil
}

func completed(name string) (bool, error) {
	f, err := os.Open(name)
	if err != nil {
		return false, err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if strings.Contains(sc.Text(), CompletionMark) {
			return true, nil
		}
	}
	return false, sc.Err()
}
