/*
 * joblog_test.go, part of mdrms
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

package joblog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func write(Te *testing.T, name, content string) {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		Te.Fatal(err)
	}
	if err := os.WriteFile(name, []byte(content), 0o644); err != nil {
		Te.Fatal(err)
	}
}

func TestScan(Te *testing.T) {
	root := Te.TempDir()
	write(Te, filepath.Join(root, "rep1", "production", "slurm-99.out"), "step 1\nSimulation completed!\n")
	write(Te, filepath.Join(root, "rep1", "production", "slurm-100.out"), "step 1\nstep 2\n")
	write(Te, filepath.Join(root, "rep2", "production", "slurm-7.out"), "header\n# Simulation completed! in 3h\n")
	write(Te, filepath.Join(root, "rep2", "production", "other.out"), "")
	write(Te, filepath.Join(root, "rep3", "equilibration", "slurm-1.out"), "Simulation completed!\n")
	if err := os.MkdirAll(filepath.Join(root, "rep4", "production", "slurm-5.out"), 0o755); err != nil {
		Te.Fatal(err)
	}
	st, err := Scan(root, "production")
	if err != nil {
		Te.Fatal(err)
	}
	if len(st) != 2 {
		Te.Fatalf("Expected 2 replicas, got %v", st)
	}
	if st[0].Replica != "rep1" || st[0].File != "slurm-100.out" || st[0].Completed {
		Te.Errorf("The last job of rep1 did not complete: %v", st[0])
	}
	if st[1].Replica != "rep2" || !st[1].Completed || st[1].Err != nil {
		Te.Errorf("rep2 should be complete: %v", st[1])
	}
	if !strings.HasSuffix(st[1].String(), "Simulation completed! FOUND") {
		Te.Errorf("Wrong report line %q", st[1].String())
	}
	if _, err := Scan(filepath.Join(root, "nothere"), "production"); err == nil {
		Te.Error("A missing root should fail")
	}
	if _, err := Scan(filepath.Join(root, "rep1", "production"), "x"); err == nil {
		Te.Error("A root without folders should fail")
	}
}

func TestUnreadable(Te *testing.T) {
	if os.Getuid() == 0 {
		Te.Skip("permissions are not enforced for root")
	}
	root := Te.TempDir()
	name := filepath.Join(root, "rep1", "production", "slurm-1.out")
	write(Te, name, "Simulation completed!\n")
	if err := os.Chmod(name, 0); err != nil {
		Te.Fatal(err)
	}
	st, err := Scan(root, "production")
	if err != nil {
		Te.Fatal(err)
	}
	if len(st) != 1 || st[0].Err == nil || st[0].Completed {
		Te.Errorf("The unreadable log should be reported: %v", st)
	}
}

// A phase "folder" that is a regular file can't be listed, which is not the same as missing.
func TestUnreadablePhase(Te *testing.T) {
	root := Te.TempDir()
	write(Te, filepath.Join(root, "rep1", "production"), "not a folder\n")
	write(Te, filepath.Join(root, "rep2", "production", "slurm-3.out"), "Simulation completed!\n")
	if err := os.MkdirAll(filepath.Join(root, "rep3"), 0o755); err != nil {
		Te.Fatal(err)
	}
	st, err := Scan(root, "production")
	if err != nil {
		Te.Fatal(err)
	}
	if len(st) != 2 {
		Te.Fatalf("Expected rep1 and rep2, got %v", st)
	}
	if st[0].Replica != "rep1" || st[0].Err == nil || st[0].Completed {
		Te.Errorf("The unreadable phase of rep1 should be reported: %v", st[0])
	}
	if !strings.Contains(st[0].String(), "[rep1] production : could not read") {
		Te.Errorf("Wrong report line %q", st[0].String())
	}
	if st[1].Replica != "rep2" || !st[1].Completed {
		Te.Errorf("rep2 should be complete: %v", st[1])
	}
}
