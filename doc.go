/*
 * doc.go, part of mdrms
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

/*
Package chem is the main package of mdrms. It provides the atom, topology and
trajectory structures, readers and writers for the topology and coordinate formats
used by the analyses (PDB, PSF, XYZ) and the geometric functions the metrics are
built on.

	**Capabilities**

	Reads/writes PDB (including multi-model PDBs and segment identifiers), reads
	and writes the atom section of CHARMM/NAMD PSF files and reads multi-frame XYZ files.
	Binary and compressed trajectories are read by the subpackages of traj.

	Keeps whole trajectories in memory, as a Trajectory, which can be stripped of
	atoms, subsampled and unwrapped across periodic boundaries. Each of these
	operations returns a new Trajectory.

	Superimposes sets of coordinates (Kabsch algorithm, reflections excluded)
	using any subset of atoms to obtain the transformation, which is then applied
	to all atoms.

	Calculates RMSD between sets of coordinates, and mean structures.

	Identifies residues by residue number, chain and segment, so the residues of
	the different chains of an oligomer are never mixed.

The coordinates are kept as v3.Matrix values, where each row is the position of an atom.
*/
package chem
