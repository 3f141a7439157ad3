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
Package stf implements the simple trajectory format, a compressed text trajectory format.
stf aims to produce reasonably small files and to be very easy to read and write, so readers/writers
can be easily implemented in other programing languages / for other libraries or programs, while
also being reasonably fast to write and, especially, to read.

Format

An STF file has the extension stf, and it is compressed with z-standard (zstd). This implementation
also reads and writes gzip (extension ending in 'z'), deflate (ending in 'r') and lzw (ending in 'l')
compressed files. The compression is deduced from the last character of the file name.

A STF file may only contain ASCII symbols.

A STF file has a "header" starting in the first line, and ending with a line that starts with the
characters "**" followed by one or more spaces, and the number of atoms per frame.

Each line of the header must be a pair key=value. The precision (an integer greater than 0,
see below) should be included in the header, with the corresponding key "prec". For example:

	prec=2

The default precision in this package is 2.

After the header, the file has one line per atom, per frame. Each line contains 3 integers,
corresponding to the x y and z cartesian coordinates multiplied by 10 to the
power of the precision, and rounded.

Each frame ends with a line starting with the character "*" (no whitespaces before), optionally
followed by one or more whitespace and 9 floating-point numbers separated by spaces.
If present, these number correspond to the vectors defining the simulation box.

The "**" sequence may only be used as a header termination.
*/
package stf
