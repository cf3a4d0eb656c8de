// Package formats reads and writes the mesh file formats used by atlastool.
package formats
