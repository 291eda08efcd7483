// Package srtm resolves and downloads CGIAR SRTM v4.1 5°×5° elevation tiles.
package srtm

import "fmt"

// TileID names one cell of the CGIAR SRTM v4.1 5°×5° grid.
type TileID struct {
	Lon int // column, 1 at 180°W, increasing eastwards
	Lat int // row, 1 at 60°N, increasing southwards
}

// FileStem is "<col>_<row>" with both bands zero padded to two digits, as
// used in both the archive names and the download URLs.
func (t TileID) FileStem() string {
	return padBand(t.Lon) + "_" + padBand(t.Lat)
}

// FileName is the local archive name of the tile.
func (t TileID) FileName() string {
	return "SRTM_V41_" + t.FileStem() + ".zip"
}

func (t TileID) String() string { return t.FileStem() }

func padBand(b int) string {
	if b < 0 {
		return fmt.Sprintf("-%02d", -b)
	}
	return fmt.Sprintf("%02d", b)
}
