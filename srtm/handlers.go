package srtm

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pavletto/forestdata/geo"
)

// TileResponse is one entry of the HandleTiles answer
type TileResponse struct {
	Lon         int        `json:"lon"`
	Lat         int        `json:"lat"`
	Stem        string     `json:"stem"`
	URL         string     `json:"url"`
	Cached      bool       `json:"cached"`
	Bounds      [4]float64 `json:"bounds"` // xmin, ymin, xmax, ymax
	GeoidOffset float64    `json:"geoid_offset"`
}

// TilesResponse describes the JSON answer of HandleTiles
type TilesResponse struct {
	Extent [4]float64     `json:"extent"`
	Tiles  []TileResponse `json:"tiles"`
}

type Server struct {
	Store *Store
}

func (s *Server) HandleTiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var v [4]float64
	for i, name := range []string{"xmin", "ymin", "xmax", "ymax"} {
		f, err := strconv.ParseFloat(q.Get(name), 64)
		if err != nil {
			http.Error(w, "invalid "+name, http.StatusBadRequest)
			return
		}
		v[i] = f
	}
	b := geo.NewExtent(v[0], v[1], v[2], v[3])
	if err := geo.Validate(b); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	infos, err := Describe(s.Store, b)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := TilesResponse{Extent: v, Tiles: make([]TileResponse, 0, len(infos))}
	for _, ti := range infos {
		resp.Tiles = append(resp.Tiles, TileResponse{
			Lon:         ti.ID.Lon,
			Lat:         ti.ID.Lat,
			Stem:        ti.Stem,
			URL:         ti.URL,
			Cached:      ti.Cached,
			Bounds:      [4]float64{ti.Bound.Min[0], ti.Bound.Min[1], ti.Bound.Max[0], ti.Bound.Max[1]},
			GeoidOffset: ti.GeoidOffset,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
