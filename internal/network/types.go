// Package network fetches the NS Spoorkaart rail-network geometry feed.
package network

// Response is the body returned by the Spoorkaart endpoint
type Response struct {
	Payload Payload `json:"payload"`
}

// Payload is a GeoJSON-style feature collection
type Payload struct {
	Type     string    `json:"type,omitempty"`
	Features []Feature `json:"features"`
}

// Feature is one rail segment, described by its geometry and the station
// codes it runs between
type Feature struct {
	Type       string     `json:"type,omitempty"`
	Geometry   Geometry   `json:"geometry"`
	Properties Properties `json:"properties"`
}

// Geometry holds the segment line as [lon, lat] positions
type Geometry struct {
	Type        string     `json:"type,omitempty"`
	Coordinates []Position `json:"coordinates"`
}

// Position is a [longitude, latitude] pair in feed order
type Position [2]float64

// Lon returns the longitude
func (p Position) Lon() float64 { return p[0] }

// Lat returns the latitude
func (p Position) Lat() float64 { return p[1] }

// Properties identifies the segment's end stations
type Properties struct {
	From string `json:"from"`
	To   string `json:"to,omitempty"`
}

// FeatureList returns the feature list, tolerating a nil response
func (r *Response) FeatureList() []Feature {
	if r == nil {
		return nil
	}
	return r.Payload.Features
}
