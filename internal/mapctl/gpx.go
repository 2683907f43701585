package mapctl

import "encoding/xml"

type gpxPoint struct {
	Lat float64 `xml:"lat,attr"`
	Lon float64 `xml:"lon,attr"`
}

type gpxSegment struct {
	Points []gpxPoint `xml:"trkpt"`
}

type gpxTrack struct {
	Segments []gpxSegment `xml:"trkseg"`
}

type gpxFile struct {
	XMLName xml.Name   `xml:"gpx"`
	Tracks  []gpxTrack `xml:"trk"`
}

// parseGPX extracts the line geometry as one coordinate slice per
// segment. Segments may be disjoint; empty ones are dropped.
func parseGPX(data []byte) ([][]LatLng, error) {
	var file gpxFile
	if err := xml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	var segments [][]LatLng
	for _, trk := range file.Tracks {
		for _, seg := range trk.Segments {
			if len(seg.Points) == 0 {
				continue
			}
			points := make([]LatLng, len(seg.Points))
			for i, p := range seg.Points {
				points[i] = LatLng{Lat: p.Lat, Lng: p.Lon}
			}
			segments = append(segments, points)
		}
	}
	return segments, nil
}

// endpoints finds the first and last coordinate across all segments.
func endpoints(segments [][]LatLng) (start, end LatLng, ok bool) {
	if len(segments) == 0 {
		return LatLng{}, LatLng{}, false
	}
	first := segments[0]
	last := segments[len(segments)-1]
	return first[0], last[len(last)-1], true
}

// boundsOf is the bounding box over every segment coordinate.
func boundsOf(segments [][]LatLng) Bounds {
	b := Bounds{
		Min: LatLng{Lat: 90, Lng: 180},
		Max: LatLng{Lat: -90, Lng: -180},
	}
	for _, seg := range segments {
		for _, p := range seg {
			if p.Lat < b.Min.Lat {
				b.Min.Lat = p.Lat
			}
			if p.Lat > b.Max.Lat {
				b.Max.Lat = p.Lat
			}
			if p.Lng < b.Min.Lng {
				b.Min.Lng = p.Lng
			}
			if p.Lng > b.Max.Lng {
				b.Max.Lng = p.Lng
			}
		}
	}
	return b
}
