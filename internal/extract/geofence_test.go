package extract

import "testing"

func TestGeofenceContains(t *testing.T) {
	geo := Geofence{LatMin: 0, LatMax: 3.5, LonMin: 100, LonMax: 106.5}

	cases := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"inside", 1.29, 103.85, true},
		{"on edge", 0, 100, true},
		{"north of box", 4.0, 103.0, false},
		{"west of box", 1.0, 99.9, false},
		{"wrong hemisphere", -1.29, 103.85, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := geo.Contains(tc.lat, tc.lon); got != tc.want {
				t.Fatalf("Contains(%v, %v) = %v, want %v", tc.lat, tc.lon, got, tc.want)
			}
		})
	}
}

func TestGeofenceAcceptRejectsInvalidCoordinates(t *testing.T) {
	geo := Geofence{LatMin: -90, LatMax: 90, LonMin: -180, LonMax: 180}
	if geo.Accept(91, 0) {
		t.Fatalf("latitude 91 must never be accepted")
	}
	if geo.Accept(0, -181) {
		t.Fatalf("longitude -181 must never be accepted")
	}
	if !geo.Accept(0, 0) {
		t.Fatalf("origin should be accepted by the global box")
	}
}
