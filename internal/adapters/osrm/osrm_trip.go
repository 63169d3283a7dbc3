package osrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"courier-route-service/internal/domain"
	"courier-route-service/internal/platform/obs"
	"courier-route-service/internal/ports"
)

// Client implements TripOptimizer against the OSRM Trip service.
//
// OSRM solves the open traveling-salesman variant: given the point list
// [start, stop_1..stop_N, depot] it finds the visiting order of the
// intermediate stops, driving profile, fixed first and last point.
// The client is safe for concurrent use.
type Client struct {
	session *http.Client
	baseURL string
	profile string
}

func NewClient(baseURL string) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("OSRM base URL is empty")
	}

	return &Client{
		session: &http.Client{Timeout: 15 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: "driving",
	}, nil
}

type tripResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Trips   []struct {
		Duration float64 `json:"duration"`
		Distance float64 `json:"distance"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Legs []struct {
			Duration float64 `json:"duration"`
			Distance float64 `json:"distance"`
		} `json:"legs"`
	} `json:"trips"`
	Waypoints []struct {
		WaypointIndex int       `json:"waypoint_index"`
		Location      []float64 `json:"location"`
	} `json:"waypoints"`
}

// OptimizeTrip requests one optimized open trip with fixed start and end.
//
// points must be [start, stop_1..stop_N, depot]; OSRM keeps the first and
// last point in place (source=first, destination=last) and permutes the
// rest. The response's waypoints come back in input order, each carrying
// its position in the optimized visiting order; this method inverts that
// mapping so VisitOrder lists original input indices in visiting order.
func (c *Client) OptimizeTrip(
	ctx context.Context,
	points []domain.Coordinates,
) (_ *ports.TripResult, err error) {
	defer obs.Time(ctx, "osrm.OptimizeTrip")(&err)

	if len(points) < 3 {
		return nil, fmt.Errorf("optimize trip: need start, at least one stop and depot; got %d points", len(points))
	}

	segs := make([]string, 0, len(points))
	for _, p := range points {
		segs = append(segs, p.String())
	}

	endpoint := fmt.Sprintf("%s/trip/v1/%s/%s", c.baseURL, c.profile, strings.Join(segs, ";"))

	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("source", "first")
		q.Set("destination", "last")
		q.Set("roundtrip", "false")
		q.Set("overview", "full")
		q.Set("geometries", "geojson")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("optimize trip: request failed: %w", err)
	}
	defer resp.Body.Close()

	var tr tripResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("optimize trip: decode response: %w", err)
	}

	// Any solver status other than Ok is a hard failure. There is no safe
	// fallback for a wrong visiting order.
	if tr.Code != "Ok" {
		return nil, fmt.Errorf("optimize trip: solver status %q: %s", tr.Code, tr.Message)
	}

	if len(tr.Trips) != 1 {
		return nil, fmt.Errorf("optimize trip: expected 1 trip; got %d", len(tr.Trips))
	}
	trip := tr.Trips[0]

	if len(tr.Waypoints) != len(points) {
		return nil, fmt.Errorf(
			"optimize trip: waypoint count %d does not match input points %d",
			len(tr.Waypoints), len(points),
		)
	}

	if len(trip.Legs) != len(points)-1 {
		return nil, fmt.Errorf(
			"optimize trip: leg count %d does not match %d points",
			len(trip.Legs), len(points),
		)
	}

	// Waypoints arrive in input order; waypoint_index is the position in
	// the solved visiting order. Invert to visit position -> input index.
	visitOrder := make([]int, len(points))
	filled := make([]bool, len(points))
	for inputIdx, wp := range tr.Waypoints {
		if wp.WaypointIndex < 0 || wp.WaypointIndex >= len(points) {
			return nil, fmt.Errorf("optimize trip: waypoint_index %d out of range", wp.WaypointIndex)
		}
		if filled[wp.WaypointIndex] {
			return nil, fmt.Errorf("optimize trip: duplicate waypoint_index %d", wp.WaypointIndex)
		}
		visitOrder[wp.WaypointIndex] = inputIdx
		filled[wp.WaypointIndex] = true
	}

	legs := make([]domain.Leg, 0, len(trip.Legs))
	for _, l := range trip.Legs {
		legs = append(legs, domain.Leg{
			DurationSeconds: int(math.Round(l.Duration)),
			DistanceMeters:  int(math.Round(l.Distance)),
		})
	}

	geometry := make([]domain.Coordinates, 0, len(trip.Geometry.Coordinates))
	for _, c := range trip.Geometry.Coordinates {
		if len(c) != 2 {
			return nil, errors.New("optimize trip: invalid geometry coordinate")
		}
		geometry = append(geometry, domain.Coordinates{Lon: c[0], Lat: c[1]})
	}

	return &ports.TripResult{
		TotalDurationSeconds: int(math.Round(trip.Duration)),
		TotalDistanceMeters:  int(math.Round(trip.Distance)),
		Geometry:             geometry,
		VisitOrder:           visitOrder,
		Legs:                 legs,
	}, nil
}
