package tello

import (
	"strconv"
	"strings"

	"github.com/tello-teleop/gateway/pkg/drone"
)

// ParseState parses a Tello state datagram into a telemetry snapshot.
// Datagrams look like:
//
//	pitch:0;roll:0;yaw:12;vgx:0;vgy:0;vgz:0;templ:60;temph:62;tof:10;
//	h:0;bat:87;baro:142.65;time:0;agx:-5.00;agy:0.00;agz:-998.00;
//
// Numeric values become ints or floats; anything else (the mpry triplet
// on newer firmware, for example) stays a string.
func ParseState(raw string) drone.State {
	state := make(drone.State)

	for _, field := range strings.Split(strings.TrimSpace(raw), ";") {
		if field == "" {
			continue
		}
		key, value, ok := strings.Cut(field, ":")
		if !ok {
			continue
		}

		if i, err := strconv.Atoi(value); err == nil {
			state[key] = i
		} else if f, err := strconv.ParseFloat(value, 64); err == nil {
			state[key] = f
		} else {
			state[key] = value
		}
	}

	return state
}
