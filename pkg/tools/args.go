package tools

import (
	"math"
	"strings"

	"github.com/spf13/cast"

	"github.com/NERVsystems/placesmcp/pkg/geo"
)

// Argument readers. Clients are inconsistent about numeric types, so values
// are coerced with cast rather than asserted.

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", ValidationError("%s must be a string", key)
	}
	return strings.TrimSpace(s), nil
}

func floatArg(args map[string]any, key string) (float64, bool, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	if _, isBool := v.(bool); isBool {
		return 0, false, ValidationError("%s must be a number", key)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false, ValidationError("%s must be a number", key)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, ValidationError("%s must be a finite number", key)
	}
	return f, true, nil
}

func boolArg(args map[string]any, key string) (bool, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return false, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, ValidationError("%s must be a boolean", key)
	}
	return b, nil
}

// coordinateArg reads a {lat, lng} object. It returns nil when key is absent.
func coordinateArg(args map[string]any, key string) (*geo.Coordinate, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	obj, err := cast.ToStringMapE(v)
	if err != nil {
		return nil, ValidationError("%s must be an object with lat and lng", key)
	}

	lat, hasLat, err := floatArg(obj, "lat")
	if err != nil {
		return nil, ValidationError("%s.lat must be a number", key)
	}
	lng, hasLng, err := floatArg(obj, "lng")
	if err != nil {
		return nil, ValidationError("%s.lng must be a number", key)
	}
	if !hasLat || !hasLng {
		return nil, ValidationError("%s requires both lat and lng", key)
	}

	c := geo.Coordinate{Latitude: lat, Longitude: lng}
	if err := geo.ValidateCoordinate(c); err != nil {
		return nil, ValidationError("invalid %s: %v", key, err)
	}
	return &c, nil
}
