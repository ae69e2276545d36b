package config

import (
	"errors"
	"fmt"
	"math"
)

var ErrUnknownParam = errors.New("config: unknown parameter")

// TunableParams lists the numeric fields SetParam accepts.
var TunableParams = []string{"resolution", "scale", "max_iterations", "distance_threshold", "power", "blend"}

// SetParam assigns a numeric field by its file name. Integer fields are
// rounded to the nearest whole value.
func (c *Config) SetParam(name string, v float64) error {
	switch name {
	case "resolution":
		c.Resolution = int(math.Round(v))
	case "scale":
		c.Scale = v
	case "max_iterations":
		c.MaxIterations = int(math.Round(v))
	case "distance_threshold":
		c.DistanceThreshold = v
	case "power":
		c.Power = int(math.Round(v))
	case "blend":
		c.Blend = v
	default:
		return fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	return nil
}
