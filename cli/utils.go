package cli

import (
	"fmt"
	"image/color"
	"io"
	"log"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

// printf prints a message with no decoration.
func printf(w io.Writer, format string, a ...interface{}) {
	if _, err := fmt.Fprintf(w, format+"\n", a...); err != nil {
		log.Fatal(err)
	}
}

// warningf prints a message prefixed with a yellow "Warning: ".
func warningf(w io.Writer, format string, a ...interface{}) {
	printf(w, "\x1b[1;33mWarning: \x1b[0m"+format, a...)
}

// vectorFlag reads a three component vector out of a float slice flag.
func vectorFlag(c *cli.Context, name string) (r3.Vector, error) {
	values := c.Float64Slice(name)
	if len(values) != 3 {
		return r3.Vector{}, errors.Errorf("--%s needs three comma separated values, got %d", name, len(values))
	}
	return r3.Vector{X: values[0], Y: values[1], Z: values[2]}, nil
}

func formatVector(v r3.Vector) string {
	return fmt.Sprintf("X:%.3f, Y:%.3f, Z:%.3f", v.X, v.Y, v.Z)
}

func formatColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// rank maps position i of n onto [0, 1] for the highlight ramp.
func rank(i, n int) float64 {
	if n < 2 {
		return 0
	}
	return float64(i) / float64(n-1)
}
