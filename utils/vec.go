package utils

import (
	"strconv"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

// ParseVec parses "x,y,z".
func ParseVec(s string) (r3.Vec, error) {
	parts := strings.Split(strings.Trim(s, "[]() "), ",")
	if len(parts) != 3 {
		return r3.Vec{}, errors.New("expected x,y,z").WithTag("value", s)
	}
	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return r3.Vec{}, errors.New("invalid coordinate").
				WithTag("value", s).
				Wrap(err)
		}
		v[i] = f
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}, nil
}
