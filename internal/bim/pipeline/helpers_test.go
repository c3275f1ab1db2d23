package pipeline

import (
	"encoding/json"
	"io"
	"math"
	"strconv"
)

func nan() float64 { return math.NaN() }

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func jsonDecode(r io.Reader, v any) error { return json.NewDecoder(r).Decode(v) }
