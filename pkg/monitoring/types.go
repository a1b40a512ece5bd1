package monitoring

import (
	"encoding"
	"encoding/json"
	"fmt"
	"time"

	"yandex-monitoring-grafana-plugin/pkg/models"
)

// ReadRequest is the body of a data read call.
type ReadRequest struct {
	Query        string       `json:"query"`
	FromTime     time.Time    `json:"fromTime"`
	ToTime       time.Time    `json:"toTime"`
	Downsampling Downsampling `json:"downsampling"`
}

// Downsampling controls how the service thins out points.
type Downsampling struct {
	GridAggregation GridAggregation `json:"gridAggregation"`
	GapFilling      GapFilling      `json:"gapFilling"`
	MaxPoints       int             `json:"maxPoints,omitempty"`
	GridInterval    Milliseconds    `json:"gridInterval,omitempty"`
	Disabled        bool            `json:"disabled,omitempty"`
}

// ReadResponse is the result of a data read call.
type ReadResponse struct {
	Metrics []Metric `json:"metrics"`
}

type Metric struct {
	Name       string            `json:"name"`
	Labels     map[string]string `json:"labels"`
	Type       string            `json:"type"`
	Timeseries Timeseries        `json:"timeseries"`
}

type Timeseries struct {
	Timestamps   []UnixTime `json:"timestamps"`
	DoubleValues []float64  `json:"doubleValues,omitempty"`
	Int64Values  []int64    `json:"int64Values,omitempty"`
}

var _ encoding.TextMarshaler = GridAggregation(0)

// GridAggregation is the wire form of models.Aggregation.
type GridAggregation int

const (
	GridAVG GridAggregation = iota
	GridMAX
	GridMIN
	GridSUM
	GridLAST
	GridCOUNT
)

// GridAggregationOf converts an aggregation name, unknown names map to AVG.
func GridAggregationOf(name string) GridAggregation {
	switch models.ParseAggregation(name) {
	case models.AggregationMAX:
		return GridMAX
	case models.AggregationMIN:
		return GridMIN
	case models.AggregationSUM:
		return GridSUM
	case models.AggregationLAST:
		return GridLAST
	case models.AggregationCOUNT:
		return GridCOUNT
	default:
		return GridAVG
	}
}

func (g GridAggregation) MarshalText() ([]byte, error) {
	switch g {
	case GridAVG:
		return []byte("AVG"), nil
	case GridMAX:
		return []byte("MAX"), nil
	case GridMIN:
		return []byte("MIN"), nil
	case GridSUM:
		return []byte("SUM"), nil
	case GridLAST:
		return []byte("LAST"), nil
	case GridCOUNT:
		return []byte("COUNT"), nil
	default:
		return nil, fmt.Errorf("unknown grid aggregation value %d", int(g))
	}
}

var _ encoding.TextMarshaler = GapFilling(0)

type GapFilling int

const (
	GapFillingNone GapFilling = iota
	GapFillingNull
	GapFillingPrevious
)

func (g GapFilling) MarshalText() ([]byte, error) {
	switch g {
	case GapFillingNone:
		return []byte("NONE"), nil
	case GapFillingNull:
		return []byte("NULL"), nil
	case GapFillingPrevious:
		return []byte("PREVIOUS"), nil
	default:
		return nil, fmt.Errorf("unknown gap filling value %d", int(g))
	}
}

var _ json.Marshaler = Milliseconds(0)

// Milliseconds encodes a duration as an integer millisecond count.
type Milliseconds time.Duration

func (m Milliseconds) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(m).Milliseconds())
}

var _ json.Unmarshaler = (*UnixTime)(nil)

// UnixTime decodes an integer millisecond timestamp.
type UnixTime time.Time

func (t *UnixTime) UnmarshalJSON(data []byte) error {
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*t = UnixTime(time.UnixMilli(v))
	return nil
}

// Time returns t as a time.Time.
func (t UnixTime) Time() time.Time { return time.Time(t) }
