package templating

import (
	"strconv"
	"time"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/backend/gtime"
)

// BuiltinVars returns the global variables Grafana exposes for a request:
// __from, __to and __range_s, plus __interval and __interval_ms when
// interval is positive. The folder is not exposed: it travels only through
// the query folderId field.
func BuiltinVars(timeRange backend.TimeRange, interval time.Duration) ScopedVars {
	fromMs := strconv.FormatInt(timeRange.From.UnixMilli(), 10)
	toMs := strconv.FormatInt(timeRange.To.UnixMilli(), 10)
	rangeS := strconv.FormatInt(int64(timeRange.Duration().Seconds()), 10)

	vars := ScopedVars{
		"__from":    {Text: fromMs, Value: fromMs},
		"__to":      {Text: toMs, Value: toMs},
		"__range_s": {Text: rangeS, Value: rangeS},
	}
	if interval > 0 {
		formatted := gtime.FormatInterval(interval)
		ms := strconv.FormatInt(interval.Milliseconds(), 10)
		vars["__interval"] = ScopedVar{Text: formatted, Value: formatted}
		vars["__interval_ms"] = ScopedVar{Text: ms, Value: ms}
	}
	return vars
}
