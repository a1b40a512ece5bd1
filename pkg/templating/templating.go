// Package templating rewrites dashboard variable placeholders inside query
// fields. The placeholder syntax belongs to the resolver; SubstituteVariables
// only decides which fields are passed through it.
package templating

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"yandex-monitoring-grafana-plugin/pkg/models"
)

// ScopedVar is the current binding of one dashboard variable.
// Value is a string, a []string for multi-value variables, or any scalar.
type ScopedVar struct {
	Text  string `json:"text"`
	Value any    `json:"value"`
}

// ScopedVars maps variable names to their bindings.
type ScopedVars map[string]ScopedVar

// Resolver interpolates placeholders in text. It returns text unchanged
// when no placeholder is present.
type Resolver func(text string, vars ScopedVars) string

// SubstituteVariables passes aggregation, alias, folderId and queryText
// through resolve independently and returns the rewritten query.
func SubstituteVariables(q models.Query, vars ScopedVars, resolve Resolver) models.Query {
	if resolve == nil {
		return q
	}
	out := q
	out.Aggregation = resolve(q.Aggregation, vars)
	out.Alias = resolve(q.Alias, vars)
	out.FolderID = resolve(q.FolderID, vars)
	out.QueryText = resolve(q.QueryText, vars)
	return out
}

// variablePattern matches $name, ${name}, ${name:format} and [[name]],
// [[name:format]].
var variablePattern = regexp.MustCompile(`\$(\w+)|\$\{(\w+)(?::(\w+))?\}|\[\[(\w+)(?::(\w+))?\]\]`)

// Interpolate is the default Resolver. Unknown variables are left as
// literal text.
func Interpolate(text string, vars ScopedVars) string {
	if len(vars) == 0 || !strings.ContainsAny(text, "$[") {
		return text
	}
	return variablePattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := variablePattern.FindStringSubmatch(match)
		name, format := groups[1], ""
		switch {
		case groups[2] != "":
			name, format = groups[2], groups[3]
		case groups[4] != "":
			name, format = groups[4], groups[5]
		}
		v, ok := vars[name]
		if !ok {
			return match
		}
		return formatValue(v, format)
	})
}

func formatValue(v ScopedVar, format string) string {
	values, multi := valuesOf(v)
	if !multi {
		single := ""
		if len(values) > 0 {
			single = values[0]
		}
		switch format {
		case "regex":
			return regexp.QuoteMeta(single)
		case "singlequote":
			return "'" + strings.ReplaceAll(single, "'", `\'`) + "'"
		case "doublequote":
			return `"` + strings.ReplaceAll(single, `"`, `\"`) + `"`
		case "json":
			b, _ := json.Marshal(single)
			return string(b)
		default:
			return single
		}
	}

	switch format {
	case "raw", "csv":
		return strings.Join(values, ",")
	case "pipe":
		return strings.Join(values, "|")
	case "regex":
		quoted := make([]string, len(values))
		for i, s := range values {
			quoted[i] = regexp.QuoteMeta(s)
		}
		return "(" + strings.Join(quoted, "|") + ")"
	case "singlequote":
		quoted := make([]string, len(values))
		for i, s := range values {
			quoted[i] = "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
		}
		return strings.Join(quoted, ",")
	case "doublequote":
		quoted := make([]string, len(values))
		for i, s := range values {
			quoted[i] = `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
		}
		return strings.Join(quoted, ",")
	case "json":
		b, _ := json.Marshal(values)
		return string(b)
	default:
		if len(values) == 1 {
			return values[0]
		}
		return "{" + strings.Join(values, ",") + "}"
	}
}

func valuesOf(v ScopedVar) ([]string, bool) {
	switch val := v.Value.(type) {
	case nil:
		return []string{v.Text}, false
	case string:
		return []string{val}, false
	case []string:
		return val, true
	case []any:
		out := make([]string, len(val))
		for i, item := range val {
			out[i] = fmt.Sprint(item)
		}
		return out, true
	default:
		return []string{fmt.Sprint(val)}, false
	}
}
