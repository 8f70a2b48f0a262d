package core

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// OthersName labels the synthetic bucket folding every category past the top N.
const OthersName = "Others"

type (
	// CategoryPoint is one category's figure for a metric. Change is the
	// absolute delta against the comparison period.
	CategoryPoint struct {
		Name   string  `json:"name"`
		Value  float64 `json:"value"`
		Change float64 `json:"change"`
		Code   string  `json:"code,omitempty"`
	}

	// RateComponents are the numerator and denominator a rate metric is built
	// from (revenue and rooms sold for ADR).
	RateComponents struct {
		Numerator   float64 `json:"numerator"`
		Denominator float64 `json:"denominator"`
	}

	BucketedRecord struct {
		CategoryPoint
		Percentage float64 `json:"percentage"`
		Others     bool    `json:"others,omitempty"`
		// Members counts the categories folded into the Others bucket.
		Members    int             `json:"members,omitempty"`
		Components *RateComponents `json:"components,omitempty"`
	}

	// TableRow is one category across every requested metric. Values holds
	// "<metric>", "<metric>Previous" and "<metric>Change" keys.
	TableRow struct {
		Category string
		Values   map[string]float64
	}
)

// JoinKey is the identifier used to de-duplicate and join points: the
// stable code when present, the display name otherwise.
func (p CategoryPoint) JoinKey() string {
	if c := strings.TrimSpace(p.Code); c != "" {
		return c
	}
	return p.Name
}

// Previous derives the comparison-period value.
func (p CategoryPoint) Previous() float64 {
	return p.Value - p.Change
}

// Sanitize replaces non-finite figures with zero.
func (p CategoryPoint) Sanitize() CategoryPoint {
	p.Value = finiteOrZero(p.Value)
	p.Change = finiteOrZero(p.Change)
	return p
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// PreviousKey and ChangeKey name the derived table columns for a metric.
func PreviousKey(metric string) string { return metric + "Previous" }
func ChangeKey(metric string) string   { return metric + "Change" }

func (r TableRow) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.Values)+1)
	for k, v := range r.Values {
		flat[k] = v
	}
	flat["category"] = r.Category
	return json.Marshal(flat)
}

func (r *TableRow) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.Values = make(map[string]float64, len(raw))
	for k, v := range raw {
		if k == "category" {
			if err := json.Unmarshal(v, &r.Category); err != nil {
				return fmt.Errorf("category: %w", err)
			}
			continue
		}
		var f float64
		if err := json.Unmarshal(v, &f); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		r.Values[k] = f
	}
	return nil
}

// Metrics returns the base metric keys present on the row, sorted.
func (r TableRow) Metrics() []string {
	var out []string
	for k := range r.Values {
		if strings.HasSuffix(k, "Previous") || strings.HasSuffix(k, "Change") {
			continue
		}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
