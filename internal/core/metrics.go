package core

import "sort"

const (
	MetricRevenue   = "revenue"
	MetricRoomsSold = "roomsSold"
	MetricADR       = "adr"
)

const (
	// SumKind metrics aggregate additively.
	SumKind MetricKind = "sum"
	// RateKind metrics are a ratio and must be rebuilt from their components.
	RateKind MetricKind = "rate"
)

type (
	MetricKind string

	MetricConfig struct {
		Kind            MetricKind `json:"kind"`
		Prefix          string     `json:"prefix,omitempty"`
		Suffix          string     `json:"suffix,omitempty"`
		SupportsPie     bool       `json:"supportsPie"`
		SupportsBar     bool       `json:"supportsBar"`
		SupportsNormal  bool       `json:"supportsNormal"`
		SupportsStacked bool       `json:"supportsStacked"`
	}

	MetricDefinition struct {
		Name   string       `json:"name"`
		Config MetricConfig `json:"config"`
	}

	// Payload is the upstream response every dashboard view is computed from.
	Payload struct {
		KPIs            map[string][]CategoryPoint  `json:"kpis"`
		FluctuationData map[string]MetricSeries     `json:"fluctuationData"`
		Metrics         map[string]MetricDefinition `json:"metrics"`
	}
)

func (k MetricKind) IsValid() bool {
	return k == SumKind || k == RateKind
}

// DefaultMetrics is the catalogue of metrics the dashboard serves.
func DefaultMetrics() map[string]MetricDefinition {
	return map[string]MetricDefinition{
		MetricRevenue: {
			Name: "Revenue",
			Config: MetricConfig{
				Kind: SumKind, Prefix: "€",
				SupportsPie: true, SupportsBar: true, SupportsNormal: true, SupportsStacked: true,
			},
		},
		MetricRoomsSold: {
			Name: "Rooms Sold",
			Config: MetricConfig{
				Kind:        SumKind,
				SupportsPie: true, SupportsBar: true, SupportsNormal: true, SupportsStacked: true,
			},
		},
		MetricADR: {
			Name: "ADR",
			Config: MetricConfig{
				Kind: RateKind, Prefix: "€",
				SupportsBar: true, SupportsNormal: true,
			},
		},
	}
}

// KindOf resolves a metric's kind from the payload catalogue, falling back
// to the default catalogue and then to SumKind.
func (p Payload) KindOf(metric string) MetricKind {
	if def, ok := p.Metrics[metric]; ok && def.Config.Kind.IsValid() {
		return def.Config.Kind
	}
	if def, ok := DefaultMetrics()[metric]; ok {
		return def.Config.Kind
	}
	return SumKind
}

// MetricKeys returns the KPI metric keys, sorted.
func (p Payload) MetricKeys() []string {
	keys := make([]string, 0, len(p.KPIs))
	for k := range p.KPIs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
