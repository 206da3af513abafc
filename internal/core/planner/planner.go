package planner

import (
	"net/netip"
	"sort"
	"time"

	"voicescout/internal/domain"
)

// FallbackSegments are scanned when no adapter can be enumerated and the
// caller opted into defaults
var FallbackSegments = []domain.Segment{"192.168.1", "192.168.0", "10.0.0"}

// FallbackRanges restrict the fallback scan to the first handful of hosts
var FallbackRanges = []domain.OctetRange{{Start: 1, End: 10}}

// Estimate is an advisory duration forecast, never an enforced deadline
type Estimate struct {
	TotalAddresses   int     `json:"total_addresses" yaml:"total_addresses"`
	EstimatedSeconds float64 `json:"estimated_seconds" yaml:"estimated_seconds"`
}

// Duration returns the estimate as a time.Duration
func (e Estimate) Duration() time.Duration {
	return time.Duration(e.EstimatedSeconds * float64(time.Second))
}

// SkippedSegment records a segment that produced no addresses and why
type SkippedSegment struct {
	Segment        domain.Segment               `json:"segment" yaml:"segment"`
	Classification domain.SegmentClassification `json:"classification" yaml:"classification"`
}

// Plan is the ordered scan work for one discovery call
type Plan struct {
	Targets  []domain.ScanTarget `json:"targets" yaml:"targets"`
	Skipped  []SkippedSegment    `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Estimate Estimate            `json:"estimate" yaml:"estimate"`
	Fallback bool                `json:"fallback,omitempty" yaml:"fallback,omitempty"`
}

// Addresses flattens every target into probe order
func (p Plan) Addresses() []netip.Addr {
	var addrs []netip.Addr
	for _, t := range p.Targets {
		addrs = append(addrs, t.Addresses()...)
	}
	return addrs
}

// Empty reports whether the plan produces no addresses
func (p Plan) Empty() bool {
	for _, t := range p.Targets {
		if t.Count() > 0 {
			return false
		}
	}
	return true
}

// Planner turns segments into an ordered scan plan
type Planner struct {
	Config domain.ScanConfiguration
}

// New creates a planner for the given configuration
func New(cfg domain.ScanConfiguration) *Planner {
	return &Planner{Config: cfg.WithDefaults()}
}

// Plan classifies every distinct segment and orders the resulting targets by
// category rank, highest first, then numerically by segment. Skip and Ignore
// segments never produce targets.
func (p *Planner) Plan(segments []domain.Segment) Plan {
	var plan Plan

	seen := make(map[domain.Segment]struct{}, len(segments))
	for _, seg := range segments {
		if _, dup := seen[seg]; dup {
			continue
		}
		seen[seg] = struct{}{}

		class := Classify(seg)
		mode := class.Mode
		if mode == domain.ScanModeSkip && class.Category == domain.CategoryLow && p.Config.IncludeLowPriority {
			mode = domain.ScanModeFast
		}

		if !mode.Scans() {
			plan.Skipped = append(plan.Skipped, SkippedSegment{Segment: seg, Classification: class})
			continue
		}

		plan.Targets = append(plan.Targets, domain.ScanTarget{
			Segment:        seg,
			Ranges:         RangesFor(mode),
			Mode:           mode,
			Classification: class,
		})
	}

	sortTargets(plan.Targets)
	plan.Estimate = p.estimate(plan.Targets)
	return plan
}

// FallbackPlan scans the first hosts of the most common home segments
func (p *Planner) FallbackPlan() Plan {
	plan := Plan{Fallback: true}
	for _, seg := range FallbackSegments {
		plan.Targets = append(plan.Targets, domain.ScanTarget{
			Segment:        seg,
			Ranges:         append([]domain.OctetRange(nil), FallbackRanges...),
			Mode:           domain.ScanModeFast,
			Classification: Classify(seg),
		})
	}
	plan.Estimate = p.estimate(plan.Targets)
	return plan
}

// EstimateFor computes total * probeTimeout / min(maxConcurrentProbes, total)
func EstimateFor(total int, cfg domain.ScanConfiguration) Estimate {
	if total <= 0 {
		return Estimate{}
	}
	workers := min(cfg.MaxConcurrentProbes, total)
	if workers <= 0 {
		workers = 1
	}
	return Estimate{
		TotalAddresses:   total,
		EstimatedSeconds: float64(total) * cfg.ProbeTimeout.Seconds() / float64(workers),
	}
}

func (p *Planner) estimate(targets []domain.ScanTarget) Estimate {
	total := 0
	for _, t := range targets {
		total += t.Count()
	}
	return EstimateFor(total, p.Config)
}

func sortTargets(targets []domain.ScanTarget) {
	sort.SliceStable(targets, func(i, j int) bool {
		ri, rj := targets[i].Classification.Category.Rank(), targets[j].Classification.Category.Rank()
		if ri != rj {
			return ri > rj
		}
		return targets[i].Segment.Less(targets[j].Segment)
	})
}
