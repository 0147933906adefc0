package deps

import (
	"slices"
	"strings"
)

// Merge folds records from any number of extraction passes into one
// canonical list.
//
// Records sharing a key and version are unioned: transitivity is true if any
// input marks it so, source strategies are combined, and the first resolved
// license is kept. A record whose version is unknown folds into every known
// variant of the same key; it only survives on its own when no variant has a
// version. The status of a merged record is open or proprietary when every
// input that knew it agreed, and unknown when open and proprietary both
// appear. Records with an empty name are dropped.
//
// The output is sorted with Compare and is the same for every permutation
// of the input.
func Merge(groups ...[]Record) []Record {
	byKey := make(map[Key]map[string]*variant)

	for _, group := range groups {
		for _, r := range group {
			r = canonical(r)
			if r.Name == "" {
				continue
			}
			variants := byKey[r.Key()]
			if variants == nil {
				variants = make(map[string]*variant)
				byKey[r.Key()] = variants
			}
			if existing, ok := variants[r.Version]; ok {
				existing.add(r)
				continue
			}
			v := &variant{rec: r, seen: statusSetOf(r.Status)}
			v.rec.EvidenceURLs = slices.Clone(r.EvidenceURLs)
			variants[r.Version] = v
		}
	}

	var out []Record
	for _, variants := range byKey {
		if unknown, ok := variants[UnknownVersion]; ok && len(variants) > 1 {
			delete(variants, UnknownVersion)
			for _, known := range variants {
				known.absorb(unknown)
			}
		}
		for _, v := range variants {
			v.rec.Status = v.seen.status()
			out = append(out, v.rec)
		}
	}
	Sort(out)
	return out
}

// variant is one (key, version) during a merge. seen collects every
// status reported for it so the result does not depend on fold order.
type variant struct {
	rec  Record
	seen statusSet
}

func (v *variant) add(r Record) {
	mergeInto(&v.rec, r)
	v.seen |= statusSetOf(r.Status)
}

func (v *variant) absorb(o *variant) {
	mergeInto(&v.rec, o.rec)
	v.seen |= o.seen
}

type statusSet uint8

const (
	sawOpen statusSet = 1 << iota
	sawProprietary
)

func statusSetOf(s Status) statusSet {
	switch s {
	case StatusOpen:
		return sawOpen
	case StatusProprietary:
		return sawProprietary
	}
	return 0
}

// status is open or proprietary when only that status was seen, and
// unknown when neither or both were.
func (s statusSet) status() Status {
	switch s {
	case sawOpen:
		return StatusOpen
	case sawProprietary:
		return StatusProprietary
	}
	return StatusUnknown
}

func canonical(r Record) Record {
	r.Name = strings.TrimSpace(r.Name)
	r.Version = strings.TrimSpace(r.Version)
	if r.Version == "" {
		r.Version = UnknownVersion
	}
	if !r.Ecosystem.Valid() {
		r.Ecosystem = EcosystemOther
	}
	if !r.Status.Valid() {
		r.Status = StatusUnknown
	}
	if r.EvidenceURLs == nil {
		r.EvidenceURLs = []string{}
	}
	r.SourceStrategy = joinStrategies(splitStrategies(r.SourceStrategy))
	return r
}

func mergeInto(dst *Record, src Record) {
	dst.Name = min(dst.Name, src.Name)
	dst.Transitive = dst.Transitive || src.Transitive
	dst.SourceStrategy = joinStrategies(append(splitStrategies(dst.SourceStrategy), splitStrategies(src.SourceStrategy)...))

	switch {
	case dst.License == nil:
		dst.License = src.License
	case src.License != nil && *src.License != *dst.License:
		l := min(*dst.License, *src.License)
		dst.License = &l
	}

	dst.EvidenceURLs = mergeEvidence(dst.EvidenceURLs, src.EvidenceURLs)

	switch {
	case dst.ResearchError == "":
		dst.ResearchError = src.ResearchError
	case src.ResearchError != "":
		dst.ResearchError = min(dst.ResearchError, src.ResearchError)
	}
}

// mergeEvidence keeps a single list as is and sorts the union of two.
func mergeEvidence(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	if len(a) == 0 {
		return slices.Clone(b)
	}
	out := append(slices.Clone(a), b...)
	slices.Sort(out)
	return slices.Compact(out)
}

func splitStrategies(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func joinStrategies(names []string) string {
	slices.Sort(names)
	return strings.Join(slices.Compact(names), ",")
}
