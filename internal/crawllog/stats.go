package crawllog

import "regexp"

var (
	reIP    = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)
	reTries = regexp.MustCompile(`^\d+t$`)
)

// Stats is the per-record bag of aggregatable statistics. Entries added via
// Flag are presence-only; they serialize as empty-string values so the wire
// form stays a flat JSON object the reducer can fold.
type Stats map[string]string

// Set records a keyed value.
func (s Stats) Set(key, value string) {
	s[key] = value
}

// Flag records a presence-only entry.
func (s Stats) Flag(key string) {
	s[key] = ""
}

// Stats derives the fields of this record that can be meaningfully summed
// over many lines, i.e. the fairly low-cardinality ones.
func (r *Record) Stats() Stats {
	s := Stats{}
	s.Flag("lines") // counts the lines under each reduce key
	s.Set("status_code", r.StatusCode)
	s.Set("content_type", r.Mime)
	s.Set("hop", lastChar(r.HopPath))
	s.Set("host", r.Host())
	s.Set("source", r.Source)

	// Annotations get a prefix based on what they are; the `-` placeholder
	// is not an annotation and stays out of the bag.
	for _, annot := range r.Annotations {
		if annot == "-" {
			continue
		}
		switch {
		case reTries.MatchString(annot):
			s.Flag("tries:" + annot)
		case reIP.MatchString(annot):
			s.Flag("ip:" + annot)
		default:
			s.Flag(annot)
		}
	}
	return s
}

func lastChar(s string) string {
	if s == "" {
		return ""
	}
	return s[len(s)-1:]
}
