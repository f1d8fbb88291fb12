package engine

import (
	"context"
	"regexp"
	"strings"
)

var emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// General answers identity, testimonial, project and contact questions.
type General struct {
	env  Env
	opts Options
}

// Name implements Engine.
func (g *General) Name() string { return NameGeneral }

// Answer implements Engine.
func (g *General) Answer(_ context.Context, q Query) (Answer, bool) {
	switch {
	case q.has("who are you", "what are you", "your purpose"):
		return high(g.opts.Assistant), true

	case q.has("complaint") && q.has("email"):
		return high("For complaints, you can reach out to " + g.complaintsEmail() + "."), true
	}

	if g.env.Snapshot == nil {
		return Answer{}, false
	}
	prof := g.env.Snapshot.Profile
	switch {
	case q.has("testimonial"):
		lines := prof.Section("testimonials")
		if len(lines) == 0 {
			return Answer{}, false
		}
		return high("Client testimonials on record: "+strings.Join(lines, " "), profileRef("testimonials")), true

	case q.has("skycap ai project", "skycap project"):
		lines := prof.Section("skycap ai project")
		if len(lines) == 0 {
			return Answer{}, false
		}
		return high(lines[0], profileRef("skycap ai project")), true

	case q.has("introducer", "key external contact", "emmanuel oladimeji"):
		if lines := prof.Section("key external contact"); len(lines) > 0 {
			return high(strings.Join(lines, " "), profileRef("key external contact")), true
		}
		for _, line := range prof.Lines() {
			if strings.Contains(strings.ToLower(line), "emmanuel oladimeji") {
				return high(line, profileRef("testimonials")), true
			}
		}
	}
	return Answer{}, false
}

// complaintsEmail returns the first profile address on a complaints line, or
// the configured default.
func (g *General) complaintsEmail() string {
	if g.env.Snapshot != nil {
		for _, line := range g.env.Snapshot.Profile.Lines() {
			if !strings.Contains(strings.ToLower(line), "complaint") {
				continue
			}
			if m := emailRe.FindString(line); m != "" {
				return m
			}
		}
	}
	return g.opts.ComplaintsEmail
}
