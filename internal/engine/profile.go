package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/sells-group/kb-resolver/internal/model"
)

// Profile answers questions about the firm's mission, services and clients.
type Profile struct {
	env  Env
	opts Options
}

// Name implements Engine.
func (p *Profile) Name() string { return NameProfile }

// Answer implements Engine.
func (p *Profile) Answer(_ context.Context, q Query) (Answer, bool) {
	if p.env.Snapshot == nil {
		return Answer{}, false
	}
	prof := p.env.Snapshot.Profile
	overview := prof.Section("company overview")

	switch {
	case q.has("philosophy", "mission"):
		// The mission statement is the third overview line.
		if len(overview) < 3 {
			return Answer{}, false
		}
		return high(overview[2], profileRef("company overview")), true

	case q.has("services"):
		if len(prof.Section("services offered")) == 0 {
			return Answer{}, false
		}
		return high(p.servicesSynthesis(), profileRef("services offered")), true

	case q.has("clientele", "clients", "who do you serve", "who does"):
		for _, line := range append(append([]string(nil), overview...), prof.Section("services offered")...) {
			if strings.Contains(strings.ToLower(line), "client") {
				return high(line, profileRef("company overview")), true
			}
		}
		return high(fmt.Sprintf("%s serves a diverse clientele, including government parastatals, multinational corporations and high-net-worth individuals.", p.opts.Firm),
			profileRef("company overview")), true

	case q.has("about") && q.has(strings.ToLower(p.opts.Firm), "skyview", "the company", "your company", "the firm", "your firm"):
		if len(overview) == 0 {
			return Answer{}, false
		}
		n := len(overview)
		if n > 2 {
			n = 2
		}
		return high(strings.Join(overview[:n], " "), profileRef("company overview")), true
	}
	return Answer{}, false
}

func (p *Profile) servicesSynthesis() string {
	return fmt.Sprintf("%s provides a comprehensive suite of financial services tailored for a diverse clientele, including government parastatals, multinational corporations, and high-net-worth individuals. "+
		"Core offerings are supported by a team of seasoned professional researchers who deliver in-depth stock analysis and daily securities updates. "+
		"Key services include retainer-ships for listed companies, acting as a Receiving Agency for IPOs and Public Offerings, and utilizing advanced tools for asset valuation.",
		p.opts.Firm)
}

// Location answers address questions for the head office and branches.
type Location struct {
	env  Env
	opts Options
}

// Name implements Engine.
func (l *Location) Name() string { return NameLocation }

type place struct {
	keywords []string
	marker   string
	label    string
}

// Answer implements Engine.
func (l *Location) Answer(_ context.Context, q Query) (Answer, bool) {
	if l.env.Snapshot == nil || !q.has("address", "location", "where", "branch", "office") {
		return Answer{}, false
	}
	contacts := l.env.Snapshot.Profile.Section("contact information")
	places := []place{
		{keywords: []string{"head office", "lagos", "ikoyi"}, marker: "head office", label: "The head office of " + l.opts.Firm + " is"},
		{keywords: []string{"abuja", "fct"}, marker: "fct (abuja)", label: "The Abuja branch is"},
		{keywords: []string{"rivers", "port harcourt"}, marker: "rivers state", label: "The Rivers State branch is"},
	}
	for _, detail := range contacts {
		lower := strings.ToLower(detail)
		for _, pl := range places {
			if q.has(pl.keywords...) && strings.Contains(lower, pl.marker) {
				return high(pl.label+" located at: "+detail, profileRef("contact information")), true
			}
		}
	}
	return Answer{}, false
}

func profileRef(section string) model.SourceRef {
	return model.SourceRef{DocumentID: "client_profile:" + section}
}
