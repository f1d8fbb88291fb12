package engine

import (
	"context"
	"strings"

	"github.com/sells-group/kb-resolver/internal/model"
)

// Personnel answers questions about the firm's key team members.
type Personnel struct {
	env Env
}

// Name implements Engine.
func (p *Personnel) Name() string { return NamePersonnel }

// Answer implements Engine.
func (p *Personnel) Answer(_ context.Context, q Query) (Answer, bool) {
	if p.env.Snapshot == nil {
		return Answer{}, false
	}
	team := p.env.Snapshot.Profile.Section("key team members")
	if len(team) == 0 {
		return Answer{}, false
	}
	ref := model.SourceRef{DocumentID: "client_profile:key team members"}

	if q.has("list") && q.has("team members", "key team") {
		names := make([]string, 0, len(team))
		for _, member := range team {
			name, role := splitMember(member)
			if role != "" {
				name += " (" + role + ")"
			}
			names = append(names, name)
		}
		return high("The key team members are: "+strings.Join(names, ", ")+".", ref), true
	}

	for _, member := range team {
		name, role := splitMember(member)
		if name != "" && strings.Contains(q.Lower, strings.ToLower(name)) {
			return high(member, ref), true
		}
		if role != "" && strings.Contains(q.Lower, strings.ToLower(role)) && len(q.Lower) > len(role)+5 {
			return high(member, ref), true
		}
	}
	return Answer{}, false
}

// splitMember splits "Name (Role): details" into name and role.
func splitMember(member string) (name, role string) {
	open := strings.Index(member, "(")
	if open < 0 {
		if i := strings.Index(member, ":"); i >= 0 {
			return strings.TrimSpace(member[:i]), ""
		}
		return strings.TrimSpace(member), ""
	}
	name = strings.TrimSpace(member[:open])
	if end := strings.Index(member[open:], ")"); end > 0 {
		role = strings.TrimSpace(member[open+1 : open+end])
	}
	return name, role
}
