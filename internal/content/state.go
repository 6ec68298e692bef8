package content

import "sort"

// State holds the three in-memory collections. It is owned by Service and
// only mutated while the service lock is held.
type State struct {
	Projects []Project
	Logs     []LogEntry
	Skills   []SkillCategory
}

func (s State) snapshot() Snapshot {
	return Snapshot{
		Projects: cloneProjects(s.Projects),
		Logs:     cloneLogs(s.Logs),
		Skills:   cloneSkills(s.Skills),
	}
}

func (s State) projectIndex(id string) int {
	for i := range s.Projects {
		if s.Projects[i].ID == id {
			return i
		}
	}
	return -1
}

func (s State) logIndex(id string) int {
	for i := range s.Logs {
		if s.Logs[i].ID == id {
			return i
		}
	}
	return -1
}

func (s State) skillIndex(id string) int {
	for i := range s.Skills {
		if s.Skills[i].ID == id {
			return i
		}
	}
	return -1
}

// sortLogs orders entries newest first. Entries without a timestamp follow
// the timestamped ones and keep their relative order.
func sortLogs(logs []LogEntry) {
	sort.SliceStable(logs, func(i, j int) bool {
		a, b := logs[i].Timestamp, logs[j].Timestamp
		switch {
		case a != nil && b != nil:
			return a.After(*b)
		case a != nil:
			return true
		default:
			return false
		}
	})
}

func cloneProjects(in []Project) []Project {
	out := make([]Project, 0, len(in))
	for _, p := range in {
		out = append(out, p.clone())
	}
	return out
}

func cloneLogs(in []LogEntry) []LogEntry {
	out := make([]LogEntry, 0, len(in))
	for _, l := range in {
		out = append(out, l.clone())
	}
	return out
}

func cloneSkills(in []SkillCategory) []SkillCategory {
	out := make([]SkillCategory, 0, len(in))
	for _, c := range in {
		out = append(out, c.clone())
	}
	return out
}

func removeProject(in []Project, id string) []Project {
	out := in[:0]
	for _, p := range in {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

func removeLog(in []LogEntry, id string) []LogEntry {
	out := in[:0]
	for _, l := range in {
		if l.ID != id {
			out = append(out, l)
		}
	}
	return out
}

func removeSkill(in []SkillCategory, id string) []SkillCategory {
	out := in[:0]
	for _, c := range in {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}
