package content

import (
	"context"
	"fmt"
	"log"

	"portfolio/api/internal/store"
	"portfolio/api/internal/util"
)

// Placeholder values for entities created from the admin panel.
const (
	NewProjectTitle       = "New Project"
	NewProjectDescription = "Describe your project here..."
	NewLogTitle           = "New Log Entry"
	NewLogContent         = "Write your log entry content here..."
	NewSkillCategory      = "New Skill Category"
	NewSkillItem          = "New Skill"

	journalDateLayout = "January 2006"
	draftDateLayout   = "January 2, 2006"
)

func draftID() string {
	return util.NewID("draft")
}

// AddProject stores a complete project under a store-assigned id.
func (s *Service) AddProject(ctx context.Context, input Project) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project := input.clone().normalize()
	project.ID = ""
	id, err := s.store.Create(ctx, store.CollectionProjects, project)
	if err != nil {
		return Project{}, s.writeFailed(OpCreate, store.CollectionProjects, "", "project", err)
	}
	project.ID = id
	s.state.Projects = append(s.state.Projects, project)
	s.publish()
	return project.clone(), nil
}

// AddJournalEntry stores a dated, timestamped log entry under a
// store-assigned id and puts it first in the log.
func (s *Service) AddJournalEntry(ctx context.Context, title, body string) (LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	entry := LogEntry{
		Date:      now.Format(journalDateLayout),
		Title:     title,
		Content:   body,
		Timestamp: &now,
	}
	id, err := s.store.Create(ctx, store.CollectionLogs, entry.document())
	if err != nil {
		return LogEntry{}, s.writeFailed(OpCreate, store.CollectionLogs, "", "journal entry", err)
	}
	entry.ID = id
	s.state.Logs = append([]LogEntry{entry}, s.state.Logs...)
	s.publish()
	return entry.clone(), nil
}

// AddNewProject stores a placeholder project and opens it for editing.
func (s *Service) AddNewProject(ctx context.Context) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project := Project{
		ID:          s.newDraftID(),
		Title:       NewProjectTitle,
		Description: NewProjectDescription,
		Tech:        []string{},
		Links:       []Link{},
	}
	if err := s.store.Replace(ctx, store.CollectionProjects, project.ID, project); err != nil {
		return Project{}, s.writeFailed(OpCreate, store.CollectionProjects, project.ID, "project", err)
	}
	s.state.Projects = append(s.state.Projects, project)
	s.edit = ProjectTarget{ID: project.ID}
	s.publish()
	return project.clone(), nil
}

// AddNewLog stores a placeholder log entry dated today, puts it first and
// opens it for editing.
func (s *Service) AddNewLog(ctx context.Context) (LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	entry := LogEntry{
		ID:        s.newDraftID(),
		Date:      now.Format(draftDateLayout),
		Title:     NewLogTitle,
		Content:   NewLogContent,
		Timestamp: &now,
	}
	if err := s.store.Replace(ctx, store.CollectionLogs, entry.ID, entry.document()); err != nil {
		return LogEntry{}, s.writeFailed(OpCreate, store.CollectionLogs, entry.ID, "log entry", err)
	}
	s.state.Logs = append([]LogEntry{entry}, s.state.Logs...)
	s.edit = LogTarget{ID: entry.ID}
	s.publish()
	return entry.clone(), nil
}

// AddNewSkillCategory stores an empty category and opens it for editing.
func (s *Service) AddNewSkillCategory(ctx context.Context) (SkillCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	category := SkillCategory{ID: s.newDraftID(), Category: NewSkillCategory, Items: []string{}}
	if err := s.store.Replace(ctx, store.CollectionSkills, category.ID, category); err != nil {
		return SkillCategory{}, s.writeFailed(OpCreate, store.CollectionSkills, category.ID, "skill category", err)
	}
	s.state.Skills = append(s.state.Skills, category)
	s.edit = SkillCategoryTarget{ID: category.ID}
	s.publish()
	return category.clone(), nil
}

// AddNewSkillItem appends a placeholder item to a category and opens that
// item for editing.
func (s *Service) AddNewSkillItem(ctx context.Context, categoryID string) (SkillItemTarget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.state.skillIndex(categoryID)
	if i < 0 {
		return SkillItemTarget{}, notFound("skill category", categoryID)
	}
	updated := s.state.Skills[i].clone()
	updated.Items = append(updated.Items, NewSkillItem)

	if err := s.store.Update(ctx, store.CollectionSkills, updated.ID, skillFields(updated)); err != nil {
		return SkillItemTarget{}, s.writeFailed(OpUpdate, store.CollectionSkills, updated.ID, "skill", err)
	}
	s.state.Skills[i] = updated
	target := SkillItemTarget{CategoryID: updated.ID, Index: len(updated.Items) - 1}
	s.edit = target
	s.publish()
	return target, nil
}

func (s *Service) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.projectIndex(id) < 0 {
		return notFound("project", id)
	}
	if err := s.store.Delete(ctx, store.CollectionProjects, id); err != nil {
		return s.writeFailed(OpDelete, store.CollectionProjects, id, "project", err)
	}
	s.state.Projects = removeProject(s.state.Projects, id)
	s.publish()
	return nil
}

func (s *Service) DeleteLog(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.logIndex(id) < 0 {
		return notFound("log entry", id)
	}
	if err := s.store.Delete(ctx, store.CollectionLogs, id); err != nil {
		return s.writeFailed(OpDelete, store.CollectionLogs, id, "log entry", err)
	}
	s.state.Logs = removeLog(s.state.Logs, id)
	s.publish()
	return nil
}

func (s *Service) DeleteSkillCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.skillIndex(id) < 0 {
		return notFound("skill category", id)
	}
	if err := s.store.Delete(ctx, store.CollectionSkills, id); err != nil {
		return s.writeFailed(OpDelete, store.CollectionSkills, id, "skill category", err)
	}
	s.state.Skills = removeSkill(s.state.Skills, id)
	s.publish()
	return nil
}

// DeleteSkillItem removes items[index]; later items move down one place.
func (s *Service) DeleteSkillItem(ctx context.Context, categoryID string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.state.skillIndex(categoryID)
	if i < 0 {
		return notFound("skill category", categoryID)
	}
	if index < 0 || index >= len(s.state.Skills[i].Items) {
		return notFound("skill item", fmt.Sprintf("%s[%d]", categoryID, index))
	}
	updated := s.state.Skills[i].clone()
	updated.Items = append(updated.Items[:index], updated.Items[index+1:]...)

	if err := s.store.Update(ctx, store.CollectionSkills, updated.ID, skillFields(updated)); err != nil {
		return s.writeFailed(OpDelete, store.CollectionSkills, updated.ID, "skill", err)
	}
	s.state.Skills[i] = updated
	s.publish()
	return nil
}

// SaveAll replaces every entity in the store, one call per entity in
// collection order. It stops at the first failure and returns how many
// writes succeeded. A complete save is archived when an archiver is set.
func (s *Service) SaveAll(ctx context.Context, author string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	written := 0
	for _, project := range s.state.Projects {
		if err := s.store.Replace(ctx, store.CollectionProjects, project.ID, project); err != nil {
			return written, s.writeFailed(OpReplace, store.CollectionProjects, project.ID, "changes", err)
		}
		written++
	}
	for _, entry := range s.state.Logs {
		if err := s.store.Replace(ctx, store.CollectionLogs, entry.ID, entry.document()); err != nil {
			return written, s.writeFailed(OpReplace, store.CollectionLogs, entry.ID, "changes", err)
		}
		written++
	}
	for _, category := range s.state.Skills {
		if err := s.store.Replace(ctx, store.CollectionSkills, category.ID, category); err != nil {
			return written, s.writeFailed(OpReplace, store.CollectionSkills, category.ID, "changes", err)
		}
		written++
	}
	log.Printf("content: saved %d documents", written)

	if s.archiver != nil {
		message := fmt.Sprintf("Save %d projects, %d logs, %d skill categories", len(s.state.Projects), len(s.state.Logs), len(s.state.Skills))
		if _, err := s.archiver.Commit(s.state.snapshot(), author, message); err != nil {
			log.Printf("content: archive snapshot failed: %v", err)
		}
	}
	return written, nil
}
