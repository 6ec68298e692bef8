package content

import (
	"context"
	"fmt"
	"log"

	"portfolio/api/internal/store"
)

// Begin opens an edit session on target, replacing any previous one without
// saving it. A target that does not resolve leaves the session unchanged.
func (s *Service) Begin(target Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.begin(target)
}

func (s *Service) begin(target Target) error {
	if target == nil {
		target = NoTarget{}
	}
	if err := s.resolve(target); err != nil {
		return err
	}
	s.edit = target
	return nil
}

func (s *Service) resolve(target Target) error {
	switch t := target.(type) {
	case NoTarget:
		return nil
	case ProjectTarget:
		if s.state.projectIndex(t.ID) < 0 {
			return notFound("project", t.ID)
		}
	case LogTarget:
		if s.state.logIndex(t.ID) < 0 {
			return notFound("log entry", t.ID)
		}
	case SkillCategoryTarget:
		if s.state.skillIndex(t.ID) < 0 {
			return notFound("skill category", t.ID)
		}
	case SkillItemTarget:
		i := s.state.skillIndex(t.CategoryID)
		if i < 0 {
			return notFound("skill category", t.CategoryID)
		}
		if t.Index < 0 || t.Index >= len(s.state.Skills[i].Items) {
			return notFound("skill item", fmt.Sprintf("%s[%d]", t.CategoryID, t.Index))
		}
	default:
		return fmt.Errorf("%w: %T", ErrInvalidTarget, target)
	}
	return nil
}

// Cancel closes the edit session without touching any entity.
func (s *Service) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edit = NoTarget{}
}

// Current returns the open target and the values to prefill the edit form
// with. The form is nil when nothing is being edited.
func (s *Service) Current() (Target, Form) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch t := s.edit.(type) {
	case ProjectTarget:
		if i := s.state.projectIndex(t.ID); i >= 0 {
			return t, projectForm(s.state.Projects[i])
		}
	case LogTarget:
		if i := s.state.logIndex(t.ID); i >= 0 {
			return t, logForm(s.state.Logs[i])
		}
	case SkillCategoryTarget:
		if i := s.state.skillIndex(t.ID); i >= 0 {
			return t, Form{FieldCategory: s.state.Skills[i].Category}
		}
	case SkillItemTarget:
		if i := s.state.skillIndex(t.CategoryID); i >= 0 && t.Index >= 0 && t.Index < len(s.state.Skills[i].Items) {
			return t, Form{FieldItem: s.state.Skills[i].Items[t.Index]}
		}
	}
	return s.edit, nil
}

// Commit applies form to the entity under edit and writes it to the store.
// It returns the target that was committed. The session is closed whatever
// the outcome.
func (s *Service) Commit(ctx context.Context, form Form) (Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.edit
	s.edit = NoTarget{}

	var err error
	switch t := target.(type) {
	case ProjectTarget:
		err = s.commitProject(ctx, t, form)
	case LogTarget:
		err = s.commitLog(ctx, t, form)
	case SkillCategoryTarget:
		err = s.commitSkillCategory(ctx, t, form)
	case SkillItemTarget:
		err = s.commitSkillItem(ctx, t, form)
	case NoTarget, nil:
		return NoTarget{}, ErrNoEditSession
	default:
		return target, fmt.Errorf("%w: %T", ErrInvalidTarget, target)
	}
	return target, err
}

func (s *Service) commitProject(ctx context.Context, t ProjectTarget, form Form) error {
	i := s.state.projectIndex(t.ID)
	if i < 0 {
		return notFound("project", t.ID)
	}
	values, ok := form.lookupAll(FieldTitle, FieldDescription, FieldTech, FieldImage)
	if !ok {
		log.Printf("content: project %s edit form is incomplete", t.ID)
		return ErrIncompleteForm
	}

	updated := s.state.Projects[i].clone()
	updated.Title = values[0]
	updated.Description = values[1]
	updated.Tech = SplitTech(values[2])
	updated.Image = values[3]
	for j := range updated.Links {
		if text, ok := form.lookup(LinkTextField(j)); ok {
			updated.Links[j].Text = text
		}
		if url, ok := form.lookup(LinkURLField(j)); ok {
			updated.Links[j].URL = url
		}
	}

	if err := s.store.Replace(ctx, store.CollectionProjects, updated.ID, updated); err != nil {
		return s.writeFailed(OpReplace, store.CollectionProjects, updated.ID, "project", err)
	}
	s.state.Projects[i] = updated
	s.publish()
	return nil
}

func (s *Service) commitLog(ctx context.Context, t LogTarget, form Form) error {
	i := s.state.logIndex(t.ID)
	if i < 0 {
		return notFound("log entry", t.ID)
	}
	values, ok := form.lookupAll(FieldDate, FieldTitle, FieldContent)
	if !ok {
		log.Printf("content: log %s edit form is incomplete", t.ID)
		return ErrIncompleteForm
	}

	updated := s.state.Logs[i].clone()
	updated.Date = values[0]
	updated.Title = values[1]
	updated.Content = values[2]

	if err := s.store.Replace(ctx, store.CollectionLogs, updated.ID, updated.document()); err != nil {
		return s.writeFailed(OpReplace, store.CollectionLogs, updated.ID, "log entry", err)
	}
	s.state.Logs[i] = updated
	s.publish()
	return nil
}

func (s *Service) commitSkillCategory(ctx context.Context, t SkillCategoryTarget, form Form) error {
	i := s.state.skillIndex(t.ID)
	if i < 0 {
		return notFound("skill category", t.ID)
	}
	label, ok := form.lookup(FieldCategory)
	if !ok {
		log.Printf("content: skill category %s edit form is incomplete", t.ID)
		return ErrIncompleteForm
	}

	updated := s.state.Skills[i].clone()
	updated.Category = label

	if err := s.store.Replace(ctx, store.CollectionSkills, updated.ID, updated); err != nil {
		return s.writeFailed(OpReplace, store.CollectionSkills, updated.ID, "skill category", err)
	}
	s.state.Skills[i] = updated
	s.publish()
	return nil
}

func (s *Service) commitSkillItem(ctx context.Context, t SkillItemTarget, form Form) error {
	i := s.state.skillIndex(t.CategoryID)
	if i < 0 {
		return notFound("skill category", t.CategoryID)
	}
	if t.Index < 0 || t.Index >= len(s.state.Skills[i].Items) {
		return notFound("skill item", fmt.Sprintf("%s[%d]", t.CategoryID, t.Index))
	}
	item, ok := form.lookup(FieldItem)
	if !ok {
		log.Printf("content: skill item %s[%d] edit form is incomplete", t.CategoryID, t.Index)
		return ErrIncompleteForm
	}

	updated := s.state.Skills[i].clone()
	updated.Items[t.Index] = item

	if err := s.store.Update(ctx, store.CollectionSkills, updated.ID, skillFields(updated)); err != nil {
		return s.writeFailed(OpUpdate, store.CollectionSkills, updated.ID, "skill", err)
	}
	s.state.Skills[i] = updated
	s.publish()
	return nil
}
