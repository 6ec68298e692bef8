package content

import (
	"fmt"
	"strconv"
	"strings"
)

// Target identifies what the admin is editing. Exactly one variant is active
// at a time; NoTarget means no session is open.
type Target interface {
	Kind() string
}

type NoTarget struct{}

type ProjectTarget struct{ ID string }

type LogTarget struct{ ID string }

type SkillCategoryTarget struct{ ID string }

// SkillItemTarget addresses one item by its position in the category.
type SkillItemTarget struct {
	CategoryID string
	Index      int
}

// Target kinds as exchanged with the admin client.
const (
	KindNone          = "none"
	KindProject       = "project"
	KindLog           = "log"
	KindSkillCategory = "skill-category"
	KindSkillItem     = "skill-item"
)

func (NoTarget) Kind() string            { return KindNone }
func (ProjectTarget) Kind() string       { return KindProject }
func (LogTarget) Kind() string           { return KindLog }
func (SkillCategoryTarget) Kind() string { return KindSkillCategory }
func (SkillItemTarget) Kind() string     { return KindSkillItem }

// ParseTarget builds a target from its wire form. index is only read for
// skill items.
func ParseTarget(kind, id string, index *int) (Target, error) {
	id = strings.TrimSpace(id)
	switch kind {
	case "", KindNone:
		return NoTarget{}, nil
	case KindProject, KindLog, KindSkillCategory, KindSkillItem:
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidTarget, kind)
	}
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidTarget)
	}
	switch kind {
	case KindProject:
		return ProjectTarget{ID: id}, nil
	case KindLog:
		return LogTarget{ID: id}, nil
	case KindSkillCategory:
		return SkillCategoryTarget{ID: id}, nil
	}
	if index == nil || *index < 0 {
		return nil, fmt.Errorf("%w: skill item index is required", ErrInvalidTarget)
	}
	return SkillItemTarget{CategoryID: id, Index: *index}, nil
}

// TargetID returns the entity id the target points at, or "" for NoTarget.
func TargetID(t Target) string {
	switch v := t.(type) {
	case ProjectTarget:
		return v.ID
	case LogTarget:
		return v.ID
	case SkillCategoryTarget:
		return v.ID
	case SkillItemTarget:
		return v.CategoryID
	default:
		return ""
	}
}

// Form field names. Links use LinkTextField(i) and LinkURLField(i).
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldTech        = "tech"
	FieldImage       = "image"
	FieldDate        = "date"
	FieldContent     = "content"
	FieldCategory    = "category"
	FieldItem        = "item"
)

func LinkTextField(i int) string { return "linkText" + strconv.Itoa(i) }

func LinkURLField(i int) string { return "linkUrl" + strconv.Itoa(i) }

// Form carries the values of the edit form. A missing key means the field
// was not present, which is different from an empty value.
type Form map[string]string

func (f Form) lookup(key string) (string, bool) {
	if f == nil {
		return "", false
	}
	value, ok := f[key]
	return value, ok
}

// lookupAll returns the values for keys, or ok=false if any is missing.
func (f Form) lookupAll(keys ...string) ([]string, bool) {
	values := make([]string, 0, len(keys))
	for _, key := range keys {
		value, ok := f.lookup(key)
		if !ok {
			return nil, false
		}
		values = append(values, value)
	}
	return values, true
}

func projectForm(p Project) Form {
	form := Form{
		FieldTitle:       p.Title,
		FieldDescription: p.Description,
		FieldTech:        strings.Join(p.Tech, ", "),
		FieldImage:       p.Image,
	}
	for i, link := range p.Links {
		form[LinkTextField(i)] = link.Text
		form[LinkURLField(i)] = link.URL
	}
	return form
}

func logForm(l LogEntry) Form {
	return Form{FieldDate: l.Date, FieldTitle: l.Title, FieldContent: l.Content}
}
