// Package projects loads the read-only project catalogue and skill groups.
package projects

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Project is one portfolio entry.
type Project struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	ShortDescription string   `json:"short_description,omitempty"`
	Tech             []string `json:"tech"`
	LiveURL          string   `json:"live_url,omitempty"`
	GithubURL        string   `json:"github_url,omitempty"`
	Image            string   `json:"image,omitempty"`
	Images           []string `json:"images,omitempty"`
	// Note explains why links are missing (NDA, hosting costs).
	Note string `json:"note,omitempty"`
	// PreviewText replaces the image gallery when there is nothing to show.
	PreviewText string `json:"preview_text,omitempty"`
}

// DefaultPreviewText is shown for projects without images or custom text.
const DefaultPreviewText = "Project preview not available"

// Gallery returns the images to display, preferring the images list.
func (p Project) Gallery() []string {
	if len(p.Images) > 0 {
		return p.Images
	}
	if img := strings.TrimSpace(p.Image); img != "" {
		return []string{img}
	}
	return nil
}

// Preview returns the placeholder text for a project without images.
func (p Project) Preview() string {
	if p.PreviewText != "" {
		return p.PreviewText
	}
	return DefaultPreviewText
}

// SkillGroup is a named list of skills.
type SkillGroup struct {
	Category string   `json:"category"`
	Skills   []string `json:"skills"`
}

// Catalogue holds projects in display order.
type Catalogue struct {
	projects []Project
	byID     map[string]int
	skills   []SkillGroup
}

var idPattern = regexp.MustCompile(`PJ-(\d+)`)

// Number extracts n from an id of the form PJ-n; ids without a number sort last.
func Number(id string) int {
	m := idPattern.FindStringSubmatch(id)
	if m == nil {
		return int(^uint(0) >> 1)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return n
}

// New builds a catalogue, ordering projects by their PJ number.
func New(list []Project, skills []SkillGroup) (*Catalogue, error) {
	sorted := make([]Project, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		return Number(sorted[i].ID) < Number(sorted[j].ID)
	})

	byID := make(map[string]int, len(sorted))
	for i, p := range sorted {
		if strings.TrimSpace(p.ID) == "" {
			return nil, fmt.Errorf("project %d: id is required", i)
		}
		if _, dup := byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate project id %q", p.ID)
		}
		byID[p.ID] = i
	}

	return &Catalogue{projects: sorted, byID: byID, skills: skills}, nil
}

// Load reads projectsPath and skillsPath from fsys. Empty paths yield empty
// lists.
func Load(fsys fs.FS, projectsPath, skillsPath string) (*Catalogue, error) {
	var doc struct {
		Projects []Project `json:"projects"`
	}
	if projectsPath != "" {
		if err := decodeFile(fsys, projectsPath, &doc); err != nil {
			return nil, err
		}
	}

	var skills []SkillGroup
	if skillsPath != "" {
		if err := decodeFile(fsys, skillsPath, &skills); err != nil {
			return nil, err
		}
	}

	return New(doc.Projects, skills)
}

func decodeFile(fsys fs.FS, name string, v any) error {
	if fsys == nil {
		return errors.New("content filesystem is nil")
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// All returns the projects in display order.
func (c *Catalogue) All() []Project {
	if c == nil {
		return nil
	}
	out := make([]Project, len(c.projects))
	copy(out, c.projects)
	return out
}

// Get looks a project up by id.
func (c *Catalogue) Get(id string) (Project, bool) {
	if c == nil {
		return Project{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return Project{}, false
	}
	return c.projects[i], true
}

// Skills returns the skill groups in file order.
func (c *Catalogue) Skills() []SkillGroup {
	if c == nil {
		return nil
	}
	return c.skills
}
