package db

import (
	"fmt"
	"os"

	"github.com/fennwick/taskboard/internal/models"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedFile is the YAML document accepted by `autoclaude db seed`. It exists
// so a board can be stood up without the UI, mostly for dev environments.
type SeedFile struct {
	Projects []SeedProject `yaml:"projects"`
}

// SeedProject declares a project and its columns.
type SeedProject struct {
	ID               string       `yaml:"id"`
	Name             string       `yaml:"name"`
	RepoURL          string       `yaml:"repo_url"`
	AutoclaudePaused *bool        `yaml:"autoclaude_paused"`
	Columns          []SeedColumn `yaml:"columns"`
}

// SeedColumn declares one kanban column.
type SeedColumn struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Position int    `yaml:"position"`
}

// LoadSeedFile reads and validates a seed YAML file.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("db: read seed file %s: %w", path, err)
	}
	return ParseSeedFile(data)
}

// ParseSeedFile unmarshals seed YAML bytes.
func ParseSeedFile(data []byte) (*SeedFile, error) {
	var sf SeedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("db: parse seed file: %w", err)
	}
	for i, p := range sf.Projects {
		if p.ID == "" {
			return nil, fmt.Errorf("db: projects[%d].id is required", i)
		}
		if p.Name == "" {
			return nil, fmt.Errorf("db: projects[%d].name is required", i)
		}
		for j, c := range p.Columns {
			if c.ID == "" || c.Name == "" {
				return nil, fmt.Errorf("db: projects[%d].columns[%d]: id and name are required", i, j)
			}
		}
	}
	return &sf, nil
}

// SeedProjects upserts projects and columns from a seed file. Tasks are
// never seeded; they come from the UI.
func SeedProjects(gdb *gorm.DB, sf *SeedFile) error {
	for _, sp := range sf.Projects {
		paused := true
		if sp.AutoclaudePaused != nil {
			paused = *sp.AutoclaudePaused
		}
		var repoURL *string
		if sp.RepoURL != "" {
			u := sp.RepoURL
			repoURL = &u
		}

		project := models.Project{
			ID:               sp.ID,
			Name:             sp.Name,
			RepoURL:          repoURL,
			AutoclaudePaused: paused,
		}
		result := gdb.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "repo_url", "autoclaude_paused"}),
		}).Create(&project)
		if result.Error != nil {
			return fmt.Errorf("db: seed project %q: %w", sp.ID, result.Error)
		}

		for _, sc := range sp.Columns {
			col := models.KanbanColumn{
				ID:        sc.ID,
				ProjectID: sp.ID,
				Name:      sc.Name,
				Position:  sc.Position,
			}
			result := gdb.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "position"}),
			}).Create(&col)
			if result.Error != nil {
				return fmt.Errorf("db: seed column %q: %w", sc.ID, result.Error)
			}
		}
	}
	return nil
}
