// Package seed loads YAML fixture files into the database. Rows are matched
// on their natural keys so a fixture can be applied more than once.
package seed

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/default.yaml
var defaultFixture []byte

// Fixture is the document layout of a seed file.
type Fixture struct {
	EquipmentTypes []EquipmentTypeFixture `yaml:"equipmentTypes"`
	Equipment      []EquipmentFixture     `yaml:"equipment"`
	Users          []UserFixture          `yaml:"users"`
	Clients        []ClientFixture        `yaml:"clients"`
	Sites          []SiteFixture          `yaml:"sites"`
	Jobs           []JobFixture           `yaml:"jobs"`
}

type EquipmentTypeFixture struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type EquipmentFixture struct {
	Registration string `yaml:"registration"`
	Type         string `yaml:"type"`
	Category     string `yaml:"category"`
	Status       string `yaml:"status"`
	Make         string `yaml:"make"`
	Model        string `yaml:"model"`
	Year         int    `yaml:"year"`
	Capacity     string `yaml:"capacity"`
}

type UserFixture struct {
	Email       string   `yaml:"email"`
	FirstName   string   `yaml:"firstName"`
	LastName    string   `yaml:"lastName"`
	Role        string   `yaml:"role"`
	Permissions []string `yaml:"permissions"`
	Password    string   `yaml:"password"`
}

// ClientFixture is referenced from shafts by Ref.
type ClientFixture struct {
	Ref            string   `yaml:"ref"`
	FirstName      string   `yaml:"firstName"`
	LastName       string   `yaml:"lastName"`
	IDNumber       string   `yaml:"idNumber"`
	Address        string   `yaml:"address"`
	ContactNumbers []string `yaml:"contactNumbers"`
	Emails         []string `yaml:"emails"`
	Status         string   `yaml:"status"`
	Syndicates     []string `yaml:"syndicates"`
}

type SiteFixture struct {
	Name    string        `yaml:"name"`
	Address string        `yaml:"address"`
	Areas   []AreaFixture `yaml:"areas"`
}

type AreaFixture struct {
	Name   string         `yaml:"name"`
	Shafts []ShaftFixture `yaml:"shafts"`
}

type ShaftFixture struct {
	Name   string `yaml:"name"`
	Client string `yaml:"client"`
}

// JobFixture points at its shaft by name; the client comes from the shaft.
type JobFixture struct {
	Title              string `yaml:"title"`
	Description        string `yaml:"description"`
	Type               string `yaml:"type"`
	Priority           string `yaml:"priority"`
	SiteClassification string `yaml:"siteClassification"`
	Status             string `yaml:"status"`
	Shaft              string `yaml:"shaft"`
	Requester          string `yaml:"requester"`
	Driver             string `yaml:"driver"`
	Location           string `yaml:"location"`
	EstimatedTonnage   string `yaml:"estimatedTonnage"`
}

// Load decodes a fixture. Unknown keys are rejected.
func Load(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f Fixture
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadFile reads a fixture from disk. An empty path loads the built-in
// fixture.
func LoadFile(path string) (*Fixture, error) {
	if strings.TrimSpace(path) == "" {
		return Load(bytes.NewReader(defaultFixture))
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer file.Close()
	return Load(file)
}

func (f *Fixture) validate() error {
	clients := map[string]bool{}
	for _, c := range f.Clients {
		if c.Ref == "" {
			return fmt.Errorf("client %s %s: ref is required", c.FirstName, c.LastName)
		}
		if clients[c.Ref] {
			return fmt.Errorf("duplicate client ref %q", c.Ref)
		}
		clients[c.Ref] = true
	}
	shafts := map[string]bool{}
	for _, site := range f.Sites {
		for _, area := range site.Areas {
			for _, shaft := range area.Shafts {
				if !clients[shaft.Client] {
					return fmt.Errorf("shaft %q references unknown client %q", shaft.Name, shaft.Client)
				}
				if shafts[shaft.Name] {
					return fmt.Errorf("duplicate shaft name %q", shaft.Name)
				}
				shafts[shaft.Name] = true
			}
		}
	}
	types := map[string]bool{}
	for _, t := range f.EquipmentTypes {
		types[t.Name] = true
	}
	for _, eq := range f.Equipment {
		if !types[eq.Type] {
			return fmt.Errorf("equipment %q references unknown type %q", eq.Registration, eq.Type)
		}
	}
	for _, job := range f.Jobs {
		if !shafts[job.Shaft] {
			return fmt.Errorf("job %q references unknown shaft %q", job.Title, job.Shaft)
		}
	}
	return nil
}
