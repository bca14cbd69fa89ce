// Package familyio reads and writes whole family stores as JSON or YAML documents.
package familyio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/camden-git/familytree/models"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported family file format")
	ErrDuplicateID       = errors.New("duplicate identifier")
)

// Format is a document encoding known to this package
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Metadata is the header block of a family document
type Metadata struct {
	Version     string    `json:"version" yaml:"version"`
	Created     time.Time `json:"created" yaml:"created"`
	Modified    time.Time `json:"modified" yaml:"modified"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
}

type document struct {
	Metadata  Metadata          `json:"metadata" yaml:"metadata"`
	Persons   []models.Person   `json:"persons" yaml:"persons"`
	Marriages []models.Marriage `json:"marriages" yaml:"marriages"`
}

// FormatForPath picks the format from the file extension
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ParseFormat accepts "json", "yaml" or "yml"
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

func ReadJSON(r io.Reader) (*models.FamilyData, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode JSON family document: %w", err)
	}
	return doc.toFamilyData()
}

func WriteJSON(w io.Writer, data *models.FamilyData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fromFamilyData(data)); err != nil {
		return fmt.Errorf("failed to encode JSON family document: %w", err)
	}
	return nil
}

func ReadYAML(r io.Reader) (*models.FamilyData, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return doc.toFamilyData()
		}
		return nil, fmt.Errorf("failed to decode YAML family document: %w", err)
	}
	return doc.toFamilyData()
}

func WriteYAML(w io.Writer, data *models.FamilyData) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(fromFamilyData(data)); err != nil {
		return fmt.Errorf("failed to encode YAML family document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush YAML family document: %w", err)
	}
	return nil
}

// Read decodes r in the given format
func Read(r io.Reader, format Format) (*models.FamilyData, error) {
	switch format {
	case FormatJSON:
		return ReadJSON(r)
	case FormatYAML:
		return ReadYAML(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Write encodes data to w in the given format
func Write(w io.Writer, data *models.FamilyData, format Format) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, data)
	case FormatYAML:
		return WriteYAML(w, data)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// LoadFile reads a family document, choosing the format from the extension
func LoadFile(path string) (*models.FamilyData, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open family file %s: %w", path, err)
	}
	defer f.Close()

	data, err := Read(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

// SaveFile writes data next to path and renames it into place so readers never see a
// partial file
func SaveFile(path string, data *models.FamilyData) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, data, format); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move family file into place at %s: %w", path, err)
	}
	return nil
}

func fromFamilyData(data *models.FamilyData) document {
	if data == nil {
		data = models.NewFamilyData()
	}
	doc := document{
		Metadata: Metadata{
			Version:     data.Version,
			Created:     data.CreatedAt,
			Modified:    data.ModifiedAt,
			Description: data.Description,
		},
		Persons:   make([]models.Person, 0, data.PersonCount()),
		Marriages: make([]models.Marriage, 0, data.MarriageCount()),
	}
	for _, p := range data.Persons() {
		doc.Persons = append(doc.Persons, *p.Clone())
	}
	for _, m := range data.Marriages() {
		doc.Marriages = append(doc.Marriages, *m.Clone())
	}
	return doc
}

// toFamilyData validates every record in document order; the first bad one aborts
func (doc document) toFamilyData() (*models.FamilyData, error) {
	data := models.NewFamilyData()
	for i, raw := range doc.Persons {
		p, err := models.NewPerson(raw)
		if err != nil {
			return nil, fmt.Errorf("person %d: %w", i, err)
		}
		if !data.AddPerson(p) {
			return nil, fmt.Errorf("person %d: %w: %s", i, ErrDuplicateID, p.ID)
		}
	}
	for i, raw := range doc.Marriages {
		m, err := models.NewMarriage(raw)
		if err != nil {
			return nil, fmt.Errorf("marriage %d: %w", i, err)
		}
		if !data.AddMarriage(m) {
			return nil, fmt.Errorf("marriage %d: %w: %s", i, ErrDuplicateID, m.ID)
		}
	}

	if doc.Metadata.Version != "" {
		data.Version = doc.Metadata.Version
	}
	data.Description = doc.Metadata.Description
	if !doc.Metadata.Created.IsZero() {
		data.CreatedAt = doc.Metadata.Created
	}
	if !doc.Metadata.Modified.IsZero() {
		data.ModifiedAt = doc.Metadata.Modified
	}
	return data, nil
}
