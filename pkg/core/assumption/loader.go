package assumption

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"finmodel/pkg/core/utils"
)

// Document is one parsed assumptions file: company, model type, and the
// assumption blocks overlaid on the defaults for that model type.
type Document struct {
	Company   string             `json:"company" yaml:"company"`
	ModelType string             `json:"model_type" yaml:"model_type"`
	Operating CompanyAssumptions `json:"assumptions" yaml:"assumptions"`
	DCF       DCFAssumptions     `json:"dcf" yaml:"dcf"`
}

// Validate checks the blocks the document's model type consumes.
func (doc *Document) Validate() error {
	switch doc.ModelType {
	case "lbo":
		return doc.Operating.ValidateLBO()
	case "dcf":
		if err := doc.Operating.ValidateOperating(); err != nil {
			return err
		}
		return doc.DCF.Validate()
	default:
		return &InvalidAssumptionError{Field: "model_type", Reason: fmt.Sprintf("unknown model type %q", doc.ModelType)}
	}
}

// ParseDocument decodes a JSON or Hjson assumptions document. Absent keys
// keep their model-type defaults, so a document only states what differs.
func ParseDocument(data []byte) (*Document, error) {
	// First pass: just the model type, to pick the right defaults.
	var head struct {
		ModelType string `json:"model_type"`
	}
	if _, err := utils.SmartParse(string(data), &head); err != nil {
		return nil, fmt.Errorf("parse assumptions document: %w", err)
	}

	doc := defaultDocument(head.ModelType)
	if _, err := utils.SmartParse(string(data), doc); err != nil {
		return nil, fmt.Errorf("parse assumptions document: %w", err)
	}
	return doc, nil
}

// ParseYAMLDocument decodes a YAML assumptions document over the defaults.
func ParseYAMLDocument(data []byte) (*Document, error) {
	var head struct {
		ModelType string `yaml:"model_type"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parse assumptions document: %w", err)
	}

	doc := defaultDocument(head.ModelType)
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parse assumptions document: %w", err)
	}
	return doc, nil
}

// LoadDocument reads an assumptions file, dispatching on extension:
// .yaml/.yml parse as YAML, everything else goes through the lenient
// JSON/Hjson path.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read assumptions file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAMLDocument(data)
	default:
		return ParseDocument(data)
	}
}

func defaultDocument(modelType string) *Document {
	if modelType == "" {
		modelType = "lbo"
	}
	doc := &Document{
		ModelType: modelType,
		DCF:       DefaultDCF(),
	}
	if modelType == "dcf" {
		doc.Operating = DefaultDCFOperating()
	} else {
		doc.Operating = DefaultLBO()
	}
	return doc
}

// MarshalIndent renders the document back to pretty JSON, defaults included,
// so a run record always stores the complete effective input set.
func (doc *Document) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}
