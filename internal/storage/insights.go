package storage

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/hpc-brain/pkg/models"
)

// insightsDocument is the file shape produced by the advisory collaborator:
// a document with a top-level insights key. A bare list is also accepted.
type insightsDocument struct {
	Insights []models.InsightRecord `yaml:"insights"`
}

// ReadInsightsFile loads advisory insight records from a YAML file.
func ReadInsightsFile(path string) ([]models.InsightRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading insights file: %w", err)
	}

	var doc insightsDocument
	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc.Insights, nil
	}

	var bare []models.InsightRecord
	if err := yaml.Unmarshal(data, &bare); err != nil {
		return nil, fmt.Errorf("parsing insights file %s: %w", path, err)
	}
	return bare, nil
}
