package static

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// LoadRoutes reads the route display-name table produced offline by
// cmd/routegen (route-mapping.json: route id -> display name).
func LoadRoutes(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read route mapping: %w", err)
	}

	routes := make(map[string]string)
	if err := json.Unmarshal(data, &routes); err != nil {
		return nil, fmt.Errorf("failed to parse route mapping: %w", err)
	}

	return routes, nil
}

// FileRoutes loads the route table from disk on every call
type FileRoutes struct {
	Path string
}

// Routes implements the pipeline's route source
func (f FileRoutes) Routes(ctx context.Context) (map[string]string, error) {
	return LoadRoutes(f.Path)
}
