package checks

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/PaesslerAG/jsonpath"

	"curator/pkg/curation"
)

// DefaultEventRepositoryPath selects the head repository of a pull request event.
const DefaultEventRepositoryPath = "$.pull_request.head.repo.full_name"

// RepositoryFromEvent reads a workflow event payload and extracts the
// repository selected by expr.
func RepositoryFromEvent(path, expr string) (curation.RepositoryID, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read event: %w", err)
	}
	var payload interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("decode event: %w", err)
	}
	return repositoryFromPayload(payload, expr)
}

func repositoryFromPayload(payload interface{}, expr string) (curation.RepositoryID, error) {
	if expr == "" {
		expr = DefaultEventRepositoryPath
	}
	value, err := jsonpath.Get(expr, payload)
	if err != nil {
		return "", fmt.Errorf("evaluate %s: %w", expr, err)
	}
	name, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("evaluate %s: expected a string, got %T", expr, value)
	}
	return curation.ParseRepositoryID(strings.TrimSpace(name))
}
