package inventory

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// EntityType identifies one of the five input collections.
type EntityType string

const (
	EntityClusters    EntityType = "clusters"
	EntityNodes       EntityType = "nodes"
	EntityNamespaces  EntityType = "namespaces"
	EntityDeployments EntityType = "deployments"
	EntityPods        EntityType = "pods"
)

// EntityTypes returns all entity types in assembly processing order.
func EntityTypes() []EntityType {
	return []EntityType{
		EntityClusters,
		EntityNodes,
		EntityNamespaces,
		EntityDeployments,
		EntityPods,
	}
}

func (e EntityType) String() string {
	return string(e)
}

// FileName returns the persistence file name for the entity's collection.
func (e EntityType) FileName() string {
	return string(e) + ".json"
}

// ParseEntityType parses a user-supplied entity name. Unknown names produce
// an error listing the valid names and, when the input is close to one of
// them, a suggestion.
func ParseEntityType(s string) (EntityType, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	for _, e := range EntityTypes() {
		if normalized == string(e) {
			return e, nil
		}
	}

	valid := make([]string, 0, 5)
	for _, e := range EntityTypes() {
		valid = append(valid, string(e))
	}

	if suggestion := suggestEntity(normalized); suggestion != "" {
		return "", fmt.Errorf("unknown entity type %q (did you mean %q?), valid types are: %s",
			s, suggestion, strings.Join(valid, ", "))
	}
	return "", fmt.Errorf("unknown entity type %q, valid types are: %s", s, strings.Join(valid, ", "))
}

// ParseEntityTypes parses a list of entity names, dropping duplicates while
// preserving first-seen order.
func ParseEntityTypes(names []string) ([]EntityType, error) {
	seen := make(map[EntityType]struct{}, len(names))
	out := make([]EntityType, 0, len(names))

	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		e, err := ParseEntityType(name)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}

	return out, nil
}

// suggestEntity returns the closest entity name within an edit distance of
// three, or empty when nothing is close enough to be a plausible typo.
func suggestEntity(input string) string {
	if input == "" {
		return ""
	}

	best := ""
	bestDistance := 4
	for _, e := range EntityTypes() {
		d := levenshtein.ComputeDistance(input, string(e))
		if d < bestDistance {
			best = string(e)
			bestDistance = d
		}
	}
	return best
}
