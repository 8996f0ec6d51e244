// Package oci packages inventory reports as OCI artifacts and pushes them
// to container registries.
package oci

import (
	"fmt"

	"github.com/distribution/reference"
)

// ValidateRegistryReference checks that registry and repository form a
// valid OCI reference before any network use.
func ValidateRegistryReference(registry, repository string) error {
	if registry == "" {
		return fmt.Errorf("registry is required")
	}
	if repository == "" {
		return fmt.Errorf("repository is required")
	}

	ref := fmt.Sprintf("%s/%s", registry, repository)
	if _, err := reference.ParseNamed(ref); err != nil {
		return fmt.Errorf("invalid registry reference %q: %w", ref, err)
	}
	return nil
}

// validateTag checks that tag is a valid OCI tag.
func validateTag(registry, repository, tag string) error {
	if tag == "" {
		return fmt.Errorf("tag is required")
	}

	named, err := reference.ParseNamed(fmt.Sprintf("%s/%s", registry, repository))
	if err != nil {
		return fmt.Errorf("invalid registry reference: %w", err)
	}
	if _, err := reference.WithTag(named, tag); err != nil {
		return fmt.Errorf("invalid tag %q: %w", tag, err)
	}
	return nil
}
