package inventory

import (
	"strings"
	"testing"
)

func TestParseEntityType(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		want        EntityType
		wantErr     bool
		wantInError string
	}{
		{name: "exact", input: "pods", want: EntityPods},
		{name: "mixed case", input: "Clusters", want: EntityClusters},
		{name: "surrounding whitespace", input: "  nodes ", want: EntityNodes},
		{name: "typo gets a suggestion", input: "podz", wantErr: true, wantInError: `did you mean "pods"`},
		{name: "singular gets a suggestion", input: "deployment", wantErr: true, wantInError: `did you mean "deployments"`},
		{name: "nothing close", input: "frobnicators", wantErr: true, wantInError: "valid types are"},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEntityType(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseEntityType(%q) error = nil, want error", tt.input)
				}
				if tt.wantInError != "" && !strings.Contains(err.Error(), tt.wantInError) {
					t.Errorf("ParseEntityType(%q) error = %q, want it to contain %q", tt.input, err, tt.wantInError)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEntityType(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseEntityType(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseEntityTypes(t *testing.T) {
	got, err := ParseEntityTypes([]string{"pods", "", "clusters", "pods", " nodes "})
	if err != nil {
		t.Fatalf("ParseEntityTypes() error = %v", err)
	}

	want := []EntityType{EntityPods, EntityClusters, EntityNodes}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ParseEntityTypes()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if _, err := ParseEntityTypes([]string{"pods", "bogus"}); err == nil {
		t.Error("ParseEntityTypes() with an unknown name: error = nil, want error")
	}
}

func TestEntityTypeFileName(t *testing.T) {
	if got := EntityDeployments.FileName(); got != "deployments.json" {
		t.Errorf("FileName() = %q, want %q", got, "deployments.json")
	}
}

func TestEntityTypesOrder(t *testing.T) {
	want := []EntityType{EntityClusters, EntityNodes, EntityNamespaces, EntityDeployments, EntityPods}
	got := EntityTypes()
	if len(got) != len(want) {
		t.Fatalf("EntityTypes() returned %d types, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("EntityTypes()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
