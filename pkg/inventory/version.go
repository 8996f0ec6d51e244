package inventory

const (
	// APIDomain is the API domain for inventory resources
	APIDomain = "inventory.nvidia.com"

	// APIVersion is the current API version for inventory resources
	APIVersion = "v1alpha1"

	// FullAPIVersion is the complete API version string
	FullAPIVersion = APIDomain + "/" + APIVersion

	// Kind is the resource kind for assembled inventory reports
	Kind = "CombinedInventory"
)
