package manifest

import "strings"

// BranchContext identifies the environment a single deploy request targets.
type BranchContext struct {
	Namespace  string
	BranchName string
	GitHash    string
	// HasGitHash keeps the githash label even when GitHash is empty.
	HasGitHash bool
}

func (b BranchContext) lowerBranch() string {
	return strings.ToLower(b.BranchName)
}

// Options holds the values baked into every manifest that do not depend on the branch.
type Options struct {
	ImageTemplate    string
	ConfigMapName    string
	UploadsClaimName string
	Timezone         string
	Port             int32
}

// DefaultOptions mirrors the manifests the ETL services were first deployed with.
func DefaultOptions() Options {
	return Options{
		ImageTemplate:    "enyachoke/etl-services:{branch}",
		ConfigMapName:    "etl-config",
		UploadsClaimName: "etl-uploads-claim",
		Timezone:         "Africa/Nairobi",
		Port:             8002,
	}
}
