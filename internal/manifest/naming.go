package manifest

const (
	deploymentPrefix = "etlrestservices"
	// servicePrefix intentionally lacks the trailing "s" of deploymentPrefix.
	// Existing ingresses route to services with this name, so it is kept.
	servicePrefix = "etlrestservice"
	ingressPrefix = "etl-ingress"

	serviceNamespace = "default"

	LabelService = "io.kompose.service"
	LabelGitHash = "githash"
)

func DeploymentName(b BranchContext) string {
	return deploymentPrefix + b.lowerBranch()
}

func ServiceName(b BranchContext) string {
	return servicePrefix + b.lowerBranch()
}

func IngressName(b BranchContext) string {
	return ingressPrefix + b.lowerBranch()
}

// IngressPath matches the branch prefix and captures the remainder for rewriting.
func IngressPath(b BranchContext) string {
	return "/" + b.lowerBranch() + "(/|$)(.*)"
}
