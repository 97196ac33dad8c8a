package manifest

import (
	"fmt"

	"k8s.io/apimachinery/pkg/runtime"
)

// Flavor selects which API groups the deployment and ingress are written for.
type Flavor string

const (
	// FlavorLegacy uses extensions/v1beta1 for deployments and ingresses.
	FlavorLegacy Flavor = "legacy"
	// FlavorStable uses apps/v1 and networking.k8s.io/v1.
	FlavorStable Flavor = "stable"
)

func ParseFlavor(raw string) (Flavor, error) {
	switch Flavor(raw) {
	case FlavorLegacy, FlavorStable:
		return Flavor(raw), nil
	default:
		return "", fmt.Errorf("unknown API flavor: %s", raw)
	}
}

// Objects returns the deployment, service and ingress for a branch, in that order.
func Objects(flavor Flavor, b BranchContext, opts Options) []runtime.Object {
	if flavor == FlavorStable {
		return []runtime.Object{
			BuildAppsDeployment(b, opts),
			BuildService(b, opts),
			BuildNetworkingIngress(b, opts),
		}
	}
	return []runtime.Object{
		BuildDeployment(b, opts),
		BuildService(b, opts),
		BuildIngress(b, opts),
	}
}
