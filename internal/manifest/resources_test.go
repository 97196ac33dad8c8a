package manifest

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	extensionsv1beta1 "k8s.io/api/extensions/v1beta1"
	networkingv1 "k8s.io/api/networking/v1"
)

func testBranch(branch string) BranchContext {
	return BranchContext{Namespace: "default", BranchName: branch, GitHash: "abc123"}
}

func TestBuildersDeterministic(t *testing.T) {
	opts := DefaultOptions()
	for _, branch := range []string{"main", "Feature-X", "release/2.1", ""} {
		b := testBranch(branch)
		if diff := cmp.Diff(BuildDeployment(b, opts), BuildDeployment(b, opts)); diff != "" {
			t.Errorf("deployment %q not deterministic (-first +second):\n%s", branch, diff)
		}
		if diff := cmp.Diff(BuildService(b, opts), BuildService(b, opts)); diff != "" {
			t.Errorf("service %q not deterministic (-first +second):\n%s", branch, diff)
		}
		if diff := cmp.Diff(BuildIngress(b, opts), BuildIngress(b, opts)); diff != "" {
			t.Errorf("ingress %q not deterministic (-first +second):\n%s", branch, diff)
		}
	}
}

func TestBranchCasing(t *testing.T) {
	b := testBranch("Feature-X")
	opts := DefaultOptions()

	deployment := BuildDeployment(b, opts)
	if deployment.Name != "etlrestservicesfeature-x" {
		t.Fatalf("unexpected deployment name %q", deployment.Name)
	}
	container := deployment.Spec.Template.Spec.Containers[0]
	if container.Name != "etlrestservicesfeature-x" {
		t.Fatalf("unexpected container name %q", container.Name)
	}
	if container.Image != "enyachoke/etl-services:Feature-X" {
		t.Fatalf("image tag must keep branch casing, got %q", container.Image)
	}

	service := BuildService(b, opts)
	if service.Name != "etlrestservicefeature-x" {
		t.Fatalf("unexpected service name %q", service.Name)
	}
	ingress := BuildIngress(b, opts)
	if ingress.Name != "etl-ingressfeature-x" {
		t.Fatalf("unexpected ingress name %q", ingress.Name)
	}

	for _, name := range []string{deployment.Name, service.Name, ingress.Name, IngressPath(b)} {
		if name != strings.ToLower(name) {
			t.Fatalf("derived name %q is not lower case", name)
		}
	}
}

func TestServiceSelectsDeploymentPods(t *testing.T) {
	opts := DefaultOptions()
	for _, branch := range []string{"main", "Feature-X", "HOTFIX"} {
		b := testBranch(branch)
		deployment := BuildDeployment(b, opts)
		service := BuildService(b, opts)

		got := service.Spec.Selector[LabelService]
		want := deployment.Spec.Template.Labels[LabelService]
		if got == "" || got != want {
			t.Fatalf("branch %q: service selects %q, pods carry %q", branch, got, want)
		}
		if deployment.Spec.Selector.MatchLabels[LabelService] != want {
			t.Fatalf("branch %q: deployment selector does not match its pods", branch)
		}
	}
}

func TestBuildIngress(t *testing.T) {
	ingress := BuildIngress(BranchContext{Namespace: "default", BranchName: "Feature-X", GitHash: "abc123"}, DefaultOptions())

	path := ingress.Spec.Rules[0].HTTP.Paths[0]
	if path.Path != "/feature-x(/|$)(.*)" {
		t.Fatalf("unexpected path %q", path.Path)
	}
	if path.Backend.ServiceName != "etlrestservicefeature-x" {
		t.Fatalf("unexpected backend service %q", path.Backend.ServiceName)
	}
	if path.Backend.ServicePort.IntValue() != 8002 {
		t.Fatalf("unexpected backend port %v", path.Backend.ServicePort)
	}
	if ingress.Annotations["ingress.kubernetes.io/rewrite-target"] != "/" {
		t.Fatalf("missing rewrite-target annotation: %v", ingress.Annotations)
	}
	if ingress.Namespace != "default" {
		t.Fatalf("unexpected namespace %q", ingress.Namespace)
	}
}

func TestBuildDeployment(t *testing.T) {
	deployment := BuildDeployment(testBranch("dev"), DefaultOptions())

	if deployment.Spec.Replicas == nil || *deployment.Spec.Replicas != 1 {
		t.Fatalf("expected exactly one replica")
	}
	if deployment.Spec.Template.Labels[LabelGitHash] != "abc123" {
		t.Fatalf("expected githash label, got %v", deployment.Spec.Template.Labels)
	}

	pod := deployment.Spec.Template.Spec
	if pod.RestartPolicy != corev1.RestartPolicyAlways {
		t.Fatalf("unexpected restart policy %q", pod.RestartPolicy)
	}
	wantVolumes := []corev1.Volume{
		{Name: "config-volume", VolumeSource: corev1.VolumeSource{
			ConfigMap: &corev1.ConfigMapVolumeSource{LocalObjectReference: corev1.LocalObjectReference{Name: "etl-config"}},
		}},
		{Name: "etl-uploads-claim", VolumeSource: corev1.VolumeSource{
			PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{ClaimName: "etl-uploads-claim"},
		}},
	}
	if diff := cmp.Diff(wantVolumes, pod.Volumes); diff != "" {
		t.Fatalf("volumes mismatch (-want +got):\n%s", diff)
	}

	container := pod.Containers[0]
	if container.ImagePullPolicy != corev1.PullAlways {
		t.Fatalf("unexpected pull policy %q", container.ImagePullPolicy)
	}
	if diff := cmp.Diff([]corev1.EnvVar{{Name: "TZ", Value: "Africa/Nairobi"}}, container.Env); diff != "" {
		t.Fatalf("env mismatch (-want +got):\n%s", diff)
	}
	if container.Ports[0].ContainerPort != 8002 {
		t.Fatalf("unexpected container port %d", container.Ports[0].ContainerPort)
	}
	wantMounts := []corev1.VolumeMount{
		{Name: "config-volume", MountPath: "/opt/etl/conf"},
		{Name: "etl-uploads-claim", MountPath: "/opt/etl/uploads"},
	}
	if diff := cmp.Diff(wantMounts, container.VolumeMounts); diff != "" {
		t.Fatalf("mounts mismatch (-want +got):\n%s", diff)
	}
}

func TestDeploymentWithoutGitHash(t *testing.T) {
	b := BranchContext{Namespace: "default", BranchName: "dev"}
	deployment := BuildDeployment(b, DefaultOptions())
	if _, ok := deployment.Spec.Template.Labels[LabelGitHash]; ok {
		t.Fatalf("githash label should be omitted when no hash is given")
	}
}

func TestDeploymentEmptyGitHashLabel(t *testing.T) {
	b := BranchContext{Namespace: "default", BranchName: "dev", HasGitHash: true}
	deployment := BuildDeployment(b, DefaultOptions())
	value, ok := deployment.Spec.Template.Labels[LabelGitHash]
	if !ok || value != "" {
		t.Fatalf("githash label = %q (present %v), want empty and present", value, ok)
	}
}

func TestServiceNamespaceFixed(t *testing.T) {
	b := BranchContext{Namespace: "previews", BranchName: "dev"}
	service := BuildService(b, DefaultOptions())
	if service.Namespace != "default" {
		t.Fatalf("expected default namespace, got %q", service.Namespace)
	}
	port := service.Spec.Ports[0]
	if port.Port != 8002 || port.TargetPort.IntValue() != 8002 || port.Protocol != corev1.ProtocolTCP {
		t.Fatalf("unexpected service port %+v", port)
	}
}

func TestStableFlavorMatchesLegacy(t *testing.T) {
	b := testBranch("Feature-X")
	opts := DefaultOptions()

	legacy := BuildDeployment(b, opts)
	stable := BuildAppsDeployment(b, opts)
	if diff := cmp.Diff(legacy.ObjectMeta, stable.ObjectMeta); diff != "" {
		t.Fatalf("deployment metadata differs (-legacy +stable):\n%s", diff)
	}
	if diff := cmp.Diff(legacy.Spec.Template, stable.Spec.Template); diff != "" {
		t.Fatalf("pod template differs (-legacy +stable):\n%s", diff)
	}

	ingress := BuildNetworkingIngress(b, opts)
	path := ingress.Spec.Rules[0].HTTP.Paths[0]
	if path.Path != "/feature-x(/|$)(.*)" {
		t.Fatalf("unexpected path %q", path.Path)
	}
	if path.Backend.Service.Name != ServiceName(b) || path.Backend.Service.Port.Number != 8002 {
		t.Fatalf("unexpected backend %+v", path.Backend.Service)
	}
	if path.PathType == nil || *path.PathType != networkingv1.PathTypeImplementationSpecific {
		t.Fatalf("expected ImplementationSpecific path type")
	}
}

func TestObjectsOrder(t *testing.T) {
	b := testBranch("dev")
	opts := DefaultOptions()

	legacy := Objects(FlavorLegacy, b, opts)
	if len(legacy) != 3 {
		t.Fatalf("expected 3 objects, got %d", len(legacy))
	}
	if _, ok := legacy[0].(*extensionsv1beta1.Deployment); !ok {
		t.Fatalf("expected legacy deployment first, got %T", legacy[0])
	}
	if _, ok := legacy[1].(*corev1.Service); !ok {
		t.Fatalf("expected service second, got %T", legacy[1])
	}
	if _, ok := legacy[2].(*extensionsv1beta1.Ingress); !ok {
		t.Fatalf("expected legacy ingress last, got %T", legacy[2])
	}

	stable := Objects(FlavorStable, b, opts)
	if _, ok := stable[0].(*appsv1.Deployment); !ok {
		t.Fatalf("expected apps/v1 deployment first, got %T", stable[0])
	}
	if _, ok := stable[2].(*networkingv1.Ingress); !ok {
		t.Fatalf("expected networking/v1 ingress last, got %T", stable[2])
	}
}

func TestDeploymentImageMatchesRenderImage(t *testing.T) {
	b := BranchContext{Namespace: "default", BranchName: "Feature-X"}
	opts := DefaultOptions()
	want, err := RenderImage(opts.ImageTemplate, b.BranchName)
	if err != nil {
		t.Fatalf("RenderImage: %v", err)
	}
	for _, image := range []string{
		BuildDeployment(b, opts).Spec.Template.Spec.Containers[0].Image,
		BuildAppsDeployment(b, opts).Spec.Template.Spec.Containers[0].Image,
	} {
		if image != want {
			t.Fatalf("image = %q, want %q", image, want)
		}
	}
}
