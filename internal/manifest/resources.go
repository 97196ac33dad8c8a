package manifest

import (
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	extensionsv1beta1 "k8s.io/api/extensions/v1beta1"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
)

const (
	configVolumeName = "config-volume"
	configMountPath  = "/opt/etl/conf"
	uploadsMountPath = "/opt/etl/uploads"

	annotationRewriteTarget = "ingress.kubernetes.io/rewrite-target"
)

// SelectorLabels are shared by the deployment selector and the service selector.
func SelectorLabels(b BranchContext) map[string]string {
	return map[string]string{
		LabelService: DeploymentName(b),
	}
}

func podLabels(b BranchContext) map[string]string {
	labels := SelectorLabels(b)
	if b.GitHash != "" || b.HasGitHash {
		labels[LabelGitHash] = b.GitHash
	}
	return labels
}

func deploymentAnnotations() map[string]string {
	return map[string]string{
		"deployment.kubernetes.io/revision": "1",
		"kompose.cmd":                       "kompose convert",
		"kompose.version":                   "1.18.0 ()",
	}
}

func deploymentMeta(b BranchContext) metav1.ObjectMeta {
	return metav1.ObjectMeta{
		Name:        DeploymentName(b),
		Labels:      SelectorLabels(b),
		Annotations: deploymentAnnotations(),
	}
}

// BuildDeployment renders the branch deployment for the extensions/v1beta1 API.
func BuildDeployment(b BranchContext, opts Options) *extensionsv1beta1.Deployment {
	return &extensionsv1beta1.Deployment{
		TypeMeta:   metav1.TypeMeta{Kind: "Deployment", APIVersion: "extensions/v1beta1"},
		ObjectMeta: deploymentMeta(b),
		Spec: extensionsv1beta1.DeploymentSpec{
			Replicas: int32Ptr(1),
			Selector: &metav1.LabelSelector{MatchLabels: SelectorLabels(b)},
			Template: podTemplate(b, opts),
		},
	}
}

// BuildAppsDeployment renders the same deployment for the apps/v1 API.
func BuildAppsDeployment(b BranchContext, opts Options) *appsv1.Deployment {
	return &appsv1.Deployment{
		TypeMeta:   metav1.TypeMeta{Kind: "Deployment", APIVersion: "apps/v1"},
		ObjectMeta: deploymentMeta(b),
		Spec: appsv1.DeploymentSpec{
			Replicas: int32Ptr(1),
			Selector: &metav1.LabelSelector{MatchLabels: SelectorLabels(b)},
			Template: podTemplate(b, opts),
		},
	}
}

func podTemplate(b BranchContext, opts Options) corev1.PodTemplateSpec {
	return corev1.PodTemplateSpec{
		ObjectMeta: metav1.ObjectMeta{Labels: podLabels(b)},
		Spec: corev1.PodSpec{
			Volumes: []corev1.Volume{
				{
					Name: configVolumeName,
					VolumeSource: corev1.VolumeSource{
						ConfigMap: &corev1.ConfigMapVolumeSource{
							LocalObjectReference: corev1.LocalObjectReference{Name: opts.ConfigMapName},
						},
					},
				},
				{
					Name: opts.UploadsClaimName,
					VolumeSource: corev1.VolumeSource{
						PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{
							ClaimName: opts.UploadsClaimName,
						},
					},
				},
			},
			Containers: []corev1.Container{
				{
					Name:  DeploymentName(b),
					Image: imageRef(opts, b),
					Ports: []corev1.ContainerPort{
						{ContainerPort: opts.Port, Protocol: corev1.ProtocolTCP},
					},
					Env: []corev1.EnvVar{
						{Name: "TZ", Value: opts.Timezone},
					},
					VolumeMounts: []corev1.VolumeMount{
						{Name: configVolumeName, MountPath: configMountPath},
						{Name: opts.UploadsClaimName, MountPath: uploadsMountPath},
					},
					ImagePullPolicy: corev1.PullAlways,
				},
			},
			RestartPolicy: corev1.RestartPolicyAlways,
		},
	}
}

// BuildService renders the branch service. Its metadata namespace is always
// "default" regardless of the namespace the deploy targets.
func BuildService(b BranchContext, opts Options) *corev1.Service {
	return &corev1.Service{
		TypeMeta: metav1.TypeMeta{Kind: "Service", APIVersion: "v1"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      ServiceName(b),
			Namespace: serviceNamespace,
		},
		Spec: corev1.ServiceSpec{
			Ports: []corev1.ServicePort{
				{
					Protocol:   corev1.ProtocolTCP,
					Port:       opts.Port,
					TargetPort: intstr.FromInt32(opts.Port),
				},
			},
			Selector: SelectorLabels(b),
		},
	}
}

func ingressMeta(b BranchContext) metav1.ObjectMeta {
	return metav1.ObjectMeta{
		Name:      IngressName(b),
		Namespace: serviceNamespace,
		Annotations: map[string]string{
			annotationRewriteTarget: "/",
		},
	}
}

// BuildIngress renders the path-prefixed route for the extensions/v1beta1 API.
func BuildIngress(b BranchContext, opts Options) *extensionsv1beta1.Ingress {
	return &extensionsv1beta1.Ingress{
		TypeMeta:   metav1.TypeMeta{Kind: "Ingress", APIVersion: "extensions/v1beta1"},
		ObjectMeta: ingressMeta(b),
		Spec: extensionsv1beta1.IngressSpec{
			Rules: []extensionsv1beta1.IngressRule{
				{
					IngressRuleValue: extensionsv1beta1.IngressRuleValue{
						HTTP: &extensionsv1beta1.HTTPIngressRuleValue{
							Paths: []extensionsv1beta1.HTTPIngressPath{
								{
									Path: IngressPath(b),
									Backend: extensionsv1beta1.IngressBackend{
										ServiceName: ServiceName(b),
										ServicePort: intstr.FromInt32(opts.Port),
									},
								},
							},
						},
					},
				},
			},
		},
	}
}

// BuildNetworkingIngress renders the same route for the networking.k8s.io/v1 API.
func BuildNetworkingIngress(b BranchContext, opts Options) *networkingv1.Ingress {
	pathType := networkingv1.PathTypeImplementationSpecific
	return &networkingv1.Ingress{
		TypeMeta:   metav1.TypeMeta{Kind: "Ingress", APIVersion: "networking.k8s.io/v1"},
		ObjectMeta: ingressMeta(b),
		Spec: networkingv1.IngressSpec{
			Rules: []networkingv1.IngressRule{
				{
					IngressRuleValue: networkingv1.IngressRuleValue{
						HTTP: &networkingv1.HTTPIngressRuleValue{
							Paths: []networkingv1.HTTPIngressPath{
								{
									Path:     IngressPath(b),
									PathType: &pathType,
									Backend: networkingv1.IngressBackend{
										Service: &networkingv1.IngressServiceBackend{
											Name: ServiceName(b),
											Port: networkingv1.ServiceBackendPort{Number: opts.Port},
										},
									},
								},
							},
						},
					},
				},
			},
		},
	}
}

func imageRef(opts Options, b BranchContext) string {
	return substituteBranch(opts.ImageTemplate, b.BranchName)
}

func int32Ptr(value int32) *int32 {
	return &value
}
