package kube

import (
	"context"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	extensionsv1beta1 "k8s.io/api/extensions/v1beta1"
	networkingv1 "k8s.io/api/networking/v1"
)

const (
	KindDeployment = "deployment"
	KindService    = "service"
	KindIngress    = "ingress"
)

func (c *Client) ApplyExtensionsDeployment(ctx context.Context, namespace string, deployment *extensionsv1beta1.Deployment) (Outcome, error) {
	return Upsert[*extensionsv1beta1.Deployment](ctx, KindDeployment, c.Kube.ExtensionsV1beta1().Deployments(namespace), deployment)
}

func (c *Client) ApplyAppsDeployment(ctx context.Context, namespace string, deployment *appsv1.Deployment) (Outcome, error) {
	return Upsert[*appsv1.Deployment](ctx, KindDeployment, c.Kube.AppsV1().Deployments(namespace), deployment)
}

func (c *Client) ApplyService(ctx context.Context, namespace string, service *corev1.Service) (Outcome, error) {
	return Upsert[*corev1.Service](ctx, KindService, c.Kube.CoreV1().Services(namespace), service)
}

func (c *Client) ApplyExtensionsIngress(ctx context.Context, namespace string, ingress *extensionsv1beta1.Ingress) (Outcome, error) {
	return Upsert[*extensionsv1beta1.Ingress](ctx, KindIngress, c.Kube.ExtensionsV1beta1().Ingresses(namespace), ingress)
}

func (c *Client) ApplyNetworkingIngress(ctx context.Context, namespace string, ingress *networkingv1.Ingress) (Outcome, error) {
	return Upsert[*networkingv1.Ingress](ctx, KindIngress, c.Kube.NetworkingV1().Ingresses(namespace), ingress)
}
