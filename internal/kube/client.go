package kube

import (
	"context"
	"fmt"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// Client is the process-wide API handle. It is built once and never mutated.
type Client struct {
	Kube kubernetes.Interface
}

// ConnectionConfig selects how the API server is reached.
type ConnectionConfig struct {
	APIURL                string
	Token                 string
	CAFile                string
	InsecureSkipTLSVerify bool
	Kubeconfig            string
}

func NewClient(conn ConnectionConfig) (*Client, error) {
	cfg, err := restConfig(conn)
	if err != nil {
		return nil, err
	}

	kubeClient, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("create kube client: %w", err)
	}

	return &Client{Kube: kubeClient}, nil
}

func restConfig(conn ConnectionConfig) (*rest.Config, error) {
	if conn.APIURL == "" {
		// KUBECONFIG, ~/.kube/config, then the in-cluster service account.
		rules := clientcmd.NewDefaultClientConfigLoadingRules()
		if conn.Kubeconfig != "" {
			rules.ExplicitPath = conn.Kubeconfig
		}
		cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("load kubeconfig: %w", err)
		}
		return cfg, nil
	}

	if conn.Token == "" {
		return nil, fmt.Errorf("KUBE_TOKEN required when KUBE_API_URL is set")
	}

	return &rest.Config{
		Host:        conn.APIURL,
		BearerToken: conn.Token,
		TLSClientConfig: rest.TLSClientConfig{
			CAFile:   conn.CAFile,
			Insecure: conn.InsecureSkipTLSVerify,
		},
	}, nil
}

// Ping asks the API server for its version.
func (c *Client) Ping(ctx context.Context) error {
	rc := c.Kube.Discovery().RESTClient()
	if rc == nil {
		_, err := c.Kube.Discovery().ServerVersion()
		return err
	}
	return rc.Get().AbsPath("/version").Do(ctx).Error()
}
