package serializer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	corev1 "k8s.io/api/core/v1"
	kerrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	k8sclient "github.com/NVIDIA/cluster-inventory/pkg/k8s/client"
	"gopkg.in/yaml.v3"
)

const (
	configMapJSONKey = "data.json"
	configMapYAMLKey = "data.yaml"

	managedByLabel = "app.kubernetes.io/managed-by"
	managedByValue = "taxon"
)

// parseConfigMapURI splits a cm://namespace/name URI into its parts.
func parseConfigMapURI(uri string) (namespace, name string, err error) {
	rest := strings.TrimPrefix(uri, ConfigMapURIScheme)
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid ConfigMap URI %q: expected cm://namespace/name", uri)
	}
	return parts[0], parts[1], nil
}

// configMapWriter serializes values into a Kubernetes ConfigMap, creating
// or updating it as needed. The table format degrades to YAML since a
// rendered table is not useful inside a ConfigMap.
type configMapWriter struct {
	format     Format
	namespace  string
	name       string
	kubeconfig string

	// client overrides discovery, used by tests.
	client kubernetes.Interface
}

func newConfigMapWriter(format Format, namespace, name, kubeconfig string) *configMapWriter {
	if format.IsUnknown() || format == FormatTable {
		format = FormatYAML
	}
	return &configMapWriter{
		format:     format,
		namespace:  namespace,
		name:       name,
		kubeconfig: kubeconfig,
	}
}

// Serialize marshals v and upserts it into the target ConfigMap under a
// single data key named for the format.
func (c *configMapWriter) Serialize(ctx context.Context, v any) error {
	var (
		data []byte
		key  string
		err  error
	)

	if c.format == FormatJSON {
		key = configMapJSONKey
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		key = configMapYAMLKey
		data, err = yaml.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to serialize for ConfigMap %s/%s: %w", c.namespace, c.name, err)
	}

	client, err := c.getClient()
	if err != nil {
		return err
	}

	cm, err := client.CoreV1().ConfigMaps(c.namespace).Get(ctx, c.name, metav1.GetOptions{})
	if kerrors.IsNotFound(err) {
		cm = &corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{
				Name:      c.name,
				Namespace: c.namespace,
				Labels:    map[string]string{managedByLabel: managedByValue},
			},
			Data: map[string]string{key: string(data)},
		}
		if _, cerr := client.CoreV1().ConfigMaps(c.namespace).Create(ctx, cm, metav1.CreateOptions{}); cerr != nil {
			return fmt.Errorf("failed to create ConfigMap %s/%s: %w", c.namespace, c.name, cerr)
		}
		slog.Debug("created ConfigMap", "namespace", c.namespace, "name", c.name, "key", key)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get ConfigMap %s/%s: %w", c.namespace, c.name, err)
	}

	if cm.Data == nil {
		cm.Data = make(map[string]string)
	}
	cm.Data[key] = string(data)
	if _, uerr := client.CoreV1().ConfigMaps(c.namespace).Update(ctx, cm, metav1.UpdateOptions{}); uerr != nil {
		return fmt.Errorf("failed to update ConfigMap %s/%s: %w", c.namespace, c.name, uerr)
	}
	slog.Debug("updated ConfigMap", "namespace", c.namespace, "name", c.name, "key", key)
	return nil
}

// Close implements Closer. ConfigMap writes hold no open resources.
func (c *configMapWriter) Close() error {
	return nil
}

func (c *configMapWriter) getClient() (kubernetes.Interface, error) {
	if c.client != nil {
		return c.client, nil
	}
	if c.kubeconfig != "" {
		client, _, err := k8sclient.BuildKubeClient(c.kubeconfig)
		return client, err
	}
	client, _, err := k8sclient.GetKubeClient()
	return client, err
}

// FromConfigMap loads a value of type T from a cm://namespace/name URI
// using the given client. For callers that already hold a clientset;
// FromFile handles discovery-based access.
func FromConfigMap[T any](ctx context.Context, client kubernetes.Interface, uri string) (*T, error) {
	namespace, name, err := parseConfigMapURI(uri)
	if err != nil {
		return nil, err
	}

	data, format, err := readConfigMapData(ctx, namespace, name, "", client)
	if err != nil {
		return nil, err
	}

	var out T
	if err := unmarshalAs(format, data, &out); err != nil {
		return nil, fmt.Errorf("failed to deserialize ConfigMap %s/%s: %w", namespace, name, err)
	}
	return &out, nil
}

// readConfigMapData fetches the serialized payload from a ConfigMap,
// preferring the YAML key over the JSON key.
func readConfigMapData(ctx context.Context, namespace, name, kubeconfig string, client kubernetes.Interface) ([]byte, Format, error) {
	if client == nil {
		var err error
		if kubeconfig != "" {
			client, _, err = k8sclient.BuildKubeClient(kubeconfig)
		} else {
			client, _, err = k8sclient.GetKubeClient()
		}
		if err != nil {
			return nil, "", err
		}
	}

	cm, err := client.CoreV1().ConfigMaps(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get ConfigMap %s/%s: %w", namespace, name, err)
	}

	if payload, ok := cm.Data[configMapYAMLKey]; ok {
		return []byte(payload), FormatYAML, nil
	}
	if payload, ok := cm.Data[configMapJSONKey]; ok {
		return []byte(payload), FormatJSON, nil
	}

	return nil, "", fmt.Errorf("ConfigMap %s/%s has no %s or %s key", namespace, name, configMapYAMLKey, configMapJSONKey)
}
