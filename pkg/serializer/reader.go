package serializer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/cluster-inventory/pkg/defaults"
)

// FileReader reads a serialized document from a file.
type FileReader struct {
	format Format
	file   *os.File
	closed bool
}

// NewFileReader opens path for reading in the given format.
func NewFileReader(format Format, path string) (*FileReader, error) {
	if format.IsUnknown() {
		format = FormatFromPath(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}

	return &FileReader{format: format, file: f}, nil
}

// Deserialize decodes the file contents into v.
func (r *FileReader) Deserialize(v any) error {
	data, err := io.ReadAll(r.file)
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", r.file.Name(), err)
	}
	return unmarshalAs(r.format, data, v)
}

// Close releases the underlying file. Safe to call more than once.
func (r *FileReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}

// FromFile loads a value of type T from a file path, HTTP(S) URL, or
// cm://namespace/name ConfigMap URI.
func FromFile[T any](path string) (*T, error) {
	return FromFileWithKubeconfig[T](path, "")
}

// FromFileWithKubeconfig is FromFile with an explicit kubeconfig for
// ConfigMap sources.
func FromFileWithKubeconfig[T any](path, kubeconfig string) (*T, error) {
	data, format, err := readSource(context.Background(), path, kubeconfig)
	if err != nil {
		return nil, err
	}

	var out T
	if err := unmarshalAs(format, data, &out); err != nil {
		return nil, fmt.Errorf("failed to deserialize %q: %w", path, err)
	}
	return &out, nil
}

// readSource fetches raw bytes and the detected format from the given
// source identifier.
func readSource(ctx context.Context, path, kubeconfig string) ([]byte, Format, error) {
	switch {
	case strings.HasPrefix(path, ConfigMapURIScheme):
		namespace, name, err := parseConfigMapURI(path)
		if err != nil {
			return nil, "", err
		}
		return readConfigMapData(ctx, namespace, name, kubeconfig, nil)

	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return readURL(ctx, path)

	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %q: %w", path, err)
		}
		return data, FormatFromPath(path), nil
	}
}

func readURL(ctx context.Context, url string) ([]byte, Format, error) {
	ctx, cancel := context.WithTimeout(ctx, defaults.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build request for %q: %w", url, err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch %q: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to fetch %q: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response from %q: %w", url, err)
	}
	return data, FormatFromPath(url), nil
}

func unmarshalAs(format Format, data []byte, v any) error {
	if format == FormatYAML {
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to unmarshal yaml: %w", err)
		}
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal json: %w", err)
	}
	return nil
}
