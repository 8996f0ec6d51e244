// Package serializer provides format-aware writers and readers for inventory
// documents. Destinations include files, stdout, and Kubernetes ConfigMaps
// (cm://namespace/name URIs). Sources additionally include HTTP(S) URLs.
package serializer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Serializer serializes a value to its destination.
type Serializer interface {
	Serialize(ctx context.Context, v any) error
}

// Deserializer reads a value from its source.
type Deserializer interface {
	Deserialize(v any) error
}

// Closer is implemented by serializers that hold resources.
type Closer interface {
	Close() error
}

// SerializeCloser pairs Serialize with Close so callers can release the
// destination once done. Destinations without resources return a no-op Close.
type SerializeCloser interface {
	Serializer
	Closer
}

// Writer serializes values to an io.Writer in a configured format.
type Writer struct {
	format Format
	out    io.Writer

	// owned is set when the Writer opened the destination itself and is
	// responsible for closing it.
	owned  io.Closer
	closed bool
}

// NewWriter creates a Writer for the given format and destination.
// Unknown formats fall back to JSON so callers always get a usable writer.
func NewWriter(format Format, out io.Writer) *Writer {
	if format.IsUnknown() {
		format = FormatJSON
	}
	if out == nil {
		out = os.Stdout
	}
	return &Writer{
		format: format,
		out:    out,
	}
}

// NewStdoutWriter creates a Writer targeting stdout.
func NewStdoutWriter(format Format) *Writer {
	return NewWriter(format, os.Stdout)
}

// NewFileWriterOrStdout creates a Serializer for the given destination path.
// An empty path or StdoutURI targets stdout. Paths with the cm:// scheme
// target a Kubernetes ConfigMap. Anything else is created as a regular file.
func NewFileWriterOrStdout(format Format, path string) (SerializeCloser, error) {
	return NewFileWriterOrStdoutWithKubeconfig(format, path, "")
}

// NewFileWriterOrStdoutWithKubeconfig is NewFileWriterOrStdout with an
// explicit kubeconfig path for ConfigMap destinations.
func NewFileWriterOrStdoutWithKubeconfig(format Format, path, kubeconfig string) (SerializeCloser, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed == StdoutURI {
		return NewStdoutWriter(format), nil
	}

	if strings.HasPrefix(trimmed, ConfigMapURIScheme) {
		namespace, name, err := parseConfigMapURI(trimmed)
		if err != nil {
			return nil, err
		}
		return newConfigMapWriter(format, namespace, name, kubeconfig), nil
	}

	f, err := os.Create(trimmed)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file %q: %w", trimmed, err)
	}

	w := NewWriter(format, f)
	w.owned = f
	return w, nil
}

// Serialize encodes v in the writer's format.
func (w *Writer) Serialize(_ context.Context, v any) error {
	switch w.format {
	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to serialize to yaml: %w", err)
		}
		_, err = w.out.Write(data)
		return err
	case FormatTable:
		return renderTable(w.out, v)
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize to json: %w", err)
		}
		data = append(data, '\n')
		_, err = w.out.Write(data)
		return err
	}
}

// Close releases the destination when the Writer owns it.
// Calling Close more than once is safe.
func (w *Writer) Close() error {
	if w.closed || w.owned == nil {
		w.closed = true
		return nil
	}
	w.closed = true
	return w.owned.Close()
}

type tableRow struct {
	key   string
	value string
}

// renderTable writes a flattened FIELD/VALUE view of v. Nested structures
// flatten to dotted keys, slice elements to [i] indexes.
func renderTable(out io.Writer, v any) error {
	// Round-trip through JSON so struct tags and maps flatten uniformly.
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to flatten value: %w", err)
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("failed to flatten value: %w", err)
	}

	var rows []tableRow
	flattenValue("", generic, &rows)
	sort.Slice(rows, func(i, j int) bool { return rows[i].key < rows[j].key })

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tVALUE")

	if len(rows) == 0 {
		fmt.Fprintln(tw, "<empty>\t")
		return tw.Flush()
	}

	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", row.key, row.value)
	}
	return tw.Flush()
}

func flattenValue(prefix string, v any, rows *[]tableRow) {
	switch val := v.(type) {
	case map[string]any:
		if len(val) == 0 {
			return
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flattenValue(joinKey(prefix, k), val[k], rows)
		}
	case []any:
		for i, item := range val {
			flattenValue(fmt.Sprintf("%s[%d]", prefix, i), item, rows)
		}
	case nil:
		*rows = append(*rows, tableRow{key: prefix, value: "<nil>"})
	default:
		*rows = append(*rows, tableRow{key: prefix, value: fmt.Sprintf("%v", val)})
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
