/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/cluster-inventory/pkg/serializer"
)

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		want    serializer.Format
		wantErr bool
	}{
		{
			name:   "json",
			format: "json",
			want:   serializer.FormatJSON,
		},
		{
			name:   "yaml",
			format: "yaml",
			want:   serializer.FormatYAML,
		},
		{
			name:   "table",
			format: "table",
			want:   serializer.FormatTable,
		},
		{
			name:    "unknown format",
			format:  "xml",
			wantErr: true,
		},
		{
			name:    "empty format",
			format:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got serializer.Format
			var gotErr error

			cmd := &cli.Command{
				Name: "test",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					got, gotErr = parseOutputFormat(cmd)
					return nil
				},
			}

			args := []string{"test", "--format", tt.format}
			if err := cmd.Run(context.Background(), args); err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			if (gotErr != nil) != tt.wantErr {
				t.Errorf("parseOutputFormat() error = %v, wantErr %v", gotErr, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseOutputFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}
