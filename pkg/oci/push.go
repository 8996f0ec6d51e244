package oci

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"

	oras "oras.land/oras-go/v2"
	ocistore "oras.land/oras-go/v2/content/oci"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/retry"
)

// PushOptions configures the push to a remote registry.
type PushOptions struct {
	Registry   string
	Repository string
	Tag        string

	// PlainHTTP uses HTTP instead of HTTPS, for local registries.
	PlainHTTP bool

	// InsecureTLS skips TLS certificate verification.
	InsecureTLS bool
}

// PushResult describes the pushed artifact.
type PushResult struct {
	Reference string
	Digest    string
}

// PushFromStore pushes a previously packaged artifact from its local OCI
// layout to the remote registry. Credentials come from
// CENTRAL_REGISTRY_TOKEN when set; the push is anonymous otherwise.
func PushFromStore(ctx context.Context, storePath string, opts PushOptions) (*PushResult, error) {
	if err := ValidateRegistryReference(opts.Registry, opts.Repository); err != nil {
		return nil, err
	}
	if err := validateTag(opts.Registry, opts.Repository, opts.Tag); err != nil {
		return nil, err
	}

	src, err := ocistore.New(storePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open OCI layout at %s: %w", storePath, err)
	}

	repoRef := fmt.Sprintf("%s/%s", opts.Registry, opts.Repository)
	repo, err := remote.NewRepository(repoRef)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve repository %s: %w", repoRef, err)
	}
	repo.PlainHTTP = opts.PlainHTTP
	repo.Client = registryClient(opts)

	desc, err := oras.Copy(ctx, src, opts.Tag, repo, opts.Tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to push %s:%s: %w", repoRef, opts.Tag, err)
	}

	return &PushResult{
		Reference: fmt.Sprintf("%s:%s", repoRef, opts.Tag),
		Digest:    desc.Digest.String(),
	}, nil
}

func registryClient(opts PushOptions) *auth.Client {
	transport := http.DefaultTransport
	if opts.InsecureTLS {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	client := &auth.Client{
		Client: &http.Client{Transport: retry.NewTransport(transport)},
		Cache:  auth.NewCache(),
	}

	if token := os.Getenv("CENTRAL_REGISTRY_TOKEN"); token != "" {
		client.Credential = auth.StaticCredential(opts.Registry, auth.Credential{
			AccessToken: token,
		})
	}

	return client
}
