package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/kubernetes"
	"k8s.io/utils/ptr"

	"github.com/NVIDIA/cluster-inventory/pkg/inventory"
	"github.com/NVIDIA/cluster-inventory/pkg/serializer"
)

const (
	// clusterRoleName matches the ClusterRole documented for the kube
	// collector; the deployed job runs with exactly those read permissions.
	clusterRoleName = "taxon-collector"

	containerName = "collector"
	dataMountPath = "/data"

	managedByLabel = "app.kubernetes.io/managed-by"
	managedByValue = "taxon"
)

// Config describes one in-cluster collection job.
type Config struct {
	// Namespace is where the job and its namespaced RBAC live.
	Namespace string

	// ServiceAccountName is the account the job runs as.
	ServiceAccountName string

	// JobName names the collection job. Reruns replace the previous job.
	JobName string

	// Image is the taxon image the job runs.
	Image string

	// Output is the cm://namespace/name URI the assembled report is
	// published to.
	Output string

	// ClusterName optionally overrides the cluster display name in the
	// collected records.
	ClusterName string

	NodeSelector map[string]string
	Tolerations  []corev1.Toleration
}

// Deployer manages the collection job and its RBAC in a target cluster.
type Deployer struct {
	clientset kubernetes.Interface
	cfg       Config
}

// NewDeployer creates a deployer using the given client.
func NewDeployer(clientset kubernetes.Interface, cfg Config) *Deployer {
	return &Deployer{clientset: clientset, cfg: cfg}
}

// Deploy creates the RBAC resources and the collection job. RBAC resources
// are created idempotently; the job is deleted and recreated so every run
// starts clean.
func (d *Deployer) Deploy(ctx context.Context) error {
	if d.cfg.Image == "" {
		return fmt.Errorf("agent image is required")
	}
	if !strings.HasPrefix(d.cfg.Output, serializer.ConfigMapURIScheme) {
		return fmt.Errorf("agent output must be a cm://namespace/name URI, got %q", d.cfg.Output)
	}

	if err := d.ensureServiceAccount(ctx); err != nil {
		return fmt.Errorf("failed to create ServiceAccount: %w", err)
	}
	if err := d.ensureRole(ctx); err != nil {
		return fmt.Errorf("failed to create Role: %w", err)
	}
	if err := d.ensureRoleBinding(ctx); err != nil {
		return fmt.Errorf("failed to create RoleBinding: %w", err)
	}
	if err := d.ensureClusterRole(ctx); err != nil {
		return fmt.Errorf("failed to create ClusterRole: %w", err)
	}
	if err := d.ensureClusterRoleBinding(ctx); err != nil {
		return fmt.Errorf("failed to create ClusterRoleBinding: %w", err)
	}
	if err := d.ensureJob(ctx); err != nil {
		return fmt.Errorf("failed to create Job: %w", err)
	}

	return nil
}

// WaitForCompletion blocks until the collection job reports a terminal
// condition or the timeout elapses.
func (d *Deployer) WaitForCompletion(ctx context.Context, timeout time.Duration) error {
	return wait.PollUntilContextTimeout(ctx, 5*time.Second, timeout, true, func(ctx context.Context) (bool, error) {
		job, err := d.clientset.BatchV1().Jobs(d.cfg.Namespace).Get(ctx, d.cfg.JobName, metav1.GetOptions{})
		if err != nil {
			return false, err
		}

		for _, cond := range job.Status.Conditions {
			if cond.Status != corev1.ConditionTrue {
				continue
			}
			switch cond.Type {
			case batchv1.JobComplete:
				return true, nil
			case batchv1.JobFailed:
				return false, fmt.Errorf("collection job failed: %s", cond.Message)
			}
		}
		return false, nil
	})
}

// GetReport fetches the report the job published to the output ConfigMap.
func (d *Deployer) GetReport(ctx context.Context) (*inventory.Report, error) {
	return serializer.FromConfigMap[inventory.Report](ctx, d.clientset, d.cfg.Output)
}

// CleanupOptions control what Cleanup removes.
type CleanupOptions struct {
	// RemoveRBAC also removes the ServiceAccount, Role, RoleBinding,
	// ClusterRole, and ClusterRoleBinding. Leave false when collections
	// run on a schedule and only the finished job should go.
	RemoveRBAC bool
}

// Cleanup removes the collection job and, optionally, its RBAC resources.
// Missing resources are not errors.
func (d *Deployer) Cleanup(ctx context.Context, opts CleanupOptions) error {
	policy := metav1.DeletePropagationBackground
	err := d.clientset.BatchV1().Jobs(d.cfg.Namespace).
		Delete(ctx, d.cfg.JobName, metav1.DeleteOptions{PropagationPolicy: &policy})
	if err != nil && !errors.IsNotFound(err) {
		return fmt.Errorf("failed to delete Job: %w", err)
	}

	if !opts.RemoveRBAC {
		return nil
	}

	if err := d.clientset.RbacV1().RoleBindings(d.cfg.Namespace).
		Delete(ctx, d.cfg.ServiceAccountName, metav1.DeleteOptions{}); err != nil && !errors.IsNotFound(err) {
		return fmt.Errorf("failed to delete RoleBinding: %w", err)
	}
	if err := d.clientset.RbacV1().Roles(d.cfg.Namespace).
		Delete(ctx, d.cfg.ServiceAccountName, metav1.DeleteOptions{}); err != nil && !errors.IsNotFound(err) {
		return fmt.Errorf("failed to delete Role: %w", err)
	}
	if err := d.clientset.CoreV1().ServiceAccounts(d.cfg.Namespace).
		Delete(ctx, d.cfg.ServiceAccountName, metav1.DeleteOptions{}); err != nil && !errors.IsNotFound(err) {
		return fmt.Errorf("failed to delete ServiceAccount: %w", err)
	}
	if err := d.clientset.RbacV1().ClusterRoleBindings().
		Delete(ctx, clusterRoleName, metav1.DeleteOptions{}); err != nil && !errors.IsNotFound(err) {
		return fmt.Errorf("failed to delete ClusterRoleBinding: %w", err)
	}
	if err := d.clientset.RbacV1().ClusterRoles().
		Delete(ctx, clusterRoleName, metav1.DeleteOptions{}); err != nil && !errors.IsNotFound(err) {
		return fmt.Errorf("failed to delete ClusterRole: %w", err)
	}

	return nil
}

func (d *Deployer) ensureServiceAccount(ctx context.Context) error {
	sa := &corev1.ServiceAccount{
		ObjectMeta: d.objectMeta(d.cfg.ServiceAccountName),
	}

	_, err := d.clientset.CoreV1().ServiceAccounts(d.cfg.Namespace).Create(ctx, sa, metav1.CreateOptions{})
	if errors.IsAlreadyExists(err) {
		return nil
	}
	return err
}

// ensureRole grants write access to the report ConfigMap in the job's
// namespace. The cluster-wide read permissions live in the ClusterRole.
func (d *Deployer) ensureRole(ctx context.Context) error {
	role := &rbacv1.Role{
		ObjectMeta: d.objectMeta(d.cfg.ServiceAccountName),
		Rules: []rbacv1.PolicyRule{
			{
				APIGroups: []string{""},
				Resources: []string{"configmaps"},
				Verbs:     []string{"get", "create", "update"},
			},
		},
	}

	_, err := d.clientset.RbacV1().Roles(d.cfg.Namespace).Create(ctx, role, metav1.CreateOptions{})
	if errors.IsAlreadyExists(err) {
		return nil
	}
	return err
}

func (d *Deployer) ensureRoleBinding(ctx context.Context) error {
	rb := &rbacv1.RoleBinding{
		ObjectMeta: d.objectMeta(d.cfg.ServiceAccountName),
		Subjects: []rbacv1.Subject{
			{
				Kind:      rbacv1.ServiceAccountKind,
				Name:      d.cfg.ServiceAccountName,
				Namespace: d.cfg.Namespace,
			},
		},
		RoleRef: rbacv1.RoleRef{
			APIGroup: rbacv1.GroupName,
			Kind:     "Role",
			Name:     d.cfg.ServiceAccountName,
		},
	}

	_, err := d.clientset.RbacV1().RoleBindings(d.cfg.Namespace).Create(ctx, rb, metav1.CreateOptions{})
	if errors.IsAlreadyExists(err) {
		return nil
	}
	return err
}

func (d *Deployer) ensureClusterRole(ctx context.Context) error {
	cr := &rbacv1.ClusterRole{
		ObjectMeta: metav1.ObjectMeta{
			Name:   clusterRoleName,
			Labels: map[string]string{managedByLabel: managedByValue},
		},
		Rules: []rbacv1.PolicyRule{
			{
				APIGroups: []string{""},
				Resources: []string{"nodes", "namespaces", "pods"},
				Verbs:     []string{"get", "list"},
			},
			{
				APIGroups: []string{"apps"},
				Resources: []string{"deployments", "replicasets"},
				Verbs:     []string{"get", "list"},
			},
		},
	}

	_, err := d.clientset.RbacV1().ClusterRoles().Create(ctx, cr, metav1.CreateOptions{})
	if errors.IsAlreadyExists(err) {
		return nil
	}
	return err
}

func (d *Deployer) ensureClusterRoleBinding(ctx context.Context) error {
	crb := &rbacv1.ClusterRoleBinding{
		ObjectMeta: metav1.ObjectMeta{
			Name:   clusterRoleName,
			Labels: map[string]string{managedByLabel: managedByValue},
		},
		Subjects: []rbacv1.Subject{
			{
				Kind:      rbacv1.ServiceAccountKind,
				Name:      d.cfg.ServiceAccountName,
				Namespace: d.cfg.Namespace,
			},
		},
		RoleRef: rbacv1.RoleRef{
			APIGroup: rbacv1.GroupName,
			Kind:     "ClusterRole",
			Name:     clusterRoleName,
		},
	}

	_, err := d.clientset.RbacV1().ClusterRoleBindings().Create(ctx, crb, metav1.CreateOptions{})
	if errors.IsAlreadyExists(err) {
		return nil
	}
	return err
}

// ensureJob replaces any previous collection job and creates a fresh one.
func (d *Deployer) ensureJob(ctx context.Context) error {
	jobs := d.clientset.BatchV1().Jobs(d.cfg.Namespace)

	policy := metav1.DeletePropagationBackground
	err := jobs.Delete(ctx, d.cfg.JobName, metav1.DeleteOptions{PropagationPolicy: &policy})
	if err != nil && !errors.IsNotFound(err) {
		return fmt.Errorf("failed to delete previous job: %w", err)
	}
	if err == nil {
		// The old job must be fully gone before the name can be reused.
		werr := wait.PollUntilContextTimeout(ctx, 500*time.Millisecond, 30*time.Second, true, func(ctx context.Context) (bool, error) {
			_, gerr := jobs.Get(ctx, d.cfg.JobName, metav1.GetOptions{})
			if errors.IsNotFound(gerr) {
				return true, nil
			}
			return false, nil
		})
		if werr != nil {
			return fmt.Errorf("previous job did not terminate: %w", werr)
		}
	}

	_, err = jobs.Create(ctx, d.jobSpec(), metav1.CreateOptions{})
	return err
}

// jobSpec builds the collection job: fetch from the local cluster into an
// emptyDir, assemble, and publish the report to the output ConfigMap.
func (d *Deployer) jobSpec() *batchv1.Job {
	clusterNameArg := ""
	if d.cfg.ClusterName != "" {
		clusterNameArg = fmt.Sprintf(" --cluster-name %s", d.cfg.ClusterName)
	}
	pipeline := fmt.Sprintf(
		"taxon fetch --source kube --output-dir %s%s && taxon assemble --input-dir %s --output %s",
		dataMountPath, clusterNameArg, dataMountPath, d.cfg.Output,
	)

	return &batchv1.Job{
		ObjectMeta: d.objectMeta(d.cfg.JobName),
		Spec: batchv1.JobSpec{
			BackoffLimit:            ptr.To[int32](1),
			TTLSecondsAfterFinished: ptr.To[int32](3600),
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: map[string]string{managedByLabel: managedByValue},
				},
				Spec: corev1.PodSpec{
					ServiceAccountName: d.cfg.ServiceAccountName,
					RestartPolicy:      corev1.RestartPolicyNever,
					NodeSelector:       d.cfg.NodeSelector,
					Tolerations:        d.cfg.Tolerations,
					Containers: []corev1.Container{
						{
							Name:    containerName,
							Image:   d.cfg.Image,
							Command: []string{"/bin/sh", "-c", pipeline},
							VolumeMounts: []corev1.VolumeMount{
								{Name: "data", MountPath: dataMountPath},
							},
						},
					},
					Volumes: []corev1.Volume{
						{
							Name: "data",
							VolumeSource: corev1.VolumeSource{
								EmptyDir: &corev1.EmptyDirVolumeSource{},
							},
						},
					},
				},
			},
		},
	}
}

func (d *Deployer) objectMeta(name string) metav1.ObjectMeta {
	return metav1.ObjectMeta{
		Name:      name,
		Namespace: d.cfg.Namespace,
		Labels:    map[string]string{managedByLabel: managedByValue},
	}
}
