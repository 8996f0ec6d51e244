package agent

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/NVIDIA/cluster-inventory/pkg/inventory"
)

const testName = "taxon-agent"

func testConfig() Config {
	return Config{
		Namespace:          "test-namespace",
		ServiceAccountName: testName,
		JobName:            testName,
		Image:              "ghcr.io/nvidia/taxon:latest",
		Output:             "cm://test-namespace/inventory-report",
	}
}

func TestDeployer_EnsureRBAC(t *testing.T) {
	clientset := fake.NewClientset()
	config := testConfig()
	deployer := NewDeployer(clientset, config)
	ctx := context.Background()

	// Test ServiceAccount creation
	t.Run("create ServiceAccount", func(t *testing.T) {
		if err := deployer.ensureServiceAccount(ctx); err != nil {
			t.Fatalf("failed to create ServiceAccount: %v", err)
		}

		sa, err := clientset.CoreV1().ServiceAccounts(config.Namespace).
			Get(ctx, testName, metav1.GetOptions{})
		if err != nil {
			t.Fatalf("ServiceAccount not found: %v", err)
		}
		if sa.Name != testName {
			t.Errorf("expected SA name %q, got %q", testName, sa.Name)
		}
	})

	// Test Role creation
	t.Run("create Role", func(t *testing.T) {
		if err := deployer.ensureRole(ctx); err != nil {
			t.Fatalf("failed to create Role: %v", err)
		}

		role, err := clientset.RbacV1().Roles(config.Namespace).
			Get(ctx, testName, metav1.GetOptions{})
		if err != nil {
			t.Fatalf("Role not found: %v", err)
		}

		// Verify policy rules
		if len(role.Rules) != 1 {
			t.Fatalf("expected 1 rule, got %d", len(role.Rules))
		}

		// Check ConfigMap rule
		rule0 := role.Rules[0]
		if len(rule0.Resources) != 1 || rule0.Resources[0] != "configmaps" {
			t.Errorf("expected configmaps in first rule, got %v", rule0.Resources)
		}
		if !containsVerb(rule0.Verbs, "create") || !containsVerb(rule0.Verbs, "update") {
			t.Errorf("expected create/update verbs, got %v", rule0.Verbs)
		}
	})

	// Test RoleBinding creation
	t.Run("create RoleBinding", func(t *testing.T) {
		if err := deployer.ensureRoleBinding(ctx); err != nil {
			t.Fatalf("failed to create RoleBinding: %v", err)
		}

		rb, err := clientset.RbacV1().RoleBindings(config.Namespace).
			Get(ctx, testName, metav1.GetOptions{})
		if err != nil {
			t.Fatalf("RoleBinding not found: %v", err)
		}

		// Verify subjects
		if len(rb.Subjects) != 1 {
			t.Errorf("expected 1 subject, got %d", len(rb.Subjects))
		}
		if rb.Subjects[0].Name != testName {
			t.Errorf("expected subject name %q, got %q", testName, rb.Subjects[0].Name)
		}

		// Verify roleRef
		if rb.RoleRef.Name != testName {
			t.Errorf("expected roleRef name %q, got %q", testName, rb.RoleRef.Name)
		}
	})

	// Test ClusterRole creation
	t.Run("create ClusterRole", func(t *testing.T) {
		if err := deployer.ensureClusterRole(ctx); err != nil {
			t.Fatalf("failed to create ClusterRole: %v", err)
		}

		cr, err := clientset.RbacV1().ClusterRoles().
			Get(ctx, clusterRoleName, metav1.GetOptions{})
		if err != nil {
			t.Fatalf("ClusterRole not found: %v", err)
		}

		// Verify policy rules: core reads plus apps reads
		if len(cr.Rules) != 2 {
			t.Fatalf("expected 2 rules, got %d", len(cr.Rules))
		}
		if cr.Rules[0].Resources[0] != "nodes" {
			t.Errorf("expected nodes in first rule, got %v", cr.Rules[0].Resources)
		}
		if cr.Rules[1].APIGroups[0] != "apps" {
			t.Errorf("expected apps group in second rule, got %v", cr.Rules[1].APIGroups)
		}
		if !containsVerb(cr.Rules[0].Verbs, "list") || containsVerb(cr.Rules[0].Verbs, "create") {
			t.Errorf("expected read-only verbs, got %v", cr.Rules[0].Verbs)
		}
	})

	// Test ClusterRoleBinding creation
	t.Run("create ClusterRoleBinding", func(t *testing.T) {
		if err := deployer.ensureClusterRoleBinding(ctx); err != nil {
			t.Fatalf("failed to create ClusterRoleBinding: %v", err)
		}

		crb, err := clientset.RbacV1().ClusterRoleBindings().
			Get(ctx, clusterRoleName, metav1.GetOptions{})
		if err != nil {
			t.Fatalf("ClusterRoleBinding not found: %v", err)
		}

		// Verify subjects
		if len(crb.Subjects) != 1 {
			t.Errorf("expected 1 subject, got %d", len(crb.Subjects))
		}

		// Verify roleRef
		if crb.RoleRef.Name != clusterRoleName {
			t.Errorf("expected roleRef name %q, got %q", clusterRoleName, crb.RoleRef.Name)
		}
	})
}

func TestDeployer_EnsureRBAC_Idempotent(t *testing.T) {
	clientset := fake.NewClientset()
	config := testConfig()
	deployer := NewDeployer(clientset, config)
	ctx := context.Background()

	// Create resources twice - second call should be idempotent
	if err := deployer.ensureServiceAccount(ctx); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	if err := deployer.ensureServiceAccount(ctx); err != nil {
		t.Fatalf("second create failed (not idempotent): %v", err)
	}

	// Verify only one ServiceAccount exists
	saList, err := clientset.CoreV1().ServiceAccounts(config.Namespace).
		List(ctx, metav1.ListOptions{})
	if err != nil {
		t.Fatalf("failed to list ServiceAccounts: %v", err)
	}
	if len(saList.Items) != 1 {
		t.Errorf("expected 1 ServiceAccount, got %d", len(saList.Items))
	}
}

func TestDeployer_EnsureJob(t *testing.T) {
	clientset := fake.NewClientset()
	config := testConfig()
	config.ClusterName = "prod-east"
	config.NodeSelector = map[string]string{
		"nodeGroup": "system",
	}
	config.Tolerations = []corev1.Toleration{
		{
			Key:      "dedicated",
			Operator: corev1.TolerationOpEqual,
			Value:    "infra",
			Effect:   corev1.TaintEffectNoSchedule,
		},
	}
	deployer := NewDeployer(clientset, config)
	ctx := context.Background()

	t.Run("create Job", func(t *testing.T) {
		if err := deployer.ensureJob(ctx); err != nil {
			t.Fatalf("failed to create Job: %v", err)
		}

		job, err := clientset.BatchV1().Jobs(config.Namespace).
			Get(ctx, config.JobName, metav1.GetOptions{})
		if err != nil {
			t.Fatalf("Job not found: %v", err)
		}

		// Verify Job spec
		if job.Spec.Template.Spec.ServiceAccountName != config.ServiceAccountName {
			t.Errorf("expected ServiceAccountName %q, got %q",
				config.ServiceAccountName, job.Spec.Template.Spec.ServiceAccountName)
		}

		// The collector talks to the API server only; no host access
		if job.Spec.Template.Spec.HostPID {
			t.Error("expected HostPID to be false")
		}
		if job.Spec.Template.Spec.HostNetwork {
			t.Error("expected HostNetwork to be false")
		}
		if job.Spec.Template.Spec.HostIPC {
			t.Error("expected HostIPC to be false")
		}

		// Verify node selector
		if job.Spec.Template.Spec.NodeSelector["nodeGroup"] != "system" {
			t.Errorf("expected nodeGroup=system, got %v", job.Spec.Template.Spec.NodeSelector)
		}

		// Verify tolerations
		if len(job.Spec.Template.Spec.Tolerations) != 1 {
			t.Errorf("expected 1 toleration, got %d", len(job.Spec.Template.Spec.Tolerations))
		}

		// Verify container
		if len(job.Spec.Template.Spec.Containers) != 1 {
			t.Fatalf("expected 1 container, got %d", len(job.Spec.Template.Spec.Containers))
		}
		container := job.Spec.Template.Spec.Containers[0]
		if container.Image != config.Image {
			t.Errorf("expected image %q, got %q", config.Image, container.Image)
		}

		// Verify the collection pipeline
		pipeline := container.Command[len(container.Command)-1]
		if !strings.Contains(pipeline, "taxon fetch --source kube") {
			t.Errorf("expected fetch stage in command, got %q", pipeline)
		}
		if !strings.Contains(pipeline, "--cluster-name prod-east") {
			t.Errorf("expected cluster name override in command, got %q", pipeline)
		}
		if !strings.Contains(pipeline, config.Output) {
			t.Errorf("expected output URI in command, got %q", pipeline)
		}

		// Verify volumes
		if len(job.Spec.Template.Spec.Volumes) != 1 {
			t.Errorf("expected 1 volume, got %d", len(job.Spec.Template.Spec.Volumes))
		}
		if job.Spec.Template.Spec.Volumes[0].EmptyDir == nil {
			t.Error("expected an emptyDir volume")
		}
	})

	t.Run("recreate Job deletes old one", func(t *testing.T) {
		// Create Job first time
		if err := deployer.ensureJob(ctx); err != nil {
			t.Fatalf("first create failed: %v", err)
		}

		// Create Job second time - should delete and recreate
		if err := deployer.ensureJob(ctx); err != nil {
			t.Fatalf("second create failed: %v", err)
		}

		_, err := clientset.BatchV1().Jobs(config.Namespace).
			Get(ctx, config.JobName, metav1.GetOptions{})
		if err != nil {
			t.Errorf("Job should exist after recreate: %v", err)
		}
	})
}

func TestDeployer_Deploy(t *testing.T) {
	clientset := fake.NewClientset()
	config := testConfig()
	deployer := NewDeployer(clientset, config)
	ctx := context.Background()

	// Deploy should create all resources
	if err := deployer.Deploy(ctx); err != nil {
		t.Fatalf("Deploy() failed: %v", err)
	}

	// Verify ServiceAccount
	_, err := clientset.CoreV1().ServiceAccounts(config.Namespace).
		Get(ctx, testName, metav1.GetOptions{})
	if err != nil {
		t.Errorf("ServiceAccount not created: %v", err)
	}

	// Verify Role
	_, err = clientset.RbacV1().Roles(config.Namespace).
		Get(ctx, testName, metav1.GetOptions{})
	if err != nil {
		t.Errorf("Role not created: %v", err)
	}

	// Verify RoleBinding
	_, err = clientset.RbacV1().RoleBindings(config.Namespace).
		Get(ctx, testName, metav1.GetOptions{})
	if err != nil {
		t.Errorf("RoleBinding not created: %v", err)
	}

	// Verify ClusterRole
	_, err = clientset.RbacV1().ClusterRoles().
		Get(ctx, clusterRoleName, metav1.GetOptions{})
	if err != nil {
		t.Errorf("ClusterRole not created: %v", err)
	}

	// Verify ClusterRoleBinding
	_, err = clientset.RbacV1().ClusterRoleBindings().
		Get(ctx, clusterRoleName, metav1.GetOptions{})
	if err != nil {
		t.Errorf("ClusterRoleBinding not created: %v", err)
	}

	// Verify Job
	_, err = clientset.BatchV1().Jobs(config.Namespace).
		Get(ctx, config.JobName, metav1.GetOptions{})
	if err != nil {
		t.Errorf("Job not created: %v", err)
	}
}

func TestDeployer_Deploy_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing image", func(c *Config) { c.Image = "" }},
		{"file output rejected", func(c *Config) { c.Output = "/tmp/report.json" }},
		{"stdout output rejected", func(c *Config) { c.Output = "-" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testConfig()
			tt.mutate(&config)
			deployer := NewDeployer(fake.NewClientset(), config)

			if err := deployer.Deploy(context.Background()); err == nil {
				t.Error("Deploy() expected error, got nil")
			}
		})
	}
}

func TestDeployer_WaitForCompletion(t *testing.T) {
	config := testConfig()
	ctx := context.Background()

	newJobWithCondition := func(condType batchv1.JobConditionType, message string) *batchv1.Job {
		return &batchv1.Job{
			ObjectMeta: metav1.ObjectMeta{
				Name:      config.JobName,
				Namespace: config.Namespace,
			},
			Status: batchv1.JobStatus{
				Conditions: []batchv1.JobCondition{
					{Type: condType, Status: corev1.ConditionTrue, Message: message},
				},
			},
		}
	}

	t.Run("complete", func(t *testing.T) {
		clientset := fake.NewClientset(newJobWithCondition(batchv1.JobComplete, ""))
		deployer := NewDeployer(clientset, config)

		if err := deployer.WaitForCompletion(ctx, time.Minute); err != nil {
			t.Errorf("WaitForCompletion() error = %v, want nil", err)
		}
	})

	t.Run("failed", func(t *testing.T) {
		clientset := fake.NewClientset(newJobWithCondition(batchv1.JobFailed, "BackoffLimitExceeded"))
		deployer := NewDeployer(clientset, config)

		err := deployer.WaitForCompletion(ctx, time.Minute)
		if err == nil {
			t.Fatal("WaitForCompletion() expected error, got nil")
		}
		if !strings.Contains(err.Error(), "BackoffLimitExceeded") {
			t.Errorf("expected failure message in error, got %v", err)
		}
	})

	t.Run("times out while pending", func(t *testing.T) {
		job := &batchv1.Job{
			ObjectMeta: metav1.ObjectMeta{Name: config.JobName, Namespace: config.Namespace},
		}
		clientset := fake.NewClientset(job)
		deployer := NewDeployer(clientset, config)

		if err := deployer.WaitForCompletion(ctx, 50*time.Millisecond); err == nil {
			t.Error("WaitForCompletion() expected timeout error, got nil")
		}
	})
}

func TestDeployer_GetReport(t *testing.T) {
	config := testConfig()
	ctx := context.Background()

	report := inventory.NewReport(&inventory.Result{
		Clusters: inventory.CombinedInventory{},
		Stats:    inventory.Stats{Clusters: 2, Pods: 7},
	}, "test")
	payload, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("failed to marshal report: %v", err)
	}

	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "inventory-report",
			Namespace: "test-namespace",
		},
		Data: map[string]string{"data.json": string(payload)},
	}
	clientset := fake.NewClientset(cm)
	deployer := NewDeployer(clientset, config)

	got, err := deployer.GetReport(ctx)
	if err != nil {
		t.Fatalf("GetReport() failed: %v", err)
	}
	if got.Kind != inventory.Kind {
		t.Errorf("expected kind %q, got %q", inventory.Kind, got.Kind)
	}
	if got.Stats.Pods != 7 {
		t.Errorf("expected 7 pods in stats, got %d", got.Stats.Pods)
	}
}

func TestDeployer_GetReport_Missing(t *testing.T) {
	deployer := NewDeployer(fake.NewClientset(), testConfig())

	if _, err := deployer.GetReport(context.Background()); err == nil {
		t.Error("GetReport() expected error for missing ConfigMap, got nil")
	}
}

func TestDeployer_Cleanup(t *testing.T) {
	clientset := fake.NewClientset()
	config := testConfig()
	deployer := NewDeployer(clientset, config)
	ctx := context.Background()

	// Deploy first
	if err := deployer.Deploy(ctx); err != nil {
		t.Fatalf("Deploy() failed: %v", err)
	}

	// Cleanup without removing RBAC
	if err := deployer.Cleanup(ctx, CleanupOptions{RemoveRBAC: false}); err != nil {
		t.Fatalf("Cleanup() failed: %v", err)
	}

	// Job should be deleted
	_, err := clientset.BatchV1().Jobs(config.Namespace).
		Get(ctx, config.JobName, metav1.GetOptions{})
	if err == nil {
		t.Errorf("Job should be deleted")
	}

	// ServiceAccount should still exist
	_, err = clientset.CoreV1().ServiceAccounts(config.Namespace).
		Get(ctx, testName, metav1.GetOptions{})
	if err != nil {
		t.Errorf("ServiceAccount should still exist: %v", err)
	}

	// Cleanup with RBAC removal
	if cleanupErr := deployer.Cleanup(ctx, CleanupOptions{RemoveRBAC: true}); cleanupErr != nil {
		t.Fatalf("Cleanup() with RemoveRBAC failed: %v", cleanupErr)
	}

	// ServiceAccount should be deleted
	_, err = clientset.CoreV1().ServiceAccounts(config.Namespace).
		Get(ctx, testName, metav1.GetOptions{})
	if err == nil {
		t.Errorf("ServiceAccount should be deleted")
	}

	// ClusterRole should be deleted
	_, err = clientset.RbacV1().ClusterRoles().
		Get(ctx, clusterRoleName, metav1.GetOptions{})
	if err == nil {
		t.Errorf("ClusterRole should be deleted")
	}
}

// Helper function
func containsVerb(verbs []string, verb string) bool {
	for _, v := range verbs {
		if v == verb {
			return true
		}
	}
	return false
}
