package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/yaml"

	"branch-deployer/internal/manifest"
)

func newRenderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the deployment, service and ingress for a branch as YAML",
		Args:  cobra.NoArgs,
		RunE:  runRender,
	}
	cmd.Flags().String("branch", "", "git branch name")
	cmd.Flags().String("git-hash", "", "commit hash recorded on the pods")
	_ = cmd.MarkFlagRequired("branch")
	return cmd
}

func runRender(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	branch, _ := cmd.Flags().GetString("branch")
	if branch == "" {
		return fmt.Errorf("--branch must not be empty")
	}
	gitHash, _ := cmd.Flags().GetString("git-hash")

	b := manifest.BranchContext{
		Namespace:  cfg.Namespace,
		BranchName: branch,
		GitHash:    gitHash,
		HasGitHash: cmd.Flags().Changed("git-hash"),
	}
	return writeYAML(cmd.OutOrStdout(), manifest.Objects(cfg.Flavor(), b, cfg.ManifestOptions()))
}

func writeYAML(w io.Writer, objects []runtime.Object) error {
	for i, obj := range objects {
		data, err := yaml.Marshal(obj)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", obj.GetObjectKind().GroupVersionKind().Kind, err)
		}
		if i > 0 {
			if _, err := io.WriteString(w, "---\n"); err != nil {
				return err
			}
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return nil
}
