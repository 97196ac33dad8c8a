package manifest

import (
	"fmt"
	"strings"
)

const branchPlaceholder = "{branch}"

// RenderImage substitutes the raw branch name into the image template.
// Image tags keep the branch casing; only resource names are lowered.
func RenderImage(template string, branch string) (string, error) {
	if template == "" {
		return "", fmt.Errorf("image template is empty")
	}
	if !strings.Contains(template, branchPlaceholder) {
		return "", fmt.Errorf("image template %q has no %s placeholder", template, branchPlaceholder)
	}
	return substituteBranch(template, branch), nil
}

func substituteBranch(template string, branch string) string {
	return strings.ReplaceAll(template, branchPlaceholder, branch)
}
