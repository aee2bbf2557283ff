package engine

// Policy gates which workspaces the engine acts in and which actions
// require human approval regardless of the registry's own flag.
type Policy struct {
	// AllowedWorkspaces limits action execution to these workspace ids.
	// Empty means any workspace in scope is allowed.
	AllowedWorkspaces map[string]bool
	// ForceApproval marks action names that always need approval.
	ForceApproval map[string]bool
}

// DefaultPolicy allows all scoped workspaces and defers approval
// decisions to each action's own flag.
func DefaultPolicy() Policy {
	return Policy{
		AllowedWorkspaces: nil,
		ForceApproval:     map[string]bool{},
	}
}

// WorkspaceAllowed reports whether the policy permits acting in the workspace.
func (p Policy) WorkspaceAllowed(workspaceID string) bool {
	if len(p.AllowedWorkspaces) == 0 {
		return true
	}
	return p.AllowedWorkspaces[workspaceID]
}

// RequiresApproval reports whether the action needs approval under this policy.
func (p Policy) RequiresApproval(a Action) bool {
	return a.NeedsApproval || p.ForceApproval[a.Name]
}
