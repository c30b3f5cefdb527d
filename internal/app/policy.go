package app

import (
	"net/http"

	"github.com/tourdesk/tourdesk/internal/platform/httpx"
	"github.com/tourdesk/tourdesk/internal/policy"
	"github.com/tourdesk/tourdesk/internal/shared"
)

type catalogueEntry struct {
	policy.Entry
	// Effective holds the rules after engine options are applied.
	Effective map[policy.Action]policy.Rule `json:"effective"`
}

// policyCatalogue serves the resource catalogue to admins.
func policyCatalogue(authz *shared.Authorizer) http.HandlerFunc {
	engine := authz.Engine()
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := shared.RequireActor(r.Context())
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		if err := authz.Authorize(r.Context(), actor, policy.ActionRead, policy.Policy, nil); err != nil {
			httpx.RespondError(w, err)
			return
		}
		entries := policy.Entries()
		out := make([]catalogueEntry, 0, len(entries))
		for _, entry := range entries {
			effective := make(map[policy.Action]policy.Rule, len(entry.Rules))
			for action := range entry.Rules {
				effective[action] = engine.Rule(entry.Type, action)
			}
			out = append(out, catalogueEntry{Entry: entry, Effective: effective})
		}
		httpx.JSON(w, http.StatusOK, map[string]any{
			"message":   "Policy catalogue retrieved",
			"resources": out,
		})
	}
}
