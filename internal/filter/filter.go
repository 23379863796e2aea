// Package filter evaluates configured expr rules against quests before
// reconciliation. A dropped quest is invisible to the rest of the run: it is
// neither notified on nor persisted.
package filter

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/nvbach/questwatch/internal/config"
	"github.com/nvbach/questwatch/internal/core"
)

type compiledRule struct {
	name    string
	program *vm.Program
	drop    bool
}

type Filter struct {
	rules []compiledRule
}

// New compiles the configured rules. An empty rule list yields a pass-through
// filter. Rules with result "pass" are kept for symmetry but never drop.
func New(rules []config.FilterRule) (*Filter, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		if r.Name == "" || r.Rule == "" {
			return nil, fmt.Errorf("filter name and rule are required")
		}
		program, err := expr.Compile(r.Rule, expr.Env(map[string]interface{}{}))
		if err != nil {
			return nil, fmt.Errorf("compile filter %q: %w", r.Name, err)
		}
		compiled = append(compiled, compiledRule{
			name:    r.Name,
			program: program,
			drop:    r.Result == "" || r.Result == "drop",
		})
	}
	return &Filter{rules: compiled}, nil
}

// Apply returns the quests that survive every rule, preserving input order.
// A rule that fails to evaluate is logged and skipped for that quest;
// evaluation errors never drop content.
func (f *Filter) Apply(ctx context.Context, quests []core.Quest) []core.Quest {
	if len(f.rules) == 0 {
		return quests
	}
	logger := core.LoggerFromContext(ctx)

	kept := make([]core.Quest, 0, len(quests))
	for _, quest := range quests {
		env := filterEnv(quest)
		dropped := false
		for _, rule := range f.rules {
			result, err := expr.Run(rule.program, env)
			if err != nil {
				logger.Error("filter rule failed", "rule", rule.name, "quest_id", quest.ID, "error", err)
				continue
			}
			matched, ok := result.(bool)
			if !ok {
				logger.Error("filter rule did not return bool", "rule", rule.name, "quest_id", quest.ID)
				continue
			}
			if matched && rule.drop {
				logger.Info("quest dropped by filter", "rule", rule.name, "quest_id", quest.ID)
				dropped = true
				break
			}
		}
		if !dropped {
			kept = append(kept, quest)
		}
	}
	return kept
}

func filterEnv(quest core.Quest) map[string]interface{} {
	return map[string]interface{}{
		"id":             quest.ID,
		"name":           quest.Name,
		"game_title":     quest.GameTitle,
		"game_publisher": quest.GamePublisher,
		"starts_at":      quest.StartsAt,
		"expires_at":     quest.ExpiresAt,
		"tasks": map[string]interface{}{
			"count": len(quest.Tasks),
		},
		"rewards": map[string]interface{}{
			"count": len(quest.Rewards),
		},
	}
}
