package runner

import (
	"context"

	"github.com/yusufsyaifudin/migtest/pkg/command"
)

// interceptDirectives wraps the caller hook so the revision command always stops after the
// directives are computed. The caller hook runs first; its error, if any, is returned as is.
func interceptDirectives(fn command.DirectivesHook) command.DirectivesHook {
	return func(ctx context.Context, rc command.RevisionContext, directives *command.Directives) (command.HookResult, error) {
		if fn != nil {
			if _, err := fn(ctx, rc, directives); err != nil {
				return command.Cancel, err
			}
		}

		return command.Cancel, nil
	}
}
