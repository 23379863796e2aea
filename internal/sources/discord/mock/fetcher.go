package mock

import (
	"context"

	"github.com/nvbach/questwatch/internal/core"
)

type Fetcher struct {
	Quests []core.Quest
	Err    error
	Calls  int
}

func (f *Fetcher) Fetch(ctx context.Context) ([]core.Quest, error) {
	_ = ctx
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Quests, nil
}
