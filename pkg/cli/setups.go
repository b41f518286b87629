package cli

import (
	"github.com/getmockd/mocket/pkg/config"
	"github.com/getmockd/mocket/pkg/setup"
)

// loadedSetups is the outcome of loading and compiling mock files.
type loadedSetups struct {
	Registries *setup.Registries
	Sources    []config.Source
	Result     config.Result
}

// loadSetups loads every pattern and compiles the files into frozen
// registries. No patterns yields empty registries.
func loadSetups(patterns []string) (*loadedSetups, error) {
	out := &loadedSetups{}
	b := setup.NewBuilder()

	if len(patterns) > 0 {
		sources, err := config.Load(patterns, "")
		if err != nil {
			return nil, err
		}
		res, err := config.Compile(b, sources)
		if err != nil {
			return nil, err
		}
		out.Sources = sources
		out.Result = res
	}

	regs, err := b.Build()
	if err != nil {
		return nil, err
	}
	out.Registries = regs
	return out, nil
}
