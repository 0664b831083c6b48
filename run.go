package fogonqa

import (
	"context"
	"io"
	"os"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"
)

// DefaultFeaturePath is where Run looks for feature files without explicit paths.
const DefaultFeaturePath = "features"

// Exit statuses of Run.
const (
	StatusPassed  = 0
	StatusFailed  = 1
	StatusInvalid = 2
)

type RunOptions struct {
	// Paths are feature files or directories.
	// Default: DefaultFeaturePath unless Features is set
	Paths []string
	// Features are in-memory feature files, run in addition to Paths.
	Features []godog.Feature
	// Format is a godog formatter name like "pretty", "progress" or "junit".
	// Default: pretty
	Format string
	// Tags filters scenarios with a tag expression like "@fogon && ~@wip".
	Tags string
	// Strict fails the run on pending and undefined steps.
	Strict bool
	// Output receives the formatter output.
	// Default: colored os.Stdout
	Output io.Writer
	// NoColors disables escape codes in the formatter output.
	NoColors bool
}

// Run executes the scenarios with the instance's dependencies and returns one of the
// Status constants. Start must have been called.
func (i *Instance) Run(ctx context.Context, opts RunOptions) int {
	paths := opts.Paths
	if len(paths) == 0 && len(opts.Features) == 0 {
		paths = []string{DefaultFeaturePath}
	}
	format := opts.Format
	if format == "" {
		format = "pretty"
	}
	output := opts.Output
	if output == nil {
		output = colors.Colored(os.Stdout)
	}

	return godog.TestSuite{
		Name:                 "fogonqa",
		TestSuiteInitializer: i.InitializeTestSuite,
		ScenarioInitializer:  i.InitializeScenario,
		Options: &godog.Options{
			Format:          format,
			Paths:           paths,
			Tags:            opts.Tags,
			Strict:          opts.Strict,
			Output:          output,
			NoColors:        opts.NoColors,
			FeatureContents: opts.Features,
			DefaultContext:  ctx,
		},
	}.Run()
}
