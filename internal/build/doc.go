// Package build runs page generation for pagegen projects.
//
// A run walks the pages directory, emits the route table and views, renders
// them as Go source or a JSON manifest, and writes the result. Optional
// steps publish the artifact to S3 and export run metrics to a textfile.
//
// Each stage (walk, emit, render, write, publish) runs in its own
// OpenTelemetry span and is timed in the stage_duration_seconds histogram.
// The context is checked between stages.
//
// # Usage
//
//	builder := build.New(cfg, build.Options{Metrics: metrics.New()})
//	result, err := builder.Build(ctx)
//	if err != nil {
//	    errors.PrintError(err)
//	    os.Exit(1)
//	}
//
//	fmt.Printf("Generated %d pages in %s\n", len(result.Pages), result.Duration)
//	fmt.Printf("Output: %s\n", result.Output)
//
// # Failure
//
// A run that fails before the write stage is all-or-nothing: the output
// file, the metrics textfile and the bucket are left untouched. Publishing
// happens last, after the output is in place. An output that already holds
// the rendered bytes is not rewritten, so its modification time only
// changes when the content does.
package build
