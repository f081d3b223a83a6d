// Package pipeline runs the control-flow stages over every function of a
// module: CFG construction, dominators and structurizing.
package pipeline

import (
	stderrors "errors"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"shaderflow/internal/cfg"
	"shaderflow/internal/errors"
	"shaderflow/internal/ir"
	"shaderflow/internal/structure"
)

var log = commonlog.GetLogger("shaderflow.pipeline")

// Options controls how a module is processed
type Options struct {
	// Parallel is the number of functions processed at once. Values below 2
	// process functions one after another.
	Parallel int
}

// Result is the outcome for one function. CFG is nil when the graph could not
// be built; Tree is nil whenever Err is set. Blocks of CFG only carry a tree
// position when Tree is set.
type Result struct {
	Function *ir.Function
	CFG      *cfg.CFG
	Tree     *structure.Tree
	Err      error
}

// Run processes every function of module. Results keep the module's function
// order regardless of parallelism.
func Run(module *ir.Module, opts Options) []Result {
	results := make([]Result, len(module.Functions))

	if opts.Parallel < 2 || len(module.Functions) < 2 {
		for i, fn := range module.Functions {
			results[i] = RunFunction(fn)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(opts.Parallel)
	for i, fn := range module.Functions {
		g.Go(func() error {
			results[i] = RunFunction(fn)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// RunFunction builds the CFG of fn and structurizes it
func RunFunction(fn *ir.Function) Result {
	result := Result{Function: fn}

	g, err := cfg.Build(fn)
	if err != nil {
		log.Warningf("function %s: %s", fn.Name, err)
		result.Err = err
		return result
	}
	result.CFG = g

	tree, err := structure.Parse(g)
	if err != nil {
		log.Warningf("function %s: %s", fn.Name, err)
		result.Err = err
		return result
	}
	result.Tree = tree

	log.Debugf("function %s: %d blocks, %d nodes", fn.Name, g.NumBlocks(), tree.Len())
	return result
}

// Diagnostics converts the result into compiler diagnostics: the failure if
// any, then a warning per unreachable block.
func (r *Result) Diagnostics() []errors.CompilerError {
	var diags []errors.CompilerError

	if r.Err != nil {
		var compilerErr errors.CompilerError
		var translationErr *structure.TranslationError
		switch {
		case stderrors.As(r.Err, &compilerErr):
			diags = append(diags, compilerErr)
		case stderrors.As(r.Err, &translationErr):
			diags = append(diags, translationErr.Diagnostic())
		default:
			diags = append(diags, errors.NewDiagnostic("", r.Err.Error(), ir.Position{}).Build())
		}
	}

	if r.CFG != nil {
		for _, id := range r.CFG.Unreachable() {
			block := r.CFG.Block(id)
			diags = append(diags, errors.UnreachableBlock(block.Name, block.Pos))
		}
	}
	return diags
}

// Failed reports whether any function failed
func Failed(results []Result) bool {
	for i := range results {
		if results[i].Err != nil {
			return true
		}
	}
	return false
}

// Diagnostics collects the diagnostics of all results in order
func Diagnostics(results []Result) []errors.CompilerError {
	var diags []errors.CompilerError
	for i := range results {
		diags = append(diags, results[i].Diagnostics()...)
	}
	return diags
}
