package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/pressline/internal/content"
	"git.home.luguber.info/inful/pressline/internal/logfields"
	"git.home.luguber.info/inful/pressline/internal/metrics"
)

// branchOutcome is one branch's contribution to the join. Each goroutine
// writes only its own slot; the WaitGroup is the barrier.
type branchOutcome struct {
	Lang   content.Lang
	Result BranchResult
}

// runBranches executes one branch per language and waits for all of them.
// A failed branch never cancels its sibling; the join always sees every
// language, success or failure.
func (o *Orchestrator) runBranches(ctx context.Context, rec *RunRecord, window content.Window) []branchOutcome {
	outcomes := make([]branchOutcome, len(o.langs))
	var wg sync.WaitGroup
	for i, lang := range o.langs {
		wg.Add(1)
		go func(i int, lang content.Lang) {
			defer wg.Done()
			outcomes[i] = branchOutcome{Lang: lang, Result: o.runBranch(ctx, rec, lang, window)}
		}(i, lang)
	}
	wg.Wait()
	return outcomes
}

// runBranch generates the article and renders its thumbnail for one language.
// Render comes strictly after generate; a generate failure skips render.
func (o *Orchestrator) runBranch(ctx context.Context, rec *RunRecord, lang content.Lang, window content.Window) BranchResult {
	start := time.Now()
	item, err := o.generator.Generate(ctx, lang, rec.Request.IsDraft, window)
	o.recorder.ObserveStageDuration(StageGenerate, time.Since(start))
	if err != nil {
		o.logger.Warn("branch generate failed",
			logfields.RunID(rec.ID), logfields.Lang(string(lang)),
			logfields.Stage(StageGenerate), logfields.Error(err))
		return BranchResult{Failure: &BranchFailure{Stage: StageGenerate, Err: err}}
	}

	start = time.Now()
	_, err = o.renderer.Render(ctx, item)
	o.recorder.ObserveStageDuration(StageRender, time.Since(start))
	if err != nil {
		o.logger.Warn("branch render failed",
			logfields.RunID(rec.ID), logfields.Lang(string(lang)),
			logfields.Stage(StageRender), logfields.Error(err))
		return BranchResult{Failure: &BranchFailure{Stage: StageRender, Err: err}}
	}

	o.logger.Info("branch completed",
		logfields.RunID(rec.ID), logfields.Lang(string(lang)),
		logfields.ObjectKey(item.ContentKey),
		slog.Int("word_count", item.WordCount))
	return BranchResult{Item: &item}
}

// recordBranch folds one outcome into the run record, metrics and the bus.
func (o *Orchestrator) recordBranch(rec *RunRecord, out branchOutcome) {
	rec.SetBranchResult(out.Lang, out.Result)

	ev := BranchCompleted{ID: rec.ID, Lang: string(out.Lang), At: time.Now()}
	if out.Result.Failure != nil {
		ev.Stage = out.Result.Failure.Stage
		o.recorder.IncBranchResult(string(out.Lang), metrics.ResultFailed)
	} else {
		ev.Succeeded = true
		o.recorder.IncBranchResult(string(out.Lang), metrics.ResultSuccess)
	}
	o.publish(ev)
}
