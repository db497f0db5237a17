package assistant

import (
	"context"
	"errors"
	"time"

	"deephelper/internal/provider"
)

// pipeline binds a loaded model to the fixed generation parameters.
type pipeline struct {
	model  provider.Model
	params provider.Params
}

func newPipeline(m provider.Model, cfg Config) *pipeline {
	return &pipeline{
		model: m,
		params: provider.Params{
			MaxTokens:     MaxNewTokens,
			Temperature:   Temperature,
			DoSample:      true,
			RepeatPenalty: RepeatPenalty,
			NumReturn:     1,
			Stop:          []string{cfg.UserMarker},
		},
	}
}

// Generate returns the assistant's reply to message. It loads the model on
// first use and waits for admission when other chats are generating.
func (a *Assistant) Generate(ctx context.Context, message string) (string, error) {
	if message == "" {
		return "", ErrEmptyMessage
	}
	if err := a.EnsureLoaded(ctx); err != nil {
		generationsTotal.WithLabelValues("load_error").Inc()
		return "", err
	}
	release, err := a.admit(ctx)
	if err != nil {
		if IsTooBusy(err) {
			generationsTotal.WithLabelValues("busy").Inc()
		}
		return "", err
	}
	defer release()

	pipe := a.current()
	if pipe == nil {
		// Closed between load and admission.
		return "", &ModelLoadError{ModelID: a.cfg.ModelID, Err: errors.New("model closed")}
	}
	if a.cfg.ChatTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.ChatTimeout)
		defer cancel()
	}

	prompt := BuildPrompt(a.cfg.Persona, a.cfg.UserMarker, a.cfg.AssistantMarker, message)
	if a.cfg.CtxSize > 0 {
		toks, err := pipe.model.Tokenize(ctx, prompt)
		if err != nil {
			generationsTotal.WithLabelValues("error").Inc()
			return "", a.generationErr(ctx, err)
		}
		if len(toks)+MaxNewTokens > a.cfg.CtxSize {
			generationsTotal.WithLabelValues("too_long").Inc()
			return "", &PromptTooLongError{Tokens: len(toks), CtxSize: a.cfg.CtxSize}
		}
	}

	start := time.Now()
	res, err := pipe.model.Generate(ctx, prompt, pipe.params)
	generationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		generationsTotal.WithLabelValues("error").Inc()
		return "", a.generationErr(ctx, err)
	}
	completionTokens.Add(float64(res.CompletionTokens))

	reply := ExtractReply(prompt+res.Text, a.cfg.Persona, a.cfg.UserMarker, a.cfg.AssistantMarker)
	if reply == "" {
		generationsTotal.WithLabelValues("empty").Inc()
		a.log.Debug().Str("raw", res.Text).Msg("completion had no reply text")
		return "", &EmptyReplyError{Raw: res.Text}
	}
	generationsTotal.WithLabelValues("ok").Inc()
	a.log.Debug().
		Int("prompt_tokens", res.PromptTokens).
		Int("completion_tokens", res.CompletionTokens).
		Str("finish_reason", res.FinishReason).
		Dur("dur", time.Since(start)).
		Msg("generated reply")
	return reply, nil
}

// generationErr returns the context error when ctx is done, so timeouts and
// client aborts are not reported as provider failures.
func (a *Assistant) generationErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &GenerationError{Err: err}
}
